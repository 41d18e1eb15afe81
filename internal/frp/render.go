package frp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"frpengine/internal/llmtool"
	"frpengine/internal/types"
)

const narrativeInputLimit = 500

// Render formats a finished analysis. The empty format renders as structured.
func Render(a *types.FRPAnalysis, format types.OutputFormat) (string, error) {
	if a == nil {
		return "", &ValidationError{Field: "analysis", Reason: "nil"}
	}
	switch format {
	case "", types.FormatStructured:
		raw, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return "", fmt.Errorf("frp: encode analysis: %w", err)
		}
		return string(raw), nil
	case types.FormatNarrative:
		return renderNarrative(a), nil
	case types.FormatCompact:
		return renderCompact(a), nil
	default:
		return "", &ConfigurationError{Reason: fmt.Sprintf("unknown output format %q", format)}
	}
}

func renderNarrative(a *types.FRPAnalysis) string {
	var b strings.Builder
	b.WriteString("# Fractal Reasoning Analysis\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", a.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Domain:** %s\n\n", domainLabel(a.DomainContext.Domain))
	if a.DomainContext.SubDomain != "" {
		fmt.Fprintf(&b, "**Sub-domain:** %s\n\n", a.DomainContext.SubDomain)
	}
	if a.DomainContext.Jurisdiction != "" {
		fmt.Fprintf(&b, "**Jurisdiction:** %s\n\n", a.DomainContext.Jurisdiction)
	}
	fmt.Fprintf(&b, "## Analysis Question\n\n%s\n\n", a.Question)
	fmt.Fprintf(&b, "## Input Material\n\n%s\n\n", llmtool.Fence(truncateRunes(a.InputText, narrativeInputLimit)))
	b.WriteString("---\n\n")

	for _, lvl := range a.Levels {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", lvl.Title, lvl.Content)
		if lvl.Metadata != nil && len(lvl.Metadata.KeyInsights) > 0 {
			b.WriteString("**Key Insights:**\n")
			b.WriteString(llmtool.List(lvl.Metadata.KeyInsights))
			b.WriteString("\n\n")
		}
		b.WriteString("---\n\n")
	}
	if a.Metadata != nil && a.Metadata.QualityScore != nil {
		fmt.Fprintf(&b, "_Quality score: %.2f_\n", *a.Metadata.QualityScore)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderCompact(a *types.FRPAnalysis) string {
	var b strings.Builder
	for _, lvl := range a.Levels {
		fmt.Fprintf(&b, "%s %s: %s\n", lvl.Level, lvl.Title, FirstSentence(lvl.Content))
	}
	return b.String()
}

// FirstSentence returns the first prose sentence of content, skipping
// bullet and heading lines.
func FirstSentence(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if _, ok := bulletText(trimmed); ok {
			continue
		}
		runes := []rune(trimmed)
		for i, r := range runes {
			if (r == '.' || r == '!' || r == '?') && (i == len(runes)-1 || unicode.IsSpace(runes[i+1])) {
				return string(runes[:i+1])
			}
		}
		return trimmed
	}
	return ""
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
