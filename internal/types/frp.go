package types

import (
	"strings"
	"time"
)

// Domain names the analytical domain that conditions level guidance.
type Domain string

const (
	DomainLegal          Domain = "legal"
	DomainCompliance     Domain = "compliance"
	DomainAudit          Domain = "audit"
	DomainRisk           Domain = "risk"
	DomainDueDiligence   Domain = "due_diligence"
	DomainConstitutional Domain = "constitutional"
	DomainPolitical      Domain = "political"
)

// Domains lists the recognized domains in declaration order.
var Domains = []Domain{
	DomainLegal,
	DomainCompliance,
	DomainAudit,
	DomainRisk,
	DomainDueDiligence,
	DomainConstitutional,
	DomainPolitical,
}

// Known reports whether d is one of the recognized domains.
func (d Domain) Known() bool {
	for _, k := range Domains {
		if d == k {
			return true
		}
	}
	return false
}

// DomainContext is classification metadata passed by value into every level.
type DomainContext struct {
	Domain            Domain         `json:"domain" yaml:"domain" mapstructure:"domain"`
	SubDomain         string         `json:"sub_domain,omitempty" yaml:"sub_domain,omitempty" mapstructure:"sub_domain"`
	Jurisdiction      string         `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty" mapstructure:"jurisdiction"`
	Industry          string         `json:"industry,omitempty" yaml:"industry,omitempty" mapstructure:"industry"`
	AdditionalContext map[string]any `json:"additional_context,omitempty" yaml:"additional_context,omitempty" mapstructure:"additional_context"`
}

// Level identifies one of the five ordered reasoning levels.
type Level string

const (
	L1 Level = "L1"
	L2 Level = "L2"
	L3 Level = "L3"
	L4 Level = "L4"
	L5 Level = "L5"
)

// AllLevels is the total order L1 < L2 < L3 < L4 < L5.
var AllLevels = []Level{L1, L2, L3, L4, L5}

// Ordinal returns the 1-based position of l, or 0 for an unrecognized level.
func (l Level) Ordinal() int {
	for i, k := range AllLevels {
		if l == k {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether l is one of L1..L5.
func (l Level) Valid() bool { return l.Ordinal() > 0 }

// Before returns every level strictly before l in the total order.
func (l Level) Before() []Level {
	n := l.Ordinal()
	if n <= 1 {
		return nil
	}
	out := make([]Level, n-1)
	copy(out, AllLevels[:n-1])
	return out
}

// ParseLevel accepts "L3", "l3" or "3".
func ParseLevel(s string) (Level, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 {
		s = "L" + s
	}
	l := Level(s)
	return l, l.Valid()
}

// LevelMetadata is the read-only registry entry for a level.
type LevelMetadata struct {
	Level         Level    `json:"level"`
	Title         string   `json:"title"`
	Objective     string   `json:"objective"`
	TypicalLength string   `json:"typical_length"`
	MinSentences  int      `json:"min_sentences"`
	MaxSentences  int      `json:"max_sentences"`
	FocusAreas    []string `json:"focus_areas"`
}

// LevelOutputMetadata holds optional per-level details.
type LevelOutputMetadata struct {
	ReasoningSteps string   `json:"reasoning_steps,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	KeyInsights    []string `json:"key_insights,omitempty"`
	PromptLength   int      `json:"prompt_length,omitempty"`
	ResponseLength int      `json:"response_length,omitempty"`
	Resumed        bool     `json:"resumed,omitempty"`
}

// LevelOutput is the captured result of one level. It is never edited once
// appended to an analysis.
type LevelOutput struct {
	Level    Level                `json:"level"`
	Title    string               `json:"title"`
	Content  string               `json:"content"`
	Metadata *LevelOutputMetadata `json:"metadata,omitempty"`
}

// AnalysisMetadata holds optional run details.
type AnalysisMetadata struct {
	TotalReasoningTimeMS int64    `json:"total_reasoning_time_ms,omitempty"`
	ModelUsed            string   `json:"model_used,omitempty"`
	QualityScore         *float64 `json:"quality_score,omitempty"`
	LevelsExecuted       []Level  `json:"levels_executed,omitempty"`
}

// FRPAnalysis is the aggregate record returned to callers. Levels are
// strictly ascending with no duplicates.
type FRPAnalysis struct {
	InputText     string            `json:"input_text"`
	Question      string            `json:"question"`
	DomainContext DomainContext     `json:"domain_context"`
	Levels        []LevelOutput     `json:"levels"`
	Timestamp     time.Time         `json:"timestamp"`
	Metadata      *AnalysisMetadata `json:"metadata,omitempty"`
}

// Level returns the captured output for l, if present.
func (a *FRPAnalysis) Level(l Level) (LevelOutput, bool) {
	if a == nil {
		return LevelOutput{}, false
	}
	for _, out := range a.Levels {
		if out.Level == l {
			return out, true
		}
	}
	return LevelOutput{}, false
}

// OutputFormat selects how a finished analysis is rendered.
type OutputFormat string

const (
	FormatStructured OutputFormat = "structured"
	FormatNarrative  OutputFormat = "narrative"
	FormatCompact    OutputFormat = "compact"
)

// Valid reports whether f is a known format. The empty value is treated as structured.
func (f OutputFormat) Valid() bool {
	switch f {
	case "", FormatStructured, FormatNarrative, FormatCompact:
		return true
	}
	return false
}

// GenerationPreferences are forwarded verbatim to the generation capability.
type GenerationPreferences struct {
	PreferredModel string   `json:"preferred_model,omitempty" yaml:"preferred_model,omitempty" mapstructure:"preferred_model"`
	Temperature    *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" mapstructure:"temperature"`
	MaxTokens      int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" mapstructure:"max_tokens"`
}

// PipelineConfig describes one run.
type PipelineConfig struct {
	DomainContext    DomainContext         `json:"domain_context" yaml:"domain_context" mapstructure:"domain_context"`
	LevelsToExecute  []Level               `json:"levels_to_execute" yaml:"levels_to_execute" mapstructure:"levels_to_execute"`
	OutputFormat     OutputFormat          `json:"output_format,omitempty" yaml:"output_format,omitempty" mapstructure:"output_format"`
	IncludeReasoning bool                  `json:"include_reasoning,omitempty" yaml:"include_reasoning,omitempty" mapstructure:"include_reasoning"`
	ModelPreferences GenerationPreferences `json:"model_preferences,omitempty" yaml:"model_preferences,omitempty" mapstructure:"model_preferences"`
}
