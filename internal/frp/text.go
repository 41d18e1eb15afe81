package frp

import (
	"strings"
	"unicode"

	"frpengine/internal/types"
)

// SplitScratch separates the deliverable text from scratch reasoning. Every
// delimited block is removed; an unterminated block runs to the end of text,
// and a close tag with no opener marks everything before it as scratch.
func SplitScratch(text string) (content, reasoning string) {
	var kept, scratch []string
	rest := text
	for rest != "" {
		o := strings.Index(rest, ScratchOpen)
		c := strings.Index(rest, ScratchClose)
		if c >= 0 && (o < 0 || c < o) {
			scratch = append(scratch, rest[:c])
			rest = rest[c+len(ScratchClose):]
			continue
		}
		if o < 0 {
			kept = append(kept, rest)
			break
		}
		kept = append(kept, rest[:o])
		rest = rest[o+len(ScratchOpen):]
		c = strings.Index(rest, ScratchClose)
		if c < 0 {
			scratch = append(scratch, rest)
			break
		}
		scratch = append(scratch, rest[:c])
		rest = rest[c+len(ScratchClose):]
	}
	return strings.TrimSpace(strings.Join(kept, "")), joinNonEmpty(scratch, "\n\n")
}

func joinNonEmpty(parts []string, sep string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func bulletText(line string) (string, bool) {
	line = strings.TrimSpace(line)
	for _, prefix := range []string{"- ", "* "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}

// KeyInsights returns the bullet lines of content, without their markers.
func KeyInsights(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if text, ok := bulletText(line); ok && text != "" {
			out = append(out, text)
		}
	}
	return out
}

// CountSentences counts prose sentences in content. Bullet and heading lines
// are skipped; a trailing fragment without a terminator counts as one.
func CountSentences(content string) int {
	var prose []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if _, ok := bulletText(trimmed); ok {
			continue
		}
		prose = append(prose, trimmed)
	}
	runes := []rune(strings.Join(prose, " "))
	count := 0
	pending := false
	for i, r := range runes {
		switch {
		case r == '.' || r == '!' || r == '?':
			if i == len(runes)-1 || unicode.IsSpace(runes[i+1]) {
				if pending {
					count++
				}
				pending = false
			}
		case !unicode.IsSpace(r):
			pending = true
		}
	}
	if pending {
		count++
	}
	return count
}

// LengthScore is 1 when the sentence count of content lies in the expected
// range for meta and decays toward 0 with distance from it.
func LengthScore(meta types.LevelMetadata, content string) float64 {
	n := CountSentences(content)
	dist := 0
	switch {
	case n < meta.MinSentences:
		dist = meta.MinSentences - n
	case n > meta.MaxSentences:
		dist = n - meta.MaxSentences
	}
	return 1 / float64(1+dist)
}

// QualityScore averages LengthScore over outs. It returns nil when outs is empty.
func QualityScore(outs []types.LevelOutput) *float64 {
	if len(outs) == 0 {
		return nil
	}
	var sum float64
	for _, out := range outs {
		meta, err := Describe(out.Level)
		if err != nil {
			continue
		}
		sum += LengthScore(meta, out.Content)
	}
	score := sum / float64(len(outs))
	return &score
}
