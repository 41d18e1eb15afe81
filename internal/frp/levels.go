package frp

import (
	"frpengine/internal/types"
)

var registry = [...]types.LevelMetadata{
	{
		Level:         types.L1,
		Title:         "Macro View (Strategic Panorama)",
		Objective:     "Provide high-level overview of what's at stake",
		TypicalLength: "3-5 sentences",
		MinSentences:  3,
		MaxSentences:  5,
		FocusAreas:    []string{"Core issue", "Stakeholder implications", "Systemic relevance", "Context"},
	},
	{
		Level:         types.L2,
		Title:         "Inner Structure (System Architecture)",
		Objective:     "Decompose internal mechanisms and structural components",
		TypicalLength: "1 paragraph (5-7 sentences)",
		MinSentences:  5,
		MaxSentences:  7,
		FocusAreas:    []string{"Key pillars", "Operating principles", "Hidden mechanisms", "Constraints"},
	},
	{
		Level:         types.L3,
		Title:         "Interactions (Relational Dynamics)",
		Objective:     "Analyze component interactions and emergent behavior",
		TypicalLength: "1 paragraph (6-8 sentences)",
		MinSentences:  6,
		MaxSentences:  8,
		FocusAreas:    []string{"Synergies", "Tensions", "Feedback loops", "Phase transitions"},
	},
	{
		Level:         types.L4,
		Title:         "Fractal Perspective (Meaningful Zoom)",
		Objective:     "Identify concrete detail that encapsulates entire system",
		TypicalLength: "1 paragraph (6-8 sentences)",
		MinSentences:  6,
		MaxSentences:  8,
		FocusAreas:    []string{"Fractal case", "Micro-macro reflection", "Hidden insights"},
	},
	{
		Level:         types.L5,
		Title:         "Strategic Resonance (Transferable Wisdom)",
		Objective:     "Extract universal principle and actionable lessons",
		TypicalLength: "1 paragraph (4-6 sentences)",
		MinSentences:  4,
		MaxSentences:  6,
		FocusAreas:    []string{"Universal pattern", "Actionable insight", "Transferability"},
	},
}

// Describe returns the registry entry for level. The returned value is a
// copy; mutating it does not affect the registry.
func Describe(level types.Level) (types.LevelMetadata, error) {
	n := level.Ordinal()
	if n == 0 {
		return types.LevelMetadata{}, &ValidationError{Field: "level", Reason: "unknown level " + string(level)}
	}
	return cloneMeta(registry[n-1]), nil
}

// Levels returns every registry entry in level order.
func Levels() []types.LevelMetadata {
	out := make([]types.LevelMetadata, len(registry))
	for i, m := range registry {
		out[i] = cloneMeta(m)
	}
	return out
}

func cloneMeta(m types.LevelMetadata) types.LevelMetadata {
	m.FocusAreas = append([]string(nil), m.FocusAreas...)
	return m
}
