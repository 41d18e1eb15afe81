package frp

import "frpengine/internal/types"

// DefaultConfig executes all five levels for domain in structured format.
func DefaultConfig(domain types.Domain) types.PipelineConfig {
	return types.PipelineConfig{
		DomainContext:   types.DomainContext{Domain: domain},
		LevelsToExecute: append([]types.Level(nil), types.AllLevels...),
		OutputFormat:    types.FormatStructured,
	}
}

// ConstitutionalContext frames sovereignty and globalism narratives.
func ConstitutionalContext() types.DomainContext {
	return types.DomainContext{
		Domain:       types.DomainConstitutional,
		SubDomain:    "sovereignty_vs_globalism",
		Jurisdiction: "comparative",
		AdditionalContext: map[string]any{
			"focus": "narrative complexity and strategic framing",
		},
	}
}

// PoliticalContext frames constitutional conflict as political narrative.
func PoliticalContext() types.DomainContext {
	return types.DomainContext{
		Domain:    types.DomainPolitical,
		SubDomain: "constitutional_conflict",
		AdditionalContext: map[string]any{
			"focus": "framing strategies and legitimacy construction",
		},
	}
}

// Preset returns the named domain context: "constitutional" or "political".
func Preset(name string) (types.DomainContext, bool) {
	switch name {
	case "constitutional":
		return ConstitutionalContext(), true
	case "political":
		return PoliticalContext(), true
	}
	return types.DomainContext{}, false
}
