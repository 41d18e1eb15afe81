package frp

import (
	"frpengine/internal/types"
)

type guidanceKey struct {
	domain types.Domain
	level  types.Level
}

// macroFraming is shared by every domain at L1.
const macroFraming = `- Maintain objectivity: describe reality, not aspirations
- Identify invisible forces: power dynamics, incentives, constraints
- Connect to broader trends: regulatory shifts, market evolution, precedent`

// defaultGuidance covers domains missing from guidanceTable.
var defaultGuidance = map[types.Level]string{
	types.L1: macroFraming,
	types.L2: `- Identify key structural components
- Map their relationships
- Reveal hidden mechanisms`,
	types.L3: `- Analyze component interactions
- Identify feedback loops
- Reveal emergent behavior`,
	types.L4: `- Find a concrete example that mirrors the whole system
- Explain the fractal reflection`,
	types.L5: `- Extract a universal principle
- Provide actionable guidance`,
}

// guidanceTable holds per-domain text for L2..L5. Constitutional and
// political rows stay separate entries even where they read close to legal.
var guidanceTable = map[guidanceKey]string{
	{types.DomainLegal, types.L2}: `- Identify governing legal principles (contract law doctrines, statutory frameworks)
- Map clause interdependencies
- Reveal implicit assumptions in legal language`,
	{types.DomainCompliance, types.L2}: `- Identify regulatory requirements and standards
- Map compliance obligations across jurisdictions
- Reveal gaps between policy and implementation`,
	{types.DomainAudit, types.L2}: `- Identify control mechanisms and verification procedures
- Map risk exposure across business units
- Reveal systemic vulnerabilities in governance`,
	{types.DomainRisk, types.L2}: `- Identify risk vectors and threat models
- Map causal chains from trigger events to impact
- Reveal hidden correlations between risks`,
	{types.DomainDueDiligence, types.L2}: `- Identify material facts requiring verification
- Map information asymmetries between parties
- Reveal red flags or confirmation biases`,
	{types.DomainConstitutional, types.L2}: `- Identify constitutional principles and sovereignty doctrines
- Map power distribution between domestic/international law
- Reveal implicit assumptions about legal hierarchy`,
	{types.DomainPolitical, types.L2}: `- Identify political narratives and framing strategies
- Map actor coalitions and opposition structures
- Reveal implicit assumptions about legitimacy and authority`,

	{types.DomainLegal, types.L3}: `- Analyze clause interactions (do they create contradictions?)
- Identify perverse incentives in contract structure
- Reveal how ambiguity distributes risk asymmetrically`,
	{types.DomainCompliance, types.L3}: `- Analyze regulatory overlap or conflict
- Identify compliance cost cascades
- Reveal how enforcement gaps incentivize non-compliance`,
	{types.DomainAudit, types.L3}: `- Analyze control interactions (do they complement or conflict?)
- Identify audit fatigue effects
- Reveal how controls can mask risks instead of mitigating them`,
	{types.DomainRisk, types.L3}: `- Analyze risk correlation and contagion paths
- Identify risk compensation behavior
- Reveal how mitigation strategies create new risks`,
	{types.DomainDueDiligence, types.L3}: `- Analyze information flow bottlenecks
- Identify verification paradoxes
- Reveal how transparency can obscure material facts`,
	{types.DomainConstitutional, types.L3}: `- Analyze tension between sovereignty and international obligations
- Identify feedback loops between domestic politics and legal strategy
- Reveal how constitutional rhetoric masks power struggles`,
	{types.DomainPolitical, types.L3}: `- Analyze narrative competition dynamics
- Identify amplification and suppression mechanisms
- Reveal how framing shapes policy space and legitimacy`,

	{types.DomainLegal, types.L4}: `- Find a specific clause/phrase that encapsulates the contract's core tension
- Show how it reflects party power dynamics (L1), legal architecture (L2), interaction effects (L3)`,
	{types.DomainCompliance, types.L4}: `- Find a specific requirement that encapsulates regulatory philosophy
- Show how it reflects policy goals (L1), rule structure (L2), enforcement dynamics (L3)`,
	{types.DomainAudit, types.L4}: `- Find a specific control that encapsulates governance approach
- Show how it reflects business risk (L1), control framework (L2), operational reality (L3)`,
	{types.DomainRisk, types.L4}: `- Find a specific scenario that encapsulates risk profile
- Show how it reflects threat landscape (L1), causal structure (L2), mitigation trade-offs (L3)`,
	{types.DomainDueDiligence, types.L4}: `- Find a specific data point that encapsulates material issue
- Show how it reflects transaction stakes (L1), information architecture (L2), verification challenges (L3)`,
	{types.DomainConstitutional, types.L4}: `- Find a specific constitutional provision, treaty clause, or court decision that encapsulates the sovereignty vs. globalism tension
- Show how it reflects systemic stakes (L1), legal architecture (L2), political dynamics (L3)`,
	{types.DomainPolitical, types.L4}: `- Find a specific speech excerpt, policy statement, or rhetorical move that encapsulates the narrative strategy
- Show how it reflects political stakes (L1), framing structure (L2), coalition dynamics (L3)`,

	{types.DomainLegal, types.L5}: `- Extract principle about contract design, risk allocation, or legal strategy
- Provide actionable guidance for drafting or negotiation`,
	{types.DomainCompliance, types.L5}: `- Extract principle about regulatory design or compliance strategy
- Provide actionable guidance for policy implementation`,
	{types.DomainAudit, types.L5}: `- Extract principle about control design or governance
- Provide actionable guidance for risk management`,
	{types.DomainRisk, types.L5}: `- Extract principle about risk assessment or mitigation
- Provide actionable guidance for strategic decision-making`,
	{types.DomainDueDiligence, types.L5}: `- Extract principle about information verification or transaction strategy
- Provide actionable guidance for deal execution`,
	{types.DomainConstitutional, types.L5}: `- Extract principle about constitutional change, sovereignty dynamics, or legal evolution
- Provide actionable guidance for constitutional design or treaty negotiation`,
	{types.DomainPolitical, types.L5}: `- Extract principle about narrative competition, framing effects, or legitimacy construction
- Provide actionable guidance for political strategy or communication`,
}

// Guidance returns the analysis guidance for domain at level. L1 and
// unrecognized domains fall back to the shared default for the level. An
// unrecognized level yields the empty string.
func Guidance(domain types.Domain, level types.Level) string {
	if level != types.L1 {
		if text, ok := guidanceTable[guidanceKey{domain, level}]; ok {
			return text
		}
	}
	return defaultGuidance[level]
}

// HasDomainGuidance reports whether domain has its own row at level, as
// opposed to the shared default.
func HasDomainGuidance(domain types.Domain, level types.Level) bool {
	_, ok := guidanceTable[guidanceKey{domain, level}]
	return ok
}
