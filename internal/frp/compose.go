package frp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"frpengine/internal/llmtool"
	"frpengine/internal/types"
)

const notSpecified = "not specified"

// ScratchOpen and ScratchClose delimit the private reasoning block the model
// is asked to write before its answer. Anything inside is discarded from the
// level content.
const (
	ScratchOpen  = "<think>"
	ScratchClose = "</think>"
)

// brief is the level-specific wording of a prompt.
type brief struct {
	heading   string
	role      string
	task      string
	askIntro  string
	asks      []string
	shape     string
	structure []string
	scratch   string
}

var briefs = map[types.Level]brief{
	types.L1: {
		heading:  "MACRO VIEW",
		role:     "You are an expert analyst conducting a **strategic panorama** assessment.",
		task:     "Analyze the following %s material and provide a **global perspective**.",
		askIntro: "Provide a high-level overview answering:",
		asks: []string{
			"**What's at stake here?** Why does this matter systemically?",
			"**Why now?** What makes this relevant in current context?",
			"**Who's affected?** What parties, interests, or systems are involved?",
			"**Global implications**: what are the second-order effects?",
		},
		shape: "synthesize the global picture",
		structure: []string{
			"First sentence: Core issue identification",
			"Middle sentences: Stakeholder implications and systemic relevance",
			"Final sentence: Why this matters beyond the immediate context",
		},
		scratch: "Consider multiple perspectives, test assumptions, identify what's NOT said in the text.",
	},
	types.L2: {
		heading:  "INNER STRUCTURE",
		role:     "You are an expert analyst mapping the **system architecture** behind the material.",
		task:     "Now decompose the **internal mechanisms** that govern this %s system.",
		askIntro: "What to identify:",
		asks: []string{
			"**Key pillars**: what are the 3-5 foundational components?",
			"**Operating principles**: what rules or norms govern behavior?",
			"**Hidden mechanisms**: what drives outcomes beneath the surface?",
			"**Structural constraints**: what limits degrees of freedom?",
		},
		shape: "break down the structure",
		structure: []string{
			"Main structural components",
			"How they interact to produce the system's behavior",
			"What makes this architecture stable or fragile",
		},
		scratch: "What are the load-bearing elements? What happens if one component fails? Are there redundancies or single points of failure?",
	},
	types.L3: {
		heading:  "RELATIONAL DYNAMICS",
		role:     "You are an expert analyst tracing **interactions and emergence** across the structure.",
		task:     "Now analyze **how the structural components identified at Level 2 interact** to produce emergent %s behavior.",
		askIntro: "What to reveal:",
		asks: []string{
			"**Synergies**: which components reinforce each other?",
			"**Tensions**: where do contradictions or conflicts exist?",
			"**Feedback loops**: what self-reinforcing or self-correcting dynamics emerge?",
			"**Paradoxes**: what appears contradictory but actually reveals deeper logic?",
			"**Phase transitions**: under what conditions does the system shift behavior?",
		},
		shape: "explain the interaction dynamics",
		structure: []string{
			"Key interactions between structural elements",
			"Emergent properties not predictable from components alone",
			"Critical dependencies or cascading effects",
			"System vulnerabilities or resilience patterns",
		},
		scratch: "What happens when one component changes and how do the others respond? Are there tipping points or thresholds? What is the difference between intended and actual behavior?",
	},
	types.L4: {
		heading:  "FRACTAL PERSPECTIVE",
		role:     "You are an expert analyst searching for the **micro case that mirrors the macro system**.",
		task:     "Now identify **one concrete detail, case, or clause** of the %s material that encapsulates the entire system's logic in miniature.",
		askIntro: "What to find:",
		asks: []string{
			"**The fractal case**: a specific example, clause, phrase, or event that contains the whole system's DNA",
			"**How it reflects L1-L3**: show explicitly how this micro case embodies the macro stakes (L1), the structural principles (L2) and the interaction dynamics (L3)",
			"**Why it matters**: what this micro view reveals that was not visible at higher levels",
		},
		shape: "zoom into the fractal case",
		structure: []string{
			`Opening: "In [specific element], the entire [system] logic appears in miniature..."`,
			"Middle: Explicit connections to L1, L2 and L3",
			"Closing: What this teaches us about the whole",
		},
		scratch: "What small detail keeps repeating at different scales? Where does a single sentence, clause or decision capture everything? What example makes abstract principles concrete?",
	},
	types.L5: {
		heading:  "STRATEGIC RESONANCE",
		role:     "You are an expert analyst distilling **transferable wisdom** from a completed analysis.",
		task:     "Extract **one meta-principle and an actionable recommendation** from this %s case, grounded in Levels 1-4.",
		askIntro: "What to synthesize:",
		asks: []string{
			"**The universal pattern**: what principle operates here that applies elsewhere?",
			"**Actionable insight**: what should decision-makers do differently?",
			"**Epistemic lesson**: what does this teach about reasoning, system design, or strategy?",
			"**Transferability**: how does this apply to other domains?",
		},
		shape: "close the analysis",
		structure: []string{
			`Opening: "The core lesson: [universal principle]"`,
			"Middle: How this manifests in the analyzed case",
			"Closing: Practical implication or strategic takeaway",
		},
		scratch: "What pattern emerges when you view L1-L4 together? What would someone in a different domain learn from this? What is the one insight that makes this analysis valuable beyond the immediate case?",
	},
}

// Compose builds the prompt for level. prior must hold the captured content
// of every level strictly before it; entries at or above level are ignored.
// The same arguments always produce the same prompt.
func Compose(level types.Level, input, question string, dc types.DomainContext, prior map[types.Level]string) (string, error) {
	doc, err := ComposeDocument(level, input, question, dc, prior)
	if err != nil {
		return "", err
	}
	return doc.Render(), nil
}

// ComposeDocument is Compose without the final render, for callers that want
// to inspect individual sections.
func ComposeDocument(level types.Level, input, question string, dc types.DomainContext, prior map[types.Level]string) (*llmtool.Document, error) {
	meta, err := Describe(level)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input) == "" {
		return nil, &ValidationError{Field: "input_text", Reason: "empty"}
	}
	if strings.TrimSpace(question) == "" {
		return nil, &ValidationError{Field: "question", Reason: "empty"}
	}
	if missing := missingPrior(level, prior); len(missing) > 0 {
		return nil, &DependencyError{Level: level, Missing: missing}
	}

	b := briefs[level]
	n := level.Ordinal()
	domain := domainLabel(dc.Domain)

	doc := &llmtool.Document{}
	doc.Add(llmtool.SectionRole,
		fmt.Sprintf("# FRACTAL REASONING - LEVEL %d: %s\n\n## Your Role", n, b.heading),
		b.role+"\n\n"+fmt.Sprintf(b.task, domain))
	doc.Add(llmtool.SectionDomain, "## Domain Context", renderDomain(dc))
	doc.Add(llmtool.SectionInput, "### Input Material:", llmtool.Fence(input))
	doc.Add(llmtool.SectionQuestion, "### Analysis Question:", question)

	for i, p := range level.Before() {
		heading := fmt.Sprintf("**Level %d (%s):**", p.Ordinal(), registry[p.Ordinal()-1].Title)
		if i == 0 {
			heading = "## Context from Previous Levels\n\n" + heading
		}
		doc.Add(llmtool.SectionPrior, heading, llmtool.Fence(prior[p]))
	}

	objective := meta.Objective + ".\n\n" + b.askIntro + "\n" + llmtool.Numbered(b.asks) +
		"\n\nFocus areas: " + strings.Join(meta.FocusAreas, ", ")
	doc.Add(llmtool.SectionObjective, fmt.Sprintf("## Level %d Objective: %s", n, meta.Title), objective)

	if level == types.L1 {
		doc.Add(llmtool.SectionGuidance, "## Reasoning Requirements", Guidance(dc.Domain, level))
	} else {
		doc.Add(llmtool.SectionGuidance, fmt.Sprintf("## Domain-Specific Focus (%s):", domain), Guidance(dc.Domain, level))
	}

	shape := fmt.Sprintf("Produce **%s** (between %d and %d sentences) that %s.\n\nUse this structure:\n%s",
		meta.TypicalLength, meta.MinSentences, meta.MaxSentences, b.shape, llmtool.List(b.structure))
	doc.Add(llmtool.SectionOutputShape, "## Output Format", shape)

	scratch := fmt.Sprintf("Reason privately between %s and %s before writing the analysis. "+
		"Only the text after %s is your Level %d analysis; the scratch content is discarded.\n\n%s\n[%s]\n%s",
		ScratchOpen, ScratchClose, ScratchClose, n, ScratchOpen, b.scratch, ScratchClose)
	doc.Add(llmtool.SectionScratch, "## Scratch Space", scratch)
	doc.Add(llmtool.SectionDelimiter, fmt.Sprintf("## Your Level %d Analysis:", n), "")
	return doc, nil
}

func missingPrior(level types.Level, prior map[types.Level]string) []types.Level {
	var missing []types.Level
	for _, p := range level.Before() {
		if strings.TrimSpace(prior[p]) == "" {
			missing = append(missing, p)
		}
	}
	return missing
}

func domainLabel(d types.Domain) string {
	if strings.TrimSpace(string(d)) == "" {
		return notSpecified
	}
	return string(d)
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

func renderDomain(dc types.DomainContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Domain: %s\n", domainLabel(dc.Domain))
	fmt.Fprintf(&b, "- Sub-domain: %s\n", orNotSpecified(dc.SubDomain))
	fmt.Fprintf(&b, "- Jurisdiction: %s\n", orNotSpecified(dc.Jurisdiction))
	fmt.Fprintf(&b, "- Industry: %s\n", orNotSpecified(dc.Industry))
	if len(dc.AdditionalContext) == 0 {
		fmt.Fprintf(&b, "- Additional context: %s", notSpecified)
		return b.String()
	}
	b.WriteString("- Additional context:")
	keys := make([]string, 0, len(dc.AdditionalContext))
	for k := range dc.AdditionalContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  - %s: %s", k, contextValue(dc.AdditionalContext[k]))
	}
	return b.String()
}

// contextValue prints strings bare and everything else as JSON. encoding/json
// sorts map keys, which keeps the output stable.
func contextValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
