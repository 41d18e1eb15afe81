package frp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frpengine/internal/llmtool"
	"frpengine/internal/types"
)

const (
	clause   = "Clause 4.2 requires arbitration in Geneva."
	question = "What risk does this clause create?"
)

func priorUpTo(level types.Level) map[types.Level]string {
	prior := map[types.Level]string{}
	for _, l := range level.Before() {
		prior[l] = "captured output of " + string(l) + " with `ticks` and\nnewlines."
	}
	return prior
}

func TestCompose_ContainsLiteralInputAndQuestion(t *testing.T) {
	tricky := "Line one.\n```\nfenced block\n```\n  indented tail  "
	for _, l := range types.AllLevels {
		prompt, err := Compose(l, tricky, question, types.DomainContext{Domain: types.DomainRisk}, priorUpTo(l))
		require.NoError(t, err, l)
		assert.Contains(t, prompt, tricky, l)
		assert.Contains(t, prompt, question, l)
	}
}

func TestCompose_EmbedsPriorOutputsVerbatimInOrder(t *testing.T) {
	prior := priorUpTo(types.L5)
	prompt, err := Compose(types.L5, clause, question, types.DomainContext{Domain: types.DomainLegal}, prior)
	require.NoError(t, err)

	last := -1
	for _, l := range types.L5.Before() {
		idx := strings.Index(prompt, prior[l])
		require.GreaterOrEqual(t, idx, 0, "missing %s", l)
		assert.Greater(t, idx, last, "%s out of order", l)
		last = idx

		meta, _ := Describe(l)
		assert.Contains(t, prompt, meta.Title)
	}
}

func TestCompose_IgnoresLaterPriorEntries(t *testing.T) {
	prior := priorUpTo(types.L3)
	prior[types.L4] = "future output must not leak"
	prompt, err := Compose(types.L3, clause, question, types.DomainContext{Domain: types.DomainLegal}, prior)
	require.NoError(t, err)
	assert.NotContains(t, prompt, "future output must not leak")
}

func TestCompose_IsPure(t *testing.T) {
	dc := types.DomainContext{
		Domain:            types.DomainAudit,
		AdditionalContext: map[string]any{"b": 2, "a": []string{"x"}, "c": map[string]any{"z": 1, "y": true}},
	}
	first, err := Compose(types.L4, clause, question, dc, priorUpTo(types.L4))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Compose(types.L4, clause, question, dc, priorUpTo(types.L4))
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestCompose_MissingPriorIsDependencyError(t *testing.T) {
	prior := priorUpTo(types.L4)
	delete(prior, types.L2)
	_, err := Compose(types.L4, clause, question, types.DomainContext{Domain: types.DomainLegal}, prior)
	require.ErrorIs(t, err, ErrDependency)

	var dErr *DependencyError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, types.L4, dErr.Level)
	assert.Equal(t, []types.Level{types.L2}, dErr.Missing)
}

func TestCompose_RejectsBadArguments(t *testing.T) {
	dc := types.DomainContext{Domain: types.DomainLegal}
	_, err := Compose("L0", clause, question, dc, nil)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = Compose(types.L1, "  ", question, dc, nil)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = Compose(types.L1, clause, "", dc, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCompose_DomainFieldsRenderNotSpecified(t *testing.T) {
	prompt, err := Compose(types.L1, clause, question, types.DomainContext{Domain: types.DomainLegal}, nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "- Domain: legal")
	assert.Contains(t, prompt, "- Sub-domain: not specified")
	assert.Contains(t, prompt, "- Jurisdiction: not specified")
	assert.Contains(t, prompt, "- Industry: not specified")
	assert.Contains(t, prompt, "- Additional context: not specified")
}

func TestCompose_AdditionalContextSorted(t *testing.T) {
	dc := ConstitutionalContext()
	dc.AdditionalContext["case_id"] = "C-17"
	dc.AdditionalContext["year"] = 2019
	prompt, err := Compose(types.L1, clause, question, dc, nil)
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Sub-domain: sovereignty_vs_globalism")
	assert.Contains(t, prompt, "- Jurisdiction: comparative")
	i := strings.Index(prompt, "  - case_id: C-17")
	j := strings.Index(prompt, "  - focus: narrative complexity and strategic framing")
	k := strings.Index(prompt, "  - year: 2019")
	require.True(t, i >= 0 && j >= 0 && k >= 0, prompt)
	assert.True(t, i < j && j < k)
}

func TestCompose_SectionsInFixedOrder(t *testing.T) {
	prompt, err := Compose(types.L3, clause, question, types.DomainContext{Domain: types.DomainCompliance}, priorUpTo(types.L3))
	require.NoError(t, err)

	markers := []string{
		"# FRACTAL REASONING - LEVEL 3: RELATIONAL DYNAMICS",
		"## Domain Context",
		"### Input Material:",
		"### Analysis Question:",
		"## Context from Previous Levels",
		"## Level 3 Objective: Interactions (Relational Dynamics)",
		"## Domain-Specific Focus (compliance):",
		"## Output Format",
		"## Scratch Space",
		"## Your Level 3 Analysis:",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(prompt, m)
		require.GreaterOrEqual(t, idx, 0, "missing %q", m)
		assert.Greater(t, idx, last, "%q out of order", m)
		last = idx
	}
	assert.True(t, strings.HasSuffix(prompt, "## Your Level 3 Analysis:"))
}

func TestComposeDocument_LevelSpecificSections(t *testing.T) {
	dc := types.DomainContext{Domain: types.DomainDueDiligence}

	l1, err := ComposeDocument(types.L1, clause, question, dc, nil)
	require.NoError(t, err)
	assert.Empty(t, l1.Sections(llmtool.SectionPrior))
	guidance := l1.Sections(llmtool.SectionGuidance)
	require.Len(t, guidance, 1)
	assert.Equal(t, "## Reasoning Requirements", guidance[0].Heading)
	assert.Equal(t, macroFraming, guidance[0].Body)

	l4, err := ComposeDocument(types.L4, clause, question, dc, priorUpTo(types.L4))
	require.NoError(t, err)
	assert.Len(t, l4.Sections(llmtool.SectionPrior), 3)
	assert.Equal(t, Guidance(types.DomainDueDiligence, types.L4), l4.Sections(llmtool.SectionGuidance)[0].Body)

	shape := l4.Sections(llmtool.SectionOutputShape)[0].Body
	assert.Contains(t, shape, "1 paragraph (6-8 sentences)")
	assert.Contains(t, shape, "between 6 and 8 sentences")

	scratch := l4.Sections(llmtool.SectionScratch)[0].Body
	assert.Contains(t, scratch, ScratchOpen)
	assert.Contains(t, scratch, ScratchClose)
}

func TestCompose_StageIntent(t *testing.T) {
	dc := types.DomainContext{Domain: types.DomainRisk}
	cases := map[types.Level][]string{
		types.L1: {"What's at stake here?", "Why now?", "Who's affected?"},
		types.L2: {"Key pillars", "Structural constraints"},
		types.L3: {"Synergies", "Tensions", "Feedback loops", "Phase transitions"},
		types.L4: {"The fractal case", "How it reflects L1-L3"},
		types.L5: {"The universal pattern", "Actionable insight"},
	}
	for level, wants := range cases {
		prompt, err := Compose(level, clause, question, dc, priorUpTo(level))
		require.NoError(t, err)
		for _, w := range wants {
			assert.Contains(t, prompt, w, "%s missing %q", level, w)
		}
	}
}

func TestCompose_UnknownDomainUsesDefaults(t *testing.T) {
	prompt, err := Compose(types.L2, clause, question, types.DomainContext{Domain: "maritime"}, priorUpTo(types.L2))
	require.NoError(t, err)
	assert.Contains(t, prompt, defaultGuidance[types.L2])
	assert.Contains(t, prompt, "- Domain: maritime")
}
