package llmtool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_RendersInKindOrder(t *testing.T) {
	var d Document
	d.Add(SectionDelimiter, "## Done:", "").
		Add(SectionQuestion, "### Question", "why?").
		Add(SectionRole, "# Role", "analyst").
		Add(SectionPrior, "**A**", "first").
		Add(SectionPrior, "**B**", "second")

	out := d.Render()
	order := []string{"# Role", "### Question", "**A**", "**B**", "## Done:"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		require.GreaterOrEqual(t, idx, 0, "missing %q", marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}
	assert.True(t, strings.HasSuffix(out, "## Done:"))
}

func TestDocument_SkipsEmptySections(t *testing.T) {
	var d Document
	d.Add(SectionGuidance, "", "  ").Add(SectionObjective, "## Objective", "x")
	assert.Equal(t, "## Objective\nx", d.Render())
}

func TestDocument_Sections(t *testing.T) {
	var d Document
	d.Add(SectionPrior, "a", "1").Add(SectionInput, "i", "in").Add(SectionPrior, "b", "2")
	got := d.Sections(SectionPrior)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Heading)
	assert.Equal(t, "b", got[1].Heading)
	assert.Empty(t, d.Sections(SectionScratch))
}

func TestFence_PreservesTextAndEscapesBackticks(t *testing.T) {
	plain := Fence("hello")
	assert.Equal(t, "```\nhello\n```", plain)

	tricky := "use ```go\ncode\n``` here"
	out := Fence(tricky)
	assert.True(t, strings.HasPrefix(out, "````\n"))
	assert.Contains(t, out, tricky)
	assert.True(t, strings.HasSuffix(out, "\n````"))
}

func TestLists(t *testing.T) {
	assert.Equal(t, "- a\n- b", List([]string{"a", " ", "b"}))
	assert.Equal(t, "1. a\n2. b", Numbered([]string{"a", "", "b"}))
	assert.Equal(t, "", List(nil))
}

func TestSectionKind_String(t *testing.T) {
	assert.Equal(t, "prior", SectionPrior.String())
	assert.Equal(t, "section(42)", SectionKind(42).String())
}
