package frp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"frpengine/internal/types"
)

func TestGuidance_EveryDomainHasOwnText(t *testing.T) {
	for _, d := range types.Domains {
		for _, l := range types.AllLevels[1:] {
			text := Guidance(d, l)
			assert.NotEmpty(t, text, "%s/%s", d, l)
			assert.True(t, HasDomainGuidance(d, l), "%s/%s", d, l)
			assert.NotEqual(t, defaultGuidance[l], text, "%s/%s", d, l)
		}
	}
}

func TestGuidance_L1IsDomainIndependent(t *testing.T) {
	want := Guidance(types.DomainLegal, types.L1)
	assert.Equal(t, macroFraming, want)
	for _, d := range append(types.Domains, "astrology", "") {
		assert.Equal(t, want, Guidance(d, types.L1))
	}
}

func TestGuidance_UnknownDomainFallsBack(t *testing.T) {
	for _, l := range types.AllLevels {
		assert.Equal(t, defaultGuidance[l], Guidance("maritime", l))
		assert.False(t, HasDomainGuidance("maritime", l))
	}
}

func TestGuidance_UnknownLevelIsEmpty(t *testing.T) {
	assert.Empty(t, Guidance(types.DomainLegal, "L9"))
}

func TestGuidance_DistinctPerDomain(t *testing.T) {
	seen := map[string]types.Domain{}
	for _, d := range types.Domains {
		text := Guidance(d, types.L2)
		if prev, dup := seen[text]; dup {
			t.Fatalf("%s and %s share L2 guidance", prev, d)
		}
		seen[text] = d
	}
}
