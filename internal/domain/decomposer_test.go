package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecomposeEveryTier(t *testing.T) {
	for _, tier := range []SeverityTier{TierLow, TierMedium, TierHigh, TierSevere} {
		templates := Decompose(tier)
		require.NotEmpty(t, templates, "tier %s", tier)
		for i, tpl := range templates {
			assert.NotEmpty(t, tpl.Name, "tier %s phase %d", tier, i)
			assert.NotEmpty(t, tpl.Objective, "tier %s phase %d", tier, i)
			assert.NotEmpty(t, tpl.Duration, "tier %s phase %d", tier, i)
			assert.NotEmpty(t, tpl.RecommendGoal, "tier %s phase %d", tier, i)
		}
	}
}

// Severer tiers decompose into longer sequences.
func TestDecomposeTierLengths(t *testing.T) {
	low := len(Decompose(TierLow))
	medium := len(Decompose(TierMedium))
	high := len(Decompose(TierHigh))
	severe := len(Decompose(TierSevere))
	assert.Less(t, low, medium)
	assert.Less(t, medium, high)
	assert.Less(t, high, severe)
}

// Repeated calls return the same sequence: no randomness, and mutating one
// result must not leak into the next.
func TestDecomposeDeterministic(t *testing.T) {
	first := Decompose(TierSevere)
	first[0].Name = "mutated"
	second := Decompose(TierSevere)
	third := Decompose(TierSevere)
	require.Equal(t, len(second), len(third))
	assert.Equal(t, second, third)
	assert.NotEqual(t, "mutated", second[0].Name)
}

func TestDecomposeUnknownTierFallsBack(t *testing.T) {
	assert.Equal(t, Decompose(TierMedium), Decompose(SeverityTier("bogus")))
}

func TestAttachGoalsDefaults(t *testing.T) {
	templates := Decompose(TierLow)
	phases := AttachGoals(templates, nil)
	require.Len(t, phases, len(templates))
	for i, p := range phases {
		assert.Equal(t, i+1, p.PhaseOrder)
		assert.Equal(t, templates[i].RecommendGoal, p.RecommendGoal)
		assert.Equal(t, []string{templates[i].RecommendGoal}, p.Goals)
		assert.False(t, p.IsCompleted)
		assert.Zero(t, p.CompletionPercentage)
	}
}

func TestAttachGoalsOverrides(t *testing.T) {
	templates := Decompose(TierMedium)
	overrides := map[int][]string{
		1: {"custom goal a", "custom goal b"},
	}
	phases := AttachGoals(templates, overrides)
	require.Len(t, phases, len(templates))
	assert.Equal(t, []string{templates[0].RecommendGoal}, phases[0].Goals)
	assert.Equal(t, []string{"custom goal a", "custom goal b"}, phases[1].Goals)
}

func TestParseSeverityTier(t *testing.T) {
	for _, raw := range []string{"LOW", "MEDIUM", "HIGH", "SEVERE"} {
		tier, ok := ParseSeverityTier(raw)
		assert.True(t, ok)
		assert.Equal(t, SeverityTier(raw), tier)
	}
	_, ok := ParseSeverityTier("medium")
	assert.False(t, ok)
	_, ok = ParseSeverityTier("")
	assert.False(t, ok)
}
