package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio_Identity(t *testing.T) {
	for _, s := range []string{"", "a", "gladys", "klinik sehat"} {
		assert.Equal(t, 1.0, Ratio(s, s))
	}
}

func TestRatio_Symmetric(t *testing.T) {
	assert.Equal(t, Ratio("gladys", "gladis"), Ratio("gladis", "gladys"))
}

func TestRatio_SmallEditScoresHigh(t *testing.T) {
	assert.Greater(t, Ratio("gladys", "gladis"), 0.8)
	assert.Less(t, Ratio("gladys", "wilson"), 0.5)
}

func TestBestMatch_PicksHighestScorer(t *testing.T) {
	m, ok := BestMatch("gladys", []string{"wilson", "gladis", "bryan"}, 0.8)
	assert.True(t, ok)
	assert.Equal(t, "gladis", m.Value)
	assert.Equal(t, 1, m.Index)
	assert.GreaterOrEqual(t, m.Score, 0.8)
}

func TestBestMatch_BelowThreshold(t *testing.T) {
	_, ok := BestMatch("yolanda", []string{"gladys", "wilson", "bryan"}, 0.8)
	assert.False(t, ok)
}

func TestBestMatch_TieKeepsFirstEncountered(t *testing.T) {
	// Two identical candidates: the earlier index wins.
	m, ok := BestMatch("gladys", []string{"gladys", "gladys"}, 0.9)
	assert.True(t, ok)
	assert.Equal(t, 0, m.Index)
}

func TestBestMatch_SkipsEmptyCandidates(t *testing.T) {
	m, ok := BestMatch("gladys", []string{"", "gladys"}, 0.9)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Index)
}

func TestBestMatch_NoCandidates(t *testing.T) {
	_, ok := BestMatch("gladys", nil, 0.5)
	assert.False(t, ok)
}
