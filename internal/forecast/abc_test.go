// backend-go/internal/forecast/abc_test.go
package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyABC_ParetoSplit(t *testing.T) {
	entries := ClassifyABC(map[string]float64{
		"Glowmart Surabaya":  500,
		"Glowmart Palembang": 250,
		"Glowmart Medan":     150,
		"Glowmart Bandung":   60,
		"Glowmart Kupang":    40,
	})
	require.Len(t, entries, 5)

	assert.Equal(t, "Glowmart Surabaya", entries[0].Name, "ranked by value descending")
	assert.InDelta(t, 0.5, entries[0].Share, 1e-9)
	assert.Equal(t, "A", entries[0].Class)

	assert.Equal(t, "Glowmart Palembang", entries[1].Name)
	assert.InDelta(t, 0.75, entries[1].CumShare, 1e-9)
	assert.Equal(t, "A", entries[1].Class)

	assert.Equal(t, "Glowmart Medan", entries[2].Name)
	assert.InDelta(t, 0.9, entries[2].CumShare, 1e-9)
	assert.Equal(t, "B", entries[2].Class, "past 80% cumulative share")

	assert.Equal(t, "C", entries[3].Class, "past 95% cumulative share")
	assert.Equal(t, "C", entries[4].Class)
	assert.InDelta(t, 1.0, entries[4].CumShare, 1e-9)
}

func TestClassifyABC_ZeroTotal(t *testing.T) {
	entries := ClassifyABC(map[string]float64{"a": 0, "b": 0})
	require.Len(t, entries, 2)

	for _, e := range entries {
		assert.Equal(t, 0.0, e.Share)
		assert.Equal(t, "C", e.Class)
	}
}

func TestClassifyABC_StableTieOrder(t *testing.T) {
	entries := ClassifyABC(map[string]float64{"beta": 100, "alpha": 100})
	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].Name, "ties break by name")
	assert.Equal(t, "beta", entries[1].Name)
}

func TestClassifyABC_Empty(t *testing.T) {
	assert.Empty(t, ClassifyABC(nil))
}
