// backend-go/internal/service/fiscal_test.go
package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiscalWindow(t *testing.T) {
	from, to := fiscalWindow(2025, 4)
	assert.Equal(t, month(2025, time.April), from)
	assert.Equal(t, month(2026, time.April), to)

	from, to = fiscalWindow(2025, 0)
	assert.Equal(t, month(2025, time.January), from, "invalid start falls back to January")
	assert.Equal(t, month(2026, time.January), to)
}

func TestCurrentFiscalYear(t *testing.T) {
	assert.Equal(t, 2025, currentFiscalYear(time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC), 4))
	assert.Equal(t, 2026, currentFiscalYear(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC), 4))
	assert.Equal(t, 2026, currentFiscalYear(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), 4))
	assert.Equal(t, 2026, currentFiscalYear(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC), 1))
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 0, monthsBetween(month(2025, time.March), month(2025, time.March)))
	assert.Equal(t, 11, monthsBetween(month(2025, time.February), month(2026, time.January)))
	assert.Equal(t, -2, monthsBetween(month(2025, time.March), month(2025, time.January)))
}

func TestNullableSeries(t *testing.T) {
	out := nullableSeries([]float64{1.5, math.NaN(), 3})
	require.Len(t, out, 3)
	assert.InDelta(t, 1.5, *out[0], 1e-9)
	assert.Nil(t, out[1])
	assert.InDelta(t, 3, *out[2], 1e-9)
}
