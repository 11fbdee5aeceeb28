package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
)

func TestComputeLogReturns(t *testing.T) {
	bars := []models.Bar{{Close: 100}, {Close: 110}, {Close: 0}, {Close: 121}}
	rets := ComputeLogReturns(bars)
	assert.Len(t, rets, 3)
	assert.InDelta(t, math.Log(1.1), rets[0], 1e-12)
	assert.Zero(t, rets[1])
	assert.Zero(t, rets[2])
	assert.Nil(t, ComputeLogReturns(bars[:1]))
}

func TestRealizedVolatility(t *testing.T) {
	flat := []float64{0.01, 0.01, 0.01, 0.01}
	assert.InDelta(t, 0, RealizedVolatility(flat, 4, 252), 1e-9)

	alt := []float64{0.01, -0.01, 0.01, -0.01}
	// sample variance of ±0.01 over four points is 0.0004/3
	want := math.Sqrt(0.0004 / 3 * 252)
	assert.InDelta(t, want, RealizedVolatility(alt, 4, 252), 1e-12)

	assert.Zero(t, RealizedVolatility(alt, 5, 252))
	assert.Zero(t, RealizedVolatility(alt, 1, 252))
}

func TestHistoryVolatilityShortHistory(t *testing.T) {
	assert.Zero(t, HistoryVolatility(nil, 20))
	assert.Zero(t, HistoryVolatility([]models.Bar{{Close: 1}, {Close: 2}}, 20))
	assert.Greater(t, HistoryVolatility([]models.Bar{{Close: 100}, {Close: 102}, {Close: 99}}, 20), 0.0)
}
