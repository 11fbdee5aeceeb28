package features

import (
	"math"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
)

// TradingDaysPerYear annualizes daily-bar statistics.
const TradingDaysPerYear = 252

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}) over daily bars.
// Bars with a non-positive close contribute a zero return.
func ComputeLogReturns(bars []models.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		cur := bars[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility is the annualized sample deviation of the last window returns,
// 0 when fewer than window returns exist.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for _, r := range logReturns[len(logReturns)-window:] {
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// HistoryVolatility is RealizedVolatility over a node's daily history, using at most
// window returns and at least two.
func HistoryVolatility(bars []models.Bar, window int) float64 {
	rets := ComputeLogReturns(bars)
	return RealizedVolatility(rets, min(window, len(rets)), TradingDaysPerYear)
}
