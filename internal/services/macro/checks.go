package macro

import (
	"math"
	"time"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
)

// IsSane rejects degenerate all-zero snapshots.
func IsSane(s models.MacroSnapshot) bool {
	return math.Abs(s.VIX) > 0.01 || math.Abs(s.SPYPct) > 0.0001 || math.Abs(s.Breadth) > 0.0001
}

// IsFresh reports whether a snapshot generated at generatedAt is at most maxAgeDays old.
// An unknown generation time is never fresh.
func IsFresh(generatedAt, now time.Time, maxAgeDays float64) bool {
	if generatedAt.IsZero() {
		return false
	}
	return Age(generatedAt, now) <= maxAgeDays
}
