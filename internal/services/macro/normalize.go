package macro

import (
	"math"
	"strings"
	"time"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

// Historical field names, canonical first.
var (
	vixKeys        = []string{"vix", "vix_close", "vix_level", "vix_last"}
	spyKeys        = []string{"spy_pct", "spy_change_pct", "spy_pct_change", "spy_return", "spy_ret", "sp500_pct"}
	breadthKeys    = []string{"breadth", "breadth_pct", "market_breadth", "adv_dec_breadth"}
	volatilityKeys = []string{"volatility", "macro_vol", "market_vol", "realized_vol"}
	riskOffKeys    = []string{"risk_off", "risk_off_flag", "riskoff", "risk_off_score"}
	hintKeys       = []string{"regime_hint", "regime", "hint"}
	timeKeys       = []string{"generated_at", "updated_at", "timestamp", "as_of", "date"}

	// Producers have wrapped the payload under one of these at various times.
	containerKeys = []string{"macro", "market", "snapshot", "data"}
)

const defaultHint = "neutral"

// layers returns raw followed by any nested container objects, outermost first.
func layers(raw map[string]any) []map[string]any {
	out := []map[string]any{raw}
	for _, k := range containerKeys {
		if obj, ok := util.Object(raw[k]); ok {
			out = append(out, obj)
		}
	}
	return out
}

func lookup(ls []map[string]any, keys []string) (any, bool) {
	for _, m := range ls {
		if v, ok := util.Lookup(m, keys...); ok {
			return v, true
		}
	}
	return nil, false
}

func lookupFloat(ls []map[string]any, keys []string) float64 {
	for _, m := range ls {
		for _, k := range keys {
			if f, ok := util.Float(m[k]); ok {
				return f
			}
		}
	}
	return 0
}

// Normalize maps a loosely-typed macro payload onto the canonical snapshot.
// Percent-like values whose magnitude exceeds percentThreshold are divided by 100.
func Normalize(raw map[string]any, percentThreshold float64) models.MacroSnapshot {
	if raw == nil {
		return models.MacroSnapshot{RegimeHint: defaultHint}.WithLegacyAliases()
	}
	ls := layers(raw)

	snap := models.MacroSnapshot{
		VIX:        lookupFloat(ls, vixKeys),
		SPYPct:     PercentToDecimal(lookupFloat(ls, spyKeys), percentThreshold),
		Breadth:    normalizeBreadth(lookupFloat(ls, breadthKeys)),
		Volatility: lookupFloat(ls, volatilityKeys),
		RegimeHint: defaultHint,
	}
	if v, ok := lookup(ls, riskOffKeys); ok {
		snap.RiskOff = RiskOffValue(v)
	}
	if v, ok := lookup(ls, hintKeys); ok {
		if h := strings.ToLower(util.Str(v)); h != "" {
			snap.RegimeHint = h
		}
	}
	if v, ok := lookup(ls, timeKeys); ok {
		if t, ok := util.TimeOf(v); ok {
			snap.GeneratedAt = t.UTC()
		}
	}
	return snap.WithLegacyAliases()
}

// PercentToDecimal applies the magnitude heuristic: |x| > threshold reads as percent.
func PercentToDecimal(x, threshold float64) float64 {
	if math.Abs(x) > threshold {
		return x / 100
	}
	return x
}

// breadth is a signed fraction in [-1, 1]; anything larger was sent as percent.
func normalizeBreadth(x float64) float64 {
	if math.Abs(x) > 1 {
		return x / 100
	}
	return x
}

// RiskOffValue coerces a boolean, numeric or textual flag to 0 or 1.
func RiskOffValue(v any) float64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "on":
			return 1
		case "false", "no", "off", "":
			return 0
		}
	}
	if f, ok := util.Float(v); ok && f > 0.5 {
		return 1
	}
	return 0
}

// Age returns the snapshot age in days relative to now.
func Age(generatedAt, now time.Time) float64 {
	return now.Sub(generatedAt).Hours() / 24
}
