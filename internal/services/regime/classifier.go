package regime

import (
	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

// Classify maps a normalized macro snapshot onto a regime label. Rules are checked
// panic, bear, bull; chop otherwise. The behavioral meta is left for the caller.
func Classify(s models.MacroSnapshot, cfg config.RegimeConfig) models.RegimeResult {
	label, conf := baseLabel(s, cfg)
	conf = adjustForHint(label, conf, s.RegimeHint, cfg)

	return models.RegimeResult{
		Label:      label,
		Confidence: util.Clamp(conf, cfg.MinConfidence, cfg.MaxConfidence),
		VIX:        s.VIX,
		SPYPct:     s.SPYPct,
		Breadth:    s.Breadth,
		RiskOff:    s.RiskOff,
		Volatility: s.Volatility,
		Timestamp:  s.GeneratedAt,
	}
}

func baseLabel(s models.MacroSnapshot, cfg config.RegimeConfig) (models.RegimeLabel, float64) {
	switch {
	case s.SPYPct <= cfg.PanicSPYPct && s.Breadth <= cfg.PanicBreadth &&
		(s.VIX >= cfg.PanicVIX || s.Volatility >= cfg.PanicVolatility || s.RiskOff >= cfg.PanicRiskOff):
		return models.RegimePanic, cfg.PanicConfidence
	case s.SPYPct <= cfg.BearSPYPct && s.Breadth <= cfg.BearBreadth &&
		(s.VIX >= cfg.BearVIX || s.Volatility >= cfg.BearVolatility || s.RiskOff >= cfg.BearRiskOff):
		return models.RegimeBear, cfg.BearConfidence
	case s.SPYPct >= cfg.BullSPYPct && s.Breadth >= cfg.BullBreadth && s.VIX <= cfg.BullMaxVIX:
		return models.RegimeBull, cfg.BullConfidence
	}
	return models.RegimeChop, cfg.ChopConfidence
}

// adjustForHint nudges confidence towards an agreeing hint and away from a
// disagreeing one. Unknown hints such as "neutral" are ignored.
func adjustForHint(label models.RegimeLabel, conf float64, hint string, cfg config.RegimeConfig) float64 {
	h, ok := models.ParseRegimeLabel(hint)
	if !ok {
		return conf
	}
	if h == label {
		return min(conf+cfg.HintBoost, cfg.MaxConfidence)
	}
	return max(conf-cfg.HintPenalty, cfg.MinConfidence)
}
