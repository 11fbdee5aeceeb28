package models

import (
	"encoding/json"
	"time"
)

const (
	PostureRiskOn  = "risk_on"
	PostureNeutral = "neutral"
	PostureRiskOff = "risk_off"
)

// PolicyBlock is the per-symbol exposure directive. Fields written by other components
// are kept in Extra, so writing a directive is a shallow merge.
type PolicyBlock struct {
	ExposureScale float64
	TradeGate     bool
	MaxRisk       float64
	KillSwitch    bool

	SourceHorizon Horizon
	RankingScore  float64
	Regime        string
	Posture       string
	UpdatedAt     time.Time

	Extra map[string]json.RawMessage
}

func (p *PolicyBlock) UnmarshalJSON(data []byte) error {
	var out PolicyBlock
	extra, err := splitKnown(data, map[string]any{
		"exposure_scale": &out.ExposureScale,
		"trade_gate":     &out.TradeGate,
		"max_risk":       &out.MaxRisk,
		"kill_switch":    &out.KillSwitch,
		"source_horizon": &out.SourceHorizon,
		"ranking_score":  &out.RankingScore,
		"regime":         &out.Regime,
		"posture":        &out.Posture,
		"updated_at":     &out.UpdatedAt,
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*p = out
	return nil
}

func (p PolicyBlock) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"exposure_scale": p.ExposureScale,
		"trade_gate":     p.TradeGate,
		"max_risk":       p.MaxRisk,
		"kill_switch":    p.KillSwitch,
		"ranking_score":  p.RankingScore,
	}
	if p.SourceHorizon != "" {
		known["source_horizon"] = p.SourceHorizon
	}
	if p.Regime != "" {
		known["regime"] = p.Regime
	}
	if p.Posture != "" {
		known["posture"] = p.Posture
	}
	if !p.UpdatedAt.IsZero() {
		known["updated_at"] = p.UpdatedAt
	}
	return mergeKnown(p.Extra, known)
}

// Merge overlays the computed directive d on p, keeping p's extra fields and an
// externally raised kill switch.
func (p *PolicyBlock) Merge(d PolicyBlock) PolicyBlock {
	out := d
	if p == nil {
		return out
	}
	out.Extra = p.Extra
	out.KillSwitch = p.KillSwitch || d.KillSwitch
	return out
}
