package models

// BehavioralMeta is a read-only snapshot of the globally shared bias knobs. The
// external updater owns the source; 1.0 is neutral for every knob.
type BehavioralMeta struct {
	ConfidenceBias float64 `json:"confidence_bias"`
	RiskBias       float64 `json:"risk_bias"`
	Aggressiveness float64 `json:"aggressiveness"`
	UpdatedAt      string  `json:"updated_at"`
}

func NeutralBehavioralMeta() BehavioralMeta {
	return BehavioralMeta{ConfidenceBias: 1, RiskBias: 1, Aggressiveness: 1}
}
