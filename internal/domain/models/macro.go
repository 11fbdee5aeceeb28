package models

import "time"

// MacroSnapshot is the canonical, unit-normalized macro record. SPYPct is always a
// decimal fraction. The legacy fields mirror the canonical ones for older readers.
type MacroSnapshot struct {
	VIX         float64   `json:"vix"`
	SPYPct      float64   `json:"spy_pct"`
	Breadth     float64   `json:"breadth"`
	Volatility  float64   `json:"volatility"`
	RiskOff     float64   `json:"risk_off"`
	RegimeHint  string    `json:"regime_hint"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source,omitempty"`

	VIXClose     float64 `json:"vix_close"`
	SPYChangePct float64 `json:"spy_change_pct"`
	MacroVol     float64 `json:"macro_vol"`
	RiskOffFlag  bool    `json:"risk_off_flag"`
}

// WithLegacyAliases fills the legacy fields from the canonical ones.
func (s MacroSnapshot) WithLegacyAliases() MacroSnapshot {
	s.VIXClose = s.VIX
	s.SPYChangePct = s.SPYPct * 100
	s.MacroVol = s.Volatility
	s.RiskOffFlag = s.RiskOff >= 0.5
	return s
}

// SourceDiagnostic records one candidate source attempt of the macro loader.
type SourceDiagnostic struct {
	Source  string  `json:"source"`
	Path    string  `json:"path"`
	Loaded  bool    `json:"loaded"`
	Sane    bool    `json:"sane"`
	Fresh   bool    `json:"fresh"`
	VIX     float64 `json:"vix"`
	SPYPct  float64 `json:"spy_pct"`
	Breadth float64 `json:"breadth"`
	AgeDays float64 `json:"age_days"`
	Error   string  `json:"error,omitempty"`
}

// MacroResult is the loader outcome. Snapshot is nil when no candidate passed and no
// last-good snapshot was cached; Diagnostics is only populated when no candidate passed.
type MacroResult struct {
	Snapshot    *MacroSnapshot     `json:"snapshot"`
	FromCache   bool               `json:"from_cache"`
	Diagnostics []SourceDiagnostic `json:"diagnostics,omitempty"`
}

// Empty reports whether the loader produced no snapshot at all.
func (r MacroResult) Empty() bool { return r.Snapshot == nil }
