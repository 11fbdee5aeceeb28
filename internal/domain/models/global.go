package models

import "time"

// GlobalKey is the reserved rolling-map key holding GlobalState.
const GlobalKey = "_global"

// GlobalState is overwritten on every fusion pass.
type GlobalState struct {
	RunID          string         `json:"run_id"`
	GeneratedAt    time.Time      `json:"generated_at"`
	Macro          *MacroSnapshot `json:"macro"`
	MacroFromCache bool           `json:"macro_from_cache"`
	BehavioralMeta BehavioralMeta `json:"behavioral_meta"`
	HasNews        bool           `json:"has_news"`
	HasSocial      bool           `json:"has_social"`
	HasMacro       bool           `json:"has_macro"`
	Symbols        int            `json:"symbols"`
}
