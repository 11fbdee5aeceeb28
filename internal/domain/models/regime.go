package models

import (
	"strings"
	"time"
)

type RegimeLabel string

const (
	RegimeBull  RegimeLabel = "bull"
	RegimeBear  RegimeLabel = "bear"
	RegimePanic RegimeLabel = "panic"
	RegimeChop  RegimeLabel = "chop"
)

// ParseRegimeLabel reports whether s names one of the four classifier labels.
func ParseRegimeLabel(s string) (RegimeLabel, bool) {
	l := RegimeLabel(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case RegimeBull, RegimeBear, RegimePanic, RegimeChop:
		return l, true
	}
	return "", false
}

// Posture maps a regime label onto the policy posture.
func (l RegimeLabel) Posture() string {
	switch l {
	case RegimeBull:
		return PostureRiskOn
	case RegimeChop:
		return PostureNeutral
	default:
		return PostureRiskOff
	}
}

type RegimeResult struct {
	Label          RegimeLabel    `json:"label"`
	Confidence     float64        `json:"confidence"`
	VIX            float64        `json:"vix"`
	SPYPct         float64        `json:"spy_pct"`
	Breadth        float64        `json:"breadth"`
	RiskOff        float64        `json:"risk_off"`
	Volatility     float64        `json:"volatility"`
	Timestamp      time.Time      `json:"timestamp"`
	BehavioralMeta BehavioralMeta `json:"behavioral_meta"`
	Fallback       bool           `json:"fallback,omitempty"`
}
