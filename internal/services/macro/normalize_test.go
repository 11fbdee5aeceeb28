package macro

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	m, err := util.DecodeObject([]byte(s))
	require.NoError(t, err)
	return m
}

func TestPercentToDecimal(t *testing.T) {
	assert.InDelta(t, 0.005, PercentToDecimal(0.5, 0.35), 1e-12)
	assert.Equal(t, 0.02, PercentToDecimal(0.02, 0.35))
	assert.InDelta(t, -0.012, PercentToDecimal(-1.2, 0.35), 1e-12)
	assert.Equal(t, 0.35, PercentToDecimal(0.35, 0.35))
}

func TestNormalizeCanonicalAndAliases(t *testing.T) {
	snap := Normalize(decode(t, `{
		"vix_close": 24.5,
		"spy_change_pct": "-1.5",
		"breadth_pct": -35,
		"macro_vol": 0.031,
		"risk_off_flag": true,
		"regime": "BEAR",
		"updated_at": "2024-05-01T16:00:00Z"
	}`), 0.35)

	assert.Equal(t, 24.5, snap.VIX)
	assert.InDelta(t, -0.015, snap.SPYPct, 1e-12)
	assert.InDelta(t, -0.35, snap.Breadth, 1e-12)
	assert.Equal(t, 0.031, snap.Volatility)
	assert.Equal(t, 1.0, snap.RiskOff)
	assert.Equal(t, "bear", snap.RegimeHint)
	assert.Equal(t, time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC), snap.GeneratedAt)

	// legacy aliases mirror the canonical values
	assert.Equal(t, 24.5, snap.VIXClose)
	assert.InDelta(t, -1.5, snap.SPYChangePct, 1e-12)
	assert.Equal(t, 0.031, snap.MacroVol)
	assert.True(t, snap.RiskOffFlag)
}

func TestNormalizeNestedPayloadAndDefaults(t *testing.T) {
	snap := Normalize(decode(t, `{"macro": {"vix": 15, "spy_pct": 0.004}}`), 0.35)
	assert.Equal(t, 15.0, snap.VIX)
	assert.Equal(t, 0.004, snap.SPYPct)
	assert.Equal(t, "neutral", snap.RegimeHint)
	assert.Equal(t, 0.0, snap.RiskOff)
	assert.True(t, snap.GeneratedAt.IsZero())

	empty := Normalize(nil, 0.35)
	assert.Equal(t, "neutral", empty.RegimeHint)
	assert.False(t, IsSane(empty))
}

func TestRiskOffValue(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{true, 1},
		{false, 0},
		{json.Number("0.7"), 1},
		{json.Number("0.5"), 0},
		{0.51, 1},
		{"yes", 1},
		{"off", 0},
		{"0.9", 1},
		{nil, 0},
		{map[string]any{}, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RiskOffValue(c.in), "input %v", c.in)
	}
}

func TestChecks(t *testing.T) {
	assert.False(t, IsSane(models.MacroSnapshot{VIX: 0.005}))
	assert.True(t, IsSane(models.MacroSnapshot{VIX: 12}))
	assert.True(t, IsSane(models.MacroSnapshot{SPYPct: -0.0002}))
	assert.True(t, IsSane(models.MacroSnapshot{Breadth: 0.001}))

	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, IsFresh(now.Add(-72*time.Hour), now, 3))
	assert.False(t, IsFresh(now.Add(-73*time.Hour), now, 3))
	assert.False(t, IsFresh(time.Time{}, now, 3))
}
