package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

var policyNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

func aaplNode(ctx *models.ContextBlock) *models.SymbolNode {
	node := &models.SymbolNode{Symbol: "AAPL", Context: ctx}
	setPrediction(node, models.H1w, models.Prediction{Score: 0.8, Confidence: 0.9, PredictedReturn: 0.05})
	return node
}

func TestExposureScaleIsBounded(t *testing.T) {
	cfg := config.Default().Policy
	values := []float64{-1e6, -5, -1, 0, 0.5, 1, 5, 1e6}
	regimes := []string{"bull", "bear", "panic", "chop", "high_vol", ""}

	for _, score := range values {
		for _, conf := range values {
			for _, vol := range values {
				for _, stance := range values {
					for _, reg := range regimes {
						d := ComputeDirective(DirectiveInput{
							RankingScore:    score,
							Confidence:      conf,
							Regime:          reg,
							MacroVolatility: vol,
							Stance:          stance,
							Buzz:            stance * 100,
						}, cfg)
						require.GreaterOrEqual(t, d.ExposureScale, 0.1)
						require.LessOrEqual(t, d.ExposureScale, 2.0)
					}
				}
			}
		}
	}
}

func TestDirectiveBullLowVolatility(t *testing.T) {
	e := NewPolicyEngine(config.Default().Policy, nil, logger.Nop())
	regime := models.RegimeResult{Label: models.RegimeBull, Confidence: 0.7, Volatility: 0.1}

	block, ok := e.Directive(aaplNode(&models.ContextBlock{Volatility: 0.1}), regime, policyNow)
	require.True(t, ok)
	assert.Greater(t, block.ExposureScale, 0.5)
	assert.True(t, block.TradeGate)
	assert.Equal(t, 0.01, block.MaxRisk)
	assert.False(t, block.KillSwitch)
	assert.Equal(t, models.H1w, block.SourceHorizon)
	assert.Equal(t, models.PostureRiskOn, block.Posture)
	assert.Equal(t, policyNow, block.UpdatedAt)
}

func TestDirectiveDampensOnVolatilityAndBuzz(t *testing.T) {
	cfg := config.Default().Policy
	e := NewPolicyEngine(cfg, nil, logger.Nop())
	regime := models.RegimeResult{Label: models.RegimeBull, Confidence: 0.7}

	block, ok := e.Directive(aaplNode(&models.ContextBlock{Volatility: 0.8, Buzz: 60}), regime, policyNow)
	require.True(t, ok)

	base := (0.5 + 0.5*util.Sigmoid(2*0.8)) * (0.5 + 0.5*0.9)
	undampened := util.Clamp(base*1.0*(1-0.4*0.8)*1.0, 0.1, 2.0)
	assert.InDelta(t, undampened*0.6, block.ExposureScale, 1e-9)
	assert.Equal(t, 0.005, block.MaxRisk)

	d := ComputeDirective(DirectiveInput{RankingScore: 0.8, Confidence: 0.9, Regime: "bull", MacroVolatility: 0.8, Buzz: 60}, cfg)
	assert.True(t, d.Dampened)
	assert.InDelta(t, d.Undampened*0.6, d.ExposureScale, 1e-12)
}

func TestDirectiveFallsBackToRegimeVolatility(t *testing.T) {
	e := NewPolicyEngine(config.Default().Policy, nil, logger.Nop())
	regime := models.RegimeResult{Label: models.RegimeChop, Confidence: 0.45, Volatility: 0.9}

	block, ok := e.Directive(aaplNode(nil), regime, policyNow)
	require.True(t, ok)
	assert.Equal(t, 0.005, block.MaxRisk)
	assert.Equal(t, models.PostureNeutral, block.Posture)
}

func TestTradeGate(t *testing.T) {
	cfg := config.Default().Policy
	cases := []struct {
		regime string
		conf   float64
		want   bool
	}{
		{"panic", 0.5, false},
		{"panic", 0.55, true},
		{"high_vol", 0.2, false},
		{"bear", 0.1, true},
		{"bull", 0.9, true},
	}
	for _, c := range cases {
		d := ComputeDirective(DirectiveInput{RankingScore: 0.1, Confidence: c.conf, Regime: c.regime}, cfg)
		assert.Equal(t, c.want, d.TradeGate, "%s/%.2f", c.regime, c.conf)
	}
}

func TestSelectCandidate(t *testing.T) {
	horizons := []models.Horizon{models.H1w, models.H2w, models.H4w}
	preds := map[models.Horizon]models.Prediction{
		models.H1d: {Score: 0.9},
		models.H2w: {Score: 0.3},
		models.H4w: {Score: 0.3},
		models.H1w: {Score: -0.2},
	}
	c, ok := SelectCandidate(preds, horizons)
	require.True(t, ok)
	assert.Equal(t, models.H2w, c.Horizon)

	_, ok = SelectCandidate(map[models.Horizon]models.Prediction{models.H1d: {Score: 1}}, horizons)
	assert.False(t, ok)
}

func TestApplyMergesAndSkips(t *testing.T) {
	e := NewPolicyEngine(config.Default().Policy, nil, logger.Nop())
	r := decodeRolling(t)
	regime := models.RegimeResult{Label: models.RegimeBull, Confidence: 0.8, Volatility: 0.1}

	out, err := e.Apply(context.Background(), r, regime, policyNow)
	require.NoError(t, err)
	require.Len(t, out, 1)

	pol := r.Symbols["AAPL"].Policy
	require.NotNil(t, pol)
	assert.Equal(t, out["AAPL"], *pol)
	assert.True(t, pol.KillSwitch)
	assert.JSONEq(t, `"risk desk"`, string(pol.Extra["owner_note"]))
	assert.Equal(t, models.H1w, pol.SourceHorizon)

	assert.Nil(t, r.Symbols["MSFT"].Policy)
}
