package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	domrepo "github.com/aionanalytics/Aion-sub001/internal/domain/repository"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
	"github.com/aionanalytics/Aion-sub001/pkg/metrics"
	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

const stagePolicy = "policy"

// DirectiveInput carries everything the exposure formula looks at.
type DirectiveInput struct {
	RankingScore    float64
	Confidence      float64
	Regime          string
	MacroVolatility float64
	Stance          float64
	Buzz            float64
}

// Directive is the computed exposure decision for one symbol.
type Directive struct {
	ExposureScale float64
	Undampened    float64
	Dampened      bool
	TradeGate     bool
	MaxRisk       float64
	Posture       string
}

// ComputeDirective turns a candidate prediction and the fused context into an
// exposure directive. ExposureScale stays within [MinExposure, MaxExposure] for any
// finite input.
func ComputeDirective(in DirectiveInput, cfg config.PolicyConfig) Directive {
	conf := util.Clamp(in.Confidence, 0, 1)

	base := 0.5 + 0.5*util.Sigmoid(cfg.SigmoidCoef*in.RankingScore)
	base *= 0.5 + 0.5*conf

	posture := models.RegimeLabel(in.Regime).Posture()
	volPenalty := 1.0 - cfg.VolPenalty*in.MacroVolatility
	stanceBoost := 1.0 + cfg.StanceBoost*util.Clamp(in.Stance, -1, 1)

	scale := util.Clamp(base*postureMultiplier(posture, cfg)*volPenalty*stanceBoost, cfg.MinExposure, cfg.MaxExposure)
	d := Directive{
		ExposureScale: scale,
		Undampened:    scale,
		TradeGate:     !(contains(cfg.GateRegimes, in.Regime) && conf < cfg.GateConfidence),
		MaxRisk:       cfg.MaxRisk,
		Posture:       posture,
	}
	if in.MacroVolatility > cfg.DampenVolatility || in.Buzz > cfg.DampenBuzz {
		d.ExposureScale = util.Clamp(scale*cfg.DampenFactor, cfg.MinExposure, cfg.MaxExposure)
		d.Dampened = true
	}
	if in.MacroVolatility >= cfg.HighVolatility {
		d.MaxRisk = cfg.MaxRiskHighVol
	}
	return d
}

func postureMultiplier(posture string, cfg config.PolicyConfig) float64 {
	switch posture {
	case models.PostureRiskOn:
		return cfg.PostureRiskOn
	case models.PostureNeutral:
		return cfg.PostureNeutral
	}
	return cfg.PostureRiskOff
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

// Candidate is the prediction a directive is derived from.
type Candidate struct {
	Horizon    models.Horizon
	Prediction models.Prediction
}

// SelectCandidate picks the highest-scoring prediction among horizons. Ties keep the
// earlier horizon.
func SelectCandidate(preds map[models.Horizon]models.Prediction, horizons []models.Horizon) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)
	for _, h := range horizons {
		p, ok := preds[h]
		if !ok {
			continue
		}
		if !found || p.Score > best.Prediction.Score {
			best = Candidate{Horizon: h, Prediction: p}
			found = true
		}
	}
	return best, found
}

type PolicyEngine struct {
	cfg      config.PolicyConfig
	horizons []models.Horizon
	metrics  domrepo.Metrics
	log      *logger.Logger
}

func NewPolicyEngine(cfg config.PolicyConfig, m domrepo.Metrics, log *logger.Logger) *PolicyEngine {
	if m == nil {
		m = metrics.Nop{}
	}
	return &PolicyEngine{
		cfg:      cfg,
		horizons: models.ParseHorizons(cfg.CandidateHorizons),
		metrics:  m,
		log:      log.With(logger.Component("policy_engine")),
	}
}

// Directive builds the policy block for one node, or false when the node has no
// candidate prediction.
func (e *PolicyEngine) Directive(node *models.SymbolNode, regime models.RegimeResult, now time.Time) (models.PolicyBlock, bool) {
	cand, ok := SelectCandidate(node.PredictionBlocks(), e.horizons)
	if !ok {
		return models.PolicyBlock{}, false
	}

	in := DirectiveInput{
		RankingScore:    cand.Prediction.Score,
		Confidence:      cand.Prediction.Confidence,
		Regime:          string(regime.Label),
		MacroVolatility: regime.Volatility,
	}
	if c := node.Context; c != nil {
		in.MacroVolatility = c.Volatility
		in.Stance = util.Clamp(c.Sentiment, -1, 1)
		in.Buzz = c.Buzz
	}
	d := ComputeDirective(in, e.cfg)

	return models.PolicyBlock{
		ExposureScale: d.ExposureScale,
		TradeGate:     d.TradeGate,
		MaxRisk:       d.MaxRisk,
		SourceHorizon: cand.Horizon,
		RankingScore:  cand.Prediction.Score,
		Regime:        string(regime.Label),
		Posture:       d.Posture,
		UpdatedAt:     now.UTC(),
	}, true
}

// Apply merges a fresh directive into the policy block of every symbol with a
// candidate and returns the merged blocks by symbol. It only fails when ctx is
// cancelled.
func (e *PolicyEngine) Apply(ctx context.Context, r *models.Rolling, regime models.RegimeResult, now time.Time) (map[string]models.PolicyBlock, error) {
	start := time.Now()
	var (
		mu      sync.Mutex
		out     = make(map[string]models.PolicyBlock, len(r.Symbols))
		skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.cfg.Workers, 1))
	for _, sym := range r.SortedSymbols() {
		sym := sym
		node := r.Symbols[sym]
		if node == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			block, ok := e.Directive(node, regime, now)
			if !ok {
				e.metrics.RecordSymbol(stagePolicy, "skipped")
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			merged := node.Policy.Merge(block)
			node.Policy = &merged
			e.metrics.RecordSymbol(stagePolicy, "ok")
			e.metrics.ObserveExposure(merged.ExposureScale)

			mu.Lock()
			out[sym] = merged
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.metrics.ObservePass(stagePolicy, time.Since(start))
	e.log.Info("policy applied",
		logger.String("regime", string(regime.Label)),
		logger.Float64("regime_confidence", regime.Confidence),
		logger.Int("updated", len(out)),
		logger.Int("skipped", skipped),
		logger.Duration("took", time.Since(start)),
	)
	return out, nil
}
