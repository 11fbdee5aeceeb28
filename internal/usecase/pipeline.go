package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	domrepo "github.com/aionanalytics/Aion-sub001/internal/domain/repository"
	"github.com/aionanalytics/Aion-sub001/internal/repository"
	"github.com/aionanalytics/Aion-sub001/internal/services/regime"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
	"github.com/aionanalytics/Aion-sub001/pkg/metrics"
)

// RunReport summarizes one pass.
type RunReport struct {
	RunID    string                        `json:"run_id"`
	Location string                        `json:"location"`
	Global   *models.GlobalState           `json:"global,omitempty"`
	Regime   *models.RegimeResult          `json:"regime,omitempty"`
	Policies map[string]models.PolicyBlock `json:"policies,omitempty"`
}

// Pipeline runs passes over the rolling map: one Read, in-memory mutation, one Save.
// Nothing is persisted before the final Save, so an aborted pass leaves the stored
// state as it was.
type Pipeline struct {
	store      domrepo.RollingStore
	fuser      *ContextFuser
	detector   *regime.Detector
	policy     *PolicyEngine
	publisher  domrepo.Publisher
	metrics    domrepo.Metrics
	globalPath string
	log        *logger.Logger
	now        func() time.Time
	newID      func() string
}

func NewPipeline(store domrepo.RollingStore, fuser *ContextFuser, detector *regime.Detector, policy *PolicyEngine, publisher domrepo.Publisher, m domrepo.Metrics, globalPath string, log *logger.Logger) *Pipeline {
	if publisher == nil {
		publisher = repository.NoopPublisher{}
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &Pipeline{
		store:      store,
		fuser:      fuser,
		detector:   detector,
		policy:     policy,
		publisher:  publisher,
		metrics:    m,
		globalPath: globalPath,
		log:        log.With(logger.Component("pipeline")),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Run executes fuse, regime and policy as one pass.
func (p *Pipeline) Run(ctx context.Context) (RunReport, error) {
	return p.pass(ctx, true, true)
}

// RunFuse refreshes contexts and the global state only.
func (p *Pipeline) RunFuse(ctx context.Context) (RunReport, error) {
	return p.pass(ctx, true, false)
}

// RunPolicy refreshes policy blocks from the current contexts and a fresh regime.
func (p *Pipeline) RunPolicy(ctx context.Context) (RunReport, error) {
	return p.pass(ctx, false, true)
}

// DetectRegime classifies the current macro state without touching the rolling map.
func (p *Pipeline) DetectRegime(ctx context.Context) models.RegimeResult {
	return p.detector.DetectRegime(ctx)
}

func (p *Pipeline) pass(ctx context.Context, fuse, policy bool) (RunReport, error) {
	start := time.Now()
	now := p.now().UTC()
	report := RunReport{RunID: p.newID(), Location: p.store.Location()}
	log := p.log.With(logger.String("run_id", report.RunID))
	log.Info("pass started", logger.Bool("fuse", fuse), logger.Bool("policy", policy))

	rolling := p.store.Read(ctx)

	var reg models.RegimeResult
	if fuse {
		in := p.fuser.LoadInputs(ctx)
		global, err := p.fuser.Fuse(ctx, rolling, in, report.RunID, now)
		if err != nil {
			return report, fmt.Errorf("fuse aborted: %w", err)
		}
		report.Global = &global
		reg = p.detector.FromResult(in.Macro, in.Meta)
	} else {
		reg = p.detector.DetectRegime(ctx)
	}
	report.Regime = &reg

	if policy {
		policies, err := p.policy.Apply(ctx, rolling, reg, now)
		if err != nil {
			return report, fmt.Errorf("policy aborted: %w", err)
		}
		report.Policies = policies
	}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("pass aborted before save: %w", err)
	}
	if err := p.store.Save(ctx, rolling); err != nil {
		return report, fmt.Errorf("save rolling: %w", err)
	}

	if report.Global != nil && p.globalPath != "" {
		if err := repository.WriteJSONAtomic(p.globalPath, report.Global); err != nil {
			log.Warn("global snapshot not written", logger.String("path", p.globalPath), logger.Error(err))
		}
	}

	p.publish(ctx, log, report)
	p.metrics.ObservePass("run", time.Since(start))
	if err := p.metrics.Flush(); err != nil {
		log.Warn("metrics flush failed", logger.Error(err))
	}

	log.Info("pass finished",
		logger.String("location", report.Location),
		logger.String("regime", string(reg.Label)),
		logger.Float64("confidence", reg.Confidence),
		logger.Int("symbols", len(rolling.Symbols)),
		logger.Int("policies", len(report.Policies)),
		logger.Duration("took", time.Since(start)),
	)
	return report, nil
}

// publish is best effort: the pass has already been persisted.
func (p *Pipeline) publish(ctx context.Context, log *logger.Logger, report RunReport) {
	if report.Regime != nil {
		if err := p.publisher.PublishRegime(ctx, *report.Regime); err != nil {
			log.Warn("regime publish failed", logger.Error(err))
		}
	}
	if len(report.Policies) > 0 {
		if err := p.publisher.PublishPolicies(ctx, report.Policies); err != nil {
			log.Warn("policy publish failed", logger.Error(err))
		}
	}
}
