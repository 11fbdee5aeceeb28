package regime

import (
	"context"
	"time"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/internal/domain/repository"
	domsvc "github.com/aionanalytics/Aion-sub001/internal/domain/service"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
	"github.com/aionanalytics/Aion-sub001/pkg/metrics"
)

// Detector loads the macro snapshot and classifies it. It keeps no state between calls.
type Detector struct {
	macro   domsvc.MacroSource
	meta    domsvc.MetaSource
	cfg     config.RegimeConfig
	metrics repository.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewDetector(macro domsvc.MacroSource, meta domsvc.MetaSource, cfg config.RegimeConfig, m repository.Metrics, log *logger.Logger) *Detector {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Detector{
		macro:   macro,
		meta:    meta,
		cfg:     cfg,
		metrics: m,
		log:     log.With(logger.Component("regime")),
		now:     time.Now,
	}
}

// DetectRegime never fails: with no macro snapshot it returns the low-confidence
// chop fallback.
func (d *Detector) DetectRegime(ctx context.Context) models.RegimeResult {
	return d.FromResult(d.macro.Load(ctx), d.meta.Snapshot(ctx))
}

// FromResult classifies an already loaded macro result.
func (d *Detector) FromResult(res models.MacroResult, meta models.BehavioralMeta) models.RegimeResult {
	var out models.RegimeResult
	if res.Empty() {
		out = d.Fallback(meta)
		d.log.Warn("no macro snapshot, regime fallback",
			logger.String("label", string(out.Label)),
			logger.Float64("confidence", out.Confidence),
			logger.Int("attempts", len(res.Diagnostics)),
		)
	} else {
		out = Classify(*res.Snapshot, d.cfg)
		out.BehavioralMeta = meta
		if out.Timestamp.IsZero() {
			out.Timestamp = d.now().UTC()
		}
		d.log.Info("regime classified",
			logger.String("label", string(out.Label)),
			logger.Float64("confidence", out.Confidence),
			logger.String("source", res.Snapshot.Source),
			logger.Bool("from_cache", res.FromCache),
		)
	}
	d.metrics.RecordRegime(string(out.Label), out.Confidence)
	return out
}

// Fallback is the terminal result used when no macro data exists at all.
func (d *Detector) Fallback(meta models.BehavioralMeta) models.RegimeResult {
	return models.RegimeResult{
		Label:          models.RegimeChop,
		Confidence:     d.cfg.FallbackConfidence,
		Timestamp:      d.now().UTC(),
		BehavioralMeta: meta,
		Fallback:       true,
	}
}

var _ domsvc.RegimeDetector = (*Detector)(nil)
