package brain

import (
	"context"
	"errors"
	"os"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	domsvc "github.com/aionanalytics/Aion-sub001/internal/domain/service"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

const metaKey = "_meta"

// Reader reads the behavioral-meta file written by the external brain updater.
// Every call re-reads the file; the result is an immutable snapshot.
type Reader struct {
	cfg config.BrainConfig
	log *logger.Logger
}

func NewReader(cfg config.BrainConfig, log *logger.Logger) *Reader {
	return &Reader{cfg: cfg, log: log.With(logger.Component("brain"))}
}

// Snapshot returns the bounded knobs, neutral when the file is missing or malformed.
func (r *Reader) Snapshot(_ context.Context) models.BehavioralMeta {
	if r.cfg.Path == "" {
		return models.NeutralBehavioralMeta()
	}
	raw, err := util.ReadJSONObject(r.cfg.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.log.Warn("behavioral meta unreadable", logger.String("path", r.cfg.Path), logger.Error(err))
		}
		return models.NeutralBehavioralMeta()
	}
	return FromMap(raw, r.cfg.MinKnob, r.cfg.MaxKnob)
}

// FromMap extracts the knobs from {_meta: {...}}, or from the top level when no
// _meta object is present.
func FromMap(raw map[string]any, lo, hi float64) models.BehavioralMeta {
	m, ok := util.Object(raw[metaKey])
	if !ok {
		m = raw
	}
	return models.BehavioralMeta{
		ConfidenceBias: knob(m["confidence_bias"], lo, hi),
		RiskBias:       knob(m["risk_bias"], lo, hi),
		Aggressiveness: knob(m["aggressiveness"], lo, hi),
		UpdatedAt:      util.Str(m["updated_at"]),
	}
}

func knob(v any, lo, hi float64) float64 {
	f, ok := util.Float(v)
	if !ok {
		return 1.0
	}
	return util.Clamp(f, lo, hi)
}

// Static always returns the same snapshot.
type Static models.BehavioralMeta

func (s Static) Snapshot(context.Context) models.BehavioralMeta {
	return models.BehavioralMeta(s)
}

var (
	_ domsvc.MetaSource = (*Reader)(nil)
	_ domsvc.MetaSource = Static{}
)
