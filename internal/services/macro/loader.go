package macro

import (
	"context"
	"errors"
	"time"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/internal/domain/repository"
	"github.com/aionanalytics/Aion-sub001/pkg/cache"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
	"github.com/aionanalytics/Aion-sub001/pkg/metrics"
)

// LastGoodKey is the cache key of the most recently accepted snapshot.
const LastGoodKey = "macro:last_good"

const (
	SourceMarketState = "market_state"
	SourceMacroState  = "macro_state"
	SourceMacroDir    = "macro_dir"
)

// Candidate is a provider plus whether its age is checked.
type Candidate struct {
	Provider
	CheckFreshness bool
}

// Loader resolves the macro snapshot from an ordered list of candidates. The first
// sane (and, where checked, fresh) candidate wins.
type Loader struct {
	candidates []Candidate
	cfg        config.MacroConfig
	cache      cache.Service
	metrics    repository.Metrics
	log        *logger.Logger
	now        func() time.Time
}

type Option func(*Loader)

// WithCandidates replaces the default source chain.
func WithCandidates(c ...Candidate) Option {
	return func(l *Loader) { l.candidates = c }
}

// WithCache enables the last-good fallback.
func WithCache(c cache.Service) Option {
	return func(l *Loader) { l.cache = c }
}

func WithMetrics(m repository.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithClock overrides time.Now for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// NewLoader builds the default chain: market state file (freshness checked), macro
// state file, newest dated file in the macro directory.
func NewLoader(cfg config.MacroConfig, log *logger.Logger, opts ...Option) *Loader {
	l := &Loader{
		candidates: []Candidate{
			{Provider: NewFileProvider(SourceMarketState, cfg.MarketStatePath), CheckFreshness: true},
			{Provider: NewFileProvider(SourceMacroState, cfg.MacroStatePath)},
			{Provider: NewDatedDirProvider(SourceMacroDir, cfg.Dir, cfg.Prefix)},
		},
		cfg:     cfg,
		metrics: metrics.Nop{},
		log:     log.With(logger.Component("macro_loader")),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load never fails. On success diagnostics are dropped; otherwise every attempt is
// reported alongside the last-good snapshot, if one is cached.
func (l *Loader) Load(ctx context.Context) models.MacroResult {
	now := l.now().UTC()
	diags := make([]models.SourceDiagnostic, 0, len(l.candidates))

	for _, c := range l.candidates {
		snap, diag := l.attempt(ctx, c, now)
		diags = append(diags, diag)
		if snap == nil {
			continue
		}
		l.remember(ctx, *snap)
		l.log.Info("macro snapshot accepted",
			logger.String("source", diag.Source),
			logger.String("path", diag.Path),
			logger.Float64("vix", snap.VIX),
			logger.Float64("spy_pct", snap.SPYPct),
			logger.Float64("breadth", snap.Breadth),
		)
		return models.MacroResult{Snapshot: snap}
	}

	for _, d := range diags {
		l.log.Warn("macro source rejected",
			logger.String("source", d.Source),
			logger.String("path", d.Path),
			logger.Bool("loaded", d.Loaded),
			logger.Bool("sane", d.Sane),
			logger.Bool("fresh", d.Fresh),
			logger.Float64("age_days", d.AgeDays),
			logger.String("error", d.Error),
		)
	}

	if cached, ok := l.lastGood(ctx); ok {
		l.log.Warn("using last good macro snapshot",
			logger.String("source", cached.Source),
			logger.Time("generated_at", cached.GeneratedAt),
		)
		return models.MacroResult{Snapshot: &cached, FromCache: true, Diagnostics: diags}
	}

	l.log.Error("no macro snapshot available", logger.Error(models.ErrNoMacroSnapshot))
	return models.MacroResult{Diagnostics: diags}
}

func (l *Loader) attempt(ctx context.Context, c Candidate, now time.Time) (*models.MacroSnapshot, models.SourceDiagnostic) {
	diag := models.SourceDiagnostic{Source: c.Name()}

	raw, err := c.Fetch(ctx)
	diag.Path = raw.Path
	if err != nil {
		diag.Error = err.Error()
		l.metrics.RecordMacroAttempt(diag.Source, "missing")
		return nil, diag
	}
	diag.Loaded = true

	snap := Normalize(raw.Data, l.cfg.PercentThreshold)
	snap.Source = diag.Source
	if snap.GeneratedAt.IsZero() && !raw.ModTime.IsZero() {
		snap.GeneratedAt = raw.ModTime.UTC().Round(0)
	}

	diag.VIX, diag.SPYPct, diag.Breadth = snap.VIX, snap.SPYPct, snap.Breadth
	diag.Sane = IsSane(snap)
	diag.Fresh = true
	if !snap.GeneratedAt.IsZero() {
		diag.AgeDays = Age(snap.GeneratedAt, now)
	}
	if c.CheckFreshness {
		diag.Fresh = IsFresh(snap.GeneratedAt, now, l.cfg.FreshnessDays)
	}

	switch {
	case !diag.Sane:
		l.metrics.RecordMacroAttempt(diag.Source, "insane")
		return nil, diag
	case !diag.Fresh:
		l.metrics.RecordMacroAttempt(diag.Source, "stale")
		return nil, diag
	}
	l.metrics.RecordMacroAttempt(diag.Source, "ok")
	return &snap, diag
}

func (l *Loader) remember(ctx context.Context, snap models.MacroSnapshot) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Set(ctx, LastGoodKey, snap, l.cfg.LastGoodTTL); err != nil {
		l.log.Warn("cache last good macro failed", logger.Error(err))
	}
}

func (l *Loader) lastGood(ctx context.Context) (models.MacroSnapshot, bool) {
	if l.cache == nil {
		return models.MacroSnapshot{}, false
	}
	snap, err := cache.GetTyped[models.MacroSnapshot](ctx, l.cache, LastGoodKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.log.Warn("read last good macro failed", logger.Error(err))
		}
		return models.MacroSnapshot{}, false
	}
	return snap, true
}
