package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	domrepo "github.com/aionanalytics/Aion-sub001/internal/domain/repository"
	domsvc "github.com/aionanalytics/Aion-sub001/internal/domain/service"
	"github.com/aionanalytics/Aion-sub001/internal/services/features"
	"github.com/aionanalytics/Aion-sub001/internal/services/snapshot"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
	"github.com/aionanalytics/Aion-sub001/pkg/metrics"
	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

const stageFuse = "fuse"

// FuseInputs are the pass-wide inputs of the fuser, loaded once per pass.
type FuseInputs struct {
	News   *snapshot.News
	Social *snapshot.Social
	Macro  models.MacroResult
	Meta   models.BehavioralMeta
}

type ContextFuser struct {
	news    *snapshot.NewsReader
	social  *snapshot.SocialReader
	macro   domsvc.MacroSource
	meta    domsvc.MetaSource
	cfg     config.FusionConfig
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewContextFuser(news *snapshot.NewsReader, social *snapshot.SocialReader, macro domsvc.MacroSource, meta domsvc.MetaSource, cfg config.FusionConfig, m domrepo.Metrics, log *logger.Logger) *ContextFuser {
	if m == nil {
		m = metrics.Nop{}
	}
	return &ContextFuser{
		news:    news,
		social:  social,
		macro:   macro,
		meta:    meta,
		cfg:     cfg,
		metrics: m,
		log:     log.With(logger.Component("context_fuser")),
	}
}

// LoadInputs reads news, social, macro and behavioral meta. Missing inputs come back
// nil or empty; lookups on them yield neutral values.
func (f *ContextFuser) LoadInputs(ctx context.Context) FuseInputs {
	in := FuseInputs{
		News:   f.news.Load(ctx),
		Social: f.social.Load(ctx),
		Macro:  f.macro.Load(ctx),
		Meta:   f.meta.Snapshot(ctx),
	}
	f.log.Info("fusion inputs loaded",
		logger.Bool("has_news", in.News.Present()),
		logger.String("news_path", in.News.Path()),
		logger.Bool("has_social", in.Social.Present()),
		logger.String("social_path", in.Social.Path()),
		logger.Bool("has_macro", !in.Macro.Empty()),
		logger.Bool("macro_from_cache", in.Macro.FromCache),
	)
	return in
}

// Fuse replaces the context block of every symbol in r and records the global state
// under the reserved key. It only fails when ctx is cancelled.
func (f *ContextFuser) Fuse(ctx context.Context, r *models.Rolling, in FuseInputs, runID string, now time.Time) (models.GlobalState, error) {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.cfg.Workers, 1))
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
			block := BuildContext(node, in.News.Lookup(sym), in.Social.Lookup(sym), in.Macro.Snapshot, in.Meta, f.cfg)
			node.Context = &block
			if block.Sector != "" {
				node.Sector = block.Sector
			}
			f.metrics.RecordSymbol(stageFuse, "ok")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.GlobalState{}, err
	}

	global := models.GlobalState{
		RunID:          runID,
		GeneratedAt:    now.UTC(),
		Macro:          in.Macro.Snapshot,
		MacroFromCache: in.Macro.FromCache,
		BehavioralMeta: in.Meta,
		HasNews:        in.News.Present(),
		HasSocial:      in.Social.Present(),
		HasMacro:       !in.Macro.Empty(),
		Symbols:        len(r.Symbols),
	}
	if err := r.SetGlobal(global); err != nil {
		f.log.Error("global state not recorded", logger.Error(err))
	}

	f.metrics.ObservePass(stageFuse, time.Since(start))
	f.log.Info("context fused",
		logger.String("run_id", runID),
		logger.Int("symbols", len(r.Symbols)),
		logger.Duration("took", time.Since(start)),
	)
	return global, nil
}

// BuildContext derives one symbol's context block. It is pure: equal inputs give an
// equal block.
func BuildContext(node *models.SymbolNode, news snapshot.NewsSignal, social snapshot.SocialSignal, macro *models.MacroSnapshot, meta models.BehavioralMeta, cfg config.FusionConfig) models.ContextBlock {
	block := models.ContextBlock{
		NewsSentiment:   news.SentimentMean,
		NewsBuzzCount:   news.BuzzCount,
		NewsBuzzScore:   news.BuzzScore,
		ShockScore:      news.ShockScore,
		ShockDirection:  news.ShockDirection,
		SocialSentiment: social.Sentiment,
		SocialBuzz:      social.Buzz,
		Buzz:            news.BuzzCount + social.Buzz,
		RegimeHint:      "neutral",
		BehavioralMeta:  meta,
	}
	if block.ShockDirection == "" {
		block.ShockDirection = "neutral"
	}
	block.Sentiment = util.Clamp(
		cfg.NewsWeight*news.SentimentMean+cfg.SocialWeight*social.Sentiment,
		-cfg.SentimentBound, cfg.SentimentBound,
	)

	applyPredictions(&block, node.PredictionBlocks(), cfg)
	block.Trend = trendOf(block.PredScore, cfg.TrendThreshold)

	if macro != nil {
		block.Volatility = macro.Volatility
		block.Breadth = macro.Breadth
		block.RiskOff = macro.RiskOff
		if macro.RegimeHint != "" {
			block.RegimeHint = macro.RegimeHint
		}
	}
	block.RealizedVol = features.HistoryVolatility(models.DatedHistory(node.History, 0), cfg.VolWindow)
	block.Sector = node.ResolveSector()
	return block
}

type horizonGroup struct {
	name     string
	horizons []models.Horizon
	score    *float64
	conf     *float64
}

func applyPredictions(block *models.ContextBlock, preds map[models.Horizon]models.Prediction, cfg config.FusionConfig) {
	signals := make(map[models.Horizon]models.HorizonSignal, len(preds))
	for h, p := range preds {
		signals[h] = models.HorizonSignal{
			Score:      util.Clamp(p.Score, -cfg.ScoreBound, cfg.ScoreBound),
			Confidence: util.Clamp(p.Confidence, 0, 1),
		}
	}
	block.Predictions = signals

	groups := []horizonGroup{
		{"short", models.ShortHorizons, &block.PredScoreShort, &block.PredConfShort},
		{"mid", models.MidHorizons, &block.PredScoreMid, &block.PredConfMid},
		{"long", models.LongHorizons, &block.PredScoreLong, &block.PredConfLong},
	}
	for _, grp := range groups {
		var scores, confs []float64
		for _, h := range grp.horizons {
			if s, ok := signals[h]; ok {
				scores = append(scores, s.Score)
				confs = append(confs, s.Confidence)
			}
		}
		*grp.score = util.Mean(scores)
		*grp.conf = util.Mean(confs)
	}

	// first non-zero group average wins
	for _, grp := range groups {
		if *grp.score != 0 {
			block.PredScore = *grp.score
			block.PredConfidence = *grp.conf
			block.PredGroup = grp.name
			return
		}
	}
}

func trendOf(score, threshold float64) string {
	switch {
	case score >= threshold:
		return models.TrendBullish
	case score <= -threshold:
		return models.TrendBearish
	}
	return models.TrendNeutral
}
