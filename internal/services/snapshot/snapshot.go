package snapshot

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/aionanalytics/Aion-sub001/pkg/logger"
	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

// NewsSignal is one symbol's entry in the news snapshot. Zero value is neutral.
type NewsSignal struct {
	SentimentMean  float64
	BuzzCount      float64
	BuzzScore      float64
	ShockScore     float64
	ShockDirection string
}

// SocialSignal is one symbol's entry in the social snapshot. Zero value is neutral.
type SocialSignal struct {
	Sentiment float64
	Buzz      float64
}

const neutralDirection = "neutral"

// table indexes a snapshot's per-symbol objects by upper-case ticker.
type table struct {
	path    string
	entries map[string]map[string]any
}

func newTable(path string, root map[string]any) *table {
	t := &table{path: path, entries: make(map[string]map[string]any, len(root))}
	for key, v := range root {
		obj, ok := util.Object(v)
		if !ok {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(key))
		// exact upper-case keys win over folded ones
		if _, seen := t.entries[sym]; seen && key != sym {
			continue
		}
		t.entries[sym] = obj
	}
	return t
}

func (t *table) get(symbol string) (map[string]any, bool) {
	if t == nil {
		return nil, false
	}
	m, ok := t.entries[strings.ToUpper(strings.TrimSpace(symbol))]
	return m, ok
}

// load reads the newest prefixed file of dir and returns the object under rootKey.
func load(dir, prefix, rootKey string, log *logger.Logger) *table {
	fi, err := util.LatestFile(dir, prefix)
	if err != nil {
		if !errors.Is(err, util.ErrNoMatch) && !errors.Is(err, os.ErrNotExist) {
			log.Warn("snapshot lookup failed", logger.String("dir", dir), logger.Error(err))
		} else {
			log.Debug("no snapshot file", logger.String("dir", dir), logger.String("prefix", prefix))
		}
		return nil
	}
	raw, err := util.ReadJSONObject(fi.Path)
	if err != nil {
		log.Warn("snapshot unreadable", logger.String("path", fi.Path), logger.Error(err))
		return nil
	}
	root, ok := util.Object(raw[rootKey])
	if !ok {
		log.Warn("snapshot has no symbol table", logger.String("path", fi.Path), logger.String("key", rootKey))
		return nil
	}
	log.Debug("snapshot loaded", logger.String("path", fi.Path), logger.Int("symbols", len(root)))
	return newTable(fi.Path, root)
}

// NewsReader selects the most recent news snapshot by prefix and modification time.
type NewsReader struct {
	dir    string
	prefix string
	log    *logger.Logger
}

func NewNewsReader(dir, prefix string, log *logger.Logger) *NewsReader {
	return &NewsReader{dir: dir, prefix: prefix, log: log.With(logger.Component("news_snapshot"))}
}

// Load returns nil when no usable snapshot exists; a nil *News still answers lookups.
func (r *NewsReader) Load(ctx context.Context) *News {
	if ctx.Err() != nil {
		return nil
	}
	t := load(r.dir, r.prefix, "symbols", r.log)
	if t == nil {
		return nil
	}
	return &News{t: t}
}

type News struct{ t *table }

func (n *News) Present() bool { return n != nil && n.t != nil }

func (n *News) Path() string {
	if !n.Present() {
		return ""
	}
	return n.t.path
}

// Lookup extracts a symbol's news signal, neutral when absent.
func (n *News) Lookup(symbol string) NewsSignal {
	out := NewsSignal{ShockDirection: neutralDirection}
	if n == nil {
		return out
	}
	m, ok := n.t.get(symbol)
	if !ok {
		return out
	}
	out.SentimentMean = pathFloat(m, "long_horizon", "sentiment_mean")
	out.BuzzCount = pathFloat(m, "buzz", "buzz_count")
	out.BuzzScore = pathFloat(m, "buzz", "buzz_score")
	out.ShockScore = pathFloat(m, "shock", "score")
	if v, ok := util.Path(m, "shock", "direction"); ok {
		if d := strings.ToLower(util.Str(v)); d != "" {
			out.ShockDirection = d
		}
	}
	return out
}

// SocialReader selects the most recent social-sentiment snapshot.
type SocialReader struct {
	dir    string
	prefix string
	log    *logger.Logger
}

func NewSocialReader(dir, prefix string, log *logger.Logger) *SocialReader {
	return &SocialReader{dir: dir, prefix: prefix, log: log.With(logger.Component("social_snapshot"))}
}

func (r *SocialReader) Load(ctx context.Context) *Social {
	if ctx.Err() != nil {
		return nil
	}
	t := load(r.dir, r.prefix, "data", r.log)
	if t == nil {
		return nil
	}
	return &Social{t: t}
}

type Social struct{ t *table }

func (s *Social) Present() bool { return s != nil && s.t != nil }

func (s *Social) Path() string {
	if !s.Present() {
		return ""
	}
	return s.t.path
}

// Lookup extracts a symbol's social signal; avg_sentiment is preferred over sentiment.
func (s *Social) Lookup(symbol string) SocialSignal {
	var out SocialSignal
	if s == nil {
		return out
	}
	m, ok := s.t.get(symbol)
	if !ok {
		return out
	}
	for _, k := range []string{"avg_sentiment", "sentiment"} {
		if f, ok := util.Float(m[k]); ok {
			out.Sentiment = f
			break
		}
	}
	out.Buzz = util.FloatDefault(m["buzz"], 0)
	return out
}

func pathFloat(m map[string]any, keys ...string) float64 {
	v, ok := util.Path(m, keys...)
	if !ok {
		return 0
	}
	return util.FloatDefault(v, 0)
}
