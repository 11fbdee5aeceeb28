package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development" validate:"required"`
	Log         LogConfig       `yaml:"log"`
	Store       StoreConfig     `yaml:"store"`
	Redis       RedisConfig     `yaml:"redis"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Macro       MacroConfig     `yaml:"macro"`
	Snapshots   SnapshotsConfig `yaml:"snapshots"`
	Brain       BrainConfig     `yaml:"brain"`
	Regime      RegimeConfig    `yaml:"regime"`
	Fusion      FusionConfig    `yaml:"fusion"`
	Policy      PolicyConfig    `yaml:"policy"`
}

type LogConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output     string `yaml:"output" default:"stdout"`
	TimeFormat string `yaml:"time_format"`
}

type StoreConfig struct {
	Backend            string `yaml:"backend" default:"file" validate:"oneof=file redis"`
	RollingPath        string `yaml:"rolling_path" default:"data/rolling.json.gz"`
	RedisKey           string `yaml:"redis_key" default:"rolling"`
	HistoryWindow      int    `yaml:"history_window" default:"750" validate:"gt=0"`
	GlobalSnapshotPath string `yaml:"global_snapshot_path" default:"data/global_snapshot.json"`
}

type RedisConfig struct {
	Host        string        `yaml:"host" default:"localhost"`
	Port        int           `yaml:"port" default:"6379" validate:"gt=0"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db" validate:"gte=0"`
	Prefix      string        `yaml:"prefix" default:"aion"`
	PoolSize    int           `yaml:"pool_size" default:"10" validate:"gt=0"`
	PoolTimeout time.Duration `yaml:"pool_timeout" default:"30s"`
}

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	RegimeTopic  string        `yaml:"regime_topic" default:"aion.regime"`
	PolicyTopic  string        `yaml:"policy_topic" default:"aion.policy"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3" validate:"gt=0"`
	BatchSize    int           `yaml:"batch_size" default:"100" validate:"gt=0"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	AutoCreate   bool          `yaml:"auto_create_topics"`
}

type MetricsConfig struct {
	// Textfile is a node-exporter textfile collector path; empty disables the dump.
	Textfile string `yaml:"textfile"`
}

type MacroConfig struct {
	MarketStatePath  string        `yaml:"market_state_path" default:"data/market_state.json"`
	MacroStatePath   string        `yaml:"macro_state_path" default:"data/macro_state.json"`
	Dir              string        `yaml:"dir" default:"data/macro"`
	Prefix           string        `yaml:"prefix" default:"macro_"`
	FreshnessDays    float64       `yaml:"freshness_days" default:"3" validate:"gt=0"`
	PercentThreshold float64       `yaml:"percent_threshold" default:"0.35" validate:"gt=0"`
	CacheBackend     string        `yaml:"cache_backend" default:"file" validate:"oneof=file memory redis layered"`
	CachePath        string        `yaml:"cache_path" default:"data/macro_last_good.json"`
	LastGoodTTL      time.Duration `yaml:"last_good_ttl" default:"168h"`
}

type SnapshotsConfig struct {
	NewsDir      string `yaml:"news_dir" default:"data/news"`
	NewsPrefix   string `yaml:"news_prefix" default:"news_"`
	SocialDir    string `yaml:"social_dir" default:"data/social"`
	SocialPrefix string `yaml:"social_prefix" default:"social_"`
}

type BrainConfig struct {
	Path    string  `yaml:"path" default:"data/brain/behavioral_meta.json"`
	MinKnob float64 `yaml:"min_knob" default:"0.5" validate:"gt=0"`
	MaxKnob float64 `yaml:"max_knob" default:"1.5" validate:"gtfield=MinKnob"`
}

// RegimeConfig holds the threshold rules of the regime classifier, evaluated panic, bear, bull.
type RegimeConfig struct {
	PanicSPYPct     float64 `yaml:"panic_spy_pct" default:"-0.025"`
	PanicBreadth    float64 `yaml:"panic_breadth" default:"-0.25"`
	PanicVIX        float64 `yaml:"panic_vix" default:"30"`
	PanicVolatility float64 `yaml:"panic_volatility" default:"0.04"`
	PanicRiskOff    float64 `yaml:"panic_risk_off" default:"0.65"`
	PanicConfidence float64 `yaml:"panic_confidence" default:"0.80"`

	BearSPYPct     float64 `yaml:"bear_spy_pct" default:"-0.012"`
	BearBreadth    float64 `yaml:"bear_breadth" default:"-0.10"`
	BearVIX        float64 `yaml:"bear_vix" default:"22"`
	BearVolatility float64 `yaml:"bear_volatility" default:"0.03"`
	BearRiskOff    float64 `yaml:"bear_risk_off" default:"0.50"`
	BearConfidence float64 `yaml:"bear_confidence" default:"0.65"`

	BullSPYPct     float64 `yaml:"bull_spy_pct" default:"0.012"`
	BullBreadth    float64 `yaml:"bull_breadth" default:"0.10"`
	BullMaxVIX     float64 `yaml:"bull_max_vix" default:"22"`
	BullConfidence float64 `yaml:"bull_confidence" default:"0.70"`

	ChopConfidence     float64 `yaml:"chop_confidence" default:"0.45"`
	FallbackConfidence float64 `yaml:"fallback_confidence" default:"0.30"`
	HintBoost          float64 `yaml:"hint_boost" default:"0.10" validate:"gte=0"`
	HintPenalty        float64 `yaml:"hint_penalty" default:"0.05" validate:"gte=0"`
	MinConfidence      float64 `yaml:"min_confidence" default:"0.25" validate:"gte=0"`
	MaxConfidence      float64 `yaml:"max_confidence" default:"0.95" validate:"gtfield=MinConfidence,lte=1"`
}

type FusionConfig struct {
	NewsWeight     float64 `yaml:"news_weight" default:"0.6"`
	SocialWeight   float64 `yaml:"social_weight" default:"0.4"`
	SentimentBound float64 `yaml:"sentiment_bound" default:"3" validate:"gt=0"`
	ScoreBound     float64 `yaml:"score_bound" default:"0.4" validate:"gt=0"`
	TrendThreshold float64 `yaml:"trend_threshold" default:"0.06" validate:"gt=0"`
	VolWindow      int     `yaml:"vol_window" default:"20" validate:"gt=1"`
	Workers        int     `yaml:"workers" default:"4" validate:"gt=0"`
}

type PolicyConfig struct {
	CandidateHorizons []string `yaml:"candidate_horizons" default:"[\"1w\",\"2w\",\"4w\"]" validate:"min=1,dive,oneof=1d 3d 1w 2w 4w 13w 26w 52w"`
	SigmoidCoef       float64  `yaml:"sigmoid_coef" default:"2.0"`
	PostureRiskOn     float64  `yaml:"posture_risk_on" default:"1.0"`
	PostureNeutral    float64  `yaml:"posture_neutral" default:"0.85"`
	PostureRiskOff    float64  `yaml:"posture_risk_off" default:"0.7"`
	VolPenalty        float64  `yaml:"vol_penalty" default:"0.4"`
	StanceBoost       float64  `yaml:"stance_boost" default:"0.2"`
	MinExposure       float64  `yaml:"min_exposure" default:"0.1" validate:"gt=0"`
	MaxExposure       float64  `yaml:"max_exposure" default:"2.0" validate:"gtfield=MinExposure"`
	GateRegimes       []string `yaml:"gate_regimes" default:"[\"panic\",\"high_vol\"]"`
	GateConfidence    float64  `yaml:"gate_confidence" default:"0.55"`
	DampenVolatility  float64  `yaml:"dampen_volatility" default:"0.7"`
	DampenBuzz        float64  `yaml:"dampen_buzz" default:"50"`
	DampenFactor      float64  `yaml:"dampen_factor" default:"0.6" validate:"gt=0,lte=1"`
	HighVolatility    float64  `yaml:"high_volatility" default:"0.7"`
	MaxRisk           float64  `yaml:"max_risk" default:"0.01" validate:"gt=0"`
	MaxRiskHighVol    float64  `yaml:"max_risk_high_vol" default:"0.005" validate:"gt=0"`
	Workers           int      `yaml:"workers" default:"4" validate:"gt=0"`
}

var validate = validator.New()

// Default returns a configuration populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML (plus an optional .env file) and overrides with
// environment variables.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("AION_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("AION_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("AION_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("AION_ROLLING_PATH"); v != "" {
		c.Store.RollingPath = v
	}
	if v := os.Getenv("AION_REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("AION_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("AION_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("AION_MACRO_DIR"); v != "" {
		c.Macro.Dir = v
	}
	if v := os.Getenv("AION_WORKERS"); v != "" {
		n := util.ParseIntDefault(v, c.Fusion.Workers)
		c.Fusion.Workers = n
		c.Policy.Workers = n
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Macro.CacheBackend == "file" && c.Macro.CachePath == "" {
		return fmt.Errorf("macro.cache_path is required for the file cache backend")
	}
	if c.Store.Backend == "file" && c.Store.RollingPath == "" {
		return fmt.Errorf("store.rolling_path is required for the file backend")
	}
	return nil
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Store.Backend == "redis" || c.Macro.CacheBackend == "redis" || c.Macro.CacheBackend == "layered"
}
