package di

import (
	"fmt"
	"io"

	"github.com/aionanalytics/Aion-sub001/internal/domain/repository"
	domsvc "github.com/aionanalytics/Aion-sub001/internal/domain/service"
	internalrepo "github.com/aionanalytics/Aion-sub001/internal/repository"
	"github.com/aionanalytics/Aion-sub001/internal/services/brain"
	"github.com/aionanalytics/Aion-sub001/internal/services/macro"
	"github.com/aionanalytics/Aion-sub001/internal/services/regime"
	"github.com/aionanalytics/Aion-sub001/internal/services/snapshot"
	"github.com/aionanalytics/Aion-sub001/internal/usecase"
	"github.com/aionanalytics/Aion-sub001/pkg/cache"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	pkgkafka "github.com/aionanalytics/Aion-sub001/pkg/kafka"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
	"github.com/aionanalytics/Aion-sub001/pkg/metrics"
	"github.com/aionanalytics/Aion-sub001/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	return metrics.New(cfg.Metrics.Textfile)
}

// ProvideRedisCache connects to Redis when the store or the macro cache needs it;
// otherwise it returns nil.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.NeedsRedis() {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, cfg.Redis.PoolTimeout),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideMacroCache picks the last-good macro cache backend.
func ProvideMacroCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	switch cfg.Macro.CacheBackend {
	case "redis":
		return rc
	case "layered":
		return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(16))
	case "memory":
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(16))
	default:
		return cache.NewFileCache(cfg.Macro.CachePath)
	}
}

// ProvideRollingStore creates the rolling store for the configured backend.
func ProvideRollingStore(cfg *config.Config, rc *cache.RedisCache, log *logger.Logger) repository.RollingStore {
	if cfg.Store.Backend == "redis" {
		return internalrepo.NewRedisRollingStore(rc.Client(), rc.Key(cfg.Store.RedisKey), cfg.Store.HistoryWindow, log)
	}
	return internalrepo.NewFileRollingStore(cfg.Store.RollingPath, cfg.Store.HistoryWindow, log)
}

// ProvideMacroSource creates the macro snapshot loader.
func ProvideMacroSource(cfg *config.Config, c cache.Service, m repository.Metrics, log *logger.Logger) domsvc.MacroSource {
	return macro.NewLoader(cfg.Macro, log, macro.WithCache(c), macro.WithMetrics(m))
}

// ProvideMetaSource creates the behavioral-meta reader.
func ProvideMetaSource(cfg *config.Config, log *logger.Logger) domsvc.MetaSource {
	return brain.NewReader(cfg.Brain, log)
}

func ProvideNewsReader(cfg *config.Config, log *logger.Logger) *snapshot.NewsReader {
	return snapshot.NewNewsReader(cfg.Snapshots.NewsDir, cfg.Snapshots.NewsPrefix, log)
}

func ProvideSocialReader(cfg *config.Config, log *logger.Logger) *snapshot.SocialReader {
	return snapshot.NewSocialReader(cfg.Snapshots.SocialDir, cfg.Snapshots.SocialPrefix, log)
}

// ProvideContextFuser creates the context fusion use case.
func ProvideContextFuser(
	news *snapshot.NewsReader,
	social *snapshot.SocialReader,
	src domsvc.MacroSource,
	meta domsvc.MetaSource,
	m repository.Metrics,
	cfg *config.Config,
	log *logger.Logger,
) *usecase.ContextFuser {
	return usecase.NewContextFuser(news, social, src, meta, cfg.Fusion, m, log)
}

// ProvideRegimeDetector creates the regime detector.
func ProvideRegimeDetector(src domsvc.MacroSource, meta domsvc.MetaSource, m repository.Metrics, cfg *config.Config, log *logger.Logger) *regime.Detector {
	return regime.NewDetector(src, meta, cfg.Regime, m, log)
}

// ProvidePolicyEngine creates the policy use case.
func ProvidePolicyEngine(m repository.Metrics, cfg *config.Config, log *logger.Logger) *usecase.PolicyEngine {
	return usecase.NewPolicyEngine(cfg.Policy, m, log)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when publishing is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithAutoCreateTopics(cfg.Kafka.AutoCreate),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates Kafka publisher repository.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewKafkaDirectivePublisher(producer, cfg.Kafka.RegimeTopic, cfg.Kafka.PolicyTopic)
}

// ProvidePipeline creates the pass orchestrator.
func ProvidePipeline(
	store repository.RollingStore,
	fuser *usecase.ContextFuser,
	detector *regime.Detector,
	engine *usecase.PolicyEngine,
	pub repository.Publisher,
	m repository.Metrics,
	cfg *config.Config,
	log *logger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(store, fuser, detector, engine, pub, m, cfg.Store.GlobalSnapshotPath, log)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	pipeline *usecase.Pipeline,
	pub repository.Publisher,
	macroCache cache.Service,
	rc *cache.RedisCache,
	log *logger.Logger,
) *server.App {
	var closers []io.Closer
	if rc != nil {
		closers = append(closers, rc)
	}
	// the redis backend shares rc, closed above
	if cfg.Macro.CacheBackend != "redis" && macroCache != nil {
		closers = append(closers, macroCache)
	}
	return server.New(cfg, pipeline, pub, log, closers...)
}
