//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideMacroCache,
		ProvideKafkaProducer,

		// Repositories
		ProvideRollingStore,
		ProvidePublisher,

		// Services
		ProvideMacroSource,
		ProvideMetaSource,
		ProvideNewsReader,
		ProvideSocialReader,
		ProvideRegimeDetector,

		// Use cases
		ProvideContextFuser,
		ProvidePolicyEngine,
		ProvidePipeline,

		ProvideApp,
	)
	return &server.App{}, nil
}
