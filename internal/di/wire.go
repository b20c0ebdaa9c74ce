//go:build wireinject
// +build wireinject

package di

import (
	"Omnitrade/pkg/config"
	"Omnitrade/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideClickHouseClient,
		ProvideLogCollector,

		// Repositories
		ProvideActionLog,
		ProvideMetricsStore,
		ProvideActionArchive,
		ProvidePublisher,

		// Core
		ProvideScannerSource,
		ProvideRegistry,
		ProvideEvaluator,

		// Use cases
		ProvideHub,
		ProvideGovernanceCycle,
		ProvideRiskMetricsHandler,

		// Transport
		ProvideRateLimiter,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
