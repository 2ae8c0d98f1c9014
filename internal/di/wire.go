//go:build wireinject
// +build wireinject

package di

import (
	"VolServe/pkg/config"
	"VolServe/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application plus a
// cleanup that releases stores, caches and producers.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvidePriceStore,
		ProvidePriceProvider,
		ProvideModelStore,
		ProvideForecastCache,
		ProvideEventPublisher,

		// Domain services and use cases
		ProvideFitter,
		ProvideReturnPreparer,
		ProvideVolatilityPipeline,

		// Delivery
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideScheduler,
		ProvideApp,
	)
	return nil, nil, nil
}
