//go:build wireinject
// +build wireinject

package di

import (
	"CandleScope/pkg/config"
	"CandleScope/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideRatesCache,
		ProvideJournal,
		ProvideAnalysisClient,

		// Use cases
		ProvideCachedRates,
		ProvideHub,
		ProvideSessionManager,
		ProvideWarmer,

		// HTTP
		ProvideLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
