//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/solarinfra/internal/bootstrap"
	"github.com/yanqian/solarinfra/internal/domain/admin"
	"github.com/yanqian/solarinfra/internal/domain/auth"
	"github.com/yanqian/solarinfra/internal/domain/catalog"
	"github.com/yanqian/solarinfra/internal/domain/estimator"
	"github.com/yanqian/solarinfra/internal/domain/lead"
	"github.com/yanqian/solarinfra/internal/domain/media"
	"github.com/yanqian/solarinfra/internal/domain/quote"
	"github.com/yanqian/solarinfra/internal/infra/config"
	httpiface "github.com/yanqian/solarinfra/internal/interface/http"
	"github.com/yanqian/solarinfra/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAuthConfig,
		provideCatalogConfig,
		provideQuoteConfig,
		provideMediaConfig,
		provideTunables,
		provideConfigSource,
		providePostgresPool,
		provideUserRepository,
		provideProductRepository,
		provideQuoteRepository,
		provideLeadRepository,
		provideChangeFeed,
		providePublisher,
		provideSubscriber,
		provideObjectStorage,
		provideImageGenerator,
		providePaymentGateway,
		provideProjector,
		provideBillEstimator,
		provideArtworkStore,
		provideProductLookup,
		provideUserLister,
		provideProductLister,
		provideQuoteLister,
		provideLeadLister,
		provideWatcher,
		provideSeeder,
		estimator.NewService,
		auth.NewService,
		media.NewService,
		catalog.NewService,
		quote.NewService,
		lead.NewService,
		admin.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
