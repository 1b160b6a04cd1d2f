package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/solarinfra/internal/bootstrap"
	"github.com/yanqian/solarinfra/internal/domain/admin"
	"github.com/yanqian/solarinfra/internal/domain/auth"
	"github.com/yanqian/solarinfra/internal/domain/catalog"
	"github.com/yanqian/solarinfra/internal/domain/changefeed"
	"github.com/yanqian/solarinfra/internal/domain/estimator"
	"github.com/yanqian/solarinfra/internal/domain/lead"
	"github.com/yanqian/solarinfra/internal/domain/media"
	"github.com/yanqian/solarinfra/internal/domain/quote"
	"github.com/yanqian/solarinfra/internal/infra/blobstore"
	"github.com/yanqian/solarinfra/internal/infra/config"
	"github.com/yanqian/solarinfra/internal/infra/feedbus"
	"github.com/yanqian/solarinfra/internal/infra/imagegen"
	"github.com/yanqian/solarinfra/internal/infra/leadrepo"
	"github.com/yanqian/solarinfra/internal/infra/productrepo"
	"github.com/yanqian/solarinfra/internal/infra/quoterepo"
	"github.com/yanqian/solarinfra/internal/infra/tunables"
	"github.com/yanqian/solarinfra/internal/infra/userrepo"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		AdminEmails:     cfg.Auth.AdminEmails,
		Google: auth.GoogleConfig{
			ClientID:                   cfg.Auth.Google.ClientID,
			ClientSecret:               cfg.Auth.Google.ClientSecret,
			RedirectURL:                cfg.Auth.Google.RedirectURL,
			TokenEncryptionKey:         cfg.Auth.Google.TokenEncryptionKey,
			RetiredTokenEncryptionKeys: cfg.Auth.Google.RetiredTokenEncryptionKeys,
			PostLoginRedirectURL:       cfg.Auth.Google.PostLoginRedirectURL,
		},
	}
}

func provideCatalogConfig(cfg *config.Config) catalog.Config {
	return catalog.Config{
		EMIDivisor:   cfg.Catalog.EMIDivisor,
		SavingsRate:  cfg.Catalog.SavingsRate,
		SeedOnEmpty:  cfg.Catalog.SeedOnEmpty,
		ArtworkStyle: cfg.Catalog.ArtworkStyle,
	}
}

func provideQuoteConfig(cfg *config.Config) quote.Config {
	return quote.Config{RevisionDiscount: cfg.Quote.RevisionDiscount}
}

func provideMediaConfig(cfg *config.Config) media.Config {
	return media.Config{MaxBillBytes: cfg.Storage.MaxBillBytes}
}

// provideTunables loads the estimator constants and, when a file is configured, keeps them hot-reloadable.
func provideTunables(cfg *config.Config, logger *slog.Logger) (*tunables.Source, error) {
	return tunables.NewSource(cfg.Estimator.TunablesFile, cfg.Estimator.Domain(), logger)
}

func provideConfigSource(src *tunables.Source) estimator.ConfigSource {
	return src
}

// providePostgresPool returns nil when no DSN is set or the database is unreachable; repositories then fall back to memory.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func()) {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil, func() {}
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil, func() {}
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil, func() {}
	}
	logger.Info("postgres repositories enabled")
	return pool, pool.Close
}

func provideUserRepository(pool *pgxpool.Pool) auth.Repository {
	if pool == nil {
		return userrepo.NewMemoryRepository()
	}
	return userrepo.NewPostgresRepository(pool)
}

func provideProductRepository(pool *pgxpool.Pool) catalog.Repository {
	if pool == nil {
		return productrepo.NewMemoryRepository()
	}
	return productrepo.NewPostgresRepository(pool)
}

func provideQuoteRepository(pool *pgxpool.Pool) quote.Repository {
	if pool == nil {
		return quoterepo.NewMemoryRepository()
	}
	return quoterepo.NewPostgresRepository(pool)
}

func provideLeadRepository(pool *pgxpool.Pool) lead.Repository {
	if pool == nil {
		return leadrepo.NewMemoryRepository()
	}
	return leadrepo.NewPostgresRepository(pool)
}

// provideChangeFeed selects the broadcast backend. Valkey and Kafka failures fall back to the in-process feed.
func provideChangeFeed(cfg *config.Config, logger *slog.Logger) (changefeed.Feed, func()) {
	switch cfg.ChangeFeed.Backend {
	case config.FeedValkey:
		client, err := newValkeyClient(cfg.Valkey.Addr)
		if err != nil {
			logger.Error("valkey unavailable, falling back to memory change feed", "error", err)
			break
		}
		logger.Info("valkey change feed enabled", "addr", cfg.Valkey.Addr)
		return feedbus.NewValkeyFeed(client, cfg.ChangeFeed.Prefix, logger), client.Close
	case config.FeedKafka:
		feed := feedbus.NewKafkaFeed(cfg.Kafka.Brokers, cfg.ChangeFeed.Prefix, logger)
		logger.Info("kafka change feed enabled", "brokers", cfg.Kafka.Brokers)
		return feed, func() {
			if err := feed.Close(); err != nil {
				logger.Warn("kafka writers did not close cleanly", "error", err)
			}
		}
	}
	return feedbus.NewMemoryFeed(), func() {}
}

func providePublisher(feed changefeed.Feed) changefeed.Publisher {
	return feed
}

func provideSubscriber(feed changefeed.Feed) changefeed.Subscriber {
	return feed
}

func newValkeyClient(addr string) (valkey.Client, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	if err != nil {
		return nil, err
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// provideObjectStorage uses MinIO/S3 when an endpoint is configured and memory otherwise.
func provideObjectStorage(cfg *config.Config, logger *slog.Logger) media.ObjectStorage {
	if strings.TrimSpace(cfg.Storage.Endpoint) == "" {
		logger.Info("storage endpoint not set, keeping uploads in memory")
		return blobstore.NewMemoryStorage(blobstore.DefaultPublicBase)
	}
	store, err := blobstore.NewMinioStorage(blobstore.MinioOptions{
		Endpoint:   cfg.Storage.Endpoint,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		PublicBase: cfg.Storage.PublicBaseURL,
		PresignTTL: cfg.Storage.PresignTTL,
	}, logger)
	if err != nil {
		logger.Error("object storage unavailable, keeping uploads in memory", "error", err)
		return blobstore.NewMemoryStorage(blobstore.DefaultPublicBase)
	}
	logger.Info("object storage enabled", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
	return store
}

// provideImageGenerator returns nil when no provider is configured, which disables artwork generation.
func provideImageGenerator(cfg *config.Config, logger *slog.Logger) (media.ImageGenerator, error) {
	var (
		gen media.ImageGenerator
		err error
	)
	switch cfg.ImageGen.Provider {
	case config.ImageProviderNone:
		logger.Info("image generation disabled")
		return nil, nil
	case config.ImageProviderGemini:
		gen, err = imagegen.NewGeminiClient(context.Background(), cfg.ImageGen.APIKey, cfg.ImageGen.Model)
	case config.ImageProviderOpenAI:
		gen, err = imagegen.NewOpenAIClient(cfg.ImageGen.APIKey, cfg.ImageGen.BaseURL, cfg.ImageGen.Model)
	default:
		return nil, errors.New("unknown image provider " + cfg.ImageGen.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("image generation enabled", "provider", cfg.ImageGen.Provider)
	return gen, nil
}

func providePaymentGateway() quote.PaymentGateway {
	return quote.SimulatedGateway{}
}

func provideProjector(svc estimator.Service) catalog.Projector { return svc }

func provideBillEstimator(svc estimator.Service) lead.BillEstimator { return svc }

func provideArtworkStore(svc media.Service) catalog.ArtworkStore { return svc }

func provideProductLookup(svc catalog.Service) quote.ProductLookup { return svc }

func provideUserLister(svc auth.Service) admin.UserLister { return svc }

func provideProductLister(svc catalog.Service) admin.ProductLister { return svc }

func provideQuoteLister(svc quote.Service) admin.QuoteLister { return svc }

func provideLeadLister(svc lead.Service) admin.LeadLister { return svc }

func provideWatcher(src *tunables.Source) bootstrap.Watcher { return src }

func provideSeeder(svc catalog.Service) bootstrap.Seeder { return svc }
