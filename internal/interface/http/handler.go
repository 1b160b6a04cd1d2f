package http

import (
	"log/slog"

	"github.com/yanqian/solarinfra/internal/domain/admin"
	"github.com/yanqian/solarinfra/internal/domain/auth"
	"github.com/yanqian/solarinfra/internal/domain/catalog"
	"github.com/yanqian/solarinfra/internal/domain/changefeed"
	"github.com/yanqian/solarinfra/internal/domain/estimator"
	"github.com/yanqian/solarinfra/internal/domain/lead"
	"github.com/yanqian/solarinfra/internal/domain/media"
	"github.com/yanqian/solarinfra/internal/domain/quote"
	"github.com/yanqian/solarinfra/internal/infra/config"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	estimatorSvc estimator.Service
	authSvc      auth.Service
	catalogSvc   catalog.Service
	quoteSvc     quote.Service
	leadSvc      lead.Service
	adminSvc     admin.Service
	mediaSvc     media.Service
	feed         changefeed.Subscriber

	postLoginRedirect string
	stateKey          []byte
	logger            *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(
	cfg *config.Config,
	estimatorSvc estimator.Service,
	authSvc auth.Service,
	catalogSvc catalog.Service,
	quoteSvc quote.Service,
	leadSvc lead.Service,
	adminSvc admin.Service,
	mediaSvc media.Service,
	feed changefeed.Subscriber,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		estimatorSvc:      estimatorSvc,
		authSvc:           authSvc,
		catalogSvc:        catalogSvc,
		quoteSvc:          quoteSvc,
		leadSvc:           leadSvc,
		adminSvc:          adminSvc,
		mediaSvc:          mediaSvc,
		feed:              feed,
		postLoginRedirect: cfg.Auth.Google.PostLoginRedirectURL,
		stateKey:          []byte(cfg.Auth.Secret),
		logger:            logger.With("component", "http.handler"),
	}
}
