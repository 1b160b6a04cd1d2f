package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/solarinfra/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := router.Group("/api/v1")
	{
		estimate := api.Group("/estimator")
		estimate.POST("/load", handler.EstimateLoad)
		estimate.POST("/size", handler.SizePlant)
		estimate.POST("/quick", handler.QuickEstimate)
		estimate.POST("/installment", handler.Installment)
		estimate.GET("/tunables", handler.Tunables)

		api.GET("/products", handler.ListProducts)
		api.GET("/products/:id", handler.GetProduct)
		api.GET("/products/:id/projection", handler.ProductProjection)

		api.POST("/leads", optionalAuthMiddleware(handler.authSvc), handler.CaptureLead)
		api.GET("/media/*key", optionalAuthMiddleware(handler.authSvc), handler.ServeMedia)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/refresh", handler.Refresh)
		authGroup.GET("/google/login", handler.GoogleLogin)
		authGroup.GET("/google/callback", handler.GoogleCallback)

		protected := api.Group("")
		protected.Use(authMiddleware(handler.authSvc))
		protected.GET("/auth/me", handler.Me)
		protected.PATCH("/auth/me", handler.UpdateMe)
		protected.POST("/auth/me/bill", handler.UploadBill)
		protected.POST("/auth/logout", handler.Logout)
		protected.POST("/quotes", handler.RequestQuote)
		protected.GET("/quotes", handler.ListMyQuotes)
		protected.POST("/quotes/:id/accept", handler.AcceptQuote)
		protected.POST("/quotes/:id/reject", handler.RejectQuote)
		protected.POST("/quotes/:id/pay", handler.PayQuote)

		admin := api.Group("/admin")
		admin.Use(authMiddleware(handler.authSvc), requireAdmin())
		admin.GET("/overview", handler.Overview)
		admin.GET("/users", handler.ListUsers)
		admin.GET("/quotes", handler.ListAllQuotes)
		admin.POST("/quotes/:id/revise", handler.ReviseQuote)
		admin.GET("/leads", handler.ListLeads)
		admin.PATCH("/leads/:id", handler.UpdateLeadStatus)
		admin.POST("/products", handler.CreateProduct)
		admin.PATCH("/products/:id/price", handler.UpdateProductPrice)
		admin.POST("/products/:id/stock", handler.ToggleProductStock)
		admin.DELETE("/products/:id", handler.DeleteProduct)
		admin.POST("/products/:id/artwork", handler.GenerateProductArtwork)
		admin.GET("/stream", handler.StreamChanges)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
