// Package api is the HTTP gateway that fronts the prediction service for
// browser clients.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/liver-predict/internal/cache"
	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/middleware"
	"github.com/liver-predict/internal/service"
)

// BreakerState reports the upstream circuit breaker state.
type BreakerState interface {
	State() string
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	service       *service.PredictionService
	breaker       BreakerState
	cacheStats    func() cache.Stats
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithBreakerState exposes the upstream breaker state on the health route.
func WithBreakerState(b BreakerState) Option {
	return func(s *Server) { s.breaker = b }
}

// WithCacheStats reports in-process result cache usage on the health route.
func WithCacheStats(stats func() cache.Stats) Option {
	return func(s *Server) { s.cacheStats = stats }
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, svc *service.PredictionService, logger *logrus.Logger, opts ...Option) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.Metrics())

	server := &Server{
		configManager: configManager,
		service:       svc,
		logger:        logger,
		router:        router,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.setupRoutes(cfg)

	return server
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("Gateway listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down gateway")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes(cfg *domain.Config) {
	s.router.GET("/metrics", middleware.MetricsHandler())

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/fields", s.handleFields)
		api.GET("/fields/:field", s.handleField)

		api.POST("/predict",
			limiter.Middleware(),
			middleware.RequestTimeout(cfg.Server.RequestTimeout),
			s.handlePredict,
		)

		api.GET("/predictions", s.handleListPredictions)
		api.GET("/predictions/:id", s.handleGetPrediction)
		api.DELETE("/predictions/:id", s.handleDeletePrediction)
	}
}

// corsMiddleware allows every origin when the list is empty or contains "*".
func corsMiddleware(origins []string) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Correlation-ID"}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{"X-Correlation-ID"}
	return cors.New(corsCfg)
}
