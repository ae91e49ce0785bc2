// Package server exposes the prediction service over HTTP with gin.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YuminosukeSato/housepredict/housing"
	"github.com/YuminosukeSato/housepredict/internal/config"
	"github.com/YuminosukeSato/housepredict/internal/metrics"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"github.com/YuminosukeSato/housepredict/pkg/log"
)

// PredictionService is what the handlers need from housing.Service.
type PredictionService interface {
	Ready() bool
	Health() housing.Health
	Predict(ctx context.Context, raw map[string]any) (*housing.Prediction, error)
	PredictCSV(ctx context.Context, r io.Reader) (*housing.BatchResult, error)
}

// Server wires the HTTP routes to a PredictionService.
type Server struct {
	cfg      config.ServerConfig
	svc      PredictionService
	engine   *gin.Engine
	srv      *http.Server
	logger   log.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records request metrics on m and serves g on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// New builds the router. gin's mode is process-global and is set from cfg
// when cfg.GinMode is not empty.
func New(cfg config.ServerConfig, svc PredictionService, opts ...Option) *Server {
	s := &Server{cfg: cfg, svc: svc}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.GetLogger()
	}
	s.logger = s.logger.With(log.ComponentKey, "http")

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	s.engine = gin.New()
	s.engine.HandleMethodNotAllowed = true
	s.routes()

	s.srv = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	if c, ok := corsConfig(s.cfg.AllowedOrigins); ok {
		s.engine.Use(cors.New(c))
	}
	s.engine.Use(requestID(), s.accessLog(), s.recovery())

	s.engine.POST("/predict", s.predict)
	s.engine.POST("/predict-csv", s.predictCSV)
	s.engine.GET("/health", s.health)
	if s.gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: msgNotFound})
	})
	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: msgMethodNotAllowed})
	})
}

func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	c.AllowHeaders = []string{"Origin", "Content-Type", RequestIDHeader}
	c.ExposeHeaders = []string{RequestIDHeader}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c, true
		}
	}
	c.AllowOrigins = origins
	return c, true
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most cfg.ShutdownGrace.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.srv.Addr, log.PhaseKey, log.PhaseStartup)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	grace := s.cfg.ShutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	s.logger.Info("server shutting down", "grace", grace.String())
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http shutdown")
	}
	return nil
}
