// Package api serves the solver and the portfolio store over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jmtruffa/xirr/internal/config"
	"github.com/jmtruffa/xirr/internal/metrics"
	"github.com/jmtruffa/xirr/internal/store"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	log        *logrus.Logger
	metrics    *metrics.Metrics

	// repo is nil when no database is configured.
	repo *store.PortfolioRepository
}

func NewServer(cfg *config.Config, log *logrus.Logger, repo *store.PortfolioRepository) *Server {
	gin.SetMode(cfg.Server.Mode)

	s := &Server{
		config:  cfg,
		router:  gin.New(),
		log:     log,
		metrics: metrics.New(),
		repo:    repo,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestID())
	s.router.Use(s.requestLogger())
	s.router.Use(corsMiddleware(s.config.CORS))
	if s.config.Metrics.Enabled {
		s.router.Use(s.metrics.Middleware())
		s.router.GET(s.config.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}

	s.router.GET("/health", s.health)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/xirr", s.solveXIRR)
		v1.POST("/xnpv", s.presentValue)
		v1.POST("/projection", s.projection)

		portfolios := v1.Group("/portfolios")
		portfolios.Use(s.requireStore())
		{
			portfolios.GET("", s.listPortfolios)
			portfolios.POST("", s.savePortfolio)
			portfolios.GET("/:id", s.getPortfolio)
			portfolios.DELETE("/:id", s.deletePortfolio)
			portfolios.GET("/:id/xirr", s.portfolioXIRR)
		}
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on the configured address until Shutdown is called.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	s.log.WithField("addr", s.httpServer.Addr).Info("starting API server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			s.log.WithError(err).Warn("closing store")
		}
	}

	s.log.Info("server stopped gracefully")
	return nil
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := s.log.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"ip":         c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Debug("request")
		}
	}
}

func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  cfg.AllowedMethods,
		AllowHeaders:  cfg.AllowedHeaders,
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        cfg.MaxAge,
	}
	if slices.Contains(cfg.AllowedOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(c)
}

func (s *Server) requireStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.repo == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "portfolio store is not configured",
			})
			return
		}
		c.Next()
	}
}
