// Package server exposes the detector over HTTP: one-shot scans, saved analyses with exports,
// and, when a hub is attached, live alert statistics and a websocket stream.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/aggregator"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/analysis"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/archive"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/hub"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/metrics"
)

const (
	DefaultPort      = 6969
	DefaultPageLimit = 500
	DefaultCapacity  = 10

	maxMultipartMemory = 32 << 20
	shutdownTimeout    = 5 * time.Second
)

// Options configure a Server. Zero values select defaults.
type Options struct {
	Port         int
	PageLimit    int
	Capacity     int // saved analyses kept before the oldest is evicted
	TopAttackers int
	Registry     *detector.Registry
	Extractor    archive.Extractor
	Metrics      *metrics.Metrics
	Logger       *slog.Logger

	// Hub and Live enable /api/stats and /ws.
	Hub  *hub.Hub
	Live *aggregator.Live
}

// Server holds the Gin engine and its dependencies.
type Server struct {
	engine   *gin.Engine
	opts     Options
	logger   *slog.Logger
	analyses *lru.Cache[string, *analysis.Session]
}

// New creates the HTTP server.
func New(opts Options) (*Server, error) {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultPageLimit
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Registry == nil {
		opts.Registry = detector.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cache, err := lru.NewWithEvict(opts.Capacity, func(id string, _ *analysis.Session) {
		opts.Logger.Debug("analysis evicted", "analysis", id)
	})
	if err != nil {
		return nil, fmt.Errorf("creating analysis cache: %w", err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(opts.Logger))
	engine.MaxMultipartMemory = maxMultipartMemory

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:   engine,
		opts:     opts,
		logger:   opts.Logger,
		analyses: cache,
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/attack-types", s.handleAttackTypes)
	api.POST("/scan/:endpoint", s.handleScan)

	api.POST("/analyses", s.handleCreateAnalysis)
	api.GET("/analyses", s.handleListAnalyses)
	api.GET("/analyses/:id", s.handleGetAnalysis)
	api.DELETE("/analyses/:id", s.handleDeleteAnalysis)
	api.POST("/analyses/:id/scan/:endpoint", s.handleAnalysisScan)
	api.GET("/analyses/:id/export", s.handleExport)

	if s.opts.Hub != nil && s.opts.Live != nil {
		api.GET("/stats", s.handleStats)
		s.engine.GET("/ws", s.handleWebSocket)
	}

	s.engine.GET("/metrics", gin.WrapH(s.opts.Metrics.Handler()))

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

func (s *Server) sessionOptions() analysis.Options {
	return analysis.Options{
		Extractor:    s.opts.Extractor,
		Registry:     s.opts.Registry,
		Metrics:      s.opts.Metrics,
		Logger:       s.logger,
		TopAttackers: s.opts.TopAttackers,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"detectors": len(s.opts.Registry.Endpoints()),
		"analyses":  s.analyses.Len(),
	}
	if s.opts.Live != nil {
		stats := s.opts.Live.Snapshot()
		body["uptime"] = stats.Uptime
		body["files_watched"] = stats.FilesWatched
		body["dropped_alerts"] = stats.DroppedAlerts
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleAttackTypes(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Registry.AttackTypes())
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"live":     s.opts.Live.Snapshot(),
		"pipeline": s.opts.Hub.Stats(),
		"summary":  s.opts.Live.Results().Summary(s.opts.TopAttackers),
	})
}
