package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/parttrack/internal/config"
	"github.com/roach88/parttrack/internal/event"
	"github.com/roach88/parttrack/internal/parts"
	"github.com/roach88/parttrack/internal/tracker"
)

// Tracker is the subset of tracker.Service the API needs.
type Tracker interface {
	Ping(ctx context.Context) error
	BuildChains(ctx context.Context, filter string) (tracker.ChainSet, error)
	DuplicateReport(ctx context.Context) (map[string][]event.Record, error)
	LastUpdateTimestamp(ctx context.Context) (*time.Time, error)
	History(ctx context.Context, part string) ([]event.ConnectionEvent, error)
	RecordConnection(ctx context.Context, req tracker.ConnectRequest) ([]event.ConnectionEvent, error)
	RecordDisconnection(ctx context.Context, req tracker.DisconnectRequest) ([]event.ConnectionEvent, error)
	AllocateParts(ctx context.Context, kind string, count int) ([]parts.Part, error)
}

// Server is the HTTP front end.
type Server struct {
	tracker Tracker
	metrics *Metrics
	logger  *zap.Logger
	cfg     config.HTTPConfig
	engine  *gin.Engine
}

// NewServer builds the router. metrics may be shared with the tracker's
// observer so resolver counts and request counts land in one registry.
func NewServer(t Tracker, metrics *Metrics, cfg config.HTTPConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &Server{
		tracker: t,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestID(), s.accessLog(), metrics.middleware())
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.engine.Group("/api")
	api.GET("/chains", s.handleChains)
	api.GET("/duplicates", s.handleDuplicates)
	api.GET("/last-update", s.handleLastUpdate)
	api.GET("/parts/:part/history", s.handleHistory)
	api.POST("/connections", s.handleConnect)
	api.POST("/disconnections", s.handleDisconnect)
	api.POST("/parts/allocate", s.handleAllocate)
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		s.logger.Info("http server stopped")
		return nil
	})
	return g.Wait()
}

const requestIDHeader = "X-Request-ID"

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

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
