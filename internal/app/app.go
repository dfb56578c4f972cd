package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moxitooo/zzzmeika/internal/config"
	"github.com/moxitooo/zzzmeika/internal/leaderboard"
	servernet "github.com/moxitooo/zzzmeika/internal/net"
	"github.com/moxitooo/zzzmeika/internal/net/ws"
	"github.com/moxitooo/zzzmeika/internal/telemetry"
	"github.com/moxitooo/zzzmeika/logging"
	loggingSinks "github.com/moxitooo/zzzmeika/logging/sinks"
	"github.com/moxitooo/zzzmeika/server"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	// ConfigPath is the JSON config file. It is created with defaults when
	// missing and watched for changes while the server runs.
	ConfigPath string
	Logger     telemetry.Logger
}

// Server is the assembled process: logging router, leaderboard store, hub and
// HTTP handler.
type Server struct {
	Handler http.Handler

	cfg     config.Config
	logger  telemetry.Logger
	router  *logging.Router
	store   *leaderboard.SQLiteStore
	hub     *server.Hub
	metrics *logging.Metrics
}

// New wires every component from cfg. Console events are written to console.
func New(cfg config.Config, logger telemetry.Logger, console io.Writer) (*Server, error) {
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	if console == nil {
		console = os.Stdout
	}

	logConfig := logging.DefaultConfig()
	logConfig.MinimumSeverity = logging.ParseSeverity(cfg.Log.Level)
	if cfg.Log.BufferSize > 0 {
		logConfig.BufferSize = cfg.Log.BufferSize
	}
	logConfig.Fields = map[string]any{"service": "snake"}
	sinks := []logging.NamedSink{{Name: "console", Sink: loggingSinks.NewConsoleSink(console)}}
	if cfg.Log.JSONPath != "" {
		file, err := os.OpenFile(cfg.Log.JSONPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open json log %s: %w", cfg.Log.JSONPath, err)
		}
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)})
	}

	router, err := logging.NewRouter(logging.ClockFunc(time.Now), logConfig, sinks)
	if err != nil {
		return nil, fmt.Errorf("failed to construct logging router: %w", err)
	}

	store, err := leaderboard.Open(cfg.Leaderboard.Path)
	if err != nil {
		router.Close(context.Background())
		return nil, fmt.Errorf("open leaderboard: %w", err)
	}
	store.SetRetainLimit(cfg.Leaderboard.RetainLimit)

	metrics := logging.NewMetrics()
	hubCfg := server.DefaultHubConfig()
	hubCfg.Seed = cfg.World.Seed
	hubCfg.RespawnDelay = cfg.RespawnDelay()
	hubCfg.MaxChatLength = cfg.World.MaxChatLength
	hubCfg.MaxNameLength = cfg.World.MaxNameLength
	hub := server.NewHub(hubCfg, server.HubDeps{
		Logger:      logger,
		Publisher:   router,
		Metrics:     telemetry.WrapMetrics(metrics),
		Leaderboard: store,
	})

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		router:  router,
		store:   store,
		hub:     hub,
		metrics: metrics,
	}
	s.Handler = servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir: cfg.ClientDir,
		Logger:    logger,
		Publisher: router,
		Records:   store,
		WebSocket: http.HandlerFunc(ws.NewHandler(hub, ws.HandlerConfig{Logger: logger}).Handle),
		Metrics:   s.metricsSnapshot,
	})
	return s, nil
}

func (s *Server) metricsSnapshot() map[string]uint64 {
	snapshot := s.metrics.Snapshot()
	stats := s.router.Stats()
	snapshot["logging.events_total"] = stats.EventsTotal
	snapshot["logging.dropped_total"] = stats.DroppedTotal
	return snapshot
}

// Apply takes over the settings that can change without a restart: the log
// level and the leaderboard retention.
func (s *Server) Apply(next config.Config) {
	s.router.SetMinimumSeverity(logging.ParseSeverity(next.Log.Level))
	s.store.SetRetainLimit(next.Leaderboard.RetainLimit)
	s.logger.Printf("config reloaded: level=%s retain=%d", next.Log.Level, s.store.RetainLimit())
}

// Close shuts the hub down, then the store and the logging router.
func (s *Server) Close(ctx context.Context) error {
	var errs []error
	if err := s.hub.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close leaderboard: %w", err))
	}
	if err := s.router.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close logging router: %w", err))
	}
	return errors.Join(errs...)
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	s, err := New(fileCfg, telemetryLogger, os.Stdout)
	if err != nil {
		return err
	}

	if cfg.ConfigPath != "" {
		go func() {
			if err := config.Watch(ctx, cfg.ConfigPath, telemetryLogger, s.Apply); err != nil {
				telemetryLogger.Printf("config watch stopped: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: fileCfg.Addr, Handler: s.Handler}
	telemetryLogger.Printf("server listening on %s", srv.Addr)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetryLogger.Printf("http shutdown: %v", err)
	}
	if err := s.Close(shutdownCtx); err != nil {
		telemetryLogger.Printf("shutdown: %v", err)
	}
	return runErr
}
