// Package internal provides the main application initialization and runtime
// logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/apiclient"
	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/gateway"
	"github.com/starford/ansuz/internal/lkg"
	"github.com/starford/ansuz/internal/query"
	"github.com/starford/ansuz/internal/retry"
	"github.com/starford/ansuz/internal/session"
	"github.com/starford/ansuz/internal/sse"
)

// NewLogger builds the structured JSON logger and installs it as the slog
// default.
func NewLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// eventSink lets the cache's event hook be bound after construction, since
// the SSE broker only exists in serve mode.
type eventSink struct {
	mu sync.RWMutex
	fn func(query.Event)
}

func (s *eventSink) set(fn func(query.Event)) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

func (s *eventSink) dispatch(ev query.Event) {
	s.mu.RLock()
	fn := s.fn
	s.mu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

// Runtime bundles the wired subsystems shared by the server and the CLI
// commands: credential store, session, upstream client, cache, snapshots,
// and the gateway service on top of them.
type Runtime struct {
	Config  *Config
	Logger  *slog.Logger
	Store   *session.FileStore
	Session *session.Manager
	Client  *apiclient.Client
	Cache   *query.Cache
	Snaps   *lkg.DB // nil when snapshots are disabled
	Service *gateway.Service

	events *eventSink
}

// NewRuntime wires the subsystems from configuration.
func NewRuntime(cfg *Config, logger *slog.Logger) (*Runtime, error) {
	store, err := session.NewFileStore(cfg.Session.CredentialPath)
	if err != nil {
		return nil, fmt.Errorf("init credential store: %w", err)
	}
	sess := session.NewManager(store)

	client, err := apiclient.New(cfg.Upstream.BaseURL, sess,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.Timeout.Std()}))
	if err != nil {
		return nil, fmt.Errorf("init upstream client: %w", err)
	}

	events := &eventSink{}
	cache := query.New(query.Config{
		StaleTime: cfg.Cache.StaleTime.Std(),
		GCWindow:  cfg.Cache.GCWindow.Std(),
		Retry: retry.Policy{
			MaxAttempts: cfg.Cache.Retry.MaxAttempts,
			BaseDelay:   cfg.Cache.Retry.BaseDelay.Std(),
			MaxDelay:    cfg.Cache.Retry.MaxDelay.Std(),
		},
		OnEvent: events.dispatch,
	})

	var snaps *lkg.DB
	if cfg.Snapshots.Enabled {
		snaps, err = lkg.Open(cfg.Snapshots.Path)
		if err != nil {
			return nil, fmt.Errorf("init snapshot store: %w", err)
		}
	}

	defaults, err := content.LoadDefaults()
	if err != nil {
		logger.Warn("bundled defaults unavailable", slog.String("error", err.Error()))
		defaults = nil
	}

	var snapStore lkg.Store
	if snaps != nil {
		snapStore = snaps
	}
	svc := gateway.NewService(client, cache, snapStore, defaults, logger)

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Session: sess,
		Client:  client,
		Cache:   cache,
		Snaps:   snaps,
		Service: svc,
		events:  events,
	}, nil
}

// SetEventSink binds the cache event hook.
func (r *Runtime) SetEventSink(fn func(query.Event)) {
	r.events.set(fn)
}

// Close releases runtime resources.
func (r *Runtime) Close() error {
	if r.Snaps != nil {
		return r.Snaps.Close()
	}
	return nil
}

// Run starts the gateway server with the given options and blocks until
// shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(cfg)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("upstream", cfg.Upstream.BaseURL),
		slog.Bool("snapshots", cfg.Snapshots.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := NewRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	// SSE broker receives every cache transition.
	broker := sse.NewBroker(cfg.Events.RefreshThrottle.Std())
	defer broker.Close()
	rt.SetEventSink(broker.PublishCacheEvent)

	router := gateway.NewRouter(rt.Service, rt.Session, broker, logger)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: router,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the credential file so a login or logout from the CLI is picked
	// up by the running server.
	g.Go(func() error {
		if err := session.Watch(gCtx, rt.Session, rt.Store, logger); err != nil {
			logger.Warn("credential watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Evict idle cache entries.
	g.Go(func() error {
		rt.Cache.StartGC(gCtx, logger)
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
