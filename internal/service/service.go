package service

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"sync"

	"github.com/gitrgoliveira/tcp-sink/internal/config"
	"github.com/gitrgoliveira/tcp-sink/internal/endpoint"
	"github.com/gitrgoliveira/tcp-sink/internal/interfaces"
	"github.com/gitrgoliveira/tcp-sink/internal/latch"
	"github.com/gitrgoliveira/tcp-sink/internal/logger"
	"github.com/gitrgoliveira/tcp-sink/internal/loop"
	"github.com/gitrgoliveira/tcp-sink/internal/readiness"
	"github.com/gitrgoliveira/tcp-sink/internal/watcher"
	"golang.org/x/sync/errgroup"
)

// Service encapsulates the listener lifecycle
type Service struct {
	cfgMgr   interfaces.ConfigManager
	listener *endpoint.Listener
	mux      *readiness.Multiplexer
	latch    *latch.Latch
	loop     *loop.Loop
	watcher  *watcher.Watcher

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	// logMu guards log, which is replaced on reload while the signal
	// goroutine may be logging
	logMu sync.RWMutex
	log   interfaces.Logger
}

// Config holds service configuration
type Config struct {
	ConfigFile string

	// Observer, if set, receives every event loop transition
	Observer func(loop.Event)
}

// New creates a new service instance. ctx bounds the bind retry only.
func New(ctx context.Context, cfg *Config) (*Service, error) {
	// Create configuration manager for hot-reload support
	cfgMgr, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	svc := &Service{
		cfgMgr: cfgMgr,
	}

	appCfg := cfgMgr.Get()

	// Setup logging
	if err := svc.setupLogging(appCfg); err != nil {
		return nil, err
	}

	// Setup listener, multiplexer and latch
	if err := svc.setupEndpoint(ctx, appCfg); err != nil {
		_ = svc.Close()
		return nil, err
	}

	// Setup event loop
	if err := svc.setupLoop(appCfg, cfg.Observer); err != nil {
		_ = svc.Close()
		return nil, err
	}

	// Setup config watcher
	if err := svc.setupWatcher(appCfg, cfgMgr.Path()); err != nil {
		_ = svc.Close()
		return nil, err
	}

	// Register config reload callback
	svc.registerReloadCallback()

	return svc, nil
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	opts := []logger.LoggerOption{logger.WithFormat(cfg.Logging.Format)}
	if cfg.Logging.AuditLog {
		opts = append(opts, logger.WithAudit(cfg.Logging.AuditPath))
	}
	return logger.New(cfg.Logging.Level, cfg.Logging.Output, opts...)
}

// setupLogging initializes the logger and optional audit logger
func (s *Service) setupLogging(cfg *config.Config) error {
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	s.log = log

	if cfg.Logging.AuditLog {
		s.log.Info("Audit logging enabled", "audit_path", cfg.Logging.AuditPath)
	}

	return nil
}

// setupEndpoint binds the listener and creates the multiplexer and the
// latch that wakes it
func (s *Service) setupEndpoint(ctx context.Context, cfg *config.Config) error {
	l, err := endpoint.ListenWithRetry(ctx, &cfg.Listener, s.log)
	if err != nil {
		return err
	}
	s.listener = l

	mux, err := readiness.New()
	if err != nil {
		return fmt.Errorf("failed to create readiness multiplexer: %w", err)
	}
	s.mux = mux
	s.latch = latch.New(mux)

	s.log.Info("Listening",
		"address", l.Addr().String(),
		"backlog", cfg.Listener.Backlog,
		"reuse_addr", cfg.Listener.ReuseAddress())
	return nil
}

// setupLoop creates the event loop. Reloads run from its hook, on the loop
// goroutine, so reloaded settings are applied between iterations.
func (s *Service) setupLoop(cfg *config.Config, observer func(loop.Event)) error {
	opts := []loop.Option{loop.WithReloadHook(s.reload)}
	if observer != nil {
		opts = append(opts, loop.WithObserver(observer))
	}

	lp, err := loop.New(cfg, s.listener, s.mux, s.latch, s.log, opts...)
	if err != nil {
		return fmt.Errorf("failed to create event loop: %w", err)
	}
	s.loop = lp
	return nil
}

// setupWatcher creates the config file watcher when enabled
func (s *Service) setupWatcher(cfg *config.Config, path string) error {
	if !cfg.Reload.WatchConfig {
		return nil
	}

	w, err := watcher.NewWatcher(&watcher.Config{Path: path}, s.latch, s.log)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	s.watcher = w
	return nil
}

// registerReloadCallback sets up the config reload handler
func (s *Service) registerReloadCallback() {
	s.cfgMgr.OnReload(s.handleReload)
}

// reload re-reads the configuration file. A bad file is reported and the
// running configuration is kept.
func (s *Service) reload() {
	if err := s.cfgMgr.Reload(); err != nil {
		s.logger().Error("Failed to reload configuration, keeping current settings", "error", err)
	}
}

// handleReload applies a reloaded configuration to running components.
func (s *Service) handleReload(old, updated *config.Config) {
	s.logger().Info("Configuration reloaded successfully, updating components...")

	// Update logger with new level, output and format
	if newLogger, err := newLogger(updated); err != nil {
		s.logger().Error("Failed to create new logger from reloaded config", "error", err)
	} else {
		s.logger().Info("Switching to new logger")
		s.logMu.Lock()
		oldLogger := s.log
		s.log = newLogger
		s.logMu.Unlock()
		s.loop.SetLogger(newLogger)
		if oldLogger != nil {
			_ = oldLogger.Sync()
		}
	}

	s.loop.SetBufferSize(updated.Ingest.BufferSize)
	s.logger().Info("Ingest buffer updated", "buffer_size", config.FormatSize(updated.Ingest.BufferSize))

	if old.ListenerChanged(updated) {
		s.logger().Warn("Listener settings changed; restart required to apply",
			"current", old.Listener.ListenAddress(),
			"configured", updated.Listener.ListenAddress())
	}
	if old.Reload.WatchConfig != updated.Reload.WatchConfig {
		s.logger().Warn("watch_config changed; restart required to apply",
			"watch_config", updated.Reload.WatchConfig)
	}
}

func (s *Service) logger() interfaces.Logger {
	s.logMu.RLock()
	defer s.logMu.RUnlock()
	return s.log
}

// Addr returns the bound listening address.
func (s *Service) Addr() netip.AddrPort {
	return s.listener.Addr()
}

// Run starts the service and blocks until shutdown
func (s *Service) Run(ctx context.Context, sigChan <-chan os.Signal, isReloadSignal, isShutdownSignal func(os.Signal) bool) error {
	// Create cancellable context
	ctx, cancel := context.WithCancel(ctx)
	s.cancelMu.Lock()
	s.cancel = cancel
	s.cancelMu.Unlock()
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// the other goroutines stop once the loop is done, whatever the reason
		defer cancel()
		return s.loop.Run(gctx)
	})

	if s.watcher != nil {
		g.Go(func() error {
			if err := s.watcher.Start(gctx); err != nil {
				s.logger().Error("Watcher stopped with error", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		return s.forwardSignals(gctx, sigChan, isReloadSignal, isShutdownSignal)
	})

	s.logger().Info("Service started - waiting for connections and signals")
	s.logger().Info("Press Ctrl+C to stop, or send SIGHUP to reload configuration (Unix only)")

	if err := g.Wait(); err != nil {
		s.logger().Error("Service stopped with error", "error", err)
		return err
	}

	s.logger().Info("Shutdown complete")
	return nil
}

// forwardSignals converts OS signals into latch raises and stop requests.
// It never touches loop state directly.
func (s *Service) forwardSignals(ctx context.Context, sigChan <-chan os.Signal, isReloadSignal, isShutdownSignal func(os.Signal) bool) error {
	for {
		select {
		case sig := <-sigChan:
			switch {
			case isReloadSignal(sig):
				s.logger().Debug("Forwarding reload signal", "signal", sig)
				s.latch.Raise()
			case isShutdownSignal(sig):
				s.logger().Info("Received shutdown signal, gracefully shutting down", "signal", sig)
				s.loop.Stop()
				return nil
			default:
				s.logger().Info("Received unknown signal", "signal", sig)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Shutdown asks a running service to stop. Run returns once the active
// connection and the listener are released.
func (s *Service) Shutdown() {
	s.loop.Stop()

	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Close releases all resources
func (s *Service) Close() error {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.mux != nil {
		_ = s.mux.Close()
	}
	if log := s.logger(); log != nil {
		_ = log.Sync()
	}
	return nil
}
