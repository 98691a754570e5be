package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/homeweave/dashboard/internal/adapters/http/api"
	app "github.com/homeweave/dashboard/internal/app"
	"github.com/homeweave/dashboard/internal/config"
	"github.com/homeweave/dashboard/pkg/logger"
	"github.com/homeweave/dashboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithFormat(os.Stdout, cfg.LogFormat); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Error(ctx, "listen failed", logger.String("addr", cfg.Addr), logger.Error(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, ln, log); err != nil {
		log.Error(ctx, "dashboard failed", logger.Error(err))
		os.Exit(1)
	}
}

// run serves the dashboard on ln until ctx is done.
func run(ctx context.Context, cfg *config.Config, ln net.Listener, log logger.Logger) error {
	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithAppURL(cfg.AppURL),
		app.WithStaticRoot(cfg.StaticDir),
		app.WithRedocURL(cfg.RedocURL),
	)
	if err := svc.Start(ctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	apiServer, err := svc.HTTPServer(ctx,
		[]api.Option{api.WithMaxBodyBytes(cfg.MaxBodyBytes)},
		api.WithCardsEndpoint(cfg.CardsURL),
		api.WithContainer(cfg.ContainerSelector),
		api.WithFetchTimeout(time.Duration(cfg.FetchTimeoutMS)*time.Millisecond),
		api.WithLoadErrors(cfg.ShowLoadErrors),
	)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("build http server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("start modules: %w", err)
	}
	defer func() {
		if err := apiServer.Stop(context.Background()); err != nil {
			log.Error(ctx, "module stop failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Handler:           apiServer.Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater refreshes runtime metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
