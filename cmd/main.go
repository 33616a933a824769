package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/dyscreen/internal/adapters/anomaly"
	"github.com/okian/dyscreen/internal/adapters/http/api"
	"github.com/okian/dyscreen/internal/adapters/http/swagger"
	"github.com/okian/dyscreen/internal/adapters/repository"
	app "github.com/okian/dyscreen/internal/app"
	"github.com/okian/dyscreen/internal/config"
	"github.com/okian/dyscreen/internal/domain/features"
	"github.com/okian/dyscreen/internal/domain/scoring"
	"github.com/okian/dyscreen/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional file -> env; invalid scoring tables fail here
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "service failed", logger.Error(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then drains the submission queue.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			_ = svc.Stop(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stop service: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newService builds the scoring models and the anomaly collaborator from cfg.
func newService(cfg *config.Config) (*app.Service, error) {
	models, err := cfg.BuildModels()
	if err != nil {
		return nil, err
	}
	scorer, err := newAnomalyScorer(cfg.Anomaly)
	if err != nil {
		return nil, err
	}

	opts := []app.Option{
		app.WithLogger(logger.Get().Named("service")),
		app.WithModels(models.Keystroke, models.Reading),
		app.WithKeystrokeOptions(features.WithKeystrokePause(cfg.Keystroke.PauseThresholdMS)),
		app.WithReadingOptions(features.WithPauseWindow(cfg.Reading.MinPauseMS, cfg.Reading.MaxPauseMS)),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithResultStoreSize(cfg.ResultStoreSize),
		app.WithBatchLimits(cfg.BatchLimit, cfg.BatchConcurrency),
	}
	if scorer != nil {
		opts = append(opts, app.WithAnomalyScorer(scorer, cfg.Anomaly.Timeout()))
	}
	svc, err := app.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return svc, nil
}

// newAnomalyScorer returns nil when anomaly scoring is disabled.
func newAnomalyScorer(c config.AnomalyConfig) (scoring.AnomalyScorer, error) {
	switch c.Mode {
	case config.AnomalyNone, "":
		return nil, nil
	case config.AnomalySubprocess:
		return anomaly.NewSubprocess(c.Command, anomaly.WithArgs(c.Args...)), nil
	case config.AnomalyHTTP:
		return anomaly.NewHTTP(c.URL), nil
	default:
		return nil, fmt.Errorf("%w: unknown anomaly mode %q", config.ErrInvalidConfig, c.Mode)
	}
}

func newHandler(ctx context.Context, svc *app.Service) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, func(err error) bool {
		return errors.Is(err, repository.ErrNotFound)
	}).Register(ctx, mux)
	return mux
}
