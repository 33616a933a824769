package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/dyscreen/internal/loadgen"
	"github.com/okian/dyscreen/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		submissions = flag.Int("n", 1000, "Number of submissions to generate")
		workers     = flag.Int("workers", 8, "Concurrent HTTP workers")
		timeout     = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
		pollEvery   = flag.Duration("poll-interval", 50*time.Millisecond, "Delay between result polls")
		pollTimeout = flag.Duration("poll-timeout", 30*time.Second, "How long to wait for each result")
		seed        = flag.Uint64("seed", 0, "Generator seed (0 picks one from the clock)")
		format      = flag.String("log-format", logger.FormatText, "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	_, err := loadgen.Run(ctx, loadgen.Config{
		BaseURL:      *baseURL,
		Submissions:  *submissions,
		Workers:      *workers,
		Timeout:      *timeout,
		PollInterval: *pollEvery,
		PollTimeout:  *pollTimeout,
		Seed:         *seed,
	})
	if err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		os.Exit(1)
	}
}
