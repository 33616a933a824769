package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/dyscreen/pkg/logger"
)

const (
	defaultWorkers      = 8
	defaultTimeout      = 10 * time.Second
	defaultPollInterval = 50 * time.Millisecond
	defaultPollTimeout  = 30 * time.Second
)

// Run submits generated sessions, collects every result, and compares each
// tier with its profile. It returns ErrVerification on any mismatch.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	applyDefaults(&cfg)
	log := logger.Get().Named("loadgen")
	start := time.Now()

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return Stats{}, fmt.Errorf("service health check failed: %w", err)
	}

	subs := Generate(cfg.Submissions, cfg.Seed)
	log.Info(ctx, "submitting",
		logger.Int("submissions", len(subs)),
		logger.Int("workers", cfg.Workers),
		logger.String("base_url", cfg.BaseURL),
	)

	var accepted, duplicate, rejected, collected, mismatched atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, s := range subs {
		g.Go(func() error {
			resp, code, err := c.submit(gctx, s)
			switch {
			case err != nil:
				return err
			case code == http.StatusOK && resp.Duplicate:
				duplicate.Add(1)
				return nil
			case code != http.StatusAccepted:
				rejected.Add(1)
				log.Warn(gctx, "submission rejected", logger.String("id", s.ID), logger.Int("status", code))
				return nil
			}
			accepted.Add(1)

			a, err := poll(gctx, c, s.ID, cfg.PollInterval, cfg.PollTimeout)
			if err != nil {
				return err
			}
			collected.Add(1)
			if a.Result.RiskLevel != s.Want {
				mismatched.Add(1)
				log.Warn(gctx, "tier mismatch",
					logger.String("id", s.ID),
					logger.String("modality", string(s.Modality)),
					logger.String("profile", string(s.Profile)),
					logger.String("want", string(s.Want)),
					logger.String("got", string(a.Result.RiskLevel)),
					logger.Int("score", a.Result.RiskScore),
				)
			}
			return nil
		})
	}
	err := g.Wait()

	stats := Stats{
		Generated:  len(subs),
		Accepted:   int(accepted.Load()),
		Duplicate:  int(duplicate.Load()),
		Rejected:   int(rejected.Load()),
		Collected:  int(collected.Load()),
		Mismatched: int(mismatched.Load()),
		Duration:   time.Since(start),
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("collected", stats.Collected),
		logger.Int("mismatched", stats.Mismatched),
		logger.Duration("duration", stats.Duration),
	)

	if err != nil {
		return stats, err
	}
	if stats.Mismatched > 0 {
		return stats, fmt.Errorf("%w: %d of %d results in the wrong tier", ErrVerification, stats.Mismatched, stats.Collected)
	}
	return stats, nil
}

func poll(ctx context.Context, c *client, id string, every, limit time.Duration) (assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	t := time.NewTicker(every)
	defer t.Stop()
	for {
		a, err := c.result(ctx, id)
		if !errors.Is(err, errPending) {
			return a, err
		}
		select {
		case <-ctx.Done():
			return assessment{}, fmt.Errorf("waiting for %s: %w", id, ctx.Err())
		case <-t.C:
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
}
