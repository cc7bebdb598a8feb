package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/pkg/logger"
)

const percentageMultiplier = 100

type counters struct {
	accepted, rejected, backpressure atomic.Int64
	completed, failed, timedOut      atomic.Int64
	matches, violations              atomic.Int64
}

// Run submits generated searches, waits for each to settle and verifies the
// results. Per-search problems are counted, not returned.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	if cfg.BaseURL == "" {
		return Stats{}, ErrNoBaseURL
	}
	cfg.withDefaults()
	log := logger.Get().Named("loadgen")
	stats := Stats{StartTime: time.Now()}

	log.Info(ctx, "starting search load",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("searches", cfg.Searches),
		logger.Int("workers", cfg.Workers),
		logger.Duration("wait", cfg.Wait),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	searches := generateSearches(ctx, &cfg, today(), rand.New(rand.NewPCG(uint64(stats.StartTime.UnixNano()), 0))) //nolint:gosec // load shape, not secrets
	stats.Generated = len(searches)

	var n counters
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, s := range searches {
		g.Go(func() error {
			runOne(gctx, c, &cfg, s, &n, log)
			return nil
		})
	}
	_ = g.Wait()

	stats.Accepted = int(n.accepted.Load())
	stats.Rejected = int(n.rejected.Load())
	stats.Backpressure = int(n.backpressure.Load())
	stats.Completed = int(n.completed.Load())
	stats.Failed = int(n.failed.Load())
	stats.TimedOut = int(n.timedOut.Load())
	stats.Matches = int(n.matches.Load())
	stats.Violations = int(n.violations.Load())
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	logFinalStats(ctx, log, stats)
	return stats, ctx.Err()
}

func runOne(ctx context.Context, c *client, cfg *Config, s Search, n *counters, log logger.Logger) { //nolint:gocritic // hugeParam: searches travel by value
	id, outcome, err := c.submit(ctx, s)
	if err != nil {
		n.rejected.Add(1)
		if cfg.Verbose {
			log.Warn(ctx, "submit failed", logger.String("seeker", s.SeekerID), logger.Error(err))
		}
		return
	}
	switch outcome {
	case outcomeBackpressure:
		n.backpressure.Add(1)
		return
	case outcomeRejected:
		n.rejected.Add(1)
		return
	}
	n.accepted.Add(1)

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Wait)
	defer cancel()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		st, err := c.status(waitCtx, id)
		switch {
		case err == nil && st.Status == model.SearchCompleted:
			n.completed.Add(1)
			n.matches.Add(int64(len(st.Results)))
			if verr := verify(s.SeekerID, st); verr != nil {
				n.violations.Add(1)
				log.Error(ctx, "result verification failed", logger.Error(verr))
			}
			return
		case err == nil && st.Status == model.SearchFailed:
			n.failed.Add(1)
			if cfg.Verbose {
				log.Warn(ctx, "search failed", logger.String("search_id", id), logger.String("error", st.Error))
			}
			return
		case err != nil && cfg.Verbose && !errors.Is(err, context.DeadlineExceeded):
			log.Debug(ctx, "status poll failed", logger.String("search_id", id), logger.Error(err))
		}

		select {
		case <-waitCtx.Done():
			n.timedOut.Add(1)
			return
		case <-ticker.C:
		}
	}
}

func logFinalStats(ctx context.Context, log logger.Logger, stats Stats) {
	var completionRate, searchesPerSecond float64
	if stats.Accepted > 0 {
		completionRate = float64(stats.Completed) / float64(stats.Accepted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		searchesPerSecond = float64(stats.Generated) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("backpressure", stats.Backpressure),
		logger.Int("completed", stats.Completed),
		logger.Int("failed", stats.Failed),
		logger.Int("timedOut", stats.TimedOut),
		logger.Int("matches", stats.Matches),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("completionRate", completionRate),
		logger.Float64("searchesPerSecond", searchesPerSecond),
	)
}
