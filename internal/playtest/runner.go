package playtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/terimu/pkg/logger"
)

// ErrGamesFailed is returned when at least one game did not finish cleanly.
var ErrGamesFailed = errors.New("games failed")

// Run checks the server's health, plays cfg.Games games on cfg.Workers
// goroutines and prints a summary to cfg.Out.
func Run(ctx context.Context, config *Config) (Stats, error) {
	cfg := config.withDefaults()
	log := logger.Named("playtest")
	stats := Stats{Games: cfg.Games, StartTime: time.Now()}

	log.Info(ctx, "starting play run",
		logger.String("base_url", cfg.BaseURL),
		logger.String("story_id", cfg.StoryID),
		logger.String("lang", cfg.Lang),
		logger.Int("games", cfg.Games),
		logger.Int("workers", cfg.Workers),
		logger.String("strategy", string(cfg.Strategy)),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan int, cfg.Workers*2)
	)

	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				g := newGame(client, cfg.Strategy)
				err := g.play(ctx, cfg.StoryID, cfg.Lang)

				mu.Lock()
				stats.Drops += g.drops
				stats.Checks += g.checks
				stats.Duplicates += g.duplicates
				if err != nil {
					stats.Failed++
				} else {
					stats.Completed++
				}
				mu.Unlock()

				if err != nil {
					log.Error(ctx, "game failed", logger.Int("game", n), logger.String("session_id", g.sess.ID), logger.Error(err))
				} else if cfg.Verbose {
					log.Info(ctx, "game completed",
						logger.Int("game", n),
						logger.String("session_id", g.sess.ID),
						logger.Int("drops", g.drops),
					)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for n := range cfg.Games {
			select {
			case <-ctx.Done():
				return
			case jobs <- n:
			}
		}
	}()

	wg.Wait()

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayStats(cfg, stats)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrGamesFailed, stats.Failed, stats.Games)
	}
	log.Info(ctx, "play run completed")
	return stats, nil
}

func displayStats(cfg Config, s Stats) {
	perGame := 0.0
	if s.Completed > 0 {
		perGame = float64(s.Drops) / float64(s.Completed)
	}
	_, _ = fmt.Fprintf(cfg.Out, `Play run summary
================
Games:      %d (completed %d, failed %d)
Drops:      %d (%.1f per completed game)
Checks:     %d
Duplicates: %d
Duration:   %s
`, s.Games, s.Completed, s.Failed, s.Drops, perGame, s.Checks, s.Duplicates, s.Duration.Round(time.Millisecond))
}
