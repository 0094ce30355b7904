// Package playtest drives a running storybook server end to end: it plays
// whole games over the HTTP API and checks the board after every gesture.
package playtest

import (
	"io"
	"os"
	"time"
)

// Strategy selects how a game is solved.
type Strategy string

const (
	// StrategyPlace fills slots left to right, trying pool cards until the
	// slot is marked correct.
	StrategyPlace Strategy = "place"
	// StrategySwap fills every slot first, then repairs the order with swaps.
	StrategySwap Strategy = "swap"
)

// Config holds configuration for a play run.
type Config struct {
	BaseURL  string
	StoryID  string
	Lang     string
	Games    int
	Workers  int
	Strategy Strategy
	Timeout  time.Duration
	Verbose  bool

	// Out receives the final summary. Defaults to stdout.
	Out io.Writer
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:9080"
	}
	if cfg.Games < 1 {
		cfg.Games = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Workers > cfg.Games {
		cfg.Workers = cfg.Games
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyPlace
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return cfg
}

// Stats holds run statistics.
type Stats struct {
	Games      int
	Completed  int
	Failed     int
	Drops      int
	Checks     int
	Duplicates int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
