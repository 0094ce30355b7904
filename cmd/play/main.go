// Command play drives a running storybook server through complete games
// and verifies the board after every gesture.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/terimu/internal/playtest"
	"github.com/okian/terimu/pkg/logger"
)

// Default configuration constants.
const (
	defaultGames   = 10
	defaultTimeout = 10 * time.Second
	defaultRunTime = 10 * time.Minute
)

var cfg playtest.Config

var rootCmd = &cobra.Command{
	Use:   "play",
	Short: "Play story sequencing games against a server",
	Long: `Play creates sessions on a storybook server, solves each board through
the drops endpoint and checks completion.

After every drop it verifies that each card is still on the board exactly
once, and it replays one gesture per game to confirm the server ignores it.`,
	Example: `  play --url http://localhost:9080 --games 100 --workers 8
  play --strategy swap --lang en`,
	SilenceUsage: true,
	RunE:         runPlay,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.StringVar(&cfg.StoryID, "story", "", "story to play (server default when empty)")
	f.StringVar(&cfg.Lang, "lang", "", "language, mi or en (server default when empty)")
	f.IntVar(&cfg.Games, "games", defaultGames, "number of games to play")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "number of concurrent players")
	f.StringVar((*string)(&cfg.Strategy), "strategy", string(playtest.StrategyPlace), "solving strategy: place or swap")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every completed game")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	switch cfg.Strategy {
	case playtest.StrategyPlace, playtest.StrategySwap:
	default:
		return fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}

	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTime)
	defer cancel()

	cfg.Out = cmd.OutOrStdout()
	_, err := playtest.Run(ctx, &cfg)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
