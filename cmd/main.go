package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/edbx/internal/shared"
)

// newApp builds the root command around r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "edbx",
		Usage:    "Edit playlists and relink tracks in DJ library databases",
		Version:  "0.3.0",
		Flags:    rootFlags(),
		Before:   r.configure,
		After:    func(context.Context, *cli.Command) error { return r.Close() },
		Commands: r.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{ConfigPath: "config.toml", Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		runner.logger.Fatalf("application error: %v", err)
	}
}
