package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/edbx/internal/server"
	"github.com/desertthunder/edbx/internal/watch"
)

// Serve runs the JSON API until the context is cancelled. Changes to the library
// directory are logged while it runs.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if w, err := watch.New(r.store.Dir(), 0, r.logger); err != nil {
		r.logger.Warn("not watching library directory", "dir", r.store.Dir(), "error", err)
	} else {
		go func() {
			err := w.Run(ctx, func(e watch.Event) {
				r.logger.Info("library file changed", "file", e.File, "op", e.Op)
			})
			if err != nil && ctx.Err() == nil {
				r.logger.Warn("library watcher stopped", "error", err)
			}
		}()
	}

	api := server.NewAPI(r.store, r.config.Resolver, r.logger)
	srv := server.New(cfg.Addr(), server.NewAPIRouter(api, r.logger), r.logger)
	r.logger.Info("serving library", "addr", srv.Addr(), "file", r.store.Current())
	return srv.Run(ctx)
}
