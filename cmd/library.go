package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/edbx/internal/shared"
	"github.com/desertthunder/edbx/internal/watch"
)

// LibraryInit creates a new library file in the library directory.
func (r *Runner) LibraryInit(ctx context.Context, cmd *cli.Command) error {
	file := strings.TrimSpace(cmd.StringArg("file"))
	if file == "" {
		return fmt.Errorf("%w: library file name", shared.ErrMissingArgument)
	}
	if err := os.MkdirAll(r.store.Dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create library directory: %w", err)
	}

	info, err := r.store.Init(ctx, file)
	if err != nil {
		return err
	}
	return r.emit(cmd, info, func() error {
		return r.writePlain("✓ Created %s (uuid %s)\n", file, info.UUID)
	})
}

// LibraryList lists every library file in the library directory.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	if r.file != "" || r.config.Database.File != "" {
		// mark the configured file as active when it opens; a missing one is not an error here
		if err := r.open(); err != nil {
			r.logger.Debug("configured library not opened", "err", err)
		}
	}

	databases, err := r.store.Databases(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, databases, func() error {
		if len(databases) == 0 {
			return r.writePlain("No library files in %s\n", r.store.Dir())
		}
		r.writePlainHeader("Libraries in " + r.store.Dir())
		rows := make([][]string, len(databases))
		for i, d := range databases {
			file := d.File
			if d.Active {
				file += " *"
			}
			rows[i] = []string{file, strconv.Itoa(d.Playlists), strconv.Itoa(d.Tracks), strconv.Itoa(d.Entities), d.UUID}
		}
		return r.writeTable([]string{"File", "Playlists", "Tracks", "Entries", "UUID"}, rows)
	})
}

// LibraryStats shows counts and identity of the open library.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	stats, err := r.store.Stats(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, stats, func() error {
		r.writePlainHeader(stats.File)
		r.writePlain("Directory: %s\n", r.store.Dir())
		if stats.Info != nil {
			r.writePlain("UUID:      %s\n", stats.Info.UUID)
			r.writePlain("Schema:    %d.%d.%d\n", stats.Info.SchemaVersionMajor, stats.Info.SchemaVersionMinor, stats.Info.SchemaVersionPatch)
		}
		r.writePlain("Playlists: %d\n", stats.Playlists)
		r.writePlain("Tracks:    %d\n", stats.Tracks)
		return r.writePlain("Entries:   %d\n", stats.Entities)
	})
}

// LibraryVerify reports broken links in the playlist tree and in playlist entries.
// It exits with an error when problems are found.
func (r *Runner) LibraryVerify(ctx context.Context, cmd *cli.Command) error {
	report, err := r.integrity.Verify(ctx)
	if err != nil {
		return err
	}

	err = r.emit(cmd, report, func() error {
		if report.OK() {
			return r.writePlain("✓ All playlist and entry chains are intact\n")
		}
		if len(report.Playlists) > 0 {
			r.writePlain("Playlist tree (%d problems):\n", len(report.Playlists))
			for _, p := range report.Playlists {
				r.writePlain("  ✗ %s\n", p)
			}
		}
		if len(report.Entities) > 0 {
			r.writePlain("Playlist entries (%d problems):\n", len(report.Entities))
			for _, p := range report.Entities {
				r.writePlain("  ✗ %s\n", p)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%w: %d problems found", shared.ErrCorrupt, len(report.Playlists)+len(report.Entities))
	}
	return nil
}

// LibraryWatch prints library file events until interrupted.
func (r *Runner) LibraryWatch(ctx context.Context, cmd *cli.Command) error {
	w, err := watch.New(r.store.Dir(), 0, r.logger)
	if err != nil {
		return err
	}
	r.writePlain("Watching %s (ctrl+c to stop)\n", w.Dir())

	return w.Run(ctx, func(e watch.Event) {
		if cmd.Bool("json") {
			r.writeJSON(map[string]string{"file": e.File, "op": e.Op.String()}, false)
			return
		}
		r.writePlain("%s  %s\n", e.Op, e.File)
	})
}
