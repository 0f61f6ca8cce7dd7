package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
	"github.com/desertthunder/edbx/internal/tasks"
)

// PlaylistList lists every playlist.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	playlists, err := r.playlists.List(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, playlists, func() error { return r.writePlaylists(playlists) })
}

// PlaylistSearch lists playlists whose title contains the term.
func (r *Runner) PlaylistSearch(ctx context.Context, cmd *cli.Command) error {
	term := cmd.StringArg("term")
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("%w: search term", shared.ErrMissingArgument)
	}
	playlists, err := r.playlists.Search(ctx, term)
	if err != nil {
		return err
	}
	return r.emit(cmd, playlists, func() error {
		if len(playlists) == 0 {
			return r.writePlain("No playlists match %q\n", term)
		}
		return r.writePlaylists(playlists)
	})
}

func (r *Runner) writePlaylists(playlists []*models.Playlist) error {
	rows := make([][]string, len(playlists))
	for i, p := range playlists {
		rows[i] = []string{
			strconv.FormatInt(p.ID, 10), p.Title, strconv.FormatInt(p.ParentID, 10), strconv.FormatInt(p.NextID, 10),
		}
	}
	return r.writeTable([]string{"ID", "Title", "Parent", "Next"}, rows)
}

// PlaylistTree prints the playlist tree in sibling order.
func (r *Runner) PlaylistTree(ctx context.Context, cmd *cli.Command) error {
	roots, err := r.playlists.Tree(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, roots, func() error {
		if len(roots) == 0 {
			return r.writePlain("No playlists\n")
		}
		for _, root := range roots {
			root.Walk(0, func(n *models.PlaylistNode, depth int) {
				r.writePlain("%s%s  (#%d)\n", strings.Repeat("  ", depth), n.Title, n.ID)
			})
		}
		return nil
	})
}

// PlaylistCreate creates a playlist at the end of its parent.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	id, err := r.playlists.Create(ctx, cmd.StringArg("title"), cmd.Int64("parent"))
	if err != nil {
		return err
	}
	return r.emit(cmd, map[string]int64{"id": id}, func() error {
		return r.writePlain("✓ Created playlist %d\n", id)
	})
}

// PlaylistRename renames a playlist.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "playlist id")
	if err != nil {
		return err
	}
	title := strings.Join(cmd.Args().Slice()[1:], " ")
	if err := r.playlists.Rename(ctx, id, title); err != nil {
		return err
	}
	return r.writePlain("✓ Renamed playlist %d to %q\n", id, strings.TrimSpace(title))
}

// PlaylistDelete deletes a playlist and its entries.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "playlist id")
	if err != nil {
		return err
	}
	if err := r.playlists.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted playlist %d\n", id)
}

// PlaylistMove moves a playlist under --parent.
func (r *Runner) PlaylistMove(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "playlist id")
	if err != nil {
		return err
	}
	parent := cmd.Int64("parent")
	if err := r.playlists.Move(ctx, id, parent); err != nil {
		return err
	}
	return r.writePlain("✓ Moved playlist %d under %d\n", id, parent)
}

// PlaylistReorder sets the sibling order under --parent.
func (r *Runner) PlaylistReorder(ctx context.Context, cmd *cli.Command) error {
	ids, err := argIDs(cmd, 0, "playlist ids")
	if err != nil {
		return err
	}
	if err := r.playlists.Reorder(ctx, cmd.Int64("parent"), ids); err != nil {
		return err
	}
	return r.writePlain("✓ Reordered %d playlists\n", len(ids))
}

// PlaylistTracks lists a playlist's tracks in order.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "playlist id")
	if err != nil {
		return err
	}
	tracks, err := r.members.Tracks(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, tracks, func() error {
		if len(tracks) == 0 {
			return r.writePlain("Playlist %d is empty\n", id)
		}
		rows := make([][]string, len(tracks))
		for i, t := range tracks {
			rows[i] = []string{
				strconv.Itoa(i + 1), strconv.FormatInt(t.EntityID, 10), strconv.FormatInt(t.ID, 10),
				t.Title, t.Artist, shared.FormatDuration(t.Length),
			}
		}
		return r.writeTable([]string{"#", "Entry", "Track", "Title", "Artist", "Length"}, rows)
	})
}

// PlaylistAdd appends a track to a playlist. Without --uuid the open library's uuid is used.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	listID, err := argID(cmd, 0, "playlist id")
	if err != nil {
		return err
	}
	trackID, err := argID(cmd, 1, "track id")
	if err != nil {
		return err
	}

	uuid := cmd.String("uuid")
	if uuid == "" {
		stats, err := r.store.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to read library uuid (pass --uuid): %w", err)
		}
		if stats.Info != nil {
			uuid = stats.Info.UUID
		}
	}

	entityID, err := r.members.Add(ctx, listID, trackID, uuid)
	if err != nil {
		return err
	}
	return r.emit(cmd, map[string]int64{"id": entityID}, func() error {
		return r.writePlain("✓ Added track %d to playlist %d as entry %d\n", trackID, listID, entityID)
	})
}

// PlaylistRemove removes entries from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	listID, err := argID(cmd, 0, "playlist id")
	if err != nil {
		return err
	}
	ids, err := argIDs(cmd, 1, "entry ids")
	if err != nil {
		return err
	}

	if len(ids) == 1 {
		if err := r.members.Remove(ctx, listID, ids[0]); err != nil {
			return err
		}
		return r.emit(cmd, map[string][]int64{"removed": ids}, func() error {
			return r.writePlain("✓ Removed entry %d\n", ids[0])
		})
	}

	removed, err := r.members.RemoveMany(ctx, listID, ids)
	if err != nil {
		return err
	}
	return r.emit(cmd, map[string][]int64{"removed": removed}, func() error {
		return r.writePlain("✓ Removed %d of %d entries\n", len(removed), len(ids))
	})
}

// PlaylistReorderTracks sets the order of every entry of a playlist.
func (r *Runner) PlaylistReorderTracks(ctx context.Context, cmd *cli.Command) error {
	listID, err := argID(cmd, 0, "playlist id")
	if err != nil {
		return err
	}
	ids, err := argIDs(cmd, 1, "entry ids")
	if err != nil {
		return err
	}
	if err := r.members.Reorder(ctx, listID, ids); err != nil {
		return err
	}
	return r.writePlain("✓ Reordered %d entries\n", len(ids))
}

// PlaylistExport exports playlists concurrently and writes a manifest.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	ids, err := argIDs(cmd, 0, "playlist ids")
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, len(ids)*2+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if !cmd.Bool("json") {
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	result, err := r.export.BulkExport(ctx, progress, ids, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	return r.emit(cmd, result, func() error {
		r.writePlainln("Exported %d/%d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
		return nil
	})
}
