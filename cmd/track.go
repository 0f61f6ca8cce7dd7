package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
	"github.com/desertthunder/edbx/internal/ui"
)

// TrackList lists every track.
func (r *Runner) TrackList(ctx context.Context, cmd *cli.Command) error {
	tracks, err := r.tracks.List(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, tracks, func() error {
		rows := make([][]string, len(tracks))
		for i, t := range tracks {
			rows[i] = []string{strconv.FormatInt(t.ID, 10), t.Title, t.Artist, shared.FormatDuration(t.Length), t.Path}
		}
		return r.writeTable([]string{"ID", "Title", "Artist", "Length", "Path"}, rows)
	})
}

// TrackGet shows one track.
func (r *Runner) TrackGet(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "track id")
	if err != nil {
		return err
	}
	t, err := r.tracks.Get(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, t, func() error {
		r.writePlainHeader(fmt.Sprintf("%s - %s", t.Artist, t.Title))
		fields := [][2]string{
			{"ID", strconv.FormatInt(t.ID, 10)},
			{"Album", t.Album},
			{"Genre", t.Genre},
			{"BPM", strconv.FormatFloat(t.BPM, 'f', -1, 64)},
			{"Length", shared.FormatDuration(t.Length)},
			{"Bitrate", strconv.FormatInt(t.Bitrate, 10)},
			{"File", t.Filename},
			{"Path", t.Path},
		}
		for _, f := range fields {
			if f[1] == "" {
				continue
			}
			r.writePlain("%-8s %s\n", f[0]+":", f[1])
		}
		return nil
	})
}

// parseAssignments turns column=value pairs into update fields.
// Numbers stay numbers, an empty value clears the column.
func parseAssignments(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected column=value, got %q", shared.ErrInvalidArgument, pair)
		}
		if !models.IsTrackField(key) {
			return nil, fmt.Errorf("%w: unknown track column %q", shared.ErrInvalidArgument, key)
		}

		switch {
		case value == "":
			fields[key] = nil
		default:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				fields[key] = n
			} else if f, err := strconv.ParseFloat(value, 64); err == nil {
				fields[key] = f
			} else {
				fields[key] = value
			}
		}
	}
	return fields, nil
}

// TrackUpdate changes track columns.
func (r *Runner) TrackUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "track id")
	if err != nil {
		return err
	}
	fields, err := parseAssignments(cmd.StringSlice("set"))
	if err != nil {
		return err
	}
	applied, err := r.tracks.Update(ctx, id, fields)
	if err != nil {
		return err
	}
	return r.emit(cmd, map[string][]string{"updated": applied}, func() error {
		return r.writePlain("✓ Updated %s on track %d\n", strings.Join(applied, ", "), id)
	})
}

// TrackPurge deletes a track and all of its playlist entries.
func (r *Runner) TrackPurge(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "track id")
	if err != nil {
		return err
	}
	removed, err := r.tracks.Purge(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, map[string]int{"memberships": removed}, func() error {
		return r.writePlain("✓ Purged track %d (%d playlist entries removed)\n", id, removed)
	})
}

// Waveform prints the overview waveform of each track.
func (r *Runner) Waveform(ctx context.Context, cmd *cli.Command) error {
	ids, err := argIDs(cmd, 0, "track ids")
	if err != nil {
		return err
	}
	previews, err := r.waveforms.Get(ctx, ids)
	if err != nil {
		return err
	}
	return r.emit(cmd, previews, func() error {
		for _, id := range ids {
			r.writePlain("%6d  %s\n", id, ui.Sparkline(previews[id]))
		}
		return nil
	})
}
