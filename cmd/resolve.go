package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
	"github.com/desertthunder/edbx/internal/tasks"
)

type pathStatus struct {
	TrackID int64  `json:"trackId"`
	Title   string `json:"title"`
	Path    string `json:"path"`
	Found   bool   `json:"found"`
}

// ResolveCheck reports which recorded track paths no longer exist under the roots.
func (r *Runner) ResolveCheck(ctx context.Context, cmd *cli.Command) error {
	var tracks []*models.Track
	if listID := cmd.Int64("playlist"); listID > 0 {
		members, err := r.members.Tracks(ctx, listID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.ID > 0 {
				tracks = append(tracks, &m.Track)
			}
		}
	} else {
		all, err := r.tracks.List(ctx)
		if err != nil {
			return err
		}
		tracks = all
	}

	checks := make([]tasks.PathCheck, 0, len(tracks))
	byID := make(map[int64]*models.Track, len(tracks))
	for _, t := range tracks {
		if _, seen := byID[t.ID]; seen {
			continue
		}
		byID[t.ID] = t
		checks = append(checks, tasks.PathCheck{TrackID: t.ID, Path: t.Path})
	}

	found, err := r.resolve.CheckFilePaths(ctx, nil, cmd.StringSlice("root"), checks)
	if err != nil {
		return err
	}

	showAll := cmd.Bool("all")
	statuses := make([]pathStatus, 0, len(checks))
	missing := 0
	for _, c := range checks {
		ok := found[c.TrackID]
		if !ok {
			missing++
		}
		if ok && !showAll {
			continue
		}
		statuses = append(statuses, pathStatus{TrackID: c.TrackID, Title: byID[c.TrackID].Title, Path: c.Path, Found: ok})
	}

	return r.emit(cmd, statuses, func() error {
		if len(statuses) > 0 {
			rows := make([][]string, len(statuses))
			for i, s := range statuses {
				state := "missing"
				if s.Found {
					state = "ok"
				}
				rows[i] = []string{strconv.FormatInt(s.TrackID, 10), s.Title, s.Path, state}
			}
			if err := r.writeTable([]string{"Track", "Title", "Path", "State"}, rows); err != nil {
				return err
			}
		}
		return r.writePlain("%d of %d tracks missing\n", missing, len(checks))
	})
}

// ResolveFind searches the roots for files that may be the given file name or track.
func (r *Runner) ResolveFind(ctx context.Context, cmd *cli.Command) error {
	req := tasks.MatchRequest{
		Filename: cmd.StringArg("filename"),
		Bitrate:  cmd.Int64("bitrate"),
		Length:   cmd.Float64("length"),
		Roots:    cmd.StringSlice("root"),
		Exclude:  cmd.StringSlice("exclude"),
		Probe:    cmd.Bool("probe"),
	}

	if trackID := cmd.Int64("track"); trackID > 0 {
		if err := r.open(); err != nil {
			return err
		}
		t, err := r.tracks.Get(ctx, trackID)
		if err != nil {
			return err
		}
		if req.Filename == "" {
			req.Filename = t.Filename
			if req.Filename == "" {
				req.Filename = t.Path
			}
		}
		req.FileType = t.FileType
		if req.Bitrate == 0 {
			req.Bitrate = t.Bitrate
		}
		if req.Length == 0 {
			req.Length = t.Length
		}
	}

	if req.Filename == "" {
		return fmt.Errorf("%w: filename or --track", shared.ErrMissingArgument)
	}

	found, err := r.resolve.FindMatchingFiles(ctx, nil, req)
	if err != nil {
		return err
	}

	return r.emit(cmd, found, func() error {
		if len(found) == 0 {
			return r.writePlain("No candidates for %q\n", req.Filename)
		}
		rows := make([][]string, len(found))
		for i, c := range found {
			duration := ""
			if c.Duration > 0 {
				duration = shared.FormatDuration(c.Duration)
			}
			rows[i] = []string{c.Rank.String(), c.Path, strconv.FormatInt(c.Size, 10), duration}
		}
		return r.writeTable([]string{"Rank", "Path", "Size", "Length"}, rows)
	})
}
