package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/edbx/internal/chain"
	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/repositories"
	"github.com/desertthunder/edbx/internal/shared"
)

// TrackService reads, edits and purges tracks.
type TrackService struct {
	lib    Library
	logger *log.Logger
}

// NewTrackService creates a TrackService.
func NewTrackService(lib Library, logger *log.Logger) *TrackService {
	return &TrackService{lib: lib, logger: logger}
}

// List returns every track. A library whose Track table is empty lists the distinct
// tracks its playlists refer to instead.
func (s *TrackService) List(ctx context.Context) (tracks []*models.Track, err error) {
	defer observe("track.list", time.Now(), &err)

	err = s.lib.View(ctx, func(q shared.Querier) error {
		repo := repositories.NewTrackRepository(q)
		n, err := repositories.Count(ctx, q, "Track")
		if err != nil {
			return err
		}
		if n > 0 {
			tracks, err = repo.List(ctx)
			return err
		}

		s.logger.Debug("track table is empty, listing referenced tracks")
		tracks, err = repo.ListReferenced(ctx)
		return err
	})
	return tracks, err
}

// Get returns one track.
func (s *TrackService) Get(ctx context.Context, id int64) (t *models.Track, err error) {
	defer observe("track.get", time.Now(), &err)
	err = s.lib.View(ctx, func(q shared.Querier) error {
		t, err = repositories.NewTrackRepository(q).Get(ctx, id)
		return err
	})
	return t, err
}

// Update writes the editable fields of a track and returns the names applied.
// See [models.TrackFields] for the names accepted.
func (s *TrackService) Update(ctx context.Context, id int64, fields map[string]any) (applied []string, err error) {
	defer observe("track.update", time.Now(), &err)

	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		applied, err = repositories.NewTrackRepository(tx).Update(ctx, id, fields)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("updated track", "track", id, "fields", applied)
	return applied, nil
}

// Purge removes a track from every playlist that contains it and then deletes the track
// with its analysis data. Returns the number of playlist entries removed. A track known only
// through playlist entries, with no Track row, still has its entries removed.
func (s *TrackService) Purge(ctx context.Context, id int64) (removed int, err error) {
	defer observe("track.purge", time.Now(), &err)

	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		tracks := repositories.NewTrackRepository(tx)
		exists, err := tracks.Exists(ctx, id)
		if err != nil {
			return err
		}

		entities := repositories.NewEntityRepository(tx)
		ids, err := entities.IDsByTrack(ctx, id)
		if err != nil {
			return err
		}
		if !exists && len(ids) == 0 {
			return fmt.Errorf("%w: %d", shared.ErrTrackNotFound, id)
		}

		nodes, err := entities.NodesByTrack(ctx, id)
		if err != nil {
			return err
		}
		c := chain.New(nodes)
		for _, list := range c.Groups() {
			removed += len(c.RemoveAll(list, ids))
		}
		if err := apply(ctx, "PlaylistEntity", c, entities.Writer(nil)); err != nil {
			return err
		}

		if !exists {
			return nil
		}
		if err := repositories.NewPerformanceRepository(tx).DeleteTrack(ctx, id); err != nil {
			return err
		}
		return tracks.Delete(ctx, id)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("purged track", "track", id, "entities", removed)
	return removed, nil
}
