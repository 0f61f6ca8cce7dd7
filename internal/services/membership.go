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

// MembershipService manages the ordered track lists of playlists.
type MembershipService struct {
	lib    Library
	logger *log.Logger
}

// NewMembershipService creates a MembershipService.
func NewMembershipService(lib Library, logger *log.Logger) *MembershipService {
	return &MembershipService{lib: lib, logger: logger}
}

// Tracks returns the members of a playlist in chain order, joined with track metadata.
func (s *MembershipService) Tracks(ctx context.Context, listID int64) (tracks []*models.PlaylistTrack, err error) {
	defer observe("membership.tracks", time.Now(), &err)

	err = s.lib.View(ctx, func(q shared.Querier) error {
		if ok, err := repositories.NewPlaylistRepository(q).Exists(ctx, listID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, listID)
		}
		tracks, err = repositories.NewEntityRepository(q).Tracks(ctx, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return InChainOrder(tracks), nil
}

// InChainOrder sorts playlist tracks by their nextEntityId links.
func InChainOrder(tracks []*models.PlaylistTrack) []*models.PlaylistTrack {
	byID := make(map[int64]*models.PlaylistTrack, len(tracks))
	nodes := make([]chain.Node, 0, len(tracks))
	for _, t := range tracks {
		byID[t.EntityID] = t
		nodes = append(nodes, chain.Node{ID: t.EntityID, Group: t.ListID, Next: t.NextID})
	}

	c := chain.New(nodes)
	ordered := make([]*models.PlaylistTrack, 0, len(tracks))
	for _, g := range c.Groups() {
		for _, id := range c.Order(g) {
			ordered = append(ordered, byID[id])
		}
	}
	return ordered
}

// Add appends a track to the end of a playlist and returns the new entity id.
// An empty databaseUUID refers to the local library.
func (s *MembershipService) Add(ctx context.Context, listID, trackID int64, databaseUUID string) (id int64, err error) {
	defer observe("membership.add", time.Now(), &err)

	if trackID <= 0 {
		return 0, fmt.Errorf("%w: track id must be positive, got %d", shared.ErrInvalidArgument, trackID)
	}

	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		if ok, err := repositories.NewPlaylistRepository(tx).Exists(ctx, listID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, listID)
		}

		repo := repositories.NewEntityRepository(tx)
		if dup, err := repo.Exists(ctx, listID, trackID, databaseUUID); err != nil {
			return err
		} else if dup {
			return fmt.Errorf("%w: track %d is already in playlist %d", shared.ErrAlreadyExists, trackID, listID)
		}

		if id, err = repo.NextID(ctx); err != nil {
			return err
		}
		c, err := loadList(ctx, repo, listID)
		if err != nil {
			return err
		}
		if err := c.Append(chain.Node{ID: id, Group: listID}); err != nil {
			return err
		}

		pending := map[int64]*models.PlaylistEntity{
			id: {ID: id, ListID: listID, TrackID: trackID, DatabaseUUID: databaseUUID},
		}
		return apply(ctx, "PlaylistEntity", c, repo.Writer(pending))
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("added track", "list", listID, "track", trackID, "entity", id)
	return id, nil
}

// Remove takes one entry out of a playlist.
func (s *MembershipService) Remove(ctx context.Context, listID, entityID int64) (err error) {
	defer observe("membership.remove", time.Now(), &err)

	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		repo := repositories.NewEntityRepository(tx)
		c, err := loadList(ctx, repo, listID)
		if err != nil {
			return err
		}
		if !c.Has(entityID) {
			return fmt.Errorf("%w: %d in playlist %d", shared.ErrEntityNotFound, entityID, listID)
		}
		if err := c.Remove(entityID); err != nil {
			return err
		}
		return apply(ctx, "PlaylistEntity", c, repo.Writer(nil))
	})
	if err != nil {
		return err
	}

	s.logger.Info("removed track", "list", listID, "entity", entityID)
	return nil
}

// RemoveMany takes several entries out of a playlist at once and returns the ids removed.
// Ids that are not in the playlist are ignored.
func (s *MembershipService) RemoveMany(ctx context.Context, listID int64, entityIDs []int64) (removed []int64, err error) {
	defer observe("membership.remove_many", time.Now(), &err)

	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		repo := repositories.NewEntityRepository(tx)
		c, err := loadList(ctx, repo, listID)
		if err != nil {
			return err
		}
		removed = c.RemoveAll(listID, entityIDs)
		return apply(ctx, "PlaylistEntity", c, repo.Writer(nil))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("removed tracks", "list", listID, "entities", removed)
	return removed, nil
}

// Reorder relinks a playlist's entries to follow ids, which must name each of them once.
func (s *MembershipService) Reorder(ctx context.Context, listID int64, ids []int64) (err error) {
	defer observe("membership.reorder", time.Now(), &err)

	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		repo := repositories.NewEntityRepository(tx)
		c, err := loadList(ctx, repo, listID)
		if err != nil {
			return err
		}
		if err := c.Reorder(listID, ids); err != nil {
			return err
		}
		return apply(ctx, "PlaylistEntity", c, repo.Writer(nil))
	})
	if err != nil {
		return err
	}

	s.logger.Info("reordered tracks", "list", listID, "order", ids)
	return nil
}

func loadList(ctx context.Context, repo *repositories.EntityRepository, listID int64) (*chain.Collection, error) {
	nodes, err := repo.NodesByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return chain.New(nodes), nil
}
