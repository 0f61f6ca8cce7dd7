package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/edbx/internal/chain"
	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/repositories"
	"github.com/desertthunder/edbx/internal/shared"
)

// PlaylistService manages the playlist tree.
type PlaylistService struct {
	lib    Library
	logger *log.Logger
}

// NewPlaylistService creates a PlaylistService.
func NewPlaylistService(lib Library, logger *log.Logger) *PlaylistService {
	return &PlaylistService{lib: lib, logger: logger}
}

// List returns every playlist ordered by id.
func (s *PlaylistService) List(ctx context.Context) (playlists []*models.Playlist, err error) {
	defer observe("playlist.list", time.Now(), &err)
	err = s.lib.View(ctx, func(q shared.Querier) error {
		playlists, err = repositories.NewPlaylistRepository(q).List(ctx)
		return err
	})
	return playlists, err
}

// Get returns one playlist.
func (s *PlaylistService) Get(ctx context.Context, id int64) (p *models.Playlist, err error) {
	defer observe("playlist.get", time.Now(), &err)
	err = s.lib.View(ctx, func(q shared.Querier) error {
		p, err = repositories.NewPlaylistRepository(q).Get(ctx, id)
		return err
	})
	return p, err
}

// Search returns the playlists whose title contains term, ordered by title.
func (s *PlaylistService) Search(ctx context.Context, term string) (playlists []*models.Playlist, err error) {
	defer observe("playlist.search", time.Now(), &err)
	err = s.lib.View(ctx, func(q shared.Querier) error {
		playlists, err = repositories.NewPlaylistRepository(q).Search(ctx, term)
		return err
	})
	return playlists, err
}

// Tree returns the root playlists with their descendants, siblings in chain order.
//
// Playlists whose parent does not exist are listed after the roots so corrupt trees stay visible.
func (s *PlaylistService) Tree(ctx context.Context) (roots []*models.PlaylistNode, err error) {
	defer observe("playlist.tree", time.Now(), &err)

	var playlists []*models.Playlist
	err = s.lib.View(ctx, func(q shared.Querier) error {
		playlists, err = repositories.NewPlaylistRepository(q).List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Playlist, len(playlists))
	nodes := make([]chain.Node, 0, len(playlists))
	for _, p := range playlists {
		byID[p.ID] = p
		nodes = append(nodes, chain.Node{ID: p.ID, Group: p.ParentID, Next: p.NextID})
	}
	c := chain.New(nodes)

	visited := make(map[int64]bool, len(playlists))
	var build func(parent int64) []*models.PlaylistNode
	build = func(parent int64) []*models.PlaylistNode {
		var out []*models.PlaylistNode
		for _, id := range c.Order(parent) {
			if visited[id] {
				continue
			}
			visited[id] = true
			out = append(out, &models.PlaylistNode{Playlist: *byID[id], Children: build(id)})
		}
		return out
	}

	roots = build(models.RootID)
	for _, g := range c.Groups() {
		if _, ok := byID[g]; ok || g == models.RootID {
			continue
		}
		roots = append(roots, build(g)...)
	}
	return roots, nil
}

// Create appends a new playlist to the end of parentID's children and returns its id.
// A parentID of [models.RootID] creates a top-level playlist.
func (s *PlaylistService) Create(ctx context.Context, title string, parentID int64) (id int64, err error) {
	defer observe("playlist.create", time.Now(), &err)

	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("%w: playlist title is required", shared.ErrMissingArgument)
	}

	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		c, repo, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		if parentID != models.RootID && !c.Has(parentID) {
			return fmt.Errorf("%w: parent %d", shared.ErrPlaylistNotFound, parentID)
		}

		id = c.MaxID() + 1
		if err := c.Append(chain.Node{ID: id, Group: parentID}); err != nil {
			return err
		}
		pending := map[int64]*models.Playlist{id: {ID: id, Title: title, IsPersisted: true}}
		return apply(ctx, "Playlist", c, repo.Writer(pending))
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("created playlist", "playlist", id, "parent", parentID, "title", title)
	return id, nil
}

// Rename changes a playlist's title. Links are untouched.
func (s *PlaylistService) Rename(ctx context.Context, id int64, title string) (err error) {
	defer observe("playlist.rename", time.Now(), &err)

	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: playlist title is required", shared.ErrMissingArgument)
	}

	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		return repositories.NewPlaylistRepository(tx).Rename(ctx, id, title)
	})
	if err != nil {
		return err
	}
	s.logger.Info("renamed playlist", "playlist", id, "title", title)
	return nil
}

// Delete removes a playlist and its memberships. Its children move up to its parent and
// take its place among their new siblings, keeping their order.
func (s *PlaylistService) Delete(ctx context.Context, id int64) (err error) {
	defer observe("playlist.delete", time.Now(), &err)

	var removed int64
	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		c, repo, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		if !c.Has(id) {
			return fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, id)
		}

		if removed, err = repositories.NewEntityRepository(tx).DeleteByList(ctx, id); err != nil {
			return err
		}
		if err := c.Dissolve(id); err != nil {
			return err
		}
		return apply(ctx, "Playlist", c, repo.Writer(nil))
	})
	if err != nil {
		return err
	}

	s.logger.Info("deleted playlist", "playlist", id, "entities", removed)
	return nil
}

// Move makes a playlist the last child of newParentID. Moving under itself or one of its
// descendants is an [shared.ErrInvalidOperation]; moving to its current parent does nothing.
func (s *PlaylistService) Move(ctx context.Context, id, newParentID int64) (err error) {
	defer observe("playlist.move", time.Now(), &err)

	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		c, repo, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		if !c.Has(id) {
			return fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, id)
		}
		if newParentID == id || c.IsDescendant(newParentID, id) {
			return fmt.Errorf("%w: cannot move playlist %d under itself or a descendant", shared.ErrInvalidOperation, id)
		}
		if newParentID != models.RootID && !c.Has(newParentID) {
			return fmt.Errorf("%w: parent %d", shared.ErrPlaylistNotFound, newParentID)
		}

		if err := c.MoveTo(id, newParentID); err != nil {
			return err
		}
		return apply(ctx, "Playlist", c, repo.Writer(nil))
	})
	if err != nil {
		return err
	}

	s.logger.Info("moved playlist", "playlist", id, "parent", newParentID)
	return nil
}

// Reorder relinks the children of parentID to follow ids, which must name each of them once.
func (s *PlaylistService) Reorder(ctx context.Context, parentID int64, ids []int64) (err error) {
	defer observe("playlist.reorder", time.Now(), &err)

	err = s.lib.WithTx(ctx, func(tx *sql.Tx) error {
		c, repo, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		if err := c.Reorder(parentID, ids); err != nil {
			return err
		}
		return apply(ctx, "Playlist", c, repo.Writer(nil))
	})
	if err != nil {
		return err
	}

	s.logger.Info("reordered playlists", "parent", parentID, "order", ids)
	return nil
}

func (s *PlaylistService) load(ctx context.Context, tx *sql.Tx) (*chain.Collection, *repositories.PlaylistRepository, error) {
	repo := repositories.NewPlaylistRepository(tx)
	nodes, err := repo.Nodes(ctx)
	if err != nil {
		return nil, nil, err
	}
	return chain.New(nodes), repo, nil
}
