package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
	tu "github.com/desertthunder/edbx/internal/testing"
)

func quietLogger() *log.Logger {
	return shared.NewLogger(&tu.FWriter{})
}

func TestPlaylistService(t *testing.T) {
	ctx := context.Background()

	t.Run("Create appends under the parent", func(t *testing.T) {
		lib := tu.NewLibrary(t).Playlists(0, 1, 2).Playlists(1, 3)
		svc := NewPlaylistService(lib, quietLogger())

		id, err := svc.Create(ctx, "New Root", 0)
		if err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if id != 4 {
			t.Errorf("expected id 4, got %d", id)
		}
		lib.AssertChain("Playlist", 0, 1, 2, 4)

		child, err := svc.Create(ctx, "  Child  ", 1)
		if err != nil {
			t.Fatalf("failed to create child: %v", err)
		}
		lib.AssertChain("Playlist", 1, 3, child)

		p, err := svc.Get(ctx, child)
		if err != nil {
			t.Fatalf("failed to get child: %v", err)
		}
		if p.Title != "Child" || !p.IsPersisted {
			t.Errorf("unexpected playlist %+v", p)
		}
	})

	t.Run("Create in an empty library", func(t *testing.T) {
		lib := tu.NewLibrary(t)
		svc := NewPlaylistService(lib, quietLogger())

		id, err := svc.Create(ctx, "First", 0)
		if err != nil || id != 1 {
			t.Fatalf("expected id 1, got %d (%v)", id, err)
		}
		lib.AssertChain("Playlist", 0, 1)
	})

	t.Run("Create rejects bad input", func(t *testing.T) {
		lib := tu.NewLibrary(t).Playlists(0, 1)
		svc := NewPlaylistService(lib, quietLogger())

		if _, err := svc.Create(ctx, "   ", 0); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := svc.Create(ctx, "Orphan", 9); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if n := lib.Count("Playlist"); n != 1 {
			t.Errorf("expected no new rows, got %d playlists", n)
		}
	})

	t.Run("Create attaches to a chain with a dangling tail", func(t *testing.T) {
		lib := tu.NewLibrary(t).
			Playlist(1, "A", 0, 2).
			Playlist(2, "B", 0, 77)
		svc := NewPlaylistService(lib, quietLogger())

		id, err := svc.Create(ctx, "C", 0)
		if err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		lib.AssertChain("Playlist", 0, 1, 2, id)
	})

	t.Run("Rename", func(t *testing.T) {
		lib := tu.NewLibrary(t).Playlists(0, 1, 2)
		svc := NewPlaylistService(lib, quietLogger())

		if err := svc.Rename(ctx, 2, "Closing"); err != nil {
			t.Fatalf("failed to rename: %v", err)
		}
		p, _ := svc.Get(ctx, 2)
		if p.Title != "Closing" {
			t.Errorf("expected Closing, got %s", p.Title)
		}
		lib.AssertChain("Playlist", 0, 1, 2)

		if err := svc.Rename(ctx, 5, "Nope"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("Delete re-parents children in place", func(t *testing.T) {
		lib := tu.NewLibrary(t).
			Playlists(0, 1, 2, 3).
			Playlists(2, 4, 5).
			Track(10, "Song", "Artist", "/music/song.mp3").
			Entities(2, "", 1, 10).
			Entities(4, "", 2, 10)
		svc := NewPlaylistService(lib, quietLogger())

		if err := svc.Delete(ctx, 2); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		lib.AssertChain("Playlist", 0, 1, 4, 5, 3)
		lib.AssertChain("Playlist", 2)

		var remaining int
		lib.DB.QueryRow("SELECT COUNT(*) FROM PlaylistEntity WHERE listId = 2").Scan(&remaining)
		if remaining != 0 {
			t.Errorf("expected memberships of playlist 2 removed, got %d", remaining)
		}
		lib.AssertChain("PlaylistEntity", 4, 2)
	})

	t.Run("Delete last child and tail", func(t *testing.T) {
		lib := tu.NewLibrary(t).Playlists(0, 1, 2).Playlists(2, 3)
		svc := NewPlaylistService(lib, quietLogger())

		if err := svc.Delete(ctx, 2); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		lib.AssertChain("Playlist", 0, 1, 3)

		if err := svc.Delete(ctx, 2); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("Move", func(t *testing.T) {
		lib := tu.NewLibrary(t).Playlists(0, 1, 2, 3).Playlists(1, 4)
		svc := NewPlaylistService(lib, quietLogger())

		if err := svc.Move(ctx, 2, 1); err != nil {
			t.Fatalf("failed to move: %v", err)
		}
		lib.AssertChain("Playlist", 0, 1, 3)
		lib.AssertChain("Playlist", 1, 4, 2)

		if err := svc.Move(ctx, 2, 1); err != nil {
			t.Errorf("expected moving to the same parent to be a no-op, got %v", err)
		}
		lib.AssertChain("Playlist", 1, 4, 2)

		if err := svc.Move(ctx, 4, 0); err != nil {
			t.Fatalf("failed to move to root: %v", err)
		}
		lib.AssertChain("Playlist", 0, 1, 3, 4)
		lib.AssertChain("Playlist", 1, 2)
	})

	t.Run("Move rejects cycles", func(t *testing.T) {
		lib := tu.NewLibrary(t).Playlists(0, 1, 2).Playlists(1, 3).Playlists(3, 4)
		svc := NewPlaylistService(lib, quietLogger())
		before := lib.Nodes("Playlist")

		for _, target := range []int64{1, 3, 4} {
			if err := svc.Move(ctx, 1, target); !errors.Is(err, shared.ErrInvalidOperation) {
				t.Errorf("move under %d: expected ErrInvalidOperation, got %v", target, err)
			}
		}
		if err := svc.Move(ctx, 1, 99); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound for unknown parent, got %v", err)
		}
		if err := svc.Move(ctx, 99, 0); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound for unknown playlist, got %v", err)
		}
		if after := lib.Nodes("Playlist"); !reflect.DeepEqual(before, after) {
			t.Errorf("tree changed after rejected moves: %v -> %v", before, after)
		}
	})

	t.Run("Reorder", func(t *testing.T) {
		lib := tu.NewLibrary(t).Playlists(0, 1, 2, 3)
		svc := NewPlaylistService(lib, quietLogger())

		if err := svc.Reorder(ctx, 0, []int64{3, 1, 2}); err != nil {
			t.Fatalf("failed to reorder: %v", err)
		}
		lib.AssertChain("Playlist", 0, 3, 1, 2)

		for _, ids := range [][]int64{{3, 1}, {3, 1, 1}, {3, 1, 9}} {
			if err := svc.Reorder(ctx, 0, ids); !errors.Is(err, shared.ErrInvalidOperation) {
				t.Errorf("reorder %v: expected ErrInvalidOperation, got %v", ids, err)
			}
		}
		lib.AssertChain("Playlist", 0, 3, 1, 2)
	})

	t.Run("Tree", func(t *testing.T) {
		lib := tu.NewLibrary(t).
			Playlists(0, 2, 1).
			Playlists(1, 4, 3).
			Playlists(50, 5)
		svc := NewPlaylistService(lib, quietLogger())

		roots, err := svc.Tree(ctx)
		if err != nil {
			t.Fatalf("failed to build tree: %v", err)
		}

		var got []int64
		depths := map[int64]int{}
		for _, r := range roots {
			r.Walk(0, func(n *models.PlaylistNode, depth int) {
				got = append(got, n.ID)
				depths[n.ID] = depth
			})
		}
		if want := []int64{2, 1, 4, 3, 5}; !reflect.DeepEqual(got, want) {
			t.Errorf("tree order = %v, want %v", got, want)
		}
		if depths[4] != 1 || depths[5] != 0 {
			t.Errorf("unexpected depths %v", depths)
		}
	})

	t.Run("List and Search", func(t *testing.T) {
		lib := tu.NewLibrary(t).Playlist(1, "Deep House", 0, 2).Playlist(2, "Techno", 0, 0)
		svc := NewPlaylistService(lib, quietLogger())

		all, err := svc.List(ctx)
		if err != nil || len(all) != 2 {
			t.Fatalf("expected 2 playlists, got %d (%v)", len(all), err)
		}
		found, err := svc.Search(ctx, "house")
		if err != nil || len(found) != 1 || found[0].ID != 1 {
			t.Errorf("expected Deep House, got %+v (%v)", found, err)
		}
	})
}
