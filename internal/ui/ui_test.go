package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/waveform"
)

type fakeLibrary struct {
	roots   []*models.PlaylistNode
	tracks  map[int64][]*models.PlaylistTrack
	removed []int64
	err     error
}

func (f *fakeLibrary) Tree(context.Context) ([]*models.PlaylistNode, error) {
	return f.roots, f.err
}

func (f *fakeLibrary) Tracks(_ context.Context, listID int64) ([]*models.PlaylistTrack, error) {
	return f.tracks[listID], f.err
}

func (f *fakeLibrary) Remove(_ context.Context, listID, entityID int64) error {
	f.removed = append(f.removed, entityID)
	kept := f.tracks[listID][:0]
	for _, t := range f.tracks[listID] {
		if t.EntityID != entityID {
			kept = append(kept, t)
		}
	}
	f.tracks[listID] = kept
	return nil
}

func (f *fakeLibrary) Get(_ context.Context, ids []int64) (map[int64][]waveform.Bar, error) {
	out := make(map[int64][]waveform.Bar, len(ids))
	for _, id := range ids {
		out[id] = []waveform.Bar{{Low: 10, Mid: 200, High: 30}}
	}
	return out, nil
}

func node(id int64, title string, children ...*models.PlaylistNode) *models.PlaylistNode {
	return &models.PlaylistNode{Playlist: models.Playlist{ID: id, Title: title}, Children: children}
}

func entry(entity, track int64, title string) *models.PlaylistTrack {
	return &models.PlaylistTrack{EntityID: entity, ListID: 1, Track: models.Track{ID: track, Title: title, Artist: "Artist", Length: 245}}
}

func newFixture() *fakeLibrary {
	return &fakeLibrary{
		roots: []*models.PlaylistNode{
			node(1, "Warmup", node(3, "Openers")),
			node(2, "Peak Time"),
		},
		tracks: map[int64][]*models.PlaylistTrack{
			1: {entry(100, 10, "Alpha"), entry(101, 11, "Bravo")},
		},
	}
}

// run executes cmd and feeds the resulting messages back into m, following batches.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for depth := 0; cmd != nil && depth < 10; depth++ {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				run(t, m, c)
			}
			return
		}
		if _, ok := msg.(Msg); !ok {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func press(m *Model, keys string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return cmd
}

func TestFlatten(t *testing.T) {
	items := flatten(newFixture().roots)
	var titles []string
	for _, it := range items {
		titles = append(titles, it.(playlistItem).Title())
	}
	want := []string{"Warmup", "  Openers", "Peak Time"}
	if strings.Join(titles, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, titles)
	}
	if d := items[0].(playlistItem).Description(); !strings.Contains(d, "1 nested") {
		t.Errorf("expected nested count in %q", d)
	}
}

func TestTrackItem(t *testing.T) {
	item := trackItem{position: 2, track: entry(100, 10, "Alpha")}
	if item.Title() != "2. Alpha" {
		t.Errorf("unexpected title %q", item.Title())
	}
	if item.Description() != "Artist • 4:05" {
		t.Errorf("unexpected description %q", item.Description())
	}

	unnamed := trackItem{position: 1, track: &models.PlaylistTrack{Track: models.Track{ID: 7, Filename: "x.mp3"}}}
	if unnamed.Title() != "1. x.mp3" {
		t.Errorf("expected filename fallback, got %q", unnamed.Title())
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); !strings.Contains(got, "no waveform") {
		t.Errorf("expected placeholder, got %q", got)
	}
	got := Sparkline([]waveform.Bar{{Low: 0}, {High: 255}})
	if !strings.ContainsRune(got, '▁') || !strings.ContainsRune(got, '█') {
		t.Errorf("expected lowest and highest glyphs, got %q", got)
	}
}

func TestModel(t *testing.T) {
	ctx := context.Background()

	t.Run("browse into a playlist", func(t *testing.T) {
		lib := newFixture()
		m := NewModel(ctx, lib, lib, lib)
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
		run(t, m, m.Init())

		if n := len(m.tree.Items()); n != 3 {
			t.Fatalf("expected 3 tree rows, got %d", n)
		}

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(t, m, cmd)

		if m.view != TrackListView {
			t.Fatalf("expected track list view, got %d", m.view)
		}
		if n := len(m.trackList.Items()); n != 2 {
			t.Errorf("expected 2 tracks, got %d", n)
		}
		if _, ok := m.previews[10]; !ok {
			t.Error("expected waveform previews to be loaded")
		}
		if !strings.Contains(m.View(), "Alpha") {
			t.Error("expected track titles in the view")
		}

		_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != TreeView || cmd != nil {
			t.Errorf("expected to return to the tree")
		}
	})

	t.Run("remove with confirmation", func(t *testing.T) {
		lib := newFixture()
		m := NewModel(ctx, lib, lib, nil)
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
		run(t, m, m.Init())
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(t, m, cmd)

		press(m, "d")
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}
		if !strings.Contains(m.View(), "Remove '1. Alpha'") {
			t.Errorf("unexpected confirm view:\n%s", m.View())
		}

		press(m, "n")
		if m.view != TrackListView || len(lib.removed) != 0 {
			t.Fatalf("expected no removal after declining")
		}

		press(m, "d")
		run(t, m, press(m, "y"))
		if len(lib.removed) != 1 || lib.removed[0] != 100 {
			t.Errorf("expected entry 100 removed, got %v", lib.removed)
		}
		if m.view != TrackListView || len(m.trackList.Items()) != 1 {
			t.Errorf("expected refreshed list with 1 track, got %d", len(m.trackList.Items()))
		}
	})

	t.Run("errors are shown", func(t *testing.T) {
		lib := newFixture()
		lib.err = errors.New("no database open")
		m := NewModel(ctx, lib, lib, lib)
		run(t, m, m.Init())

		if !strings.Contains(m.View(), "no database open") {
			t.Errorf("expected error in view, got %q", m.View())
		}
	})
}
