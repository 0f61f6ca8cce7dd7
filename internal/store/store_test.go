package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/edbx/internal/shared"
	tu "github.com/desertthunder/edbx/internal/testing"
)

func newStore(t *testing.T, dir string) *Store {
	t.Helper()
	s := New(shared.DatabaseConfig{Path: dir, MaxOpenConns: 1, MaxIdleConns: 1}, shared.NewLogger(&tu.FWriter{}))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("no database open", func(t *testing.T) {
		s := newStore(t, t.TempDir())

		err := s.View(ctx, func(shared.Querier) error { return nil })
		if !errors.Is(err, shared.ErrNoDatabase) {
			t.Errorf("expected ErrNoDatabase from View, got %v", err)
		}
		err = s.WithTx(ctx, func(*sql.Tx) error { return nil })
		if !errors.Is(err, shared.ErrNoDatabase) {
			t.Errorf("expected ErrNoDatabase from WithTx, got %v", err)
		}
	})

	t.Run("Init and Switch", func(t *testing.T) {
		dir := t.TempDir()
		s := newStore(t, dir)

		info, err := s.Init(ctx, DefaultFile)
		if err != nil {
			t.Fatalf("failed to init library: %v", err)
		}
		if info.UUID == "" {
			t.Error("expected a uuid for the new library")
		}
		tu.AssertFileExists(t, filepath.Join(dir, DefaultFile))

		if _, err := s.Init(ctx, DefaultFile); !errors.Is(err, shared.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}

		if err := s.Switch(DefaultFile); err != nil {
			t.Fatalf("failed to open library: %v", err)
		}
		if s.Current() != DefaultFile {
			t.Errorf("expected current file %s, got %s", DefaultFile, s.Current())
		}

		stats, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("failed to read stats: %v", err)
		}
		if stats.Info == nil || stats.Info.UUID != info.UUID || stats.Playlists != 0 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("Switch rejects missing and escaping files", func(t *testing.T) {
		s := newStore(t, t.TempDir())

		if err := s.Switch("nope.db"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		for _, name := range []string{"", "../m.db", "sub/m.db", ".."} {
			if err := s.Switch(name); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("Switch(%q) expected ErrInvalidArgument, got %v", name, err)
			}
		}
	})

	t.Run("Switch closes the previous file", func(t *testing.T) {
		dir := t.TempDir()
		tu.NewLibraryFile(t, dir, "m.db", "uuid-m")
		tu.NewLibraryFile(t, dir, "hm.db", "uuid-hm")
		s := newStore(t, dir)

		if err := s.Switch("m.db"); err != nil {
			t.Fatalf("failed to open m.db: %v", err)
		}
		if err := s.Switch("hm.db"); err != nil {
			t.Fatalf("failed to switch to hm.db: %v", err)
		}

		stats, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("failed to read stats: %v", err)
		}
		if stats.File != "hm.db" || stats.Info.UUID != "uuid-hm" {
			t.Errorf("expected stats of hm.db, got %+v", stats)
		}
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		dir := t.TempDir()
		tu.NewLibraryFile(t, dir, "m.db", "uuid-m")
		s := newStore(t, dir)
		if err := s.Switch("m.db"); err != nil {
			t.Fatalf("failed to open: %v", err)
		}

		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec("INSERT INTO Playlist (id, title, parentListId, nextListId) VALUES (1, 'A', 0, 0)"); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected the callback error, got %v", err)
		}

		err = s.WithTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.Exec("INSERT INTO Playlist (id, title, parentListId, nextListId) VALUES (2, 'B', 0, 0)")
			return err
		})
		if err != nil {
			t.Fatalf("expected commit, got %v", err)
		}

		stats, _ := s.Stats(ctx)
		if stats.Playlists != 1 {
			t.Errorf("expected only the committed playlist, got %d", stats.Playlists)
		}
	})

	t.Run("Databases tolerates missing tables", func(t *testing.T) {
		dir := t.TempDir()
		tu.NewLibraryFile(t, dir, "m.db", "uuid-m")
		tu.NewLibraryFile(t, dir, "hm.db", "uuid-hm")

		bare, err := shared.NewDatabase(filepath.Join(dir, "stm.db"))
		if err != nil {
			t.Fatalf("failed to create bare file: %v", err)
		}
		if _, err := bare.Exec("CREATE TABLE Playlist (id INTEGER PRIMARY KEY)"); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
		if _, err := bare.Exec("INSERT INTO Playlist (id) VALUES (1), (2)"); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}
		bare.Close()

		if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		s := newStore(t, dir)
		if err := s.Switch("m.db"); err != nil {
			t.Fatalf("failed to open: %v", err)
		}

		dbs, err := s.Databases(ctx)
		if err != nil {
			t.Fatalf("failed to list databases: %v", err)
		}
		if len(dbs) != 3 {
			t.Fatalf("expected 3 library files, got %+v", dbs)
		}

		byFile := map[string]int{}
		for i, d := range dbs {
			byFile[d.File] = i
		}
		if d := dbs[byFile["m.db"]]; !d.Active || d.UUID != "uuid-m" {
			t.Errorf("unexpected summary for m.db %+v", d)
		}
		if d := dbs[byFile["stm.db"]]; d.Playlists != 2 || d.Tracks != 0 || d.UUID != "" || d.Active {
			t.Errorf("unexpected summary for stm.db %+v", d)
		}
	})

	t.Run("SetDir closes the open file", func(t *testing.T) {
		dir := t.TempDir()
		tu.NewLibraryFile(t, dir, "m.db", "uuid-m")
		s := newStore(t, dir)
		if err := s.Switch("m.db"); err != nil {
			t.Fatalf("failed to open: %v", err)
		}

		other := t.TempDir()
		if err := s.SetDir(other); err != nil {
			t.Fatalf("failed to change directory: %v", err)
		}
		if s.Current() != "" || s.Dir() != other {
			t.Errorf("expected a closed store in %s, got %q in %s", other, s.Current(), s.Dir())
		}
		if err := s.SetDir(filepath.Join(other, "missing")); err == nil {
			t.Error("expected an error for a missing directory")
		}
	})
}
