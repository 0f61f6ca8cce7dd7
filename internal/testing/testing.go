// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/desertthunder/edbx/internal/chain"
	"github.com/desertthunder/edbx/internal/shared"
)

// Library is a migrated library database with fixture builders.
type Library struct {
	t  *testing.T
	DB *sql.DB
}

// NewLibrary creates an in-memory library database with the schema applied.
// The database is closed when the test ends.
func NewLibrary(t *testing.T) *Library {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return &Library{t: t, DB: db}
}

// NewLibraryFile creates a library file named name in dir with the schema applied and
// an Information row carrying uuid. It returns the file path.
func NewLibraryFile(t *testing.T, dir, name, uuid string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	db, err := shared.NewDatabase(path)
	if err != nil {
		t.Fatalf("failed to create library file: %v", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if _, err := db.Exec("INSERT INTO Information (uuid) VALUES (?)", uuid); err != nil {
		t.Fatalf("failed to insert information: %v", err)
	}
	return path
}

// OpenLibraryFile opens an existing library file for fixture setup.
// The connection is closed when the test ends.
func OpenLibraryFile(t *testing.T, path string) *Library {
	t.Helper()

	db, err := shared.NewDatabase(path)
	if err != nil {
		t.Fatalf("failed to open library file: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Library{t: t, DB: db}
}

// View runs fn against the database, so a Library can stand in for the store.
func (l *Library) View(ctx context.Context, fn func(q shared.Querier) error) error {
	return fn(l.DB)
}

// WithTx runs fn in a transaction committed only when fn returns nil.
func (l *Library) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// Exec runs a statement and fails the test on error.
func (l *Library) Exec(query string, args ...any) *Library {
	l.t.Helper()
	if _, err := l.DB.Exec(query, args...); err != nil {
		l.t.Fatalf("fixture statement failed: %v\n%s", err, query)
	}
	return l
}

// Playlist inserts one playlist row as given.
func (l *Library) Playlist(id int64, title string, parent, next int64) *Library {
	l.t.Helper()
	return l.Exec(
		"INSERT INTO Playlist (id, title, parentListId, nextListId, isPersisted, isExplicitlyExported) VALUES (?, ?, ?, ?, 1, 0)",
		id, title, parent, next,
	)
}

// Playlists inserts ids under parent as a valid chain in the given order, titled "Playlist <id>".
func (l *Library) Playlists(parent int64, ids ...int64) *Library {
	l.t.Helper()
	for i, id := range ids {
		next := chain.End
		if i < len(ids)-1 {
			next = ids[i+1]
		}
		l.Playlist(id, fmt.Sprintf("Playlist %d", id), parent, next)
	}
	return l
}

// Track inserts a track row with the most commonly inspected columns.
func (l *Library) Track(id int64, title, artist, path string) *Library {
	l.t.Helper()
	return l.Exec(
		"INSERT INTO Track (id, title, artist, path, filename, bitrate, length, fileType) VALUES (?, ?, ?, ?, ?, 320, 240, 'mp3')",
		id, title, artist, path, filepath.Base(path),
	)
}

// Entity inserts one membership row as given.
func (l *Library) Entity(id, list, track int64, uuid string, next int64) *Library {
	l.t.Helper()
	return l.Exec(
		"INSERT INTO PlaylistEntity (id, listId, trackId, databaseUuid, nextEntityId, membershipReference) VALUES (?, ?, ?, ?, ?, 0)",
		id, list, track, uuid, next,
	)
}

// Entities inserts a valid membership chain for list. Entity ids start at first and
// reference tracks in the given order.
func (l *Library) Entities(list int64, uuid string, first int64, tracks ...int64) *Library {
	l.t.Helper()
	for i, track := range tracks {
		next := chain.End
		if i < len(tracks)-1 {
			next = first + int64(i) + 1
		}
		l.Entity(first+int64(i), list, track, uuid, next)
	}
	return l
}

// Waveform stores an overview waveform blob for a track.
func (l *Library) Waveform(track int64, blob []byte) *Library {
	l.t.Helper()
	return l.Exec("INSERT INTO PerformanceData (trackId, overviewWaveFormData) VALUES (?, ?)", track, blob)
}

// Count returns the number of rows in table.
func (l *Library) Count(table string) int {
	l.t.Helper()
	var n int
	if err := l.DB.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		l.t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

// Nodes reads the linking columns of the Playlist or PlaylistEntity table.
func (l *Library) Nodes(table string) []chain.Node {
	l.t.Helper()

	query := "SELECT id, parentListId, nextListId FROM Playlist"
	if table == "PlaylistEntity" {
		query = "SELECT id, listId, nextEntityId FROM PlaylistEntity"
	}
	rows, err := l.DB.Query(query)
	if err != nil {
		l.t.Fatalf("failed to read %s links: %v", table, err)
	}
	defer rows.Close()

	var nodes []chain.Node
	for rows.Next() {
		var n chain.Node
		if err := rows.Scan(&n.ID, &n.Group, &n.Next); err != nil {
			l.t.Fatalf("failed to scan link: %v", err)
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// AssertChain checks that group of table is one intact chain visiting want in order.
func (l *Library) AssertChain(table string, group int64, want ...int64) {
	l.t.Helper()

	c := chain.New(l.Nodes(table))
	got := c.Order(group)
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		l.t.Errorf("%s group %d order = %v, want %v", table, group, got, want)
	}
	for _, p := range c.VerifyGroup(group) {
		l.t.Errorf("%s integrity problem: %s", table, p)
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// WriteFile creates a file of size bytes at path, creating parent directories.
func WriteFile(t *testing.T, path string, size int) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	prev := MustGetwd(t)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
