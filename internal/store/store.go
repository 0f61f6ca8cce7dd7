// Package store owns the library directory and the single open library database.
//
// Exactly one library file is open at a time. Reads go through [Store.View]; every
// mutation runs inside [Store.WithTx], which serialises writers and commits once at
// the end, so a failed operation leaves the file as it was.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/edbx/internal/metrics"
	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/repositories"
	"github.com/desertthunder/edbx/internal/shared"
)

// DefaultFile is the library file opened when none was chosen.
const DefaultFile = "m.db"

// Store holds the library directory and the active database handle.
type Store struct {
	mu      sync.RWMutex
	dir     string
	file    string
	db      *sql.DB
	maxOpen int
	maxIdle int
	logger  *log.Logger
}

// New creates a Store for the library directory in cfg. No file is opened yet.
func New(cfg shared.DatabaseConfig, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{
		dir:     cfg.Path,
		maxOpen: cfg.MaxOpenConns,
		maxIdle: cfg.MaxIdleConns,
		logger:  shared.WithLogger(logger, "component", "store"),
	}
}

// Dir returns the library directory.
func (s *Store) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Current returns the name of the open library file, or "" when none is open.
func (s *Store) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file
}

// SetDir closes the open file and points the store at another library directory.
func (s *Store) SetDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to read library directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", shared.ErrInvalidArgument, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeLocked(); err != nil {
		return err
	}
	s.dir = dir
	s.logger.Info("library directory changed", "dir", dir)
	return nil
}

// Switch closes the open file, if any, and opens file from the library directory.
func (s *Store) Switch(file string) error {
	path, err := s.resolve(file)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: library file %s", shared.ErrNotFound, file)
		}
		return fmt.Errorf("failed to stat library file: %w", err)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return err
	}
	shared.ConfigureDatabase(db, s.maxOpen, s.maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeLocked(); err != nil {
		db.Close()
		return err
	}
	s.db, s.file = db, file
	metrics.LibrarySwitchesTotal.Inc()
	s.logger.Info("library opened", "file", file)
	return nil
}

// Close closes the open file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Store) closeLocked() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db, s.file = nil, ""
	if err != nil {
		return fmt.Errorf("failed to close library: %w", err)
	}
	return nil
}

// resolve maps a file name to a path inside the library directory.
func (s *Store) resolve(file string) (string, error) {
	if file == "" || filepath.Base(file) != file || strings.HasPrefix(file, ".") {
		return "", fmt.Errorf("%w: library file name %q", shared.ErrInvalidArgument, file)
	}
	return filepath.Join(s.Dir(), file), nil
}

// View runs fn against the open database. Concurrent views are allowed; writers wait.
func (s *Store) View(ctx context.Context, fn func(q shared.Querier) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return shared.ErrNoDatabase
	}
	return fn(s.db)
}

// WithTx runs fn in a transaction on the open database, committing when fn succeeds
// and rolling back otherwise. Only one transaction runs at a time.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return shared.ErrNoDatabase
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { metrics.ObserveTransaction(err) }()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "err", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Init creates a new library file with the schema and a fresh identity row.
// The open file is not changed.
func (s *Store) Init(ctx context.Context, file string) (*models.Information, error) {
	path, err := s.resolve(file)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: library file %s", shared.ErrAlreadyExists, file)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := shared.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	info, err := repositories.NewInformationRepository(db).Create(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("library created", "file", file, "uuid", info.UUID)
	return info, nil
}

// Databases summarises every .db file in the library directory.
// Files lacking some tables report zero counts instead of failing.
func (s *Store) Databases(ctx context.Context) ([]models.DatabaseSummary, error) {
	dir, current := s.Dir(), s.Current()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read library directory: %w", err)
	}

	var summaries []models.DatabaseSummary
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".db" {
			continue
		}

		db, err := shared.NewDatabase(filepath.Join(dir, e.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable library file", "file", e.Name(), "err", err)
			continue
		}
		summary := summarize(ctx, db, e.Name(), s.logger)
		db.Close()

		summary.Active = e.Name() == current
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].File < summaries[j].File })
	return summaries, nil
}

// Stats reports the counts and identity of the open library.
func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	var stats *models.Stats
	err := s.View(ctx, func(q shared.Querier) error {
		summary := summarize(ctx, q, s.file, s.logger)
		stats = &models.Stats{
			File:      summary.File,
			Playlists: summary.Playlists,
			Tracks:    summary.Tracks,
			Entities:  summary.Entities,
		}
		info, err := repositories.NewInformationRepository(q).Get(ctx)
		if err == nil {
			stats.Info = info
		}
		return nil
	})
	return stats, err
}

// summarize counts the library tables of q, treating missing tables and unreadable rows as empty.
func summarize(ctx context.Context, q shared.Querier, file string, logger *log.Logger) models.DatabaseSummary {
	summary := models.DatabaseSummary{File: file}

	counts := []struct {
		table string
		dest  *int
	}{
		{"Playlist", &summary.Playlists},
		{"Track", &summary.Tracks},
		{"PlaylistEntity", &summary.Entities},
	}
	for _, c := range counts {
		n, err := repositories.Count(ctx, q, c.table)
		if err != nil {
			logger.Debug("table not counted", "file", file, "table", c.table, "err", err)
			continue
		}
		*c.dest = n
	}

	if info, err := repositories.NewInformationRepository(q).Get(ctx); err == nil {
		summary.UUID = info.UUID
	}
	return summary
}
