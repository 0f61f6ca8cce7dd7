package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
)

// trackColumns lists the Track columns read into [models.Track], after the id.
var trackColumns = []string{
	"title", "artist", "album", "genre", "bpm", "bpmAnalyzed", `"key"`,
	"rating", "length", "year", "label", "comment", "composer", "remixer",
	"filename", "path", "bitrate", "fileType", "dateAdded", "timeLastPlayed",
}

var (
	selectTrackColumns = "id, " + strings.Join(trackColumns, ", ")
	joinedTrackColumns = "t." + strings.Join(trackColumns, ", t.")
)

// trackFields holds nullable scan targets in trackColumns order.
// Numeric columns are read as floats since library files store some of them as REAL.
type trackFields struct {
	title, artist, album, genre                 sql.NullString
	bpm, bpmAnalyzed, key, rating, length, year sql.NullFloat64
	label, comment, composer, remixer           sql.NullString
	filename, path                              sql.NullString
	bitrate                                     sql.NullFloat64
	fileType, dateAdded, timeLastPlayed         sql.NullString
}

func newTrackFields() *trackFields { return &trackFields{} }

func (f *trackFields) dest() []any {
	return []any{
		&f.title, &f.artist, &f.album, &f.genre,
		&f.bpm, &f.bpmAnalyzed, &f.key, &f.rating, &f.length, &f.year,
		&f.label, &f.comment, &f.composer, &f.remixer,
		&f.filename, &f.path, &f.bitrate,
		&f.fileType, &f.dateAdded, &f.timeLastPlayed,
	}
}

func (f *trackFields) into(t *models.Track) {
	t.Title = f.title.String
	t.Artist = f.artist.String
	t.Album = f.album.String
	t.Genre = f.genre.String
	t.BPM = f.bpm.Float64
	t.BPMAnalyzed = f.bpmAnalyzed.Float64
	t.MusicalKey = int64(f.key.Float64)
	t.Rating = int64(f.rating.Float64)
	t.Length = f.length.Float64
	t.Year = int64(f.year.Float64)
	t.Label = f.label.String
	t.Comment = f.comment.String
	t.Composer = f.composer.String
	t.Remixer = f.remixer.String
	t.Filename = f.filename.String
	t.Path = f.path.String
	t.Bitrate = int64(f.bitrate.Float64)
	t.FileType = f.fileType.String
	t.DateAdded = f.dateAdded.String
	t.TimeLastPlayed = f.timeLastPlayed.String
}

// TrackRepository implements models.Repository[*models.Track] for the Track table.
type TrackRepository struct {
	q shared.Querier
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(q shared.Querier) *TrackRepository {
	return &TrackRepository{q: q}
}

// TX returns a repository bound to tx.
func (r *TrackRepository) TX(tx *sql.Tx) *TrackRepository {
	return &TrackRepository{q: tx}
}

// Get retrieves a track by id
func (r *TrackRepository) Get(ctx context.Context, id int64) (*models.Track, error) {
	query := "SELECT " + selectTrackColumns + " FROM Track WHERE id = ?"
	t, err := scanTrack(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, noRows(err, shared.ErrTrackNotFound, id, "track")
	}
	return t, nil
}

// Exists reports whether a track with id exists.
func (r *TrackRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM Track WHERE id = ?)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check track: %w", err)
	}
	return exists, nil
}

// List retrieves all tracks ordered by id
func (r *TrackRepository) List(ctx context.Context) ([]*models.Track, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+selectTrackColumns+" FROM Track ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

// ListReferenced retrieves one row per distinct (track, database) pair referenced by a
// playlist membership, joined with whatever the Track table knows about it.
func (r *TrackRepository) ListReferenced(ctx context.Context) ([]*models.Track, error) {
	query := `
		SELECT pe.trackId, pe.databaseUuid, ` + joinedTrackColumns + `
		FROM PlaylistEntity pe
		LEFT JOIN Track t ON pe.trackId = t.id
		GROUP BY pe.trackId, pe.databaseUuid
		ORDER BY pe.trackId
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query referenced tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		var (
			t      models.Track
			id     sql.NullInt64
			uuid   sql.NullString
			fields = newTrackFields()
		)
		if err := rows.Scan(append([]any{&id, &uuid}, fields.dest()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		fields.into(&t)
		t.ID = id.Int64
		t.DatabaseUUID = uuid.String
		tracks = append(tracks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

// Update writes the allowlisted columns in fields and returns the names written.
//
// Unknown names are ignored and an empty string clears a column to NULL.
// Returns [shared.ErrNoValidFields] when no name is allowlisted.
func (r *TrackRepository) Update(ctx context.Context, id int64, fields map[string]any) ([]string, error) {
	var names []string
	for name := range fields {
		if models.IsTrackField(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, shared.ErrNoValidFields
	}
	sort.Strings(names)

	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets[i] = fmt.Sprintf("%q = ?", name)
		val := fields[name]
		if s, ok := val.(string); ok && s == "" {
			val = nil
		}
		args = append(args, val)
	}
	args = append(args, id)

	query := "UPDATE Track SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update track: %w", err)
	}
	if err := affected(result, shared.ErrTrackNotFound, id); err != nil {
		return nil, err
	}
	return names, nil
}

// Delete removes a track row
func (r *TrackRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, "DELETE FROM Track WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return affected(result, shared.ErrTrackNotFound, id)
}

func scanTrack(row scanner) (*models.Track, error) {
	var (
		t      models.Track
		fields = newTrackFields()
	)
	if err := row.Scan(append([]any{&t.ID}, fields.dest()...)...); err != nil {
		return nil, err
	}
	fields.into(&t)
	return &t, nil
}
