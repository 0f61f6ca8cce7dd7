package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/edbx/internal/chain"
	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
)

const playlistColumns = "id, title, parentListId, nextListId, lastEditTime, isPersisted, isExplicitlyExported"

// PlaylistRepository implements models.Repository[*models.Playlist] for the Playlist table.
type PlaylistRepository struct {
	q shared.Querier
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(q shared.Querier) *PlaylistRepository {
	return &PlaylistRepository{q: q}
}

// TX returns a repository bound to tx.
func (r *PlaylistRepository) TX(tx *sql.Tx) *PlaylistRepository {
	return &PlaylistRepository{q: tx}
}

// Get retrieves a playlist by id
func (r *PlaylistRepository) Get(ctx context.Context, id int64) (*models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM Playlist WHERE id = ?"
	p, err := scanPlaylist(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, noRows(err, shared.ErrPlaylistNotFound, id, "playlist")
	}
	return p, nil
}

// Exists reports whether a playlist with id exists.
func (r *PlaylistRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM Playlist WHERE id = ?)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check playlist: %w", err)
	}
	return exists, nil
}

// List retrieves all playlists ordered by id
func (r *PlaylistRepository) List(ctx context.Context) ([]*models.Playlist, error) {
	return r.query(ctx, "SELECT "+playlistColumns+" FROM Playlist ORDER BY id")
}

// Search retrieves playlists whose title contains term, ordered by title
func (r *PlaylistRepository) Search(ctx context.Context, term string) ([]*models.Playlist, error) {
	return r.query(ctx, "SELECT "+playlistColumns+" FROM Playlist WHERE title LIKE ? ORDER BY title", "%"+term+"%")
}

// Rename sets the title of a playlist
func (r *PlaylistRepository) Rename(ctx context.Context, id int64, title string) error {
	result, err := r.q.ExecContext(ctx, "UPDATE Playlist SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return fmt.Errorf("failed to rename playlist: %w", err)
	}
	return affected(result, shared.ErrPlaylistNotFound, id)
}

// Nodes loads the linking columns of every playlist.
func (r *PlaylistRepository) Nodes(ctx context.Context) ([]chain.Node, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id, parentListId, nextListId FROM Playlist ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist links: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// NextID returns the id for a new playlist.
func (r *PlaylistRepository) NextID(ctx context.Context) (int64, error) {
	return NextID(ctx, r.q, "Playlist")
}

// Writer returns a [chain.Writer] for the Playlist table. Rows inserted by a plan must be
// present in pending.
func (r *PlaylistRepository) Writer(pending map[int64]*models.Playlist) chain.Writer {
	return &playlistWriter{q: r.q, pending: pending}
}

func (r *PlaylistRepository) query(ctx context.Context, query string, args ...any) ([]*models.Playlist, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// scanPlaylist scans a row selected with playlistColumns into a [models.Playlist]
func scanPlaylist(row scanner) (*models.Playlist, error) {
	var (
		p          models.Playlist
		title      sql.NullString
		parent     sql.NullInt64
		next       sql.NullInt64
		lastEdit   sql.NullString
		persisted  sql.NullBool
		isExported sql.NullBool
	)

	if err := row.Scan(&p.ID, &title, &parent, &next, &lastEdit, &persisted, &isExported); err != nil {
		return nil, err
	}

	p.Title = title.String
	p.ParentID = parent.Int64
	p.NextID = next.Int64
	p.LastEditTime = lastEdit.String
	p.IsPersisted = persisted.Bool
	p.IsExplicitlyExported = isExported.Bool
	return &p, nil
}

// scanNodes reads (id, group, next) rows.
func scanNodes(rows *sql.Rows) ([]chain.Node, error) {
	var nodes []chain.Node
	for rows.Next() {
		var (
			n     chain.Node
			group sql.NullInt64
			next  sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &group, &next); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		n.Group, n.Next = group.Int64, next.Int64
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return nodes, nil
}

type playlistWriter struct {
	q       shared.Querier
	pending map[int64]*models.Playlist
}

// Detach moves the row to the sentinel parent so neither of its linking columns collides.
func (w *playlistWriter) Detach(ctx context.Context, id, sentinel int64) error {
	_, err := w.q.ExecContext(ctx, "UPDATE Playlist SET parentListId = ?, nextListId = ? WHERE id = ?", chain.DetachSentinel, sentinel, id)
	return err
}

func (w *playlistWriter) Delete(ctx context.Context, id int64) error {
	_, err := w.q.ExecContext(ctx, "DELETE FROM Playlist WHERE id = ?", id)
	return err
}

func (w *playlistWriter) Insert(ctx context.Context, n chain.Node) error {
	p, ok := w.pending[n.ID]
	if !ok {
		return fmt.Errorf("no pending playlist row for %d", n.ID)
	}
	p.ParentID, p.NextID = n.Group, n.Next
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO Playlist (id, title, parentListId, nextListId, isPersisted, isExplicitlyExported)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := w.q.ExecContext(ctx, query, p.ID, p.Title, p.ParentID, p.NextID, p.IsPersisted, p.IsExplicitlyExported)
	return err
}

func (w *playlistWriter) Link(ctx context.Context, n chain.Node) error {
	_, err := w.q.ExecContext(ctx, "UPDATE Playlist SET parentListId = ?, nextListId = ? WHERE id = ?", n.Group, n.Next, n.ID)
	return err
}
