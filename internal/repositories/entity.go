package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/edbx/internal/chain"
	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
)

const entityColumns = "id, listId, trackId, databaseUuid, nextEntityId, membershipReference"

// EntityRepository implements models.Repository[*models.PlaylistEntity] for the PlaylistEntity table.
type EntityRepository struct {
	q shared.Querier
}

// NewEntityRepository creates a new EntityRepository with the given database connection
func NewEntityRepository(q shared.Querier) *EntityRepository {
	return &EntityRepository{q: q}
}

// TX returns a repository bound to tx.
func (r *EntityRepository) TX(tx *sql.Tx) *EntityRepository {
	return &EntityRepository{q: tx}
}

// Get retrieves an entity by id
func (r *EntityRepository) Get(ctx context.Context, id int64) (*models.PlaylistEntity, error) {
	query := "SELECT " + entityColumns + " FROM PlaylistEntity WHERE id = ?"
	e, err := scanEntity(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, noRows(err, shared.ErrEntityNotFound, id, "playlist entity")
	}
	return e, nil
}

// List retrieves all entities ordered by id
func (r *EntityRepository) List(ctx context.Context) ([]*models.PlaylistEntity, error) {
	return r.query(ctx, "SELECT "+entityColumns+" FROM PlaylistEntity ORDER BY id")
}

// ListByList retrieves the entities of one playlist ordered by id
func (r *EntityRepository) ListByList(ctx context.Context, listID int64) ([]*models.PlaylistEntity, error) {
	return r.query(ctx, "SELECT "+entityColumns+" FROM PlaylistEntity WHERE listId = ? ORDER BY id", listID)
}

// Exists reports whether the (list, track, database) triple is already a member.
func (r *EntityRepository) Exists(ctx context.Context, listID, trackID int64, databaseUUID string) (bool, error) {
	query := "SELECT EXISTS(SELECT 1 FROM PlaylistEntity WHERE listId = ? AND trackId = ? AND databaseUuid = ?)"
	var exists bool
	if err := r.q.QueryRowContext(ctx, query, listID, trackID, databaseUUID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// Nodes loads the linking columns of every entity, across all playlists.
func (r *EntityRepository) Nodes(ctx context.Context) ([]chain.Node, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id, listId, nextEntityId FROM PlaylistEntity ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query entity links: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// NodesByList loads the linking columns of one playlist's entities.
func (r *EntityRepository) NodesByList(ctx context.Context, listID int64) ([]chain.Node, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id, listId, nextEntityId FROM PlaylistEntity WHERE listId = ? ORDER BY id", listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity links: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// NodesByTrack loads the linking columns of every entity in every list that contains trackID.
func (r *EntityRepository) NodesByTrack(ctx context.Context, trackID int64) ([]chain.Node, error) {
	query := `
		SELECT id, listId, nextEntityId FROM PlaylistEntity
		WHERE listId IN (SELECT listId FROM PlaylistEntity WHERE trackId = ?)
		ORDER BY id
	`
	rows, err := r.q.QueryContext(ctx, query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity links: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// IDsByTrack returns the ids of every entity referencing trackID.
func (r *EntityRepository) IDsByTrack(ctx context.Context, trackID int64) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id FROM PlaylistEntity WHERE trackId = ? ORDER BY id", trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track memberships: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan entity id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteByList removes every entity of a playlist and returns how many were removed.
func (r *EntityRepository) DeleteByList(ctx context.Context, listID int64) (int64, error) {
	result, err := r.q.ExecContext(ctx, "DELETE FROM PlaylistEntity WHERE listId = ?", listID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete playlist entities: %w", err)
	}
	return result.RowsAffected()
}

// NextID returns the id for a new entity.
func (r *EntityRepository) NextID(ctx context.Context) (int64, error) {
	return NextID(ctx, r.q, "PlaylistEntity")
}

// Tracks retrieves the entities of a playlist joined with their tracks, ordered by entity id.
// Tracks missing from the Track table leave the metadata fields empty.
func (r *EntityRepository) Tracks(ctx context.Context, listID int64) ([]*models.PlaylistTrack, error) {
	query := `
		SELECT pe.id, pe.listId, pe.databaseUuid, pe.nextEntityId, pe.membershipReference, pe.trackId,
			` + joinedTrackColumns + `
		FROM PlaylistEntity pe
		LEFT JOIN Track t ON pe.trackId = t.id
		WHERE pe.listId = ?
		ORDER BY pe.id
	`
	rows, err := r.q.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.PlaylistTrack
	for rows.Next() {
		var (
			pt   models.PlaylistTrack
			uuid sql.NullString
			next sql.NullInt64
			ref  sql.NullInt64
			tid  sql.NullInt64
		)
		cols := []any{&pt.EntityID, &pt.ListID, &uuid, &next, &ref, &tid}
		fields := newTrackFields()
		if err := rows.Scan(append(cols, fields.dest()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		fields.into(&pt.Track)
		pt.Track.ID = tid.Int64
		pt.DatabaseUUID = uuid.String
		pt.NextID = next.Int64
		pt.MembershipReference = ref.Int64
		tracks = append(tracks, &pt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

// Writer returns a [chain.Writer] for the PlaylistEntity table. Rows inserted by a plan
// must be present in pending.
func (r *EntityRepository) Writer(pending map[int64]*models.PlaylistEntity) chain.Writer {
	return &entityWriter{q: r.q, pending: pending}
}

func (r *EntityRepository) query(ctx context.Context, query string, args ...any) ([]*models.PlaylistEntity, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist entities: %w", err)
	}
	defer rows.Close()

	var entities []*models.PlaylistEntity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist entity: %w", err)
		}
		entities = append(entities, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entities, nil
}

func scanEntity(row scanner) (*models.PlaylistEntity, error) {
	var (
		e      models.PlaylistEntity
		listID sql.NullInt64
		track  sql.NullInt64
		uuid   sql.NullString
		next   sql.NullInt64
		ref    sql.NullInt64
	)
	if err := row.Scan(&e.ID, &listID, &track, &uuid, &next, &ref); err != nil {
		return nil, err
	}
	e.ListID = listID.Int64
	e.TrackID = track.Int64
	e.DatabaseUUID = uuid.String
	e.NextID = next.Int64
	e.MembershipReference = ref.Int64
	return &e, nil
}

type entityWriter struct {
	q       shared.Querier
	pending map[int64]*models.PlaylistEntity
}

func (w *entityWriter) Detach(ctx context.Context, id, sentinel int64) error {
	_, err := w.q.ExecContext(ctx, "UPDATE PlaylistEntity SET nextEntityId = ? WHERE id = ?", sentinel, id)
	return err
}

func (w *entityWriter) Delete(ctx context.Context, id int64) error {
	_, err := w.q.ExecContext(ctx, "DELETE FROM PlaylistEntity WHERE id = ?", id)
	return err
}

func (w *entityWriter) Insert(ctx context.Context, n chain.Node) error {
	e, ok := w.pending[n.ID]
	if !ok {
		return fmt.Errorf("no pending entity row for %d", n.ID)
	}
	e.ListID, e.NextID = n.Group, n.Next
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO PlaylistEntity (id, listId, trackId, databaseUuid, nextEntityId, membershipReference)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := w.q.ExecContext(ctx, query, e.ID, e.ListID, e.TrackID, e.DatabaseUUID, e.NextID, e.MembershipReference)
	return err
}

func (w *entityWriter) Link(ctx context.Context, n chain.Node) error {
	_, err := w.q.ExecContext(ctx, "UPDATE PlaylistEntity SET listId = ?, nextEntityId = ? WHERE id = ?", n.Group, n.Next, n.ID)
	return err
}
