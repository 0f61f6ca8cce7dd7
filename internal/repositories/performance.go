package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/edbx/internal/shared"
)

// PerformanceRepository reads analysis blobs from the optional PerformanceData table.
type PerformanceRepository struct {
	q shared.Querier
}

// NewPerformanceRepository creates a new PerformanceRepository with the given database connection
func NewPerformanceRepository(q shared.Querier) *PerformanceRepository {
	return &PerformanceRepository{q: q}
}

// TX returns a repository bound to tx.
func (r *PerformanceRepository) TX(tx *sql.Tx) *PerformanceRepository {
	return &PerformanceRepository{q: tx}
}

// Available reports whether the library has a PerformanceData table.
func (r *PerformanceRepository) Available(ctx context.Context) (bool, error) {
	return shared.TableExists(ctx, r.q, "PerformanceData")
}

// OverviewWaveforms returns the overview waveform blob of each track that has one.
// Returns [shared.ErrSchemaMissing] when the table is absent.
func (r *PerformanceRepository) OverviewWaveforms(ctx context.Context, trackIDs []int64) (map[int64][]byte, error) {
	ok, err := r.Available(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: PerformanceData", shared.ErrSchemaMissing)
	}

	blobs := make(map[int64][]byte, len(trackIDs))
	if len(trackIDs) == 0 {
		return blobs, nil
	}

	args := make([]any, len(trackIDs))
	for i, id := range trackIDs {
		args[i] = id
	}
	query := "SELECT trackId, overviewWaveFormData FROM PerformanceData WHERE trackId IN (" + placeholders(len(args)) + ")"
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query waveforms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan waveform: %w", err)
		}
		if len(blob) > 0 {
			blobs[id] = blob
		}
	}
	return blobs, rows.Err()
}

// SetOverviewWaveform stores the overview waveform blob of a track.
func (r *PerformanceRepository) SetOverviewWaveform(ctx context.Context, trackID int64, blob []byte) error {
	query := `
		INSERT INTO PerformanceData (trackId, overviewWaveFormData) VALUES (?, ?)
		ON CONFLICT(trackId) DO UPDATE SET overviewWaveFormData = excluded.overviewWaveFormData
	`
	if _, err := r.q.ExecContext(ctx, query, trackID, blob); err != nil {
		return fmt.Errorf("failed to store waveform: %w", err)
	}
	return nil
}

// DeleteTrack removes the analysis row of a track. A missing table is not an error.
func (r *PerformanceRepository) DeleteTrack(ctx context.Context, trackID int64) error {
	ok, err := r.Available(ctx)
	if err != nil || !ok {
		return err
	}
	if _, err := r.q.ExecContext(ctx, "DELETE FROM PerformanceData WHERE trackId = ?", trackID); err != nil {
		return fmt.Errorf("failed to delete performance data: %w", err)
	}
	return nil
}
