package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/edbx/internal/shared"
)

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// NextID returns the id a new row of table receives: the largest existing id plus one.
func NextID(ctx context.Context, q shared.Querier, table string) (int64, error) {
	var max sql.NullInt64
	if err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT MAX(id) FROM %s", table)).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max id of %s: %w", table, err)
	}
	return max.Int64 + 1, nil
}

// Count returns the number of rows in table, or [shared.ErrSchemaMissing] when the table does not exist.
func Count(ctx context.Context, q shared.Querier, table string) (int, error) {
	exists, err := shared.TableExists(ctx, q, table)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", shared.ErrSchemaMissing, table)
	}

	var n int
	if err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// affected converts a zero-row result into notFound.
func affected(result sql.Result, notFound error, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", notFound, id)
	}
	return nil
}

// noRows maps [sql.ErrNoRows] to notFound and wraps any other error.
func noRows(err error, notFound error, id int64, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", notFound, id)
	}
	return fmt.Errorf("failed to scan %s: %w", what, err)
}

// placeholders returns "?, ?, ?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
