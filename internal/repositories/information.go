package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
)

// Schema version written to the Information row of libraries created by edbx.
const (
	SchemaVersionMajor = 2
	SchemaVersionMinor = 18
	SchemaVersionPatch = 0
)

// InformationRepository reads and writes the library identity row.
type InformationRepository struct {
	q shared.Querier
}

// NewInformationRepository creates a new InformationRepository with the given database connection
func NewInformationRepository(q shared.Querier) *InformationRepository {
	return &InformationRepository{q: q}
}

// Get returns the first Information row.
//
// Returns [shared.ErrSchemaMissing] when the table is absent and [shared.ErrNotFound] when it is empty.
func (r *InformationRepository) Get(ctx context.Context) (*models.Information, error) {
	exists, err := shared.TableExists(ctx, r.q, "Information")
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: Information", shared.ErrSchemaMissing)
	}

	var (
		info                models.Information
		uuid                sql.NullString
		major, minor, patch sql.NullInt64
	)
	query := "SELECT id, uuid, schemaVersionMajor, schemaVersionMinor, schemaVersionPatch FROM Information ORDER BY id LIMIT 1"
	err = r.q.QueryRowContext(ctx, query).Scan(&info.ID, &uuid, &major, &minor, &patch)
	if err != nil {
		return nil, noRows(err, shared.ErrNotFound, 0, "information")
	}

	info.UUID = uuid.String
	info.SchemaVersionMajor, info.SchemaVersionMinor, info.SchemaVersionPatch = major.Int64, minor.Int64, patch.Int64
	return &info, nil
}

// Create inserts the identity row of a new library with a fresh uuid.
func (r *InformationRepository) Create(ctx context.Context) (*models.Information, error) {
	info := &models.Information{
		UUID:               shared.GenerateID(),
		SchemaVersionMajor: SchemaVersionMajor,
		SchemaVersionMinor: SchemaVersionMinor,
		SchemaVersionPatch: SchemaVersionPatch,
	}

	query := `
		INSERT INTO Information (uuid, schemaVersionMajor, schemaVersionMinor, schemaVersionPatch, currentPlayedIndiciator, lastRekordBoxLibraryImportReadCounter)
		VALUES (?, ?, ?, ?, 0, 0)
	`
	result, err := r.q.ExecContext(ctx, query, info.UUID, info.SchemaVersionMajor, info.SchemaVersionMinor, info.SchemaVersionPatch)
	if err != nil {
		return nil, fmt.Errorf("failed to insert information: %w", err)
	}
	if info.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read information id: %w", err)
	}
	return info, nil
}
