package models

import "context"

// Model defines the base interface for persistent library rows.
type Model interface {
	Key() int64      // Key returns the row id
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the read operations shared by all library repositories.
// Writes are specific to each table and live on the concrete repositories.
type Repository[T Model] interface {
	Get(ctx context.Context, id int64) (T, error) // Get retrieves a row by its id
	List(ctx context.Context) ([]T, error)        // List retrieves all rows ordered by id
}
