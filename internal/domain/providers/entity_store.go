package providers

import (
	"context"
)

// EntityStore is the per-type surface of the external entity API.
type EntityStore[T any] interface {
	// List returns the full collection, ordered by sortSpec when non-empty.
	List(ctx context.Context, sortSpec string) ([]T, error)

	// Create persists a new record and returns it as stored.
	Create(ctx context.Context, payload T) (T, error)

	// Update replaces the record with the given id and returns it as stored.
	Update(ctx context.Context, id string, payload T) (T, error)

	// Delete removes a single record.
	Delete(ctx context.Context, id string) error

	// BulkDelete removes several records in one call.
	BulkDelete(ctx context.Context, ids []string) error
}
