package base

import (
	"context"
)

// StorageBackend persists log rows into a relational table
//
// A backend is owned by exactly one sink, which serializes all calls. Implementations don't need their own locking.
type StorageBackend interface {
	// EnsureSchema creates the table if it doesn't exist. It must be idempotent.
	EnsureSchema(ctx context.Context, table TableIdentity, schema TableSchema) error

	// InsertBatch writes all rows or none of them. A failed batch may be retried with the same rows.
	InsertBatch(ctx context.Context, table TableIdentity, schema TableSchema, rows []Row) error

	// Close releases the connection. No other method is called afterwards.
	Close() error

	// Name returns a short description for logging, without credentials
	Name() string
}
