package btest

import (
	"context"

	"github.com/relex/sqldb-logging/base"
	"github.com/stretchr/testify/mock"
)

// MockBackend is a StorageBackend driven by testify expectations
//
// For testing only
type MockBackend struct {
	mock.Mock
}

// EnsureSchema calls the mock
func (m *MockBackend) EnsureSchema(ctx context.Context, table base.TableIdentity, schema base.TableSchema) error {
	args := m.Called(ctx, table, schema)
	return args.Error(0)
}

// InsertBatch calls the mock
func (m *MockBackend) InsertBatch(ctx context.Context, table base.TableIdentity, schema base.TableSchema, rows []base.Row) error {
	args := m.Called(ctx, table, schema, rows)
	return args.Error(0)
}

// Close calls the mock
func (m *MockBackend) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Name returns "mock"
func (m *MockBackend) Name() string {
	return "mock"
}
