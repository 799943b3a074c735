package btest

import (
	"context"
	"fmt"
	"sync"

	"github.com/relex/sqldb-logging/base"
)

// StubBackend is a StorageBackend which keeps inserted batches in memory, with injectable failures
//
// For testing only
type StubBackend struct {
	mutex        sync.Mutex
	batches      [][]base.Row
	ensureCount  int
	closeCount   int
	ensureErr    error
	insertErrors []error
}

// NewStubBackend creates an empty StubBackend
func NewStubBackend() *StubBackend {
	return &StubBackend{}
}

// FailEnsureSchema makes all following EnsureSchema calls fail with err, or succeed if err is nil
func (stub *StubBackend) FailEnsureSchema(err error) {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	stub.ensureErr = err
}

// FailNextInserts makes the next n InsertBatch calls fail with err, without storing anything
func (stub *StubBackend) FailNextInserts(n int, err error) {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	for i := 0; i < n; i++ {
		stub.insertErrors = append(stub.insertErrors, err)
	}
}

// EnsureSchema counts the call
func (stub *StubBackend) EnsureSchema(ctx context.Context, table base.TableIdentity, schema base.TableSchema) error {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	stub.ensureCount++
	return stub.ensureErr
}

// InsertBatch verifies and stores a copy of rows as one batch
func (stub *StubBackend) InsertBatch(ctx context.Context, table base.TableIdentity, schema base.TableSchema, rows []base.Row) error {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	if stub.closeCount > 0 {
		return fmt.Errorf("BUG: insert after close")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(stub.insertErrors) > 0 {
		err := stub.insertErrors[0]
		stub.insertErrors = stub.insertErrors[1:]
		return err
	}
	for i, row := range rows {
		if err := schema.VerifyRow(row); err != nil {
			return fmt.Errorf("row #%d: %w", i, err)
		}
	}
	stub.batches = append(stub.batches, append([]base.Row(nil), rows...))
	return nil
}

// Close counts the call
func (stub *StubBackend) Close() error {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	stub.closeCount++
	return nil
}

// Name returns "stub"
func (stub *StubBackend) Name() string {
	return "stub"
}

// Batches returns all the stored batches in insertion order
func (stub *StubBackend) Batches() [][]base.Row {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	return append([][]base.Row(nil), stub.batches...)
}

// BatchSizes returns the row count of each stored batch
func (stub *StubBackend) BatchSizes() []int {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	sizes := make([]int, len(stub.batches))
	for i, batch := range stub.batches {
		sizes[i] = len(batch)
	}
	return sizes
}

// Rows returns all stored rows in insertion order
func (stub *StubBackend) Rows() []base.Row {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	var rows []base.Row
	for _, batch := range stub.batches {
		rows = append(rows, batch...)
	}
	return rows
}

// Messages returns the message column of all stored rows
func (stub *StubBackend) Messages() []string {
	rows := stub.Rows()
	messages := make([]string, len(rows))
	for i, row := range rows {
		messages[i], _ = row[base.ColMessage].(string)
	}
	return messages
}

// EnsureCount returns how many times EnsureSchema has been called
func (stub *StubBackend) EnsureCount() int {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	return stub.ensureCount
}

// CloseCount returns how many times Close has been called
func (stub *StubBackend) CloseCount() int {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	return stub.closeCount
}
