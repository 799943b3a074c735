package memorybackend

import (
	"context"
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/puzpuzpuz/xsync"
	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/defs"
)

// Backend stores rows in memory, one table per TableIdentity
//
// Rows can be read back, which makes it suitable as a test double of database backends
type Backend struct {
	logger         logger.Logger
	maxRows        int
	mutex          *xsync.RBMutex // access lock to all fields below
	tables         map[base.TableIdentity]*table
	batchSizes     []int
	pendingFailure []error
	closed         bool
}

type table struct {
	columnNames []string
	rows        []base.Row
}

// NewBackend creates an empty memory backend; maxRows 0 means unlimited
func NewBackend(parentLogger logger.Logger, maxRows int) *Backend {
	return &Backend{
		logger:  parentLogger.WithField(defs.LabelComponent, "MemoryBackend"),
		maxRows: maxRows,
		mutex:   &xsync.RBMutex{},
		tables:  make(map[base.TableIdentity]*table),
	}
}

// EnsureSchema creates the table if it doesn't exist, or verifies the columns of the existing one
func (backend *Backend) EnsureSchema(ctx context.Context, id base.TableIdentity, schema base.TableSchema) error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	if backend.closed {
		return errors.New("backend is closed")
	}
	if err := backend.popFailure(); err != nil {
		return err
	}
	names := schema.ColumnNames()
	if existing, ok := backend.tables[id]; ok {
		if !slices.Equal(existing.columnNames, names) {
			return errors.Newf("table %s exists with different columns: %v", id, existing.columnNames)
		}
		return nil
	}
	backend.tables[id] = &table{columnNames: names}
	backend.logger.Infof("created table %s", id)
	return nil
}

// InsertBatch appends all rows or none of them
func (backend *Backend) InsertBatch(ctx context.Context, id base.TableIdentity, schema base.TableSchema, rows []base.Row) error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	if backend.closed {
		return errors.New("backend is closed")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "insert cancelled")
	}
	if err := backend.popFailure(); err != nil {
		return err
	}
	tbl, ok := backend.tables[id]
	if !ok {
		return errors.Newf("table %s does not exist", id)
	}
	if backend.maxRows > 0 && len(tbl.rows)+len(rows) > backend.maxRows {
		return errors.Newf("table %s is full: %d + %d rows > %d", id, len(tbl.rows), len(rows), backend.maxRows)
	}
	for i, row := range rows {
		if err := schema.VerifyRow(row); err != nil {
			return errors.Wrapf(err, "row #%d", i)
		}
	}
	for _, row := range rows {
		tbl.rows = append(tbl.rows, copyRow(row))
	}
	backend.batchSizes = append(backend.batchSizes, len(rows))
	return nil
}

// Close marks the backend closed; stored rows remain readable
func (backend *Backend) Close() error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	backend.closed = true
	return nil
}

// Name returns "memory"
func (backend *Backend) Name() string {
	return "memory"
}

// InjectFailure makes the next EnsureSchema or InsertBatch call fail with err
func (backend *Backend) InjectFailure(err error) {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	backend.pendingFailure = append(backend.pendingFailure, err)
}

// Rows returns a copy of all rows in the table, in insertion order
func (backend *Backend) Rows(id base.TableIdentity) []base.Row {
	return backend.selectRows(id, func(base.Row) bool { return true })
}

// RowsCreatedBetween returns the rows whose created column is in the open interval (from, to)
func (backend *Backend) RowsCreatedBetween(id base.TableIdentity, from float64, to float64) []base.Row {
	return backend.selectRows(id, func(row base.Row) bool {
		created, ok := row[base.ColCreated].(float64)
		return ok && created > from && created < to
	})
}

// BatchSizes returns the row count of each successful InsertBatch
func (backend *Backend) BatchSizes() []int {
	token := backend.mutex.RLock()
	defer backend.mutex.RUnlock(token)
	return slices.Clone(backend.batchSizes)
}

// IsClosed returns true after Close
func (backend *Backend) IsClosed() bool {
	token := backend.mutex.RLock()
	defer backend.mutex.RUnlock(token)
	return backend.closed
}

func (backend *Backend) String() string {
	token := backend.mutex.RLock()
	defer backend.mutex.RUnlock(token)
	return fmt.Sprintf("memory(tables=%d)", len(backend.tables))
}

func (backend *Backend) selectRows(id base.TableIdentity, match func(base.Row) bool) []base.Row {
	token := backend.mutex.RLock()
	defer backend.mutex.RUnlock(token)
	tbl, ok := backend.tables[id]
	if !ok {
		return nil
	}
	var result []base.Row
	for _, row := range tbl.rows {
		if match(row) {
			result = append(result, copyRow(row))
		}
	}
	return result
}

func (backend *Backend) popFailure() error {
	if len(backend.pendingFailure) == 0 {
		return nil
	}
	err := backend.pendingFailure[0]
	backend.pendingFailure = backend.pendingFailure[1:]
	return err
}

func copyRow(row base.Row) base.Row {
	dup := make(base.Row, len(row))
	for k, v := range row {
		dup[k] = v
	}
	return dup
}
