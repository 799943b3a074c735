package sqlbackend

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/base/btest"
	"github.com/relex/sqldb-logging/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTable = base.TableIdentity{Namespace: "audit", Name: "logs"}

func newMockBackend(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	dialect, _ := LookupDialect("postgres")
	return NewBackend(logger.WithField("test", t.Name()), db, dialect, "postgres://mock/app"), mock
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func mapRecords(t *testing.T, records ...*base.LogRecord) []base.Row {
	rows := make([]base.Row, len(records))
	for i, record := range records {
		row, err := sink.MapRecord(record)
		require.NoError(t, err)
		rows[i] = row
	}
	return rows
}

func TestSQLBackendEnsureSchema(t *testing.T) {
	backend, mock := newMockBackend(t)
	schema := base.LogTableSchema()
	mock.ExpectExec(postgresDialect{}.CreateTableSQL(testTable, schema)[0]).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.NoError(t, backend.EnsureSchema(context.Background(), testTable, schema))

	mock.ExpectExec(postgresDialect{}.CreateTableSQL(testTable, schema)[0]).WillReturnError(errors.New("permission denied"))
	err := backend.EnsureSchema(context.Background(), testTable, schema)
	assert.EqualError(t, err, "failed to create table audit.logs: permission denied")

	mock.ExpectClose()
	assert.NoError(t, backend.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBackendInsertBatch(t *testing.T) {
	backend, mock := newMockBackend(t)
	schema := base.LogTableSchema()
	rows := mapRecords(t,
		btest.NewTestRecord(base.INFO, "app", "started"),
		btest.NewTestRecord(base.WARNING, "app", "slow request: %dms", 1500),
		btest.NewTestRecord(base.ERROR, "app.db", "query failed"),
	)
	insertSQL := postgresDialect{}.InsertSQL(testTable, schema)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(insertSQL)
	prep.ExpectExec().WithArgs(anyArgs(19)...).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(anyArgs(19)...).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(anyArgs(19)...).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, backend.InsertBatch(context.Background(), testTable, schema, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBackendInsertBatchRollback(t *testing.T) {
	backend, mock := newMockBackend(t)
	schema := base.LogTableSchema()
	rows := mapRecords(t,
		btest.NewTestRecord(base.INFO, "app", "first"),
		btest.NewTestRecord(base.INFO, "app", "second"),
	)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(postgresDialect{}.InsertSQL(testTable, schema))
	prep.ExpectExec().WithArgs(anyArgs(19)...).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(anyArgs(19)...).WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	err := backend.InsertBatch(context.Background(), testTable, schema, rows)
	assert.EqualError(t, err, "failed to insert row #1: value too long")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBackendInsertBatchFailedBegin(t *testing.T) {
	backend, mock := newMockBackend(t)
	schema := base.LogTableSchema()

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))
	err := backend.InsertBatch(context.Background(), testTable, schema,
		mapRecords(t, btest.NewTestRecord(base.INFO, "app", "lost")))
	assert.EqualError(t, err, "failed to begin transaction: connection reset")

	mock.ExpectBegin()
	mock.ExpectPrepare(postgresDialect{}.InsertSQL(testTable, schema)).WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()
	err = backend.InsertBatch(context.Background(), testTable, schema,
		mapRecords(t, btest.NewTestRecord(base.INFO, "app", "lost")))
	assert.EqualError(t, err, "failed to prepare insert: relation does not exist")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBackendSinkWriteError(t *testing.T) {
	backend, mock := newMockBackend(t)
	schema := base.LogTableSchema()

	mock.ExpectExec(postgresDialect{}.CreateTableSQL(testTable, schema)[0]).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectPrepare(postgresDialect{}.InsertSQL(testTable, schema)).
		ExpectExec().WithArgs(anyArgs(19)...).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()
	mock.ExpectClose()

	policy, err := sink.NewFlushPolicy(10, base.ERROR)
	require.NoError(t, err)
	s, err := sink.OpenSink(context.Background(), logger.WithField("test", t.Name()), backend, testTable, policy, nil)
	require.NoError(t, err)

	err = s.Handle(context.Background(), btest.NewTestRecord(base.ERROR, "app", "boom"))
	assert.True(t, base.IsWriteError(err))
	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, 1, s.DropPending())
	assert.NoError(t, s.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
