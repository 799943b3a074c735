package clickhousebackend

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/cockroachdb/errors"
	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/defs"
	"github.com/samber/lo"
)

// Backend writes each batch as one native insert block
//
// ClickHouse has no transactions: a block is inserted atomically only if it fits in one part, i.e. the batch is
// smaller than max_insert_block_size and the table is not partitioned across the batch
type Backend struct {
	logger      logger.Logger
	conn        driver.Conn
	description string
}

// Open connects to the server and verifies the connection
func Open(parentLogger logger.Logger, cfg *Config) (*Backend, error) {
	conn, err := clickhouse.Open(cfg.Options())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", cfg.Description())
	}
	ctx, cancel := context.WithTimeout(context.Background(), defs.BackendConnectTimeout)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s", cfg.Description())
	}
	backend := NewBackend(parentLogger, conn, cfg.Description())
	backend.logger.Info("connected")
	return backend, nil
}

// NewBackend creates a backend from an opened connection, which is closed by the backend's Close
func NewBackend(parentLogger logger.Logger, conn driver.Conn, description string) *Backend {
	return &Backend{
		logger: parentLogger.WithFields(logger.Fields{
			defs.LabelComponent: "ClickHouseBackend",
			defs.LabelBackend:   description,
		}),
		conn:        conn,
		description: description,
	}
}

// EnsureSchema creates the table if it doesn't exist
func (backend *Backend) EnsureSchema(ctx context.Context, table base.TableIdentity, schema base.TableSchema) error {
	statement := CreateTableSQL(table, schema)
	backend.logger.Debugf("exec: %s", statement)
	if err := backend.conn.Exec(ctx, statement); err != nil {
		return errors.Wrapf(err, "failed to create table %s", table)
	}
	return nil
}

// InsertBatch sends all rows in one block. The block is aborted if any row cannot be appended.
func (backend *Backend) InsertBatch(ctx context.Context, table base.TableIdentity, schema base.TableSchema, rows []base.Row) error {
	batch, err := backend.conn.PrepareBatch(ctx, InsertSQL(table, schema))
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}
	for i, row := range rows {
		if err := batch.Append(schema.Values(row)...); err != nil {
			if abortErr := batch.Abort(); abortErr != nil {
				err = errors.WithSecondaryError(err, abortErr)
			}
			return errors.Wrapf(err, "failed to append row #%d", i)
		}
	}
	if err := batch.Send(); err != nil {
		return errors.Wrapf(err, "failed to send %d rows", len(rows))
	}
	return nil
}

// Close closes the connection
func (backend *Backend) Close() error {
	backend.logger.Info("close")
	return backend.conn.Close()
}

// Name returns the connection URL without password
func (backend *Backend) Name() string {
	return backend.description
}

// CreateTableSQL renders the DDL of a MergeTree table ordered by creation time
func CreateTableSQL(table base.TableIdentity, schema base.TableSchema) string {
	columns := lo.Map(schema.Columns(), func(col base.ColumnDef, _ int) string {
		typ := columnType(col)
		if col.Nullable {
			typ = "Nullable(" + typ + ")"
		}
		return quote(col.Name) + " " + typ
	})
	orderBy := "tuple()"
	if schema.ColumnIndex(base.ColCreated) != -1 {
		orderBy = quote(base.ColCreated)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = MergeTree ORDER BY %s",
		qualify(table), strings.Join(columns, ", "), orderBy)
}

// InsertSQL renders the INSERT statement for PrepareBatch
func InsertSQL(table base.TableIdentity, schema base.TableSchema) string {
	names := lo.Map(schema.ColumnNames(), func(name string, _ int) string { return quote(name) })
	return fmt.Sprintf("INSERT INTO %s (%s)", qualify(table), strings.Join(names, ", "))
}

func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}

func qualify(table base.TableIdentity) string {
	if table.Namespace == "" {
		return quote(table.Name)
	}
	return quote(table.Namespace) + "." + quote(table.Name)
}

func columnType(col base.ColumnDef) string {
	switch col.Type {
	case base.ColumnTimestamp:
		return "DateTime64(6)"
	case base.ColumnDouble:
		return "Float64"
	case base.ColumnString:
		return "String"
	case base.ColumnSmallInt:
		return "Int16"
	case base.ColumnInteger:
		return "Int32"
	case base.ColumnBigInt:
		return "Int64"
	default:
		return "String"
	}
}
