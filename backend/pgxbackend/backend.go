package pgxbackend

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/defs"
	"github.com/samber/lo"
)

// Backend writes each batch by COPY FROM inside a transaction
type Backend struct {
	logger      logger.Logger
	pool        *pgxpool.Pool
	description string
}

// Open creates the connection pool and verifies the connection
func Open(ctx context.Context, parentLogger logger.Logger, cfg *Config) (*Backend, error) {
	return openConnString(ctx, parentLogger, cfg.ConnString(), cfg.Description())
}

func openConnString(ctx context.Context, parentLogger logger.Logger, connString string, description string) (*Backend, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid connection for %s", description)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", description)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s", description)
	}
	backend := &Backend{
		logger: parentLogger.WithFields(logger.Fields{
			defs.LabelComponent: "PgxBackend",
			defs.LabelBackend:   description,
		}),
		pool:        pool,
		description: description,
	}
	backend.logger.Infof("connected, max conns = %d", poolConfig.MaxConns)
	return backend, nil
}

// EnsureSchema creates the table if it doesn't exist
func (backend *Backend) EnsureSchema(ctx context.Context, table base.TableIdentity, schema base.TableSchema) error {
	statement := CreateTableSQL(table, schema)
	backend.logger.Debugf("exec: %s", statement)
	if _, err := backend.pool.Exec(ctx, statement); err != nil {
		return errors.Wrapf(err, "failed to create table %s", table)
	}
	return nil
}

// InsertBatch copies all rows in one transaction
func (backend *Backend) InsertBatch(ctx context.Context, table base.TableIdentity, schema base.TableSchema, rows []base.Row) error {
	tx, err := backend.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	copied, err := tx.CopyFrom(ctx, identifier(table), schema.ColumnNames(), pgx.CopyFromRows(RowValues(schema, rows)))
	if err == nil && copied != int64(len(rows)) {
		err = errors.AssertionFailedf("copied %d rows, expected %d", copied, len(rows))
	}
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.WithSecondaryError(err, rbErr)
		}
		return errors.Wrapf(err, "failed to copy %d rows", len(rows))
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	return nil
}

// Close closes the connection pool
func (backend *Backend) Close() error {
	backend.logger.Info("close")
	backend.pool.Close()
	return nil
}

// Name returns the connection URL without password
func (backend *Backend) Name() string {
	return backend.description
}

// CreateTableSQL renders the DDL of the table for PostgreSQL
func CreateTableSQL(table base.TableIdentity, schema base.TableSchema) string {
	columns := lo.Map(schema.Columns(), func(col base.ColumnDef, _ int) string {
		nullability := "NULL"
		if !col.Nullable {
			nullability = "NOT NULL"
		}
		return fmt.Sprintf("%s %s %s", pgx.Identifier{col.Name}.Sanitize(), columnType(col), nullability)
	})
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", identifier(table).Sanitize(), strings.Join(columns, ", "))
}

// RowValues converts rows into value lists in schema order for COPY
func RowValues(schema base.TableSchema, rows []base.Row) [][]any {
	return lo.Map(rows, func(row base.Row, _ int) []any { return schema.Values(row) })
}

func identifier(table base.TableIdentity) pgx.Identifier {
	if table.Namespace == "" {
		return pgx.Identifier{table.Name}
	}
	return pgx.Identifier{table.Namespace, table.Name}
}

func columnType(col base.ColumnDef) string {
	switch col.Type {
	case base.ColumnTimestamp:
		return "TIMESTAMP WITHOUT TIME ZONE"
	case base.ColumnDouble:
		return "DOUBLE PRECISION"
	case base.ColumnString:
		return fmt.Sprintf("VARCHAR(%d)", col.Length)
	case base.ColumnSmallInt:
		return "SMALLINT"
	case base.ColumnInteger:
		return "INTEGER"
	case base.ColumnBigInt:
		return "BIGINT"
	default:
		return "TEXT"
	}
}
