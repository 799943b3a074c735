package sqlbackend

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/defs"
)

// Backend writes rows through database/sql, one transaction per batch
type Backend struct {
	logger      logger.Logger
	db          *sql.DB
	dialect     Dialect
	description string
}

// Open connects to the database described by cfg and verifies the connection
func Open(ctx context.Context, parentLogger logger.Logger, cfg *Config) (*Backend, error) {
	dialect, err := LookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.DriverName(), dialect.DataSourceName(cfg))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", cfg.Description())
	}
	if cfg.Pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Pool.MaxOpenConns)
	}
	if cfg.Pool.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.Pool.ConnMaxIdleTime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s", cfg.Description())
	}
	backend := NewBackend(parentLogger, db, dialect, cfg.Description())
	backend.logger.Info("connected")
	return backend, nil
}

// NewBackend creates a backend from an opened database handle, which is closed by the backend's Close
func NewBackend(parentLogger logger.Logger, db *sql.DB, dialect Dialect, description string) *Backend {
	return &Backend{
		logger: parentLogger.WithFields(logger.Fields{
			defs.LabelComponent: "SQLBackend",
			defs.LabelBackend:   description,
		}),
		db:          db,
		dialect:     dialect,
		description: description,
	}
}

// EnsureSchema creates the table if it doesn't exist
func (backend *Backend) EnsureSchema(ctx context.Context, table base.TableIdentity, schema base.TableSchema) error {
	for _, statement := range backend.dialect.CreateTableSQL(table, schema) {
		backend.logger.Debugf("exec: %s", statement)
		if _, err := backend.db.ExecContext(ctx, statement); err != nil {
			return errors.Wrapf(err, "failed to create table %s", table)
		}
	}
	return nil
}

// InsertBatch inserts all rows in one transaction
func (backend *Backend) InsertBatch(ctx context.Context, table base.TableIdentity, schema base.TableSchema, rows []base.Row) error {
	tx, err := backend.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	if err := insertRows(ctx, tx, backend.dialect.InsertSQL(table, schema), schema, rows); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.WithSecondaryError(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, query string, schema base.TableSchema, rows []base.Row) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()
	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, schema.Values(row)...); err != nil {
			return errors.Wrapf(err, "failed to insert row #%d", i)
		}
	}
	return nil
}

// Close closes the connection pool
func (backend *Backend) Close() error {
	backend.logger.Info("close")
	return backend.db.Close()
}

// Name returns the database description without password
func (backend *Backend) Name() string {
	return backend.description
}

// DB returns the underlying database handle
func (backend *Backend) DB() *sql.DB {
	return backend.db
}
