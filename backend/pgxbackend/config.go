// Package pgxbackend provides StorageBackend for PostgreSQL through pgx, writing batches by COPY
package pgxbackend

import (
	"context"
	"fmt"
	"strconv"

	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/base/bconfig"
	"github.com/relex/sqldb-logging/defs"
)

const defaultPort = 5432

// Config defines configuration for the pgx backend
//
//	type: pgx
//	connection:
//	  host: db.internal
//	  database: app
//	  username: logger
//	  password: ${DB_PASSWORD}
//	pool:
//	  maxOpenConns: 4
type Config struct {
	bconfig.Header `yaml:",inline"`
	Connection     bconfig.ConnectionConfig `yaml:"connection"`
	Pool           bconfig.PoolConfig       `yaml:"pool"`
}

// NewBackend connects to the database
func (cfg *Config) NewBackend(parentLogger logger.Logger) (base.StorageBackend, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defs.BackendConnectTimeout)
	defer cancel()
	return Open(ctx, parentLogger, cfg)
}

// VerifyConfig verifies the configuration
func (cfg *Config) VerifyConfig() error {
	if err := cfg.Connection.VerifyConfig(); err != nil {
		return fmt.Errorf(".connection%w", err)
	}
	if err := cfg.Pool.VerifyConfig(); err != nil {
		return fmt.Errorf(".pool%w", err)
	}
	return nil
}

// ConnString builds the connection URL understood by pgxpool.ParseConfig
func (cfg *Config) ConnString() string {
	u := cfg.Connection.URL("postgres", defaultPort)
	query := u.Query()
	if cfg.Connection.ConnectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(cfg.Connection.ConnectTimeout.Seconds())))
	}
	if cfg.Pool.MaxOpenConns > 0 {
		query.Set("pool_max_conns", strconv.Itoa(cfg.Pool.MaxOpenConns))
	}
	if cfg.Pool.ConnMaxIdleTime > 0 {
		query.Set("pool_max_conn_idle_time", cfg.Pool.ConnMaxIdleTime.String())
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// Description returns the connection URL without password, for logging
func (cfg *Config) Description() string {
	return cfg.Connection.Redacted("postgres", defaultPort)
}
