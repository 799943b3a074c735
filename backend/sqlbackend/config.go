// Package sqlbackend provides StorageBackend for relational databases through database/sql
package sqlbackend

import (
	"context"
	"fmt"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/base/bconfig"
	"github.com/relex/sqldb-logging/defs"
)

// Config defines configuration for database/sql based backends
//
//	type: sqldb
//	driver: postgres
//	connection:
//	  host: db.internal
//	  database: app
//	  username: logger
//	  password: ${DB_PASSWORD}
//	  options:
//	    sslmode: disable
type Config struct {
	bconfig.Header `yaml:",inline"`
	Driver         string                   `yaml:"driver"`
	Connection     bconfig.ConnectionConfig `yaml:"connection"`
	Pool           bconfig.PoolConfig       `yaml:"pool"`
	Path           string                   `yaml:"path"`      // database file for sqlite
	CacheSize      datasize.ByteSize        `yaml:"cacheSize"` // page cache for sqlite, e.g. "16MB"
}

// NewBackend connects to the database
func (cfg *Config) NewBackend(parentLogger logger.Logger) (base.StorageBackend, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defs.BackendConnectTimeout)
	defer cancel()
	return Open(ctx, parentLogger, cfg)
}

// VerifyConfig verifies the configuration
func (cfg *Config) VerifyConfig() error {
	dialect, err := LookupDialect(cfg.Driver)
	if err != nil {
		return fmt.Errorf(".driver: %w", err)
	}
	if dialect.UsesFile() {
		if len(cfg.Path) == 0 {
			return fmt.Errorf(".path is unspecified")
		}
	} else {
		if err := cfg.Connection.VerifyConfig(); err != nil {
			return fmt.Errorf(".connection%w", err)
		}
		if cfg.CacheSize != 0 {
			return fmt.Errorf(".cacheSize is only supported by sqlite")
		}
	}
	if err := cfg.Pool.VerifyConfig(); err != nil {
		return fmt.Errorf(".pool%w", err)
	}
	return nil
}

// DataSourceName builds the driver-specific DSN
func (cfg *Config) DataSourceName() (string, error) {
	dialect, err := LookupDialect(cfg.Driver)
	if err != nil {
		return "", err
	}
	return dialect.DataSourceName(cfg), nil
}

// Description returns the DSN without password, for logging
func (cfg *Config) Description() string {
	dialect, err := LookupDialect(cfg.Driver)
	if err != nil {
		return cfg.Driver
	}
	if dialect.UsesFile() {
		return cfg.Driver + ":" + cfg.Path
	}
	return strings.TrimSuffix(cfg.Connection.Redacted(cfg.Driver, dialect.DefaultPort()), "?")
}
