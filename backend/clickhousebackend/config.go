// Package clickhousebackend provides StorageBackend for ClickHouse, writing each batch as one insert block
package clickhousebackend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/base/bconfig"
	"github.com/samber/lo"
)

const defaultPort = 9000

var compressionMethods = map[string]clickhouse.CompressionMethod{
	"none": clickhouse.CompressionNone,
	"lz4":  clickhouse.CompressionLZ4,
	"zstd": clickhouse.CompressionZSTD,
}

// Config defines configuration for the ClickHouse backend
//
//	type: clickhouse
//	connection:
//	  host: ch.internal
//	  database: logs
//	  username: default
//	  options:
//	    async_insert: "0"
//	compression: lz4
type Config struct {
	bconfig.Header `yaml:",inline"`
	Connection     bconfig.ConnectionConfig `yaml:"connection"`
	Pool           bconfig.PoolConfig       `yaml:"pool"`
	Compression    string                   `yaml:"compression"`
}

// NewBackend connects to the server
func (cfg *Config) NewBackend(parentLogger logger.Logger) (base.StorageBackend, error) {
	return Open(parentLogger, cfg)
}

// VerifyConfig verifies the configuration
func (cfg *Config) VerifyConfig() error {
	if err := cfg.Connection.VerifyConfig(); err != nil {
		return fmt.Errorf(".connection%w", err)
	}
	if err := cfg.Pool.VerifyConfig(); err != nil {
		return fmt.Errorf(".pool%w", err)
	}
	if cfg.Compression != "" {
		if _, ok := compressionMethods[cfg.Compression]; !ok {
			names := lo.Keys(compressionMethods)
			sort.Strings(names)
			return fmt.Errorf(".compression: unsupported '%s', must be one of %s", cfg.Compression, strings.Join(names, ", "))
		}
	}
	return nil
}

// Options builds the client options. Connection options are passed as ClickHouse settings.
func (cfg *Config) Options() *clickhouse.Options {
	opts := &clickhouse.Options{
		Addr: []string{cfg.Connection.HostPort(defaultPort)},
		Auth: clickhouse.Auth{
			Database: cfg.Connection.Database,
			Username: cfg.Connection.Username,
			Password: cfg.Connection.ExpandedPassword(),
		},
		DialTimeout:     cfg.Connection.ConnectTimeout,
		MaxOpenConns:    cfg.Pool.MaxOpenConns,
		ConnMaxLifetime: cfg.Pool.ConnMaxIdleTime,
	}
	if len(cfg.Connection.Options) > 0 {
		opts.Settings = make(clickhouse.Settings, len(cfg.Connection.Options))
		for k, v := range cfg.Connection.Options {
			opts.Settings[k] = v
		}
	}
	if method, ok := compressionMethods[cfg.Compression]; ok && method != clickhouse.CompressionNone {
		opts.Compression = &clickhouse.Compression{Method: method}
	}
	return opts
}

// Description returns the connection URL without password, for logging
func (cfg *Config) Description() string {
	return strings.TrimSuffix(cfg.Connection.Redacted("clickhouse", defaultPort), "?")
}
