package run

import (
	"fmt"

	"github.com/relex/sqldb-logging/backend"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/base/bconfig"
	"github.com/relex/sqldb-logging/defs"
	"github.com/relex/sqldb-logging/sink"
	"github.com/relex/sqldb-logging/util"
	"gopkg.in/yaml.v3"
)

// Config defines the root of a sink config file
//
//	table: app_logs
//	schema: audit
//	bufferSize: 100
//	flushLevel: ERROR
//	backend:
//	  type: sqldb
//	  driver: sqlite
//	  path: /var/lib/app/logs.db
type Config struct {
	Anchors    AnchorsConfig               `yaml:"anchors"`
	Table      string                      `yaml:"table"`
	Schema     string                      `yaml:"schema"` // namespace of the table, e.g. database schema
	BufferSize int                         `yaml:"bufferSize"`
	FlushLevel base.LogLevel               `yaml:"flushLevel"`
	Backend    bconfig.BackendConfigHolder `yaml:"backend"`
}

// AnchorsConfig defines the anchors section in config file
// The section is meant to provide anchors for other sections and doesn't need to be unmarshalled itself
type AnchorsConfig struct {
}

func init() {
	backend.Register()
}

// NewDefaultConfig creates a Config with default buffer size and flush level and without backend
func NewDefaultConfig() *Config {
	return &Config{
		BufferSize: defs.DefaultBufferSize,
		FlushLevel: base.CRITICAL,
	}
}

// LoadConfigFile loads config from the path and verifies it
func LoadConfigFile(filepath string) (*Config, error) {
	cref := NewDefaultConfig()
	if err := util.UnmarshalYamlFile(filepath, cref); err != nil {
		return nil, err
	}
	if err := cref.VerifyConfig(); err != nil {
		return nil, err
	}
	return cref, nil
}

// ParseConfigString parses config from YAML text and verifies it
func ParseConfigString(contents string) (*Config, error) {
	cref := NewDefaultConfig()
	if err := util.UnmarshalYamlString(contents, cref); err != nil {
		return nil, err
	}
	if err := cref.VerifyConfig(); err != nil {
		return nil, err
	}
	return cref, nil
}

// VerifyConfig verifies the configuration
func (cfg *Config) VerifyConfig() error {
	if len(cfg.Table) == 0 {
		return fmt.Errorf(".table is unspecified")
	}
	if _, err := cfg.FlushPolicy(); err != nil {
		return fmt.Errorf(".bufferSize: %w", err)
	}
	if cfg.Backend.IsEmpty() {
		return fmt.Errorf(".backend is unspecified")
	}
	if err := cfg.Backend.Value.VerifyConfig(); err != nil {
		return fmt.Errorf(".backend%w", err)
	}
	return nil
}

// TableIdentity returns the configured table
func (cfg *Config) TableIdentity() base.TableIdentity {
	return base.TableIdentity{Namespace: cfg.Schema, Name: cfg.Table}
}

// FlushPolicy returns the configured flush policy
func (cfg *Config) FlushPolicy() (sink.FlushPolicy, error) {
	return sink.NewFlushPolicy(cfg.BufferSize, cfg.FlushLevel)
}

// MarshalYAML provides custom marshalling to export readable document. The result is not reversible.
func (holder AnchorsConfig) MarshalYAML() (interface{}, error) {
	return []string(nil), nil
}

// UnmarshalYAML provides custom unmarshalling for the implementations of Config
func (holder *AnchorsConfig) UnmarshalYAML(value *yaml.Node) error {
	return nil
}
