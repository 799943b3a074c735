// Package memorybackend provides a StorageBackend keeping rows in process memory
package memorybackend

import (
	"fmt"

	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/base/bconfig"
)

// Config defines configuration for the in-memory backend
type Config struct {
	bconfig.Header `yaml:",inline"`
	MaxRows        int `yaml:"maxRows"` // 0 for unlimited; inserts beyond the limit are rejected
}

// NewBackend creates the backend
func (cfg *Config) NewBackend(parentLogger logger.Logger) (base.StorageBackend, error) {
	return NewBackend(parentLogger, cfg.MaxRows), nil
}

// VerifyConfig verifies the configuration
func (cfg *Config) VerifyConfig() error {
	if cfg.MaxRows < 0 {
		return fmt.Errorf(".maxRows: %d is negative", cfg.MaxRows)
	}
	return nil
}
