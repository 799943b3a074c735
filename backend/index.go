// Package backend registers the list of all storage backend implementations
package backend

import (
	"github.com/relex/sqldb-logging/backend/clickhousebackend"
	"github.com/relex/sqldb-logging/backend/memorybackend"
	"github.com/relex/sqldb-logging/backend/pgxbackend"
	"github.com/relex/sqldb-logging/backend/sqlbackend"
	"github.com/relex/sqldb-logging/base/bconfig"
)

func init() {
	bconfig.RegisterConfigConstructors(bconfig.BackendConfigCreatorTable{
		"clickhouse": func() bconfig.BackendConfig { return &clickhousebackend.Config{} },
		"memory":     func() bconfig.BackendConfig { return &memorybackend.Config{} },
		"pgx":        func() bconfig.BackendConfig { return &pgxbackend.Config{} },
		"sqldb":      func() bconfig.BackendConfig { return &sqlbackend.Config{} },
	})
}

// Register registers all backend config types
func Register() {
	// trigger init()
}
