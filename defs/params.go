package defs

import (
	"time"
)

var (
	// DefaultBufferSize is the number of records held before a flush is forced
	//
	// 1 means every record is written immediately, without batching
	DefaultBufferSize = 1

	// BackendConnectTimeout is how long to wait for the initial connection and ping of a storage backend
	BackendConnectTimeout = 30 * time.Second

	// BackendSchemaTimeout bounds the table creation at sink setup
	BackendSchemaTimeout = 60 * time.Second

	// BackendCloseFlushTimeout bounds the final flush performed by Close
	BackendCloseFlushTimeout = 60 * time.Second

	// BenchmarkReportInterval defines how often the benchmark command reports progress
	BenchmarkReportInterval = 1 * time.Second
)

// EnableTestMode turns on test mode with very short timeouts
func EnableTestMode() {
	BackendConnectTimeout = 1 * time.Second
	BackendSchemaTimeout = 2 * time.Second
	BackendCloseFlushTimeout = 2 * time.Second
	BenchmarkReportInterval = 100 * time.Millisecond
}
