package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/backend/sqlbackend"
	"github.com/relex/sqldb-logging/defs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupAndBenchCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "logs.db")
	configFile := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(configFile, []byte(fmt.Sprintf(`
table: bench_logs
bufferSize: 100
flushLevel: ERROR
backend:
  type: sqldb
  driver: sqlite
  path: %s
`, dbPath)), 0o644))

	setup := setupCommandState{Config: configFile}
	require.NoError(t, setup.setup())

	bench := benchmarkCommandState{Config: configFile, Count: 300}
	require.NoError(t, bench.bench())

	reader, err := sqlbackend.Open(context.Background(), logger.WithField("test", t.Name()), &sqlbackend.Config{Driver: "sqlite", Path: dbPath})
	require.NoError(t, err)
	defer reader.Close()
	var count int
	require.NoError(t, reader.DB().QueryRow(`SELECT COUNT(*) FROM "bench_logs"`).Scan(&count))
	assert.Equal(t, 300, count)

	bench.Count = 0
	assert.EqualError(t, bench.bench(), "--count must be positive: 0")

	setup.Config = filepath.Join(dir, "missing.yml")
	assert.Error(t, setup.setup())
}

func TestRootCommandProfilesAndMetrics(t *testing.T) {
	dir := t.TempDir()
	root := rootCommandState{
		CPUProfile:  filepath.Join(dir, "cpu.prof"),
		MemProfile:  filepath.Join(dir, "mem.prof"),
		Trace:       filepath.Join(dir, "trace.out"),
		MetricsAddr: "127.0.0.1:0",
		TestMode:    true,
	}
	root.preRun()
	assert.NotNil(t, root.metricsServer)
	assert.Equal(t, 1*time.Second, defs.BackendConnectTimeout)
	root.postRun()

	for _, name := range []string{"cpu.prof", "mem.prof", "trace.out"} {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err, name)
		content, err := io.ReadAll(f)
		f.Close()
		require.NoError(t, err)
		assert.NotEmpty(t, content, name)
	}
	assert.Nil(t, root.metricsServer)
}
