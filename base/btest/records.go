package btest

import (
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/relex/sqldb-logging/base"
)

// TestTime is the fixed time of records made by NewTestRecord
var TestTime = time.Date(2024, 3, 15, 10, 20, 30, 456789000, time.UTC)

// NewTestRecord creates a record at TestTime with fixed source information
func NewTestRecord(level base.LogLevel, loggerName string, template string, args ...interface{}) *base.LogRecord {
	frame := runtime.Frame{
		File:     "/src/app/handlers.go",
		Line:     42,
		Function: "github.com/example/app.(*Server).handle",
	}
	return base.NewLogRecordAt(TestTime, level, loggerName, frame, template, args...)
}

// NewScenarioRecords creates the six records of a typical application run: DEBUG, INFO, WARNING, ERROR, an ERROR
// with exception and CRITICAL, each with stack info and the current time
func NewScenarioRecords(loggerName string) []*base.LogRecord {
	records := make([]*base.LogRecord, 0, 6)
	for _, level := range []base.LogLevel{base.DEBUG, base.INFO, base.WARNING, base.ERROR} {
		records = append(records, base.NewLogRecord(level, loggerName, "This is a %s message", level.String()).WithStackInfo())
	}
	err := errors.New("integer division or modulo by zero")
	records = append(records, base.NewLogRecord(base.ERROR, loggerName, err.Error()).
		WithException(base.CaptureException(err)).WithStackInfo())
	records = append(records, base.NewLogRecord(base.CRITICAL, loggerName, "This is a %s message", base.CRITICAL.String()).WithStackInfo())
	return records
}
