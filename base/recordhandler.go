package base

import (
	"context"
)

// LogRecordHandler accepts log records from event sources, e.g. sink.BufferedLogSink
type LogRecordHandler interface {
	Handle(ctx context.Context, record *LogRecord) error
}
