// Package logrussource feeds logrus entries into a LogRecordHandler such as BufferedLogSink
package logrussource

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/base/bmatch"
	"github.com/sirupsen/logrus"
)

// DefaultLoggerNameField is the entry field taken as logger name
const DefaultLoggerNameField = "logger"

// Options configures Hook
type Options struct {
	LoggerName      string             // logger name for entries without LoggerNameField, default "root"
	LoggerNameField string             // default DefaultLoggerNameField
	Level           logrus.Level       // least severe level to handle, default logrus.InfoLevel
	Names           bmatch.NameMatcher // filter of logger names, default all
}

// Hook is a logrus.Hook which converts entries into LogRecord
//
// Fields are appended to the message as "key=value" in key order, except the logger name field and
// logrus.ErrorKey, which becomes the exception. The caller is recorded if the logger has ReportCaller set.
type Hook struct {
	target base.LogRecordHandler
	opts   Options
	levels []logrus.Level
}

// NewHook creates a Hook sending entries to target
func NewHook(target base.LogRecordHandler, opts Options) *Hook {
	if opts.LoggerName == "" {
		opts.LoggerName = "root"
	}
	if opts.LoggerNameField == "" {
		opts.LoggerNameField = DefaultLoggerNameField
	}
	if opts.Level == logrus.PanicLevel {
		opts.Level = logrus.InfoLevel
	}
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		if level <= opts.Level {
			levels = append(levels, level)
		}
	}
	return &Hook{target: target, opts: opts, levels: levels}
}

// Levels returns the levels to fire the hook for
func (hook *Hook) Levels() []logrus.Level {
	return hook.levels
}

// Fire converts the entry and passes it to the target
func (hook *Hook) Fire(entry *logrus.Entry) error {
	loggerName := hook.opts.LoggerName
	if name, ok := entry.Data[hook.opts.LoggerNameField].(string); ok && name != "" {
		loggerName = name
	}
	if !hook.opts.Names.Match(loggerName) {
		return nil
	}

	var frame runtime.Frame
	if entry.Caller != nil {
		frame = *entry.Caller
	}

	builder := &strings.Builder{}
	builder.WriteString(entry.Message)
	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		if key != hook.opts.LoggerNameField && key != logrus.ErrorKey {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := fmt.Sprint(entry.Data[key])
		if strings.ContainsAny(value, " \t\n\"=") {
			value = fmt.Sprintf("%q", value)
		}
		fmt.Fprintf(builder, " %s=%s", key, value)
	}

	record := base.NewLogRecordAt(entry.Time, MapLevel(entry.Level), loggerName, frame, builder.String())
	switch errValue := entry.Data[logrus.ErrorKey].(type) {
	case nil:
	case error:
		record.Exception = base.CaptureException(errValue)
	default:
		record.Exception = &base.CapturedException{TypeName: fmt.Sprintf("%T", errValue), Message: fmt.Sprint(errValue)}
	}

	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return hook.target.Handle(ctx, record)
}

// MapLevel maps logrus levels to log levels
func MapLevel(level logrus.Level) base.LogLevel {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return base.CRITICAL
	case logrus.ErrorLevel:
		return base.ERROR
	case logrus.WarnLevel:
		return base.WARNING
	case logrus.InfoLevel:
		return base.INFO
	default:
		return base.DEBUG
	}
}
