// Package slogsource feeds log/slog records into a LogRecordHandler such as BufferedLogSink
package slogsource

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/base/bmatch"
)

// Options configures Handler
type Options struct {
	LoggerName string             // name of the root logger, extended by WithGroup
	Level      slog.Leveler       // minimum level, default slog.LevelInfo
	Names      bmatch.NameMatcher // filter of logger names, default all
	OnError    func(err error)    // called when the target fails to handle a record; the error is also returned
}

// Handler is a slog.Handler which converts slog records into LogRecord
//
// Attributes are appended to the message as "key=value". The first error-valued attribute becomes the exception of
// the record instead. Groups extend the logger name and qualify the keys of attributes added after them.
type Handler struct {
	target    base.LogRecordHandler
	opts      Options
	groups    []string
	preformat string // attributes from WithAttrs, formatted
	exception *base.CapturedException
	enabled   bool
}

// NewHandler creates a Handler sending records to target
func NewHandler(target base.LogRecordHandler, opts Options) *Handler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	h := &Handler{
		target: target,
		opts:   opts,
	}
	h.enabled = opts.Names.Match(h.loggerName())
	return h
}

// Enabled checks the level and the logger name
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled && level >= h.opts.Level.Level()
}

// Handle converts the record and passes it to the target
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var frame runtime.Frame
	if r.PC != 0 {
		frame, _ = runtime.CallersFrames([]uintptr{r.PC}).Next()
	}

	builder := &strings.Builder{}
	builder.WriteString(r.Message)
	builder.WriteString(h.preformat)
	exception := h.exception
	prefix := h.keyPrefix()
	r.Attrs(func(attr slog.Attr) bool {
		exception = appendAttr(builder, prefix, attr, exception)
		return true
	})

	tm := r.Time
	if tm.IsZero() {
		tm = time.Now()
	}
	record := base.NewLogRecordAt(tm, MapLevel(r.Level), h.loggerName(), frame, builder.String())
	record.Exception = exception
	if err := h.target.Handle(ctx, record); err != nil {
		if h.opts.OnError != nil {
			h.opts.OnError(err)
		}
		return err
	}
	return nil
}

// WithAttrs returns a handler which adds the attributes to every record
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	dup := *h
	builder := &strings.Builder{}
	builder.WriteString(h.preformat)
	prefix := h.keyPrefix()
	for _, attr := range attrs {
		dup.exception = appendAttr(builder, prefix, attr, dup.exception)
	}
	dup.preformat = builder.String()
	return &dup
}

// WithGroup returns a handler for the child logger of the given name
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	dup := *h
	dup.groups = append(append([]string(nil), h.groups...), name)
	dup.enabled = h.opts.Names.Match(dup.loggerName())
	return &dup
}

func (h *Handler) loggerName() string {
	parts := h.groups
	if h.opts.LoggerName != "" {
		parts = append([]string{h.opts.LoggerName}, h.groups...)
	}
	if len(parts) == 0 {
		return "root"
	}
	return strings.Join(parts, ".")
}

func (h *Handler) keyPrefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

// MapLevel maps slog levels to log levels: Debug and below to DEBUG, up to Error+3 to the nearest lower standard
// level and anything more severe to CRITICAL
func MapLevel(level slog.Level) base.LogLevel {
	switch {
	case level < slog.LevelInfo:
		return base.DEBUG
	case level < slog.LevelWarn:
		return base.INFO
	case level < slog.LevelError:
		return base.WARNING
	case level < slog.LevelError+4:
		return base.ERROR
	default:
		return base.CRITICAL
	}
}

// appendAttr writes " key=value" or captures the first error as exception, and returns the exception
func appendAttr(builder *strings.Builder, prefix string, attr slog.Attr, exception *base.CapturedException) *base.CapturedException {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return exception
	}
	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = prefix + attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			exception = appendAttr(builder, groupPrefix, member, exception)
		}
		return exception
	}
	if attr.Value.Kind() == slog.KindAny && exception == nil {
		if err, ok := attr.Value.Any().(error); ok {
			return base.CaptureException(err)
		}
	}
	builder.WriteByte(' ')
	builder.WriteString(prefix)
	builder.WriteString(attr.Key)
	builder.WriteByte('=')
	value := attr.Value.String()
	if strings.ContainsAny(value, " \t\n\"=") {
		value = fmt.Sprintf("%q", value)
	}
	builder.WriteString(value)
	return exception
}
