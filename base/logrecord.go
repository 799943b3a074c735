package base

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/relex/sqldb-logging/util"
)

// processStartTime is the reference point of LogRecord.RelativeCreated
var processStartTime = time.Now()

var processName = filepath.Base(os.Args[0])

// LogRecord is a single log event as received from an event source
//
// A record must not be modified after it's been passed to a sink. Zero values of optional fields (empty strings and
// zero numbers) mean the field is absent and are stored as NULL.
type LogRecord struct {
	Timestamp       time.Time     // Wall-clock time of the event
	Created         float64       // Timestamp as seconds since Unix epoch, with fractions
	Level           LogLevel      // Severity rank
	LoggerName      string        // Name of the logger which emitted the record
	Message         string        // Message template, with %-placeholders if Args is not empty
	Args            []interface{} // Positional arguments for Message
	PathName        string        // Full path of the source file
	FileName        string        // Base name of the source file
	LineNo          int           // Line number in the source file
	FuncName        string        // Function name
	ModuleName      string        // Module name, the source file name without extension
	Exception       *CapturedException
	StackInfo       string        // Explicit stack trace text, independent of Exception
	ProcessID       int64         // OS process ID
	ProcessName     string        // Process name
	ThreadID        int64         // OS thread ID where available
	ThreadName      string        // Thread or goroutine description
	RelativeCreated time.Duration // Time elapsed since process start
}

// StackFrame is one entry of a captured call stack
type StackFrame struct {
	File     string
	Line     int
	Function string
}

// CapturedException is an error attached to a log record, detached from the live error value
//
// Cause is the exception that directly caused this one, if any; it's rendered before this one
type CapturedException struct {
	TypeName string
	Message  string
	Frames   []StackFrame // Call frames, oldest first
	Cause    *CapturedException
}

// NewLogRecord creates a record with source information taken from the caller of NewLogRecord
func NewLogRecord(level LogLevel, loggerName string, template string, args ...interface{}) *LogRecord {
	var frame runtime.Frame
	if pc, _, _, ok := runtime.Caller(1); ok {
		frame, _ = runtime.CallersFrames([]uintptr{pc}).Next()
	}
	return NewLogRecordAt(time.Now(), level, loggerName, frame, template, args...)
}

// NewLogRecordAt creates a record with the given time and source frame, filling process and thread information
//
// frame may be empty if the source is unknown
func NewLogRecordAt(tm time.Time, level LogLevel, loggerName string, frame runtime.Frame,
	template string, args ...interface{}) *LogRecord {

	record := &LogRecord{
		Timestamp:       tm,
		Created:         util.TimeToUnixFloat(tm),
		Level:           level,
		LoggerName:      loggerName,
		Message:         template,
		Args:            args,
		ProcessID:       int64(os.Getpid()),
		ProcessName:     processName,
		ThreadID:        currentThreadID(),
		ThreadName:      "goroutine",
		RelativeCreated: tm.Sub(processStartTime),
	}
	if frame.File != "" {
		record.PathName = frame.File
		record.FileName = filepath.Base(frame.File)
		record.ModuleName = strings.TrimSuffix(record.FileName, filepath.Ext(record.FileName))
		record.LineNo = frame.Line
	}
	if frame.Function != "" {
		record.FuncName = ShortFunctionName(frame.Function)
	}
	return record
}

// WithException returns a copy of record with the exception attached
//
// The original is left untouched so it can still be shared
func (record *LogRecord) WithException(exception *CapturedException) *LogRecord {
	dup := *record
	dup.Exception = exception
	return &dup
}

// WithStackInfo returns a copy of record with the stack of the caller attached as StackInfo
func (record *LogRecord) WithStackInfo() *LogRecord {
	dup := *record
	dup.StackInfo = FormatStack(CaptureStackFrames(1))
	return &dup
}

// CaptureException converts a Go error into a CapturedException
//
// TypeName is the type of the innermost cause. Frames come from the first stack trace recorded inside the error chain
// (errors created by cockroachdb/errors or pkg/errors), or from the caller of CaptureException otherwise.
func CaptureException(err error) *CapturedException {
	if err == nil {
		return nil
	}
	exception := &CapturedException{
		TypeName: fmt.Sprintf("%T", errors.UnwrapAll(err)),
		Message:  err.Error(),
	}
	for e := err; e != nil && exception.Frames == nil; e = errors.UnwrapOnce(e) {
		if st := errors.GetReportableStackTrace(e); st != nil && len(st.Frames) > 0 {
			exception.Frames = make([]StackFrame, 0, len(st.Frames))
			for _, f := range st.Frames {
				file := f.AbsPath
				if file == "" {
					file = f.Filename
				}
				function := f.Function
				if f.Module != "" {
					function = f.Module + "." + f.Function
				}
				exception.Frames = append(exception.Frames, StackFrame{File: file, Line: f.Lineno, Function: ShortFunctionName(function)})
			}
		}
	}
	if exception.Frames == nil {
		exception.Frames = CaptureStackFrames(1)
	}
	return exception
}

// CaptureStackFrames returns the current call stack, oldest first, skipping the given number of callers above
// CaptureStackFrames itself
func CaptureStackFrames(skip int) []StackFrame {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var stack []StackFrame
	for {
		f, more := frames.Next()
		if f.Function != "" && !strings.HasPrefix(f.Function, "runtime.") {
			stack = append(stack, StackFrame{File: f.File, Line: f.Line, Function: ShortFunctionName(f.Function)})
		}
		if !more {
			break
		}
	}
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	return stack
}

// FormatStack renders frames in the traceback layout under a "Stack" header
func FormatStack(frames []StackFrame) string {
	builder := &strings.Builder{}
	builder.WriteString("Stack (most recent call last):\n")
	for _, f := range frames {
		fmt.Fprintf(builder, "  File \"%s\", line %d, in %s\n", f.File, f.Line, f.Function)
	}
	return strings.TrimSuffix(builder.String(), "\n")
}

// ShortFunctionName strips the package path from a fully-qualified function name
//
//	github.com/relex/sqldb-logging/sink.(*BufferedLogSink).Flush => (*BufferedLogSink).Flush
func ShortFunctionName(function string) string {
	name := function
	if slash := strings.LastIndex(name, "/"); slash != -1 {
		name = name[slash+1:]
	}
	if dot := strings.Index(name, "."); dot != -1 {
		name = name[dot+1:]
	}
	return name
}
