package sink

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/relex/sqldb-logging/base"
)

const tracebackHeader = "Traceback (most recent call last):"

const causeSeparator = "\n\nThe above exception was the direct cause of the following exception:\n\n"

// maxCauseDepth limits rendering of cause chains, in case of a cycle
const maxCauseDepth = 32

// MapRecord converts a record to a row of the log table
//
// It fails only if the message template and args cannot be combined. The record is not modified.
func MapRecord(record *base.LogRecord) (base.Row, error) {
	message, err := FormatMessage(record.Message, record.Args)
	if err != nil {
		return nil, err
	}
	tm := recordTime(record)
	row := base.Row{
		base.ColAsctime:         tm.Local(),
		base.ColCreated:         record.Created,
		base.ColExcInfo:         nil,
		base.ColFilename:        nullableString(record.FileName),
		base.ColFuncName:        nullableString(record.FuncName),
		base.ColLevelName:       levelName(record.Level),
		base.ColLevelNo:         levelNumber(record.Level),
		base.ColLineNo:          nil,
		base.ColMessage:         message,
		base.ColModuleName:      nullableString(record.ModuleName),
		base.ColMsecs:           float64(tm.Nanosecond() / int(time.Millisecond)),
		base.ColLoggerName:      record.LoggerName,
		base.ColPathName:        nullableString(record.PathName),
		base.ColProcessID:       nullableInt64(record.ProcessID),
		base.ColProcessName:     nullableString(record.ProcessName),
		base.ColRelativeCreated: float64(record.RelativeCreated) / float64(time.Millisecond),
		base.ColStackInfo:       nullableString(record.StackInfo),
		base.ColThreadID:        nullableInt64(record.ThreadID),
		base.ColThreadName:      nullableString(record.ThreadName),
	}
	if record.Exception != nil {
		row[base.ColExcInfo] = FormatException(record.Exception)
	}
	if record.LineNo != 0 {
		row[base.ColLineNo] = int32(record.LineNo)
	}
	return row, nil
}

// FormatException renders an exception and its causes as a traceback, innermost cause first
//
//	Traceback (most recent call last):
//	  File "/app/main.go", line 12, in main
//	  File "/app/worker.go", line 30, in (*Worker).Run
//	*errors.errorString: division by zero
func FormatException(exception *base.CapturedException) string {
	builder := &strings.Builder{}
	writeException(builder, exception, 0)
	return builder.String()
}

func writeException(builder *strings.Builder, exception *base.CapturedException, depth int) {
	if exception.Cause != nil && depth < maxCauseDepth {
		writeException(builder, exception.Cause, depth+1)
		builder.WriteString(causeSeparator)
	}
	if len(exception.Frames) > 0 {
		builder.WriteString(tracebackHeader)
		builder.WriteByte('\n')
		for _, f := range exception.Frames {
			fmt.Fprintf(builder, "  File \"%s\", line %d, in %s\n", f.File, f.Line, f.Function)
		}
	}
	builder.WriteString(exception.TypeName)
	if exception.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(exception.Message)
	}
}

// recordTime returns the event time, preferring Timestamp over Created for full precision
func recordTime(record *base.LogRecord) time.Time {
	if !record.Timestamp.IsZero() {
		return record.Timestamp
	}
	sec, frac := math.Modf(record.Created)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
}

// levelName returns the level name, or "L" followed by the stored levelno if "Level N" doesn't fit in the column
func levelName(level base.LogLevel) string {
	name := level.String()
	if len(name) > base.MaxLevelNameLength {
		return "L" + strconv.Itoa(int(levelNumber(level)))
	}
	return name
}

func levelNumber(level base.LogLevel) int16 {
	switch {
	case level > math.MaxInt16:
		return math.MaxInt16
	case level < math.MinInt16:
		return math.MinInt16
	default:
		return int16(level)
	}
}

func nullableString(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) interface{} {
	if value == 0 {
		return nil
	}
	return value
}
