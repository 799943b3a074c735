package base

import (
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewLogRecordAt(t *testing.T) {
	tm := time.Date(2024, 3, 1, 12, 30, 45, 250_000_000, time.UTC)
	frame := runtime.Frame{
		File:     "/src/app/worker/job.go",
		Line:     88,
		Function: "example.com/app/worker.(*Job).Run",
	}
	record := NewLogRecordAt(tm, WARNING, "app.worker", frame, "job %s took %d ms", "sync", 1200)

	assert.Equal(t, tm, record.Timestamp)
	assert.InDelta(t, 1709296245.25, record.Created, 1e-6)
	assert.Equal(t, WARNING, record.Level)
	assert.Equal(t, "app.worker", record.LoggerName)
	assert.Equal(t, "job %s took %d ms", record.Message)
	assert.Equal(t, []interface{}{"sync", 1200}, record.Args)
	assert.Equal(t, "/src/app/worker/job.go", record.PathName)
	assert.Equal(t, "job.go", record.FileName)
	assert.Equal(t, "job", record.ModuleName)
	assert.Equal(t, 88, record.LineNo)
	assert.Equal(t, "(*Job).Run", record.FuncName)
	assert.Equal(t, int64(os.Getpid()), record.ProcessID)
	assert.NotEmpty(t, record.ProcessName)
	assert.Equal(t, "goroutine", record.ThreadName)
	assert.Equal(t, tm.Sub(processStartTime), record.RelativeCreated)
}

func TestNewLogRecordWithoutFrame(t *testing.T) {
	record := NewLogRecordAt(time.Now(), INFO, "root", runtime.Frame{}, "plain")
	assert.Empty(t, record.PathName)
	assert.Empty(t, record.FileName)
	assert.Empty(t, record.ModuleName)
	assert.Zero(t, record.LineNo)
	assert.Empty(t, record.FuncName)
}

func TestNewLogRecordCaller(t *testing.T) {
	record := NewLogRecord(ERROR, "app", "failed")
	assert.Equal(t, "logrecord_test.go", record.FileName)
	assert.Equal(t, "logrecord_test", record.ModuleName)
	assert.Equal(t, "TestNewLogRecordCaller", record.FuncName)
	assert.Positive(t, record.LineNo)
}

func TestLogRecordCopies(t *testing.T) {
	record := NewLogRecord(ERROR, "app", "failed")
	exception := &CapturedException{TypeName: "*net.OpError", Message: "dial tcp: timeout"}

	withException := record.WithException(exception)
	assert.Nil(t, record.Exception)
	assert.Same(t, exception, withException.Exception)

	withStack := record.WithStackInfo()
	assert.Empty(t, record.StackInfo)
	assert.True(t, strings.HasPrefix(withStack.StackInfo, "Stack (most recent call last):\n"))
	assert.True(t, strings.HasSuffix(withStack.StackInfo, "in TestLogRecordCopies"), withStack.StackInfo)
}

func TestCaptureException(t *testing.T) {
	assert.Nil(t, CaptureException(nil))

	err := errors.Wrap(os.ErrNotExist, "failed to open config")
	exception := CaptureException(err)
	assert.Equal(t, "failed to open config: file does not exist", exception.Message)
	assert.Equal(t, "*errors.errorString", exception.TypeName)
	if assert.NotEmpty(t, exception.Frames) {
		last := exception.Frames[len(exception.Frames)-1]
		assert.Equal(t, "TestCaptureException", last.Function)
	}
}

func TestFormatStack(t *testing.T) {
	text := FormatStack([]StackFrame{
		{File: "/src/main.go", Line: 10, Function: "main"},
		{File: "/src/app/run.go", Line: 42, Function: "(*App).Run"},
	})
	assert.Equal(t, "Stack (most recent call last):\n"+
		"  File \"/src/main.go\", line 10, in main\n"+
		"  File \"/src/app/run.go\", line 42, in (*App).Run", text)
}

func TestShortFunctionName(t *testing.T) {
	assert.Equal(t, "(*BufferedLogSink).Flush",
		ShortFunctionName("github.com/relex/sqldb-logging/sink.(*BufferedLogSink).Flush"))
	assert.Equal(t, "main", ShortFunctionName("main.main"))
	assert.Equal(t, "Open.func1", ShortFunctionName("example.com/db.Open.func1"))
	assert.Equal(t, "plain", ShortFunctionName("plain"))
}
