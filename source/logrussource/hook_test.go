package logrussource

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/base/bmatch"
	"github.com/relex/sqldb-logging/base/btest"
	"github.com/relex/sqldb-logging/sink"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, opts Options) (*logrus.Logger, *btest.StubBackend) {
	stub := btest.NewStubBackend()
	policy, err := sink.NewFlushPolicy(1, base.CRITICAL)
	require.NoError(t, err)
	s, err := sink.OpenSink(context.Background(), logger.WithField("test", t.Name()), stub, base.TableIdentity{Name: "logs"}, policy, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	lgr := logrus.New()
	lgr.SetOutput(&bytes.Buffer{})
	lgr.SetLevel(logrus.TraceLevel)
	lgr.SetReportCaller(true)
	lgr.AddHook(NewHook(s, opts))
	return lgr, stub
}

func TestLogrusHook(t *testing.T) {
	lgr, stub := newTestLogger(t, Options{LoggerName: "app"})

	lgr.Debug("hidden")
	lgr.WithFields(logrus.Fields{"user": "bob", "path": "/a b"}).Info("request")
	lgr.WithField("logger", "app.db").WithError(errors.New("connection refused")).Error("query failed")

	rows := stub.Rows()
	require.Len(t, rows, 2)

	assert.Equal(t, `request path="/a b" user=bob`, rows[0][base.ColMessage])
	assert.Equal(t, "INFO", rows[0][base.ColLevelName])
	assert.Equal(t, "app", rows[0][base.ColLoggerName])
	assert.Equal(t, "hook_test.go", rows[0][base.ColFilename])
	assert.Equal(t, "TestLogrusHook", rows[0][base.ColFuncName])
	assert.Nil(t, rows[0][base.ColExcInfo])

	assert.Equal(t, "query failed", rows[1][base.ColMessage])
	assert.Equal(t, "app.db", rows[1][base.ColLoggerName])
	assert.Equal(t, int16(40), rows[1][base.ColLevelNo])
	require.NotNil(t, rows[1][base.ColExcInfo])
	assert.Contains(t, rows[1][base.ColExcInfo], ": connection refused")
}

func TestLogrusHookNamesAndLevels(t *testing.T) {
	names, err := bmatch.NewNameMatcher(nil, []string{"app.noisy.**"})
	require.NoError(t, err)
	lgr, stub := newTestLogger(t, Options{LoggerName: "app", Level: logrus.DebugLevel, Names: names})

	lgr.Trace("too verbose")
	lgr.Debug("kept")
	lgr.WithField("logger", "app.noisy.poller").Warn("dropped")
	lgr.WithField(logrus.ErrorKey, "plain string").Warn("odd error")

	assert.Equal(t, []string{"kept", "odd error"}, stub.Messages())
	assert.Contains(t, stub.Rows()[1][base.ColExcInfo], "string: plain string")
}

func TestLogrusMapLevel(t *testing.T) {
	assert.Equal(t, base.CRITICAL, MapLevel(logrus.PanicLevel))
	assert.Equal(t, base.CRITICAL, MapLevel(logrus.FatalLevel))
	assert.Equal(t, base.ERROR, MapLevel(logrus.ErrorLevel))
	assert.Equal(t, base.WARNING, MapLevel(logrus.WarnLevel))
	assert.Equal(t, base.INFO, MapLevel(logrus.InfoLevel))
	assert.Equal(t, base.DEBUG, MapLevel(logrus.DebugLevel))
	assert.Equal(t, base.DEBUG, MapLevel(logrus.TraceLevel))
}
