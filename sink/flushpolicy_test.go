package sink

import (
	"testing"

	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/defs"
	"github.com/stretchr/testify/assert"
)

func TestFlushPolicy(t *testing.T) {
	policy, err := NewFlushPolicy(3, base.ERROR)
	assert.NoError(t, err)
	assert.False(t, policy.ShouldFlush(1, base.INFO))
	assert.False(t, policy.ShouldFlush(2, base.WARNING))
	assert.True(t, policy.ShouldFlush(3, base.DEBUG))
	assert.True(t, policy.ShouldFlush(5, base.DEBUG))
	assert.True(t, policy.ShouldFlush(1, base.ERROR))
	assert.True(t, policy.ShouldFlush(1, base.CRITICAL))
	assert.True(t, policy.ShouldFlush(1, base.LogLevel(45)))
	assert.Equal(t, defs.TriggerSeverity, policy.flushTrigger(base.ERROR))
	assert.Equal(t, defs.TriggerCapacity, policy.flushTrigger(base.INFO))
	assert.Equal(t, "capacity=3 level=ERROR", policy.String())

	everyRecord, err := NewFlushPolicy(1, base.CRITICAL)
	assert.NoError(t, err)
	assert.True(t, everyRecord.ShouldFlush(1, base.NOTSET))

	lowLevel, err := NewFlushPolicy(100, base.NOTSET)
	assert.NoError(t, err)
	assert.True(t, lowLevel.ShouldFlush(1, base.DEBUG))

	_, err = NewFlushPolicy(0, base.ERROR)
	assert.ErrorContains(t, err, "capacity must be at least 1")

	def := DefaultFlushPolicy()
	assert.Equal(t, 1, def.Capacity())
	assert.Equal(t, base.CRITICAL, def.SeverityLevel())
}
