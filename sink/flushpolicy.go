package sink

import (
	"fmt"

	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/defs"
)

// FlushPolicy decides when the buffer must be written out: when it's full, or when a severe enough record arrives
type FlushPolicy struct {
	capacity      int
	severityLevel base.LogLevel
}

// NewFlushPolicy creates a FlushPolicy; capacity must be at least 1
func NewFlushPolicy(capacity int, severityLevel base.LogLevel) (FlushPolicy, error) {
	if capacity < 1 {
		return FlushPolicy{}, fmt.Errorf("capacity must be at least 1: %d", capacity)
	}
	return FlushPolicy{capacity: capacity, severityLevel: severityLevel}, nil
}

// DefaultFlushPolicy flushes every record, or at CRITICAL if capacity is raised
func DefaultFlushPolicy() FlushPolicy {
	return FlushPolicy{capacity: defs.DefaultBufferSize, severityLevel: base.CRITICAL}
}

// ShouldFlush is called after a record has been appended to a buffer of the given length
func (policy FlushPolicy) ShouldFlush(bufferLength int, level base.LogLevel) bool {
	return bufferLength >= policy.capacity || level >= policy.severityLevel
}

// Capacity returns the buffer size which triggers flush
func (policy FlushPolicy) Capacity() int {
	return policy.capacity
}

// SeverityLevel returns the lowest level which triggers flush
func (policy FlushPolicy) SeverityLevel() base.LogLevel {
	return policy.severityLevel
}

func (policy FlushPolicy) String() string {
	return fmt.Sprintf("capacity=%d level=%s", policy.capacity, policy.severityLevel)
}

// flushTrigger tells why ShouldFlush is true, for metrics
func (policy FlushPolicy) flushTrigger(level base.LogLevel) string {
	if level >= policy.severityLevel {
		return defs.TriggerSeverity
	}
	return defs.TriggerCapacity
}
