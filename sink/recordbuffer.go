package sink

import (
	"github.com/relex/sqldb-logging/base"
)

// RecordBuffer is an ordered queue of pending records
//
// RecordBuffer is not thread-safe and must be guarded by its owner
type RecordBuffer struct {
	records []*base.LogRecord
}

// maxPreallocatedRecords limits the space allocated upfront; larger buffers grow on demand
const maxPreallocatedRecords = 1024

// NewRecordBuffer creates a RecordBuffer with space preallocated for up to 1024 records
func NewRecordBuffer(capacity int) *RecordBuffer {
	return &RecordBuffer{
		records: make([]*base.LogRecord, 0, max(min(capacity, maxPreallocatedRecords), 0)),
	}
}

// Append adds a record to the end
func (buf *RecordBuffer) Append(record *base.LogRecord) {
	buf.records = append(buf.records, record)
}

// Snapshot returns a copy of pending records in order, without clearing them
func (buf *RecordBuffer) Snapshot() []*base.LogRecord {
	return append([]*base.LogRecord(nil), buf.records...)
}

// Clear removes all records, keeping the allocated space
func (buf *RecordBuffer) Clear() {
	clear(buf.records)
	buf.records = buf.records[:0]
}

// Len returns the count of pending records
func (buf *RecordBuffer) Len() int {
	return len(buf.records)
}
