// Package sink implements BufferedLogSink, which batches log records in memory and writes them as table rows
package sink

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/defs"
)

type sinkState int

const (
	stateCreated sinkState = iota
	stateOpen
	stateClosed
)

func (state sinkState) String() string {
	switch state {
	case stateCreated:
		return "created"
	case stateOpen:
		return "open"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// BufferedLogSink accepts log records, buffers them and writes them in batches to a StorageBackend
//
// Buffered records are flushed when the buffer reaches its capacity, when a record at or above the flush level
// arrives, or on Flush and Close. A failed flush keeps the buffer intact so the same batch is written on the next
// attempt.
//
// All methods are safe for concurrent use. Backend I/O is performed synchronously by the calling goroutine while
// holding the sink lock.
type BufferedLogSink struct {
	logger  logger.Logger
	backend base.StorageBackend
	table   base.TableIdentity
	schema  base.TableSchema
	policy  FlushPolicy
	metrics sinkMetrics
	mutex   sync.Mutex
	buffer  *RecordBuffer
	state   sinkState
}

// New creates a sink in Created state. The sink takes ownership of backend and closes it in Close.
//
// metricCreator may be nil, in which case metrics are kept in a private factory
func New(parentLogger logger.Logger, backend base.StorageBackend, table base.TableIdentity, policy FlushPolicy,
	metricCreator promreg.MetricCreator) *BufferedLogSink {

	if metricCreator == nil {
		metricCreator = promreg.NewMetricFactory(defs.MetricPrefix, nil, nil)
	}
	if policy.capacity < 1 {
		policy = DefaultFlushPolicy()
	}
	return &BufferedLogSink{
		logger: parentLogger.WithFields(logger.Fields{
			defs.LabelComponent: "BufferedLogSink",
			defs.LabelTable:     table.String(),
			defs.LabelBackend:   backend.Name(),
			defs.LabelSinkID:    uuid.NewString(),
		}),
		backend: backend,
		table:   table,
		schema:  base.LogTableSchema(),
		policy:  policy,
		metrics: newSinkMetrics(metricCreator.AddOrGetPrefix("", []string{defs.LabelTable}, []string{table.String()})),
		buffer:  NewRecordBuffer(policy.capacity),
		state:   stateCreated,
	}
}

// OpenSink creates a sink and opens it. On failure the backend is closed.
func OpenSink(ctx context.Context, parentLogger logger.Logger, backend base.StorageBackend, table base.TableIdentity,
	policy FlushPolicy, metricCreator promreg.MetricCreator) (*BufferedLogSink, error) {

	sink := New(parentLogger, backend, table, policy, metricCreator)
	if err := sink.Open(ctx); err != nil {
		return nil, errors.CombineErrors(err, sink.Close())
	}
	return sink, nil
}

// Open ensures the log table exists and makes the sink ready to accept records
//
// Open on an open sink does nothing. On failure a SchemaError is returned and the sink stays in Created state.
func (sink *BufferedLogSink) Open(ctx context.Context) error {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()

	switch sink.state {
	case stateOpen:
		return nil
	case stateClosed:
		return base.ErrUseAfterClose
	}

	if err := sink.backend.EnsureSchema(ctx, sink.table, sink.schema); err != nil {
		sink.logger.Errorf("failed to ensure table: %s", err.Error())
		return &base.SchemaError{Table: sink.table, Cause: err}
	}
	sink.state = stateOpen
	sink.logger.Infof("opened with %s", sink.policy)
	return nil
}

// Handle appends a record to the buffer and flushes the buffer if required by the policy
//
// An error means the record is buffered but the flush triggered by it failed; the record stays in the buffer
// and is written together with the rest by the next successful flush.
func (sink *BufferedLogSink) Handle(ctx context.Context, record *base.LogRecord) error {
	if record == nil {
		return errors.AssertionFailedf("nil record")
	}

	sink.mutex.Lock()
	defer sink.mutex.Unlock()

	if err := sink.checkOpen(); err != nil {
		return err
	}
	sink.buffer.Append(record)
	sink.metrics.OnHandled()

	if !sink.policy.ShouldFlush(sink.buffer.Len(), record.Level) {
		return nil
	}
	return sink.flushLocked(ctx, sink.policy.flushTrigger(record.Level))
}

// Flush writes all buffered records as one batch regardless of the policy. An empty buffer is not written.
func (sink *BufferedLogSink) Flush(ctx context.Context) error {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()

	if err := sink.checkOpen(); err != nil {
		return err
	}
	return sink.flushLocked(ctx, defs.TriggerManual)
}

// Close flushes remaining records, releases the backend and disables the sink
//
// Only the first call has effect; any later call returns nil. Records that cannot be flushed are lost and counted
// in sqlsink_dropped_records_total.
func (sink *BufferedLogSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defs.BackendCloseFlushTimeout)
	defer cancel()
	return sink.CloseContext(ctx)
}

// CloseContext is Close with a context for the final flush
//
// Records still buffered after the final flush fails are dropped and counted in sqlsink_dropped_records_total.
func (sink *BufferedLogSink) CloseContext(ctx context.Context) error {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()

	if sink.state == stateClosed {
		return nil
	}

	var flushErr error
	if sink.state == stateOpen {
		flushErr = sink.flushLocked(ctx, defs.TriggerClose)
		if lost := sink.buffer.Len(); lost > 0 {
			sink.logger.Errorf("lost %d records at close", lost)
			sink.metrics.OnDropped(lost)
			sink.buffer.Clear()
		}
	}
	sink.state = stateClosed

	var closeErr error
	if err := sink.backend.Close(); err != nil {
		sink.logger.Warnf("failed to close backend: %s", err.Error())
		closeErr = errors.Wrapf(err, "failed to close backend %s", sink.backend.Name())
	}
	sink.logger.Info("closed")
	return errors.CombineErrors(flushErr, closeErr)
}

// DropPending discards all buffered records and returns their count
//
// It's for callers who decide not to retry a batch that keeps failing, e.g. due to a MappingError
func (sink *BufferedLogSink) DropPending() int {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()

	count := sink.buffer.Len()
	if count == 0 {
		return 0
	}
	sink.buffer.Clear()
	sink.metrics.OnDropped(count)
	sink.logger.Warnf("dropped %d pending records", count)
	return count
}

// Pending returns the count of buffered records
func (sink *BufferedLogSink) Pending() int {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	return sink.buffer.Len()
}

// Policy returns the flush policy
func (sink *BufferedLogSink) Policy() FlushPolicy {
	return sink.policy
}

// Table returns the identity of the log table
func (sink *BufferedLogSink) Table() base.TableIdentity {
	return sink.table
}

func (sink *BufferedLogSink) checkOpen() error {
	switch sink.state {
	case stateCreated:
		return base.ErrNotOpen
	case stateClosed:
		return base.ErrUseAfterClose
	}
	return nil
}

// flushLocked maps all buffered records and inserts them as one batch. Must be called with the lock held.
//
// The buffer is cleared only if the whole batch has been written
func (sink *BufferedLogSink) flushLocked(ctx context.Context, trigger string) error {
	count := sink.buffer.Len()
	if count == 0 {
		return nil
	}

	records := sink.buffer.Snapshot()
	rows := make([]base.Row, len(records))
	for i, record := range records {
		row, err := MapRecord(record)
		if err != nil {
			sink.metrics.OnFlushFailed(errorKindMapping)
			sink.logger.Warnf("failed to map record #%d of %d from '%s' (%s flush): %s",
				i, count, record.LoggerName, trigger, err.Error())
			return &base.MappingError{Index: i, LoggerName: record.LoggerName, Cause: err}
		}
		rows[i] = row
	}

	if err := sink.backend.InsertBatch(ctx, sink.table, sink.schema, rows); err != nil {
		sink.metrics.OnFlushFailed(errorKindWrite)
		sink.logger.Warnf("failed to write %d records (%s flush): %s", count, trigger, err.Error())
		return &base.WriteError{Table: sink.table, BatchSize: count, Cause: err}
	}

	sink.buffer.Clear()
	sink.metrics.OnFlushed(trigger, count)
	sink.logger.Debugf("flushed %d records (%s)", count, trigger)
	return nil
}
