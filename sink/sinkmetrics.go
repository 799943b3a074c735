package sink

import (
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/sqldb-logging/defs"
)

// Error kinds used as label values of flush_errors_total
const (
	errorKindMapping = "mapping"
	errorKindWrite   = "write"
)

// sinkMetrics defines metrics of a BufferedLogSink
type sinkMetrics struct {
	handledRecordsTotal promext.RWCounter
	flushesTotal        *promext.RWCounterVec // by trigger
	flushedRecordsTotal promext.RWCounter
	flushErrorsTotal    *promext.RWCounterVec // by kind
	bufferedRecords     promext.RWGauge       // Current numbers of records pending in buffer
	droppedRecordsTotal promext.RWCounter
}

func newSinkMetrics(metricCreator promreg.MetricCreator) sinkMetrics {
	return sinkMetrics{
		handledRecordsTotal: metricCreator.AddOrGetCounter("handled_records_total", "Numbers of records accepted by sink", nil, nil),
		flushesTotal:        metricCreator.AddOrGetCounterVec("flushes_total", "Numbers of successful flushes", []string{defs.LabelTrigger}, nil),
		flushedRecordsTotal: metricCreator.AddOrGetCounter("flushed_records_total", "Numbers of records written to backend", nil, nil),
		flushErrorsTotal:    metricCreator.AddOrGetCounterVec("flush_errors_total", "Numbers of failed flushes", []string{defs.LabelKind}, nil),
		bufferedRecords:     metricCreator.AddOrGetGauge("buffered_records", "Numbers of records waiting in buffer", nil, nil),
		droppedRecordsTotal: metricCreator.AddOrGetCounter("dropped_records_total", "Numbers of pending records dropped by caller or at close", nil, nil),
	}
}

func (metrics *sinkMetrics) OnHandled() {
	metrics.handledRecordsTotal.Inc()
	metrics.bufferedRecords.Inc()
}

func (metrics *sinkMetrics) OnFlushed(trigger string, count int) {
	metrics.flushesTotal.WithLabelValues(trigger).Inc()
	metrics.flushedRecordsTotal.Add(uint64(count))
	metrics.bufferedRecords.Sub(int64(count))
}

func (metrics *sinkMetrics) OnFlushFailed(kind string) {
	metrics.flushErrorsTotal.WithLabelValues(kind).Inc()
}

func (metrics *sinkMetrics) OnDropped(count int) {
	metrics.droppedRecordsTotal.Add(uint64(count))
	metrics.bufferedRecords.Sub(int64(count))
}
