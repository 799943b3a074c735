// Package test provides self-benchmarks of sinks running against configured backends
package test

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/defs"
	"github.com/relex/sqldb-logging/run"
)

type benchmarkMetric struct {
	fmt string
	val float64
}

var benchmarkLevels = []base.LogLevel{base.DEBUG, base.INFO, base.INFO, base.INFO, base.WARNING, base.ERROR}

// BenchmarkResult summarizes a benchmark run
type BenchmarkResult struct {
	NumRecords  int
	NumFlushed  int
	NumBatches  int
	NumFailures int
	Cost        CostReport
}

// RunBenchmarkSink sends synthetic records through a sink opened from the config file and reports throughput
//
// Records are emitted with the config's flush policy; a final flush happens at close.
//
// metricFactory may be nil, in which case a private one is created
func RunBenchmarkSink(parentLogger logger.Logger, configFile string, count int, metricFactory *promreg.MetricFactory) (BenchmarkResult, error) {
	blogger := parentLogger.WithField(defs.LabelComponent, "Benchmark")
	if metricFactory == nil {
		metricFactory = promreg.NewMetricFactory(defs.MetricPrefix, nil, nil)
	}
	loader, err := run.NewLoaderFromConfigFile(configFile, metricFactory)
	if err != nil {
		return BenchmarkResult{}, err
	}
	s, err := loader.OpenSink(context.Background(), parentLogger)
	if err != nil {
		return BenchmarkResult{}, err
	}

	frame := runtime.Frame{File: "/benchmark/generator.go", Line: 1, Function: "benchmark.generate"}
	result := BenchmarkResult{NumRecords: count}
	costTracker := StartCostTracking()
	lastReport := time.Now()
	for i := 0; i < count; i++ {
		level := benchmarkLevels[i%len(benchmarkLevels)]
		record := base.NewLogRecordAt(time.Now(), level, "benchmark", frame, "record %d of %d at %s", i, count, level)
		if err := s.Handle(context.Background(), record); err != nil {
			result.NumFailures++
			if base.IsMappingError(err) {
				s.DropPending()
			}
		}
		if time.Since(lastReport) >= defs.BenchmarkReportInterval {
			blogger.Infof("sent %d/%d records, pending %d", i+1, count, s.Pending())
			lastReport = time.Now()
		}
	}
	if err := s.Close(); err != nil {
		result.NumFailures++
		blogger.Errorf("failed to close: %s", err.Error())
	}
	result.Cost = costTracker.Report()

	result.NumFlushed = int(promext.SumMetricValues(metricFactory.LookupMetricFamily("flushed_records_total")))
	result.NumBatches = int(promext.SumMetricValues(metricFactory.LookupMetricFamily("flushes_total")))
	if result.NumFlushed != count {
		return result, errors.Newf("numbers of flushed records don't match: %d, should be %d", result.NumFlushed, count)
	}
	return result, nil
}

// PrintBenchmarkResult prints the result as one tab-separated line
func PrintBenchmarkResult(title string, result BenchmarkResult) {
	report := result.Cost
	metrics := []benchmarkMetric{
		{fmt: "%.0f log/sec", val: float64(result.NumRecords) / report.RealTime.Seconds()},
		{fmt: "%.1f log/batch", val: float64(result.NumFlushed) / float64(max(result.NumBatches, 1))},
		{fmt: "%0.2f alloc/log", val: float64(report.NumHeapAllocs) / float64(max(result.NumRecords, 1))},
		{fmt: "%0.2f%% user", val: 100.0 * report.UserTime.Seconds() / report.RealTime.Seconds()},
		{fmt: "%0.2f%% sys", val: 100.0 * report.SystemTime.Seconds() / report.RealTime.Seconds()},
		{fmt: "%0.2f%% gc", val: 100.0 * report.GCCPUFraction},
		{fmt: "%.02f sec", val: report.RealTime.Seconds()},
		{fmt: "%.0f failures", val: float64(result.NumFailures)},
	}
	printBenchmarkMetrics(title, metrics)
}

func printBenchmarkMetrics(title string, metrics []benchmarkMetric) {
	sb := make([]byte, 0, 200)
	sb = append(sb, fmt.Sprintf("%s:", title)...)
	for _, m := range metrics {
		sb = append(sb, fmt.Sprintf("\t"+m.fmt, m.val)...)
	}
	fmt.Println(string(sb))
}
