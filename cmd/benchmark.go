package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/sqldb-logging/defs"
	"github.com/relex/sqldb-logging/test"
)

type benchmarkCommandState struct {
	Config string `help:"Configuration file path"`
	Count  int    `help:"Numbers of records to send"`
}

var benchCmd = benchmarkCommandState{
	Config: "config.yml",
	Count:  100000,
}

func (cmd *benchmarkCommandState) run(_ []string) {
	if err := cmd.bench(); err != nil {
		logger.Fatalf("benchmark failed: %+v", err)
	}
}

func (cmd *benchmarkCommandState) bench() error {
	if cmd.Count <= 0 {
		return errors.Newf("--count must be positive: %d", cmd.Count)
	}
	result, err := test.RunBenchmarkSink(commandLogger(), cmd.Config, cmd.Count, metricFactory)
	if err != nil {
		return err
	}
	test.PrintBenchmarkResult("BenchmarkSink", result)
	commandLogger().Info("metrics:\n" + promext.DumpMetrics(defs.MetricPrefix, true, true, metricFactory))
	return nil
}
