package cmd

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/defs"
	"github.com/relex/sqldb-logging/util"
)

type rootCommandState struct {
	CPUProfile  string `name:"cpuprofile" help:"Write CPU profile to file."`
	MemProfile  string `name:"memprofile" help:"Write memory profile to file."`
	Trace       string `help:"Write trace to file."`
	MetricsAddr string `help:"The listener address to expose Prometheus metrics and debug information, e.g. :9335"`
	TestMode    bool   `help:"Use test mode config: short timeouts"`

	cpuProfileFile *os.File
	memProfileFile *os.File
	traceFile      *os.File
	metricsServer  *http.Server
}

var rootCmd rootCommandState

func commandLogger() logger.Logger {
	return logger.WithField(defs.LabelComponent, "Command")
}

func (cmd *rootCommandState) preRun() {
	if cmd.TestMode {
		defs.EnableTestMode()
	}

	if cmd.CPUProfile != "" {
		f, err := os.Create(cmd.CPUProfile)
		if err != nil {
			logger.Fatalf("failed to create CPU profile %s: %s", cmd.CPUProfile, err.Error())
		}

		logger.Infof("start CPU profiling %s", cmd.CPUProfile)
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatalf("failed to start CPU profiling: %s", err.Error())
		}

		cmd.cpuProfileFile = f
	}

	if cmd.MemProfile != "" {
		f, err := os.Create(cmd.MemProfile)
		if err != nil {
			logger.Fatalf("failed to create memory profile %s: %s", cmd.MemProfile, err.Error())
		}

		logger.Infof("start memory profiling %s", cmd.MemProfile)

		cmd.memProfileFile = f
	}

	if cmd.Trace != "" {
		f, err := os.Create(cmd.Trace)
		if err != nil {
			logger.Fatalf("failed to create trace %s: %s", cmd.Trace, err.Error())
		}

		logger.Infof("start tracing %s", cmd.Trace)
		if err := trace.Start(f); err != nil {
			logger.Fatalf("failed to start tracing: %s", err.Error())
		}

		cmd.traceFile = f
	}

	if cmd.MetricsAddr != "" {
		cmd.metricsServer = util.LaunchMetricsListener(commandLogger(), cmd.MetricsAddr, metricFactory)
	}
}

func (cmd *rootCommandState) postRun() {
	if cmd.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		cmd.cpuProfileFile.Close()
		cmd.cpuProfileFile = nil
	}

	if cmd.memProfileFile != nil {
		runtime.GC()
		if err := pprof.WriteHeapProfile(cmd.memProfileFile); err != nil {
			logger.Errorf("failed to write memory profile: %s", err.Error())
		}
		cmd.memProfileFile.Close()
		cmd.memProfileFile = nil
	}

	if cmd.traceFile != nil {
		trace.Stop()
		cmd.traceFile.Close()
		cmd.traceFile = nil
	}

	if cmd.metricsServer != nil {
		if err := cmd.metricsServer.Shutdown(context.Background()); err != nil {
			logger.Errorf("error shutting down metrics listener: %s", err.Error())
		}
		cmd.metricsServer = nil
	}
}
