// Package cmd provides the operator commands: table setup and self-benchmark
package cmd

import (
	"github.com/relex/gotils/config"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/sqldb-logging/defs"
)

// metricFactory is shared by all commands and exposed together with the default registry by --metrics_addr
var metricFactory = promreg.NewMetricFactory(defs.MetricPrefix, nil, nil)

func init() {
	config.AddParentCmdWithArgs("", "sqldb-logging writes application logs into database tables in batches", &rootCmd, rootCmd.preRun, rootCmd.postRun)
	config.AddCmdWithArgs("setup ...", "Create the configured log table if it doesn't exist", &setupCmd, setupCmd.run)
	config.AddCmdWithArgs("bench ...", "Send synthetic records through a sink as configured and report throughput", &benchCmd, benchCmd.run)
}

// Execute parses the command line and runs the specified command
//
// The function finishes the program and does not return
func Execute(version string) {
	config.AddVersionCommand(version)
	config.Execute()
}
