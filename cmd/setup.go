package cmd

import (
	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/run"
)

type setupCommandState struct {
	Config string `help:"Configuration file path"`
}

var setupCmd = setupCommandState{
	Config: "config.yml",
}

func (cmd *setupCommandState) run(_ []string) {
	if err := cmd.setup(); err != nil {
		logger.Fatalf("failed to set up table: %+v", err)
	}
}

func (cmd *setupCommandState) setup() error {
	loader, err := run.NewLoaderFromConfigFile(cmd.Config, metricFactory)
	if err != nil {
		return err
	}
	if err := loader.EnsureTable(commandLogger()); err != nil {
		return err
	}
	commandLogger().Infof("table %s is ready in %s", loader.TableIdentity(), loader.Backend)
	return nil
}
