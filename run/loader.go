package run

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/sqldb-logging/base"
	"github.com/relex/sqldb-logging/defs"
	"github.com/relex/sqldb-logging/sink"
)

// Loader loads configuration from file and creates backends and sinks from it
//
// Loader should take care of everything derived from the config file, but not open anything automatically
type Loader struct {
	filepath string // config file path, empty if not loaded from file

	*Config
	MetricCreator promreg.MetricCreator
	metrics       loaderMetrics
}

// NewLoaderFromConfigFile loads and verifies the config file
func NewLoaderFromConfigFile(filepath string, metricCreator promreg.MetricCreator) (*Loader, error) {
	config, err := LoadConfigFile(filepath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config '%s'", filepath)
	}
	loader := NewLoader(config, metricCreator)
	loader.filepath = filepath
	return loader, nil
}

// NewLoader creates a Loader from verified configuration
//
// metricCreator may be nil, in which case metrics are kept in a private factory
func NewLoader(config *Config, metricCreator promreg.MetricCreator) *Loader {
	if metricCreator == nil {
		metricCreator = promreg.NewMetricFactory(defs.MetricPrefix, nil, nil)
	}
	return &Loader{
		Config:        config,
		MetricCreator: metricCreator,
		metrics:       newLoaderMetrics(metricCreator),
	}
}

// OpenBackend creates a connected backend as configured. The caller owns it.
func (loader *Loader) OpenBackend(parentLogger logger.Logger) (base.StorageBackend, error) {
	backend, err := loader.Backend.Value.NewBackend(parentLogger)
	if err != nil {
		return nil, errors.Wrapf(err, "backend at %s", loader.Backend.Location)
	}
	return backend, nil
}

// OpenSink creates a backend and an open sink on it
func (loader *Loader) OpenSink(ctx context.Context, parentLogger logger.Logger) (*sink.BufferedLogSink, error) {
	s, err := OpenSinkFromConfig(ctx, parentLogger, loader.Config, loader.MetricCreator)
	if err != nil {
		loader.metrics.sinkOpenFailures.Inc()
		return nil, err
	}
	loader.metrics.sinkOpens.Inc()
	return s, nil
}

// EnsureTable creates the configured table if it doesn't exist, without keeping the connection
func (loader *Loader) EnsureTable(parentLogger logger.Logger) error {
	backend, err := loader.OpenBackend(parentLogger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), defs.BackendSchemaTimeout)
	defer cancel()
	ensureErr := backend.EnsureSchema(ctx, loader.TableIdentity(), base.LogTableSchema())
	if ensureErr != nil {
		ensureErr = &base.SchemaError{Table: loader.TableIdentity(), Cause: ensureErr}
	}
	return errors.CombineErrors(ensureErr, backend.Close())
}

// OpenSinkFromConfig creates a backend and an open sink from verified configuration
//
// metricCreator may be nil, in which case sink metrics are kept in a private factory
func OpenSinkFromConfig(ctx context.Context, parentLogger logger.Logger, config *Config, metricCreator promreg.MetricCreator) (*sink.BufferedLogSink, error) {
	policy, err := config.FlushPolicy()
	if err != nil {
		return nil, err
	}
	backend, err := config.Backend.Value.NewBackend(parentLogger)
	if err != nil {
		return nil, errors.Wrapf(err, "backend at %s", config.Backend.Location)
	}
	return sink.OpenSink(ctx, parentLogger, backend, config.TableIdentity(), policy, metricCreator)
}
