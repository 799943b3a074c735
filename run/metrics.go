package run

import (
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

type loaderMetrics struct {
	sinkOpens        promext.RWCounter
	sinkOpenFailures promext.RWCounter
}

func newLoaderMetrics(metricCreator promreg.MetricCreator) loaderMetrics {
	vec := metricCreator.AddOrGetCounterVec("sink_opens_total", "Numbers of sinks opened from config", []string{"status"}, nil)
	return loaderMetrics{
		sinkOpens:        vec.WithLabelValues("success"),
		sinkOpenFailures: vec.WithLabelValues("failure"),
	}
}
