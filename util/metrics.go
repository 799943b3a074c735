package util

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relex/gotils/logger"
	"github.com/relex/sqldb-logging/defs"
)

// NewMetricsRouter creates the HTTP routes for Prometheus metrics and pprof
func NewMetricsRouter(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	))
	r.HandleFunc("/debug/pprof/*", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `
<html>
	<head>
		<title>sqldb-logging metrics listener</title>
	</head>
	<body>
		<h1>Metrics listener for sqldb-logging</h1>
		<ul>
			<li><a href='/debug/pprof/'>/debug/pprof/</a></li>
			<li><a href='/metrics'>/metrics</a></li>
		</ul>
	</body>
</html>`)
	})
	return r
}

// LaunchMetricsListener starts a HTTP server for Prometheus metrics from the default registry and the given gatherer
func LaunchMetricsListener(parentLogger logger.Logger, address string, gatherer prometheus.Gatherer) *http.Server {
	mlogger := parentLogger.WithField(defs.LabelComponent, "MetricsListener")
	server := &http.Server{
		Addr:    address,
		Handler: NewMetricsRouter(prometheus.Gatherers{prometheus.DefaultGatherer, gatherer}),
	}
	go func() {
		mlogger.Infof("listening on %s for metrics...", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mlogger.Error("Prometheus listener error: ", err)
		}
	}()
	return server
}
