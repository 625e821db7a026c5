package prometheus

import (
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all the custom Prometheus metrics for the application.
type Metrics struct {
	Registry       *prometheus.Registry
	ConSessions    prometheus.Gauge
	ActiveSessions prometheus.Gauge
	Conferences    prometheus.Counter
	MergeFailures  prometheus.Counter
	Disconnects    prometheus.Counter
	DroppedRecords prometheus.Counter
}

// NewMetrics initializes a new custom Prometheus registry and returns an instance of Metrics.
func NewMetrics(ua string) *Metrics {
	// drop "/1.0"
	ua = strings.Split(ua, "/")[0]

	reg := prometheus.NewRegistry()

	// Register default Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())

	opts := collectors.ProcessCollectorOpts{
		PidFn:        func() (int, error) { return os.Getpid(), nil },
		Namespace:    ua,
		ReportErrors: true,
	}
	reg.MustRegister(collectors.NewProcessCollector(opts))

	concurrentSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ua,
		Name:      "ConcurrentSessions",
		Help:      "Shows concurrent sessions tracked by the adapter",
	})
	reg.MustRegister(concurrentSessions)

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ua,
		Name:      "ActiveSessions",
		Help:      "Shows sessions currently in the Active state",
	})
	reg.MustRegister(activeSessions)

	conferences := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ua,
		Name:      "ConferencesStarted",
		Help:      "Counts multiparty false-to-true transitions",
	})
	reg.MustRegister(conferences)

	mergeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ua,
		Name:      "ConferenceMergeFailures",
		Help:      "Counts failed conference merges reported by the radio layer",
	})
	reg.MustRegister(mergeFailures)

	disconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ua,
		Name:      "Disconnects",
		Help:      "Counts sessions reaching the terminal Disconnected state",
	})
	reg.MustRegister(disconnects)

	droppedRecords := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ua,
		Name:      "DroppedCallRecords",
		Help:      "Counts call records dropped because the writer was unavailable",
	})
	reg.MustRegister(droppedRecords)

	metrics := &Metrics{
		Registry:       reg,
		ConSessions:    concurrentSessions,
		ActiveSessions: activeSessions,
		Conferences:    conferences,
		MergeFailures:  mergeFailures,
		Disconnects:    disconnects,
		DroppedRecords: droppedRecords,
	}

	return metrics
}

// Handler returns an HTTP handler that serves the metrics on a specified endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
