// Package metrics implements the Prometheus metrics of the HTTP server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsRootNamespace is the root namespace for all the metrics emitted.
// Ex: qcert_<metric-name>
const metricsRootNamespace = "qcert"

// Store holds the server metrics and the registry they are exported from.
type Store struct {
	// RenewalCount counts successful certificate renewals
	RenewalCount prometheus.Counter

	// OperationErrorCount counts failed lifecycle operations by operation name
	OperationErrorCount *prometheus.CounterVec

	// CertExpirySeconds is the time left until the served certificate expires
	CertExpirySeconds prometheus.Gauge

	// CertSerial is the serial number of the served certificate
	CertSerial prometheus.Gauge

	// HTTPRequestTime tracks request latency by route and status code
	HTTPRequestTime *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a store with all metrics registered.
func New() *Store {
	s := &Store{
		RenewalCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsRootNamespace,
			Subsystem: "cert",
			Name:      "renewal_count",
			Help:      "represents the number of certificate renewals",
		}),
		OperationErrorCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsRootNamespace,
				Subsystem: "cert",
				Name:      "operation_error_count",
				Help:      "represents the number of failed certificate operations",
			},
			[]string{"operation"},
		),
		CertExpirySeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsRootNamespace,
			Subsystem: "cert",
			Name:      "expiry_seconds",
			Help:      "represents the number of seconds until the certificate expires",
		}),
		CertSerial: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsRootNamespace,
			Subsystem: "cert",
			Name:      "serial",
			Help:      "represents the serial number of the certificate",
		}),
		HTTPRequestTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsRootNamespace,
				Subsystem: "http",
				Name:      "request_time",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
				Help:      "Histogram to track time spent serving HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
		registry: prometheus.NewRegistry(),
	}

	s.registry.MustRegister(
		s.RenewalCount,
		s.OperationErrorCount,
		s.CertExpirySeconds,
		s.CertSerial,
		s.HTTPRequestTime,
	)
	return s
}

// ObserveCertificate updates the certificate gauges.
func (s *Store) ObserveCertificate(serial int64, notAfter, now time.Time) {
	s.CertSerial.Set(float64(serial))
	s.CertExpirySeconds.Set(notAfter.Sub(now).Seconds())
}

// Handler returns the /metrics handler.
func (s *Store) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		s.registry,
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}),
	)
}
