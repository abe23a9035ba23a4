package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry         *prometheus.Registry
	deliveriesTotal  *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
	batchesCompleted prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_admin_email_deliveries_total",
			Help: "Total email delivery attempts by template and outcome.",
		}, []string{"template", "status"}),
		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helium_admin_email_delivery_duration_seconds",
			Help:    "Time spent composing and sending one email.",
			Buckets: prometheus.DefBuckets,
		}, []string{"template", "status"}),
		batchesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helium_admin_email_batches_completed_total",
			Help: "Total email batches that reached a terminal state.",
		}),
	}

	registry.MustRegister(
		m.deliveriesTotal,
		m.deliveryDuration,
		m.batchesCompleted,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
