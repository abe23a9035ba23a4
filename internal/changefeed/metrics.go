package changefeed

import "github.com/prometheus/client_golang/prometheus"

var (
	feedConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "helium_admin_feed_connections",
			Help: "Current number of active feed websocket connections.",
		},
	)
	feedTables = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "helium_admin_feed_tables",
			Help: "Current number of open feed tables.",
		},
	)
	feedEventsDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "helium_admin_feed_events_delivered_total",
			Help: "Total feed events delivered to websocket clients.",
		},
	)
	feedEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helium_admin_feed_events_published_total",
			Help: "Total row change events published to the feed.",
		},
		[]string{"table"},
	)
)

func init() {
	prometheus.MustRegister(feedConnections, feedTables, feedEventsDelivered, feedEventsPublished)
}

func incConnections() {
	feedConnections.Inc()
}

func decConnections() {
	feedConnections.Dec()
}

func setTables(count int) {
	feedTables.Set(float64(count))
}

func addDelivered(count int) {
	feedEventsDelivered.Add(float64(count))
}

func incPublished(table string) {
	feedEventsPublished.WithLabelValues(table).Inc()
}
