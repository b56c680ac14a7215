package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fetches_total",
			Help: "Retailer operations by outcome",
		},
		[]string{"store", "operation", "outcome"},
	)

	DroppedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_dropped_records_total",
			Help: "Upstream records that could not be mapped and were skipped",
		},
		[]string{"store", "operation"},
	)
)

// Register adds the scraper collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(Fetches, DroppedRecords)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
