package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adserve_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adserve_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// number of serve requests that found no eligible campaign
	NoAdCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adserve_no_ad_total",
			Help: "Total serve requests with no eligible campaign",
		},
	)

	// number of ads served, labelled by outcome; a re-serve to a client who
	// already has an impression is counted although no event is written
	ImpressionCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adserve_impressions_total",
			Help: "Total ads served",
		},
		[]string{"status"},
	)

	// number of click recording outcomes, labelled click, click_refused or
	// click_error
	EventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adserve_events_total",
			Help: "Total click recording outcomes",
		},
		[]string{"type"},
	)

	// spend tracked per campaign, refreshed on stats reads
	SpendTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adserve_spend_total",
			Help: "Total spend per campaign at last computation",
		},
		[]string{"campaign"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		NoAdCount,
		ImpressionCount,
		EventCount,
		SpendTotal,
	)
}
