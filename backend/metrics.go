package backend

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transitdesk",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Total number of transport backend requests broken down by resource and result.",
	}, []string{"resource", "result"})

	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "transitdesk",
		Subsystem: "backend",
		Name:      "latency_seconds",
		Help:      "Latency distribution for transport backend requests.",
		Buckets: []float64{
			0.005, 0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10, 30,
		},
	}, []string{"resource", "result"})
)

func observe(path, result string, start time.Time) {
	resource := resourceLabel(path)
	backendRequests.WithLabelValues(resource, result).Inc()
	backendLatency.WithLabelValues(resource, result).Observe(time.Since(start).Seconds())
}

// resourceLabel keeps only the first path segment so ids never become labels.
func resourceLabel(path string) string {
	seg := strings.Trim(path, "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	if seg == "" {
		return "root"
	}
	return seg
}

func resultLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
