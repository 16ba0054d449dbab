package middleware

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	consoleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transitdesk",
		Subsystem: "console",
		Name:      "requests_total",
		Help:      "Total number of console API requests broken down by route and result.",
	}, []string{"route", "result"})

	consoleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "transitdesk",
		Subsystem: "console",
		Name:      "latency_seconds",
		Help:      "Latency distribution for console API requests.",
		Buckets: []float64{
			0.001, 0.005, 0.01, 0.05,
			0.1, 0.5, 1, 5, 30,
		},
	}, []string{"route", "result"})
)

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Instrument counts requests by their mux pattern and logs each one.
func Instrument(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			result := "2xx"
			switch {
			case rec.status >= 500:
				result = "5xx"
			case rec.status >= 400:
				result = "4xx"
			}
			took := time.Since(start)
			consoleRequests.WithLabelValues(route, result).Inc()
			consoleLatency.WithLabelValues(route, result).Observe(took.Seconds())

			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("took", took))
		})
	}
}
