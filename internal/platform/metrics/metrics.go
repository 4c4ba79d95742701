package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	UsersCreated          prometheus.Counter
	ApplicationsSubmitted *prometheus.CounterVec
	CardsIssued           prometheus.Counter
	StaleAppsDeleted      prometheus.Counter
	RequestDuration       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "passbuy_users_created_total",
			Help: "Total number of users created.",
		}),
		ApplicationsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "passbuy_applications_submitted_total",
			Help: "Total card applications submitted, by card class.",
		}, []string{"card_class"}),
		CardsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "passbuy_cards_issued_total",
			Help: "Total cards issued by fulfillment.",
		}),
		StaleAppsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "passbuy_stale_applications_deleted_total",
			Help: "Total pending applications removed by reconciliation.",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "passbuy_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

// Latency records request duration per method and status code.
func (m *Metrics) Latency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.RequestDuration.
			WithLabelValues(r.Method, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
