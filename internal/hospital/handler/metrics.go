package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/HospitalLedger/internal/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	hlRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hospital_ledger_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	hlRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hospital_ledger_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	hlVisitsAddedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hospital_ledger_visits_added_total",
		Help: "Total visit records appended, by whether the patient was new.",
	}, []string{"status"})

	hlLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hospital_ledger_lookups_total",
		Help: "Total patient lookups by result.",
	}, []string{"result"})

	hlPatients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hospital_ledger_patients",
		Help: "Distinct patient keys in the ledger at last overview.",
	})

	hlVisits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hospital_ledger_visits",
		Help: "Visit records in the ledger at last overview.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		hlRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		hlRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordVisitAdded records an appended visit.
func RecordVisitAdded(status ledger.AddStatus) {
	hlVisitsAddedTotal.WithLabelValues(string(status)).Inc()
}

// RecordLookup records a patient lookup result.
func RecordLookup(found bool) {
	if found {
		hlLookupsTotal.WithLabelValues("found").Inc()
	} else {
		hlLookupsTotal.WithLabelValues("not_found").Inc()
	}
}

// SetLedgerGauges sets the patient and visit gauges.
func SetLedgerGauges(patients, visits int) {
	hlPatients.Set(float64(patients))
	hlVisits.Set(float64(visits))
}
