package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	// AnalysisCount counts document analyses by algorithm and outcome
	AnalysisCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textmatch_analyses_total",
			Help: "Total number of document analyses",
		},
		[]string{"algorithm", "status"},
	)

	// AnalysisDuration measures engine time per analysis
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "textmatch_analysis_duration_seconds",
			Help:    "Matching engine duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"algorithm"},
	)

	// PlagiarismPercentage records the distribution of scores
	PlagiarismPercentage = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "textmatch_plagiarism_percentage",
			Help:    "Plagiarism percentage of completed analyses",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// JobsInFlight tracks asynchronous analyses currently running
	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "textmatch_jobs_in_flight",
			Help: "Asynchronous analyses currently executing",
		},
	)

	registerOnce sync.Once
)

// InitPrometheus registers the collectors with the default registry
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCount)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(AnalysisCount)
		prometheus.MustRegister(AnalysisDuration)
		prometheus.MustRegister(PlagiarismPercentage)
		prometheus.MustRegister(JobsInFlight)
	})
}

// MetricsHandler returns Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ObserveAnalysis records the outcome of one engine run.
// timeTakenMs is the engine's own measurement in milliseconds.
func ObserveAnalysis(algorithm string, timeTakenMs, percentage float64, err error) {
	if err != nil {
		AnalysisCount.WithLabelValues(algorithm, "failed").Inc()
		return
	}
	AnalysisCount.WithLabelValues(algorithm, "completed").Inc()
	AnalysisDuration.WithLabelValues(algorithm).Observe(timeTakenMs / 1000)
	PlagiarismPercentage.Observe(percentage)
}

// GinMiddleware records request count and duration per route
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestCount.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
