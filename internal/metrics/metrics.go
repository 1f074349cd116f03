package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmtruffa/xirr"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	solvesTotal         *prometheus.CounterVec
	solveIterations     *prometheus.HistogramVec
	solveDuration       prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		solvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xirr_solves_total",
				Help: "XIRR solves by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		solveIterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xirr_solve_iterations",
				Help:    "Iterations used by successful solves",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
			},
			[]string{"method"},
		),
		solveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "xirr_solve_duration_seconds",
				Help:    "Wall time of a single solve",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
		),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.solvesTotal,
		m.solveIterations,
		m.solveDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveSolve records one call to xirr.Solve.
func (m *Metrics) ObserveSolve(res xirr.Result, err error, elapsed time.Duration) {
	m.solveDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.solvesTotal.WithLabelValues("none", outcome(err)).Inc()
		return
	}
	m.solvesTotal.WithLabelValues(string(res.Method), "converged").Inc()
	m.solveIterations.WithLabelValues(string(res.Method)).Observe(float64(res.Iterations))
}

func outcome(err error) string {
	switch {
	case errors.Is(err, xirr.ErrNoBracket), errors.Is(err, xirr.ErrNotConverged):
		return "unsolved"
	case errors.Is(err, xirr.ErrNoSolution):
		return "rejected"
	default:
		return "error"
	}
}

// Middleware counts requests and their latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
