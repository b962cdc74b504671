package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
)

const namespace = "billing_flow"

// Metrics holds the Prometheus collectors of the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Flow metrics
	FlowsOpen          prometheus.Gauge
	FlowsOpenedTotal   prometheus.Counter
	StateTransitions   *prometheus.CounterVec
	QuotesTotal        *prometheus.CounterVec
	QuoteDuration      prometheus.Histogram
	StaleQuotesDropped prometheus.Counter
	CommitsTotal       *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all collectors on registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		FlowsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open",
			Help:      "Number of plan-change flows currently open",
		}),
		FlowsOpenedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "opened_total",
			Help:      "Total number of plan-change flows opened",
		}),
		StateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_transitions_total",
				Help:      "Submission state transitions by target state",
			},
			[]string{"state"},
		),
		QuotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quotes_total",
				Help:      "Proration quotes applied to a flow by outcome",
			},
			[]string{"outcome"},
		),
		QuoteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_seconds",
			Help:      "Proration quote round trip in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		StaleQuotesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_quotes_dropped_total",
			Help:      "Quote responses discarded because a newer selection was made",
		}),
		CommitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commits_total",
				Help:      "Submission attempts by capture strategy and outcome",
			},
			[]string{"capture", "outcome"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.FlowsOpen,
		m.FlowsOpenedTotal,
		m.StateTransitions,
		m.QuotesTotal,
		m.QuoteDuration,
		m.StaleQuotesDropped,
		m.CommitsTotal,
	)
	return m
}

func (m *Metrics) FlowOpened() {
	m.FlowsOpen.Inc()
	m.FlowsOpenedTotal.Inc()
}

func (m *Metrics) FlowClosed() {
	m.FlowsOpen.Dec()
}

func (m *Metrics) StateChanged(state model.SubmissionState) {
	m.StateTransitions.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) QuoteCompleted(outcome string, elapsed time.Duration) {
	m.QuotesTotal.WithLabelValues(outcome).Inc()
	m.QuoteDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) StaleQuoteDropped() {
	m.StaleQuotesDropped.Inc()
}

func (m *Metrics) CommitCompleted(capture model.CaptureKind, outcome string) {
	m.CommitsTotal.WithLabelValues(string(capture), outcome).Inc()
}

// Middleware instruments echo requests. The route pattern is used as the
// path label so flow ids do not explode cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
