package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the signal pipeline. Each
// instance owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec // labels: outcome=ok|rejected
	SignalsGenerated *prometheus.CounterVec // labels: source=advisor|fallback
	SignalsDropped   prometheus.Counter
	AdvisorFailures  prometheus.Counter
	AnalysisDuration prometheus.Histogram
	WSReconnects     prometheus.Counter
	PriceLookups     *prometheus.CounterVec // labels: source=cache|live|synthetic
	BroadcastsTotal  *prometheus.CounterVec // labels: outcome=sent|failed
	MCPRequests      *prometheus.CounterVec // labels: outcome=ok|unauthorized|forbidden|limited
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_analyses_total",
			Help: "Analysis requests by outcome",
		}, []string{"outcome"}),
		SignalsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_signals_generated_total",
			Help: "Signals produced before deduplication",
		}, []string{"source"}),
		SignalsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otc_signals_deduped_total",
			Help: "Signals removed for being too close to a kept signal",
		}),
		AdvisorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otc_advisor_failures_total",
			Help: "Text generation calls that fell back to the randomized path",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "otc_analysis_duration_seconds",
			Help:    "Wall time of one analysis request",
			Buckets: prometheus.DefBuckets,
		}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otc_ws_reconnects_total",
			Help: "Market data websocket dial attempts after the first",
		}),
		PriceLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_price_lookups_total",
			Help: "Price lookups by the source that answered",
		}, []string{"source"}),
		BroadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_broadcasts_total",
			Help: "Scheduled channel deliveries by outcome",
		}, []string{"outcome"}),
		MCPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_mcp_http_requests_total",
			Help: "MCP HTTP transport requests by guard outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.AnalysesTotal,
		m.SignalsGenerated,
		m.SignalsDropped,
		m.AdvisorFailures,
		m.AnalysisDuration,
		m.WSReconnects,
		m.PriceLookups,
		m.BroadcastsTotal,
		m.MCPRequests,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
