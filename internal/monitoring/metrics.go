package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Decision metrics
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_decisions_total",
			Help: "Total number of gate decisions",
		},
		[]string{"symbol", "outcome"},
	)

	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_rejections_total",
			Help: "Total number of gate rejections by reject code",
		},
		[]string{"code"},
	)

	// Sizing metrics
	positionSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "risk_engine_position_size",
			Help:    "Distribution of computed position sizes in base currency",
			Buckets: prometheus.ExponentialBuckets(0.0001, 10, 8),
		},
		[]string{"symbol"},
	)

	// Portfolio metrics
	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_open_positions",
			Help: "Current number of open positions",
		},
	)

	aggregateExposure = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_aggregate_exposure",
			Help: "Total entry notional across open positions",
		},
	)

	accountBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_account_balance",
			Help: "Tracked account balance",
		},
	)

	// Trailing-stop metrics
	trailingUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_trailing_updates_total",
			Help: "Total number of trailing-stop ratchets and triggers",
		},
		[]string{"symbol", "kind"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_errors_total",
			Help: "Total number of errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(decisionsTotal)
	prometheus.MustRegister(rejectionsTotal)
	prometheus.MustRegister(positionSize)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(aggregateExposure)
	prometheus.MustRegister(accountBalance)
	prometheus.MustRegister(trailingUpdatesTotal)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct{}

// NewMetricsHandler creates a metrics handler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordDecision records a gate decision for a symbol.
func RecordDecision(symbol string, approved bool) {
	outcome := "approved"
	if !approved {
		outcome = "rejected"
	}
	decisionsTotal.WithLabelValues(symbol, outcome).Inc()
}

// RecordRejection records the reject code of a refused trade.
func RecordRejection(code string) {
	rejectionsTotal.WithLabelValues(code).Inc()
}

// RecordPositionSize records a computed position size.
func RecordPositionSize(symbol string, size float64) {
	positionSize.WithLabelValues(symbol).Observe(size)
}

// UpdatePortfolio updates the portfolio-level gauges.
func UpdatePortfolio(open int, exposure, balance float64) {
	openPositions.Set(float64(open))
	aggregateExposure.Set(exposure)
	accountBalance.Set(balance)
}

// RecordTrailingUpdate records a trailing-stop ratchet ("ratchet") or a
// trigger ("trigger").
func RecordTrailingUpdate(symbol, kind string) {
	trailingUpdatesTotal.WithLabelValues(symbol, kind).Inc()
}

// RecordError records an error by category.
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
