// Package metrics exposes Prometheus instrumentation for the scoring engine,
// the walk-forward harness and the Monte Carlo robustness suite.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	signalsScored      *prometheus.CounterVec
	signalsAccepted    *prometheus.CounterVec
	tradesSimulated    *prometheus.CounterVec
	windowsEvaluated   *prometheus.CounterVec
	monteCarloIters    *prometheus.CounterVec
	harnessDuration    prometheus.Histogram
	robustnessDuration *prometheus.HistogramVec
}

// NewRegistry creates a metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		signalsScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confluence_signals_scored_total",
				Help: "Total number of candidate signals scored",
			},
			[]string{"strategy"},
		),
		signalsAccepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confluence_signals_accepted_total",
				Help: "Total number of signals accepted above threshold",
			},
			[]string{"strategy"},
		),
		tradesSimulated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confluence_trades_simulated_total",
				Help: "Total number of trades resolved by the simulator",
			},
			[]string{"exit_reason"},
		),
		windowsEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confluence_windows_evaluated_total",
				Help: "Walk-forward validation windows evaluated",
			},
			[]string{"result"}, // passed, failed, ineligible, skipped
		),
		monteCarloIters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confluence_montecarlo_iterations_total",
				Help: "Monte Carlo iterations executed by the robustness suite",
			},
			[]string{"check"},
		),
		harnessDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "confluence_harness_duration_seconds",
				Help:    "Wall-clock duration of one full walk-forward run",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
		),
		robustnessDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "confluence_robustness_duration_seconds",
				Help:    "Wall-clock duration of one robustness check",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"check"},
		),
	}

	reg.MustRegister(r.signalsScored)
	reg.MustRegister(r.signalsAccepted)
	reg.MustRegister(r.tradesSimulated)
	reg.MustRegister(r.windowsEvaluated)
	reg.MustRegister(r.monteCarloIters)
	reg.MustRegister(r.harnessDuration)
	reg.MustRegister(r.robustnessDuration)

	return r
}

// SignalScored increments the scored-signal counter.
func (r *Registry) SignalScored(strategy string) {
	r.signalsScored.WithLabelValues(strategy).Inc()
}

// SignalAccepted increments the accepted-signal counter.
func (r *Registry) SignalAccepted(strategy string) {
	r.signalsAccepted.WithLabelValues(strategy).Inc()
}

// TradeSimulated increments the simulated-trade counter.
func (r *Registry) TradeSimulated(exitReason string) {
	r.tradesSimulated.WithLabelValues(exitReason).Inc()
}

// WindowEvaluated increments the window counter with its outcome.
func (r *Registry) WindowEvaluated(result string) {
	r.windowsEvaluated.WithLabelValues(result).Inc()
}

// MonteCarloIterations adds n iterations for a robustness check.
func (r *Registry) MonteCarloIterations(check string, n int) {
	r.monteCarloIters.WithLabelValues(check).Add(float64(n))
}

// ObserveHarnessDuration records one harness run's duration.
func (r *Registry) ObserveHarnessDuration(seconds float64) {
	r.harnessDuration.Observe(seconds)
}

// ObserveRobustnessDuration records one robustness check's duration.
func (r *Registry) ObserveRobustnessDuration(check string, seconds float64) {
	r.robustnessDuration.WithLabelValues(check).Observe(seconds)
}
