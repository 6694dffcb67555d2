package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records submission-pipeline activity.
type EngineMetrics struct {
	executions *prometheus.CounterVec
	failures   *prometheus.CounterVec
	states     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *EngineMetrics
)

// Engine returns the lazily-initialised pipeline metrics registry.
func Engine() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			executions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "movelend",
				Subsystem: "engine",
				Name:      "executions_total",
				Help:      "Pipeline executions segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "movelend",
				Subsystem: "engine",
				Name:      "failures_total",
				Help:      "Pipeline failures segmented by error category.",
			}, []string{"category"}),
			states: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "movelend",
				Subsystem: "engine",
				Name:      "state_transitions_total",
				Help:      "Pipeline state transitions segmented by state name.",
			}, []string{"state"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "movelend",
				Subsystem: "engine",
				Name:      "execution_duration_seconds",
				Help:      "End-to-end pipeline latency segmented by operation.",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			}, []string{"operation"}),
		}
		prometheus.MustRegister(
			engineRegistry.executions,
			engineRegistry.failures,
			engineRegistry.states,
			engineRegistry.duration,
		)
	})
	return engineRegistry
}

// ObserveExecution records one completed or failed pipeline run.
func (m *EngineMetrics) ObserveExecution(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveFailure records a classified failure.
func (m *EngineMetrics) ObserveFailure(category string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(category).Inc()
}

// ObserveState records one state transition.
func (m *EngineMetrics) ObserveState(state string) {
	if m == nil {
		return
	}
	m.states.WithLabelValues(state).Inc()
}
