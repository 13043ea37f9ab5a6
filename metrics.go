package luahook

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "luahook"

// Metrics counts hook activity in a per-hook registry.
type Metrics struct {
	InterceptedCalls *prometheus.CounterVec
	Injections       *prometheus.CounterVec
	BootstrapSteps   *prometheus.CounterVec
	ReadinessPolls   *prometheus.CounterVec
}

func newMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		InterceptedCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "intercepted_calls_total",
			Help:      "Intercepted lua_dofile calls by outcome",
		}, []string{"outcome"}),

		Injections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "injections_total",
			Help:      "Auxiliary script injection attempts by outcome",
		}, []string{"outcome"}),

		BootstrapSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bootstrap_steps_total",
			Help:      "One-shot bootstrap steps by step and outcome",
		}, []string{"step", "outcome"}),

		ReadinessPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "readiness_polls_total",
			Help:      "Readiness evaluations by result",
		}, []string{"ready"}),
	}

	registry.MustRegister(
		m.InterceptedCalls,
		m.Injections,
		m.BootstrapSteps,
		m.ReadinessPolls,
	)
	return m
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// writeMetricsSnapshot stores the registry in the Prometheus textfile format.
func (h *Hook) writeMetricsSnapshot() {
	if h.cfg.MetricsPath == "" {
		return
	}
	if err := prometheus.WriteToTextfile(h.cfg.MetricsPath, h.registry); err != nil {
		h.logger.Warn("metrics snapshot failed", "path", h.cfg.MetricsPath, "error", err)
	}
}
