package tools

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for tool calls.
type Metrics struct {
	CallsTotal  *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	InputBytes  *prometheus.HistogramVec
	OutputBytes *prometheus.HistogramVec
}

// NewMetrics registers and returns tool metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mikey_tool_calls_total",
			Help: "Total tool executions by tool name and status.",
		}, []string{"tool", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mikey_tool_duration_seconds",
			Help:    "Duration of tool executions in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us .. ~1.6s
		}, []string{"tool"}),
		InputBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mikey_tool_input_bytes",
			Help:    "Size of tool input in bytes.",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8), // 16B .. ~256KB
		}, []string{"tool"}),
		OutputBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mikey_tool_output_bytes",
			Help:    "Size of tool output in bytes.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8), // 64B .. ~1MB
		}, []string{"tool"}),
	}

	reg.MustRegister(m.CallsTotal, m.Duration, m.InputBytes, m.OutputBytes)
	return m
}

// Hooks returns registry Hooks that record into m.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnCall: func(name string, duration float64, inputBytes, outputBytes int, isError bool) {
			status := "success"
			if isError {
				status = "error"
			}
			m.CallsTotal.WithLabelValues(name, status).Inc()
			m.Duration.WithLabelValues(name).Observe(duration)
			m.InputBytes.WithLabelValues(name).Observe(float64(inputBytes))
			m.OutputBytes.WithLabelValues(name).Observe(float64(outputBytes))
		},
	}
}
