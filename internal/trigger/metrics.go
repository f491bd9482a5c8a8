package trigger

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for prompt processing.
type Metrics struct {
	PromptsTotal       *prometheus.CounterVec
	ProcessDuration    *prometheus.HistogramVec
	MatchedKeywords    prometheus.Histogram
	TriggeredProtocols prometheus.Histogram
	DedupEntries       prometheus.Gauge
}

// NewMetrics registers and returns prompt metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PromptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mikey_prompts_total",
			Help: "Total prompts processed by outcome.",
		}, []string{"outcome"}),
		ProcessDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mikey_prompt_process_duration_seconds",
			Help:    "Duration of prompt processing in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14), // 50us .. ~400ms
		}, []string{"outcome"}),
		MatchedKeywords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mikey_prompt_matched_keywords",
			Help:    "Trigger phrases matched per analyzed prompt.",
			Buckets: prometheus.LinearBuckets(0, 1, 11), // 0 .. 10
		}),
		TriggeredProtocols: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mikey_prompt_triggered_protocols",
			Help:    "Protocols recommended per analyzed prompt.",
			Buckets: prometheus.LinearBuckets(0, 1, 11), // 0 .. 10
		}),
		DedupEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mikey_dedup_cache_entries",
			Help: "Fingerprints currently held by the dedup cache.",
		}),
	}

	reg.MustRegister(
		m.PromptsTotal,
		m.ProcessDuration,
		m.MatchedKeywords,
		m.TriggeredProtocols,
		m.DedupEntries,
	)

	return m
}

// Hooks returns ServiceHooks that record into m.
func (m *Metrics) Hooks() ServiceHooks {
	return ServiceHooks{
		OnProcess: func(e *ProcessEvent) {
			m.PromptsTotal.WithLabelValues(string(e.Outcome)).Inc()
			m.ProcessDuration.WithLabelValues(string(e.Outcome)).Observe(e.Duration)
			if e.Outcome == OutcomeAnalyzed {
				m.MatchedKeywords.Observe(float64(e.Keywords))
				m.TriggeredProtocols.Observe(float64(e.Protocols))
			}
			m.DedupEntries.Set(float64(e.CacheSize))
		},
	}
}
