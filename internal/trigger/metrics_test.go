package trigger

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetrics_Hooks(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := m.Hooks()

	h.OnProcess(&ProcessEvent{Outcome: OutcomeAnalyzed, Duration: 0.001, Keywords: 3, Protocols: 2, CacheSize: 5})
	h.OnProcess(&ProcessEvent{Outcome: OutcomeQuick, Duration: 0.0001, CacheSize: 6})
	h.OnProcess(&ProcessEvent{Outcome: OutcomeQuick, Duration: 0.0001, CacheSize: 7})
	h.OnProcess(&ProcessEvent{Outcome: OutcomeError, Duration: 0.002, CacheSize: 7})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	counts := make(map[string]float64)
	var dedup float64
	var keywordSamples uint64
	for _, mf := range families {
		switch mf.GetName() {
		case "mikey_prompts_total":
			for _, mt := range mf.GetMetric() {
				for _, lp := range mt.GetLabel() {
					if lp.GetName() == "outcome" {
						counts[lp.GetValue()] = mt.GetCounter().GetValue()
					}
				}
			}
		case "mikey_dedup_cache_entries":
			dedup = mf.GetMetric()[0].GetGauge().GetValue()
		case "mikey_prompt_matched_keywords":
			keywordSamples = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}

	if counts["analyzed"] != 1 {
		t.Errorf("analyzed = %v, want 1", counts["analyzed"])
	}
	if counts["quick"] != 2 {
		t.Errorf("quick = %v, want 2", counts["quick"])
	}
	if counts["error"] != 1 {
		t.Errorf("error = %v, want 1", counts["error"])
	}
	if dedup != 7 {
		t.Errorf("dedup entries = %v, want 7", dedup)
	}
	if keywordSamples != 1 {
		t.Errorf("keyword samples = %d, want 1 (analyzed prompts only)", keywordSamples)
	}
}
