package config

import "testing"

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	cases := []struct {
		name string
		got  float64
		want float64
	}{
		{"Retrieval.VectorK", float64(cfg.Retrieval.VectorK), 20},
		{"Retrieval.BM25K", float64(cfg.Retrieval.BM25K), 20},
		{"Retrieval.RRFK", float64(cfg.Retrieval.RRFK), 60},
		{"Retrieval.InitialK", float64(cfg.Retrieval.InitialK), 50},
		{"Retrieval.FinalK", float64(cfg.Retrieval.FinalK), 5},
		{"Retrieval.RelevanceThreshold", cfg.Retrieval.RelevanceThreshold, 0.30},
		{"Chunking.ParentSize", float64(cfg.Chunking.ParentSize), 2000},
		{"Chunking.ParentOverlap", float64(cfg.Chunking.ParentOverlap), 200},
		{"Chunking.ChildSize", float64(cfg.Chunking.ChildSize), 400},
		{"Chunking.ChildOverlap", float64(cfg.Chunking.ChildOverlap), 50},
		{"Correction.MaxRetries", float64(cfg.Correction.MaxRetries), 2},
		{"Correction.HallucinationThreshold", cfg.Correction.HallucinationThreshold, 0.80},
		{"Correction.FastFailCutoff", cfg.Correction.FastFailCutoff, 0.30},
		{"Correction.FastSkipRetrievalScore", cfg.Correction.FastSkipRetrievalScore, 0.70},
		{"Correction.SimpleAdaptiveK", float64(cfg.Correction.SimpleAdaptiveK), 2},
		{"Intent.SemanticConfidenceThreshold", cfg.Intent.SemanticConfidenceThreshold, 0.85},
		{"Intent.LLMFallbackConfidence", cfg.Intent.LLMFallbackConfidence, 0.70},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
			}
		})
	}
}

func TestApplyDefaultsDoesNotOverrideExplicitValues(t *testing.T) {
	cfg := Config{Retrieval: RetrievalConfig{VectorK: 5, FinalK: 3}}
	applyDefaults(&cfg)

	if cfg.Retrieval.VectorK != 5 {
		t.Errorf("VectorK = %d, want explicit 5 preserved", cfg.Retrieval.VectorK)
	}
	if cfg.Retrieval.FinalK != 3 {
		t.Errorf("FinalK = %d, want explicit 3 preserved", cfg.Retrieval.FinalK)
	}
	// fields left at zero still pick up defaults alongside the explicit ones
	if cfg.Retrieval.RRFK != 60 {
		t.Errorf("RRFK = %d, want default 60 applied to the untouched field", cfg.Retrieval.RRFK)
	}
}
