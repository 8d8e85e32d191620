package intent

import (
	"testing"

	"github.com/wekai-labs/ragqa/internal/types"
)

func TestClassifyRulesGarbageBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"single char", "a"},
		{"punctuation only", "!!!"},
		{"no letters", "12345"},
		{"one letter among symbols", "a??????"},
		{"repeated single rune", "aaaaaaaa"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := classifyRules(tc.query)
			if !ok {
				t.Fatalf("classifyRules(%q) did not resolve at layer 0", tc.query)
			}
			if got.Intent != types.IntentGarbage {
				t.Errorf("classifyRules(%q).Intent = %v, want garbage", tc.query, got.Intent)
			}
		})
	}
}

func TestClassifyRulesPassesThroughPlausibleQueries(t *testing.T) {
	cases := []string{
		"hi",
		"what is the CAP theorem?",
		"tell me more about that",
		"thanks a lot",
	}
	for _, query := range cases {
		if _, ok := classifyRules(query); ok {
			t.Errorf("classifyRules(%q) resolved at layer 0, expected pass-through", query)
		}
	}
}

func TestClassifyRulesMostlyStopwordsIsGarbage(t *testing.T) {
	// short, stopword-dominated input should be rejected before any
	// embedding or model call.
	got, ok := classifyRules("the a an of")
	if !ok {
		t.Fatal("expected layer 0 to resolve a mostly-stopword query")
	}
	if got.Intent != types.IntentGarbage {
		t.Errorf("Intent = %v, want garbage", got.Intent)
	}
}
