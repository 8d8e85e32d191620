package intent

import (
	"strings"
	"unicode"

	"github.com/wekai-labs/ragqa/internal/types"
)

// classifyRules is layer 0 of the cascade: cheap deterministic checks
// that catch garbage input before any embedding or model call. It
// returns ok=false to pass the query through to the next layer.
func classifyRules(query string) (types.Classification, bool) {
	trimmed := strings.TrimSpace(query)

	if len(trimmed) <= 1 {
		return garbage(), true
	}

	letters := countAlpha(trimmed)
	if letters == 0 {
		// No letters at all (e.g. "!!!") is unambiguous garbage, unlike
		// the heuristic cases below — full confidence rather than the
		// 0.95 floor.
		return types.Classification{Intent: types.IntentGarbage, Confidence: 1.0}, true
	}
	if letters < 2 && len(trimmed) > 2 {
		return garbage(), true
	}

	tokens := strings.Fields(strings.ToLower(trimmed))
	if len(tokens) <= 5 && len(tokens) > 0 {
		stop := 0
		for _, t := range tokens {
			if _, ok := stopwords[t]; ok {
				stop++
			}
		}
		if float64(stop)/float64(len(tokens)) >= 0.9 {
			return garbage(), true
		}
	}

	if len(trimmed) >= 4 {
		if uniqueNonSpaceRunes(trimmed) <= 2 {
			return garbage(), true
		}
	}

	return types.Classification{}, false
}

func garbage() types.Classification {
	return types.Classification{Intent: types.IntentGarbage, Confidence: 0.95}
}

func countAlpha(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func uniqueNonSpaceRunes(s string) int {
	seen := make(map[rune]struct{})
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		seen[r] = struct{}{}
	}
	return len(seen)
}
