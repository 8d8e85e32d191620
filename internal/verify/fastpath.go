// Package verify implements the two-tier groundedness verifier: a
// deterministic lexical-overlap fast path that resolves most cases
// without a model call, and a model-backed check for the ambiguous
// band. Grounded on the teacher's chat_pipline plugin shape for how a
// verification stage reads chatManage fields and writes a verdict
// back, though the teacher has no equivalent fast path — this is new
// machinery built from the groundedness contract in isolation.
package verify

import (
	"strings"

	"github.com/wekai-labs/ragqa/internal/intent"
)

const (
	groundedThreshold    = 0.80
	notGroundedThreshold = 0.30
)

// FastScore is the deterministic word/trigram overlap score between an
// answer and its supporting source text.
type FastScore struct {
	WordOverlap    float64
	TrigramOverlap float64
	Combined       float64
}

// ComputeFastScore lowercases both texts, extracts content words and
// trigrams from the answer, and measures how much of that vocabulary
// appears in the source text.
func ComputeFastScore(answer, sourceText string) FastScore {
	answerWords := contentWords(answer)
	sourceLower := strings.ToLower(sourceText)

	wordOverlap := overlapRatio(answerWords, sourceLower)
	trigramOverlap := trigramOverlapRatio(answerWords, sourceLower)

	return FastScore{
		WordOverlap:    wordOverlap,
		TrigramOverlap: trigramOverlap,
		Combined:       0.6*wordOverlap + 0.4*trigramOverlap,
	}
}

// Verdict classifies a fast score into grounded / not-grounded /
// ambiguous (needs a model call to resolve).
type Verdict int

const (
	VerdictGrounded Verdict = iota
	VerdictNotGrounded
	VerdictAmbiguous
)

func (s FastScore) Verdict() Verdict {
	switch {
	case s.Combined >= groundedThreshold:
		return VerdictGrounded
	case s.Combined < notGroundedThreshold:
		return VerdictNotGrounded
	default:
		return VerdictAmbiguous
	}
}

// contentWords extracts answer words of length >= 3 that are not in
// the classifier's stopword set, lowercased.
func contentWords(answer string) []string {
	fields := strings.Fields(strings.ToLower(answer))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()[]{}")
		if len(f) < 3 {
			continue
		}
		if intent.IsStopword(f) {
			continue
		}
		words = append(words, f)
	}
	return words
}

func overlapRatio(words []string, sourceLower string) float64 {
	if len(words) == 0 {
		return 1.0
	}
	matched := 0
	for _, w := range words {
		if strings.Contains(sourceLower, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}

// trigramOverlapRatio builds 3-word windows over the content words,
// keeping only those where at least 2 of the 3 are non-stopwords (the
// words slice is already stopword-filtered, so this reduces to
// requiring the window exist), and measures how many of those windows
// appear verbatim in the source text.
func trigramOverlapRatio(words []string, sourceLower string) float64 {
	if len(words) < 3 {
		return overlapRatio(words, sourceLower)
	}
	total := len(words) - 2
	matched := 0
	for i := 0; i < total; i++ {
		trigram := strings.Join(words[i:i+3], " ")
		if strings.Contains(sourceLower, trigram) {
			matched++
		}
	}
	return float64(matched) / float64(total)
}
