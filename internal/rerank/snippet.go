// Package rerank implements the reranker gate (§4.7): context filter,
// cross-encoder scoring with adaptive K, and the source-list snippet
// selector. Grounded on the teacher's
// chat_pipline/rerank.go and filter_top_k.go for the two-stage
// filter-then-score shape, and merge.go for how the teacher collapses
// candidates down to a source list.
package rerank

import (
	"regexp"
	"strings"
)

const (
	minPreview = 300
	maxPreview = 350
)

var labelAliases = map[string]string{
	"degree":     "education",
	"school":     "education",
	"university": "education",
	"abilities":  "skills",
	"competencies": "skills",
}

var labelPattern = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z \-/]{2,30}):\s*(.*)$`)

var headerPattern = regexp.MustCompile(`(?m)^\s*(#{1,6}\s*.+|[A-Z][A-Z \-]{3,40}|.+\n[-=]{3,})\s*$`)

var sentenceSplit = regexp.MustCompile(`(?s)([^.!?]+[.!?]+)`)

// SelectSnippet picks a preview of content of up to about maxPreview
// (350) characters that is maximally informative for query, trying each
// strategy in order and returning the first hit. A hit shorter than
// minPreview is returned as it is; it is not lengthened. parentContext, when non-empty, is tried for
// the parent-repetition strategy. This is a pure function, independent
// of any model call.
func SelectSnippet(query, content, parentContext string) string {
	if s := keyValueMatch(query, content); s != "" {
		return clip(s)
	}
	if s := headerMatch(query, content); s != "" {
		return clip(s)
	}
	if parentContext != "" {
		if s := keyValueMatch(query, parentContext); s != "" {
			return clip(s)
		}
		if s := headerMatch(query, parentContext); s != "" {
			return clip(s)
		}
	}
	if s := bestSentenceWindow(query, content); s != "" {
		return clip(s)
	}
	return truncateToBoundary(content, maxPreview)
}

// keyValueMatch looks for "Label: value" lines whose label matches a
// query term directly or via a known alias (e.g. "degree" -> "education").
func keyValueMatch(query, content string) string {
	queryTerms := contentWords(query)
	matches := labelPattern.FindAllStringSubmatch(content, -1)
	for _, m := range matches {
		label := strings.ToLower(strings.TrimSpace(m[1]))
		for _, term := range queryTerms {
			targets := []string{term}
			if alias, ok := labelAliases[term]; ok {
				targets = append(targets, alias)
			}
			for _, target := range targets {
				if strings.Contains(label, target) || strings.Contains(target, label) {
					return m[0]
				}
			}
		}
	}
	return ""
}

// headerMatch finds a header whose text matches a query term and
// returns the header plus the content up to the next header.
func headerMatch(query, content string) string {
	queryTerms := contentWords(query)
	locs := headerPattern.FindAllStringIndex(content, -1)
	for i, loc := range locs {
		headerText := strings.ToLower(content[loc[0]:loc[1]])
		for _, term := range queryTerms {
			if strings.Contains(headerText, term) {
				end := len(content)
				if i+1 < len(locs) {
					end = locs[i+1][0]
				}
				return content[loc[0]:end]
			}
		}
	}
	return ""
}

// bestSentenceWindow scores each sentence by phrase-match bonus and
// rarity-weighted term overlap, then returns the best sentence plus
// its immediate neighbors.
func bestSentenceWindow(query, content string) string {
	sentences := sentenceSplit.FindAllString(content, -1)
	if len(sentences) == 0 {
		return ""
	}

	queryLower := strings.ToLower(query)
	queryTerms := contentWords(query)
	termRarity := make(map[string]float64, len(queryTerms))
	for _, term := range queryTerms {
		count := strings.Count(strings.ToLower(content), term)
		if count == 0 {
			count = 1
		}
		termRarity[term] = 1.0 / float64(count)
	}

	bestIdx := -1
	bestScore := 0.0
	for i, sentence := range sentences {
		lower := strings.ToLower(sentence)
		score := 0.0
		if strings.Contains(lower, queryLower) {
			score += 5
		}
		for _, term := range queryTerms {
			if strings.Contains(lower, term) {
				score += termRarity[term] * float64(len(term))
			}
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return ""
	}

	start := bestIdx
	if start > 0 {
		start--
	}
	end := bestIdx + 1
	if end < len(sentences) {
		end++
	}
	return strings.Join(sentences[start:end], " ")
}

// contentWords lowercases and splits query into words of length >= 3,
// a cheap stand-in for "content words" that skips short function words
// without needing a full stopword pass in this pure-function context.
func contentWords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()[]{}")
		if len(f) >= 3 {
			words = append(words, f)
		}
	}
	return words
}

// clip trims surrounding whitespace and returns s unchanged when it fits
// in maxPreview; longer text is cut by truncateToBoundary. Shorter text
// is not extended.
func clip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxPreview {
		return s
	}
	return truncateToBoundary(s, maxPreview)
}

// truncateToBoundary cuts content to at most limit characters, backing
// up to the nearest sentence or, failing that, word boundary.
func truncateToBoundary(content string, limit int) string {
	content = strings.TrimSpace(content)
	if len(content) <= limit {
		return content
	}
	window := content[:limit]

	if idx := lastIndexAny(window, ".!?"); idx >= minPreview {
		return strings.TrimSpace(window[:idx+1])
	}
	if idx := strings.LastIndex(window, " "); idx > 0 {
		return strings.TrimSpace(window[:idx]) + "…"
	}
	return window
}

func lastIndexAny(s, chars string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if strings.ContainsRune(chars, rune(s[i])) {
			return i
		}
	}
	return -1
}

