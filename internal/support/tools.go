// Package support holds small generic helpers shared across pipeline
// stages: slice dedup, UTF-8 sanitization, and log formatting. Adapted
// from the teacher's internal/common/tools.go.
package support

import (
	"strings"
	"unicode/utf8"
)

// Deduplicate keeps the first occurrence of each key, in the style the
// source list dedup needs: first occurrence wins so that the
// highest-scoring chunk per source (callers pass already rank-sorted
// input) survives.
func Deduplicate[T any, K comparable](keyFunc func(T) K, items ...T) []T {
	seen := make(map[K]T)
	order := make([]K, 0, len(items))
	for _, item := range items {
		key := keyFunc(item)
		if _, exists := seen[key]; !exists {
			seen[key] = item
			order = append(order, key)
		}
	}
	result := make([]T, 0, len(order))
	for _, k := range order {
		result = append(result, seen[k])
	}
	return result
}

// CleanInvalidUTF8 strips invalid UTF-8 bytes and NUL characters, which
// Postgres and some tokenizers reject outright.
func CleanInvalidUTF8(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		if r == 0 {
			i += size
			continue
		}
		b.WriteRune(r)
		i += size
	}

	return b.String()
}

// StringSliceJoin renders a slice of strings as space-separated quoted
// tokens, used to log the terms a lexical query expanded into.
func StringSliceJoin(slice []string) string {
	result := make([]string, len(slice))
	for i, v := range slice {
		result[i] = `"` + v + `"`
	}
	return strings.Join(result, " ")
}
