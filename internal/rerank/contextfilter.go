package rerank

import (
	"context"
	"math"
	"strings"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/types"
)

const (
	contextFilterThreshold = 0.30
	previewChars           = 1000
)

// ContextFilter drops candidates whose content is unrelated to the
// current query before they ever reach the cross-encoder, preventing
// stale documents from an earlier turn in a long session from
// polluting the answer ("anti-bleed"). Falls back to keyword overlap
// when the embedder is unavailable.
type ContextFilter struct {
	embedder capability.Embedder
}

func NewContextFilter(embedder capability.Embedder) *ContextFilter {
	return &ContextFilter{embedder: embedder}
}

// Filter embeds the query once and each candidate's first 1000
// characters, dropping any below the similarity threshold.
func (f *ContextFilter) Filter(ctx context.Context, query string, docs []types.RetrievedDocument) []types.RetrievedDocument {
	queryVec, err := f.embedder.EmbedQuery(ctx, query)
	if err != nil {
		logger.Warnf(ctx, "context filter: embedder unavailable, falling back to keyword overlap: %v", err)
		return f.keywordFilter(query, docs)
	}

	previews := make([]string, len(docs))
	for i, d := range docs {
		previews[i] = preview(d.Content)
	}
	docVecs, err := f.embedder.EmbedDocuments(ctx, previews)
	if err != nil {
		logger.Warnf(ctx, "context filter: embedder unavailable, falling back to keyword overlap: %v", err)
		return f.keywordFilter(query, docs)
	}

	kept := make([]types.RetrievedDocument, 0, len(docs))
	for i, d := range docs {
		if cosineSim(queryVec, docVecs[i]) >= contextFilterThreshold {
			kept = append(kept, d)
		}
	}
	return kept
}

// keywordFilter is the fallback: fraction of query content-words
// appearing in the candidate must meet the same threshold.
func (f *ContextFilter) keywordFilter(query string, docs []types.RetrievedDocument) []types.RetrievedDocument {
	queryWords := contentWords(query)
	if len(queryWords) == 0 {
		return docs
	}

	kept := make([]types.RetrievedDocument, 0, len(docs))
	for _, d := range docs {
		lower := strings.ToLower(d.Content)
		hits := 0
		for _, w := range queryWords {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		if float64(hits)/float64(len(queryWords)) >= contextFilterThreshold {
			kept = append(kept, d)
		}
	}
	return kept
}

func preview(content string) string {
	if len(content) > previewChars {
		return content[:previewChars]
	}
	return content
}

func cosineSim(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
