package rerank

import (
	"context"
	"math"
	"sort"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/support"
	"github.com/wekai-labs/ragqa/internal/types"
)

const (
	simpleK     = 2
	defaultK    = 5
	minKeepOnFallback = 1
)

// Gate is the reranker gate's second stage: score each surviving
// candidate with a cross-encoder, normalize across the batch, and keep
// the top K, where K adapts to query complexity.
type Gate struct {
	crossEncoder       capability.CrossEncoder
	relevanceThreshold float64
}

func NewGate(crossEncoder capability.CrossEncoder, relevanceThreshold float64) *Gate {
	return &Gate{crossEncoder: crossEncoder, relevanceThreshold: relevanceThreshold}
}

// adaptiveK returns 2 for simple queries (one or two hits typically
// suffice) and 5 otherwise (comparative/analytical queries benefit
// from broader context).
func adaptiveK(complexity types.QueryComplexity) int {
	if complexity == types.ComplexitySimple {
		return simpleK
	}
	return defaultK
}

// Rank scores docs against query and keeps the top adaptiveK(complexity).
// If the cross-encoder is unavailable, it falls back to ranking by
// retrieval score and filtering by relevanceThreshold, keeping at least
// one document.
func (g *Gate) Rank(ctx context.Context, query string, docs []types.RetrievedDocument, complexity types.QueryComplexity) []types.RetrievedDocument {
	k := adaptiveK(complexity)
	if len(docs) == 0 {
		return docs
	}

	passages := make([]string, len(docs))
	for i, d := range docs {
		passages[i] = d.Content
	}

	scores, err := g.crossEncoder.Score(ctx, query, passages)
	if err != nil || len(scores) != len(docs) {
		logger.Warnf(ctx, "rerank gate: cross-encoder unavailable, falling back to retrieval score: %v", err)
		return g.fallbackRank(docs, k)
	}

	normalized := normalize(scores)
	ranked := make([]types.RetrievedDocument, len(docs))
	copy(ranked, docs)
	for i := range ranked {
		ranked[i].Score = normalized[i]
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}

func (g *Gate) fallbackRank(docs []types.RetrievedDocument, k int) []types.RetrievedDocument {
	ranked := make([]types.RetrievedDocument, len(docs))
	copy(ranked, docs)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	kept := make([]types.RetrievedDocument, 0, k)
	for _, d := range ranked {
		if d.Score >= g.relevanceThreshold {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 && len(ranked) > 0 {
		kept = ranked[:minKeepOnFallback]
	}
	if len(kept) > k {
		kept = kept[:k]
	}
	return kept
}

// normalize min-max scales a batch of >1 scores into [0,1]; a
// single-item batch is normalized with a sigmoid instead, since
// min-max is undefined with no spread.
func normalize(scores []float64) []float64 {
	if len(scores) == 1 {
		return []float64{sigmoid(scores[0])}
	}

	min, max := scores[0], scores[0]
	for _, s := range scores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	if max == min {
		for i := range scores {
			out[i] = 0.5
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - min) / (max - min)
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// BuildSources deduplicates kept documents by source filename, keeping
// the best-scoring chunk per filename, and attaches a content preview
// from the snippet selector. Sorting by score first lets
// support.Deduplicate's first-occurrence-wins rule double as
// best-score-wins.
func BuildSources(query string, docs []types.RetrievedDocument) []types.Source {
	ranked := make([]types.RetrievedDocument, len(docs))
	copy(ranked, docs)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	deduped := support.Deduplicate(func(d types.RetrievedDocument) string { return d.Metadata.Source }, ranked...)

	sources := make([]types.Source, 0, len(deduped))
	for _, d := range deduped {
		sources = append(sources, types.Source{
			Filename:       d.Metadata.Source,
			ChunkID:        d.Metadata.ChunkID,
			RelevanceScore: d.Score,
			ContentPreview: SelectSnippet(query, d.Content, ""),
			Page:           d.Metadata.Page,
		})
	}
	return sources
}
