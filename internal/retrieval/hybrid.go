// Package retrieval implements the hybrid (dense + lexical) retriever
// and the sequential (summarization-branch) retriever. Grounded on the
// teacher's application/service/retriever/composite.go, which also
// fans out to multiple retriever engines and merges their results,
// though there the merge is a simple dedup-by-ID rather than
// reciprocal rank fusion; the concurrent fan-out shape (errgroup over
// two independent I/O calls) is the part carried over directly.
package retrieval

import (
	"context"
	"sort"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/lexical"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/types"
	"golang.org/x/sync/errgroup"
)

// HybridRetriever returns up to finalK parent-level documents relevant
// to a query, combining dense vector search and lexical keyword
// search via reciprocal rank fusion.
type HybridRetriever struct {
	embedder capability.Embedder
	vectors  capability.VectorStore
	lexical  LexicalSearcher
	vectorK  int
	bm25K    int
	rrfK     int
	finalK   int
}

func NewHybridRetriever(
	embedder capability.Embedder, vectors capability.VectorStore, lexicalSearcher LexicalSearcher,
	vectorK, bm25K, rrfK, finalK int,
) *HybridRetriever {
	return &HybridRetriever{
		embedder: embedder, vectors: vectors, lexical: lexicalSearcher,
		vectorK: vectorK, bm25K: bm25K, rrfK: rrfK, finalK: finalK,
	}
}

// Retrieve runs the dense and lexical searches concurrently, fuses
// their results, expands fused chunks to parent context, and returns
// the result capped at finalK. collectionEmpty is set true only when
// both lanes return nothing and the collection has no chunks, does not
// exist, or its info lookup fails.
func (r *HybridRetriever) Retrieve(
	ctx context.Context, collection, query string,
) (docs []types.RetrievedDocument, collectionEmpty bool, err error) {
	queryVec, embedErr := r.embedder.EmbedQuery(ctx, query)
	if embedErr != nil {
		return nil, false, embedErr
	}

	var denseResults []capability.ScoredChunk
	var lexicalHits []lexical.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := r.vectors.SimilaritySearchWithScore(gctx, queryVec, collection, r.vectorK)
		if err != nil {
			logger.Warnf(gctx, "hybrid retriever: dense search failed, continuing lexical-only: %v", err)
			return nil
		}
		denseResults = results
		return nil
	})
	g.Go(func() error {
		hits, err := r.lexical.Search(gctx, collection, query, r.bm25K)
		if err != nil {
			logger.Warnf(gctx, "hybrid retriever: lexical search failed, continuing dense-only: %v", err)
			return nil
		}
		lexicalHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	denseChunks := denseResults
	lexicalChunks := scoredChunksFromLexical(lexicalHits)

	if len(denseChunks) == 0 && len(lexicalChunks) == 0 {
		info, ok, infoErr := r.vectors.GetCollectionInfo(ctx, collection)
		empty := !ok || infoErr != nil || info.Count == 0
		return nil, empty, nil
	}

	var fused []candidate
	switch {
	case len(denseChunks) == 0:
		fused = fuse(nil, lexicalChunks, r.rrfK)
	case len(lexicalChunks) == 0:
		fused = fuse(denseChunks, nil, r.rrfK)
	default:
		fused = fuse(denseChunks, lexicalChunks, r.rrfK)
		sortByFusedScore(fused, r.rrfK)
	}

	if len(fused) > r.finalK {
		// keep top finalK by rank/score before expansion, so expansion
		// work is bounded by the configured window.
		sort.SliceStable(fused, func(i, j int) bool { return rrfScore(fused[i], r.rrfK) > rrfScore(fused[j], r.rrfK) })
		fused = fused[:r.finalK]
	}

	expanded := expandToParents(fused, r.rrfK)
	if len(expanded) > r.finalK {
		expanded = expanded[:r.finalK]
	}
	return expanded, false, nil
}

func scoredChunksFromLexical(hits []lexical.Result) []capability.ScoredChunk {
	out := make([]capability.ScoredChunk, len(hits))
	for i, h := range hits {
		out[i] = capability.ScoredChunk{
			ChunkID:       h.Chunk.ChunkID,
			DocumentID:    h.Chunk.DocumentID,
			Source:        h.Chunk.Source,
			Page:          h.Chunk.Page,
			Content:       h.Chunk.Content,
			ParentID:      h.Chunk.ParentID,
			ParentContext: h.Chunk.ParentContext,
			Distance:      h.Score,
		}
	}
	return out
}

// expandToParents walks the fused list in rank order; the first chunk
// seen for a given parent_id emits a document whose content is the
// parent context, with the expansion flagged in metadata. Chunks
// without a parent_id pass through unchanged, undeduplicated, per
// §4.6.
func expandToParents(fused []candidate, rrfK int) []types.RetrievedDocument {
	seenParents := make(map[string]struct{})
	docs := make([]types.RetrievedDocument, 0, len(fused))

	for _, c := range fused {
		score := rrfScore(c, rrfK)
		chunk := c.chunk

		if chunk.ParentID == "" {
			docs = append(docs, types.RetrievedDocument{
				Content: chunk.Content,
				Score:   score,
				Metadata: types.DocumentMetadata{
					ChunkID:        chunk.ChunkID,
					DocumentID:     chunk.DocumentID,
					Source:         chunk.Source,
					Page:           chunk.Page,
					ParentID:       chunk.ParentID,
					IsExpanded:     false,
					RetrievalScore: score,
				},
			})
			continue
		}

		if _, dup := seenParents[chunk.ParentID]; dup {
			continue
		}
		seenParents[chunk.ParentID] = struct{}{}

		docs = append(docs, types.RetrievedDocument{
			Content: chunk.ParentContext,
			Score:   score,
			Metadata: types.DocumentMetadata{
				ChunkID:        chunk.ChunkID,
				DocumentID:     chunk.DocumentID,
				Source:         chunk.Source,
				Page:           chunk.Page,
				ParentID:       chunk.ParentID,
				IsExpanded:     true,
				RetrievalScore: score,
			},
		})
	}
	return docs
}
