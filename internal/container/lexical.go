package container

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/lexical"
	"github.com/wekai-labs/ragqa/internal/lexical/esindex"
	"github.com/wekai-labs/ragqa/internal/lexical/rebuildqueue"
	"github.com/wekai-labs/ragqa/internal/retrieval"
	"github.com/wekai-labs/ragqa/internal/types"
)

// esSearcher adapts esindex.Index, whose Search already matches
// retrieval.LexicalSearcher's signature, to the interface type so
// buildLexicalSearcher can return either backend uniformly.
type esSearcher struct {
	index *esindex.Index
}

func (e *esSearcher) Search(ctx context.Context, collection, query string, k int) ([]lexical.Result, error) {
	return e.index.Search(ctx, collection, query, k)
}

// buildLexicalSearcher resolves cfg.Lexical.Backend to a concrete
// LexicalSearcher. The "memory" backend also returns the underlying
// *lexical.Index so a rebuild queue consumer can be wired against it;
// the "elasticsearch" backend returns a nil *lexical.Index since
// nothing in this process needs to Build() it directly.
func buildLexicalSearcher(cfg *config.Config) (retrieval.LexicalSearcher, *lexical.Index, error) {
	switch cfg.Lexical.Backend {
	case "", "memory":
		idx := lexical.NewIndex(lexical.NewTokenizer())
		return &retrieval.MemoryLexicalSearcher{Index: idx}, idx, nil
	case "elasticsearch":
		client, err := elasticsearch.NewTypedClient(elasticsearch.Config{
			Addresses: cfg.Lexical.ES.Addresses,
			Username:  cfg.Lexical.ES.Username,
			Password:  cfg.Lexical.ES.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("container: elasticsearch client: %w", err)
		}
		idx, err := esindex.NewIndex(client, "ragqa_chunks")
		if err != nil {
			return nil, nil, fmt.Errorf("container: elasticsearch index: %w", err)
		}
		return &esSearcher{index: idx}, nil, nil
	default:
		return nil, nil, fmt.Errorf("container: unknown lexical backend %q", cfg.Lexical.Backend)
	}
}

// chunksFromVectorStore adapts capability.VectorStore.GetAllChunks
// (which returns ScoredChunk, the vector store's native shape) into
// the []types.Chunk a rebuildqueue.RebuildFunc must produce, dropping
// the Distance field that GetAllChunks leaves at its zero value since
// it never ran a similarity comparison.
func chunksFromVectorStore(vectors capability.VectorStore) rebuildqueue.RebuildFunc {
	return func(ctx context.Context, collection string) ([]types.Chunk, error) {
		const rebuildChunkCap = 10000
		scored, err := vectors.GetAllChunks(ctx, collection, rebuildChunkCap)
		if err != nil {
			return nil, err
		}
		chunks := make([]types.Chunk, len(scored))
		for i, s := range scored {
			chunks[i] = types.Chunk{
				ChunkID:       s.ChunkID,
				DocumentID:    s.DocumentID,
				Collection:    collection,
				Source:        s.Source,
				Page:          s.Page,
				Content:       s.Content,
				ParentID:      s.ParentID,
				ParentContext: s.ParentContext,
				ChildIndex:    s.ChildIndex,
				ParentIndex:   s.ParentIndex,
			}
		}
		return chunks, nil
	}
}

// NewRebuildServer wires the background lexical-rebuild consumer for
// the memory backend: ingestion writes enqueue a collection name via a
// rebuildqueue.Queue, and this server re-reads the collection's
// current chunks from the vector store and rebuilds the in-process
// BM25 index, keeping readers off the write path. Callers that don't
// need background rebuilds (e.g. the evaluation harness against a
// static collection) can ignore this and call idx.Build directly.
func NewRebuildServer(cfg config.AsynqConfig, idx *lexical.Index, vectors capability.VectorStore) *rebuildqueue.Server {
	return rebuildqueue.NewServer(cfg, idx, chunksFromVectorStore(vectors))
}
