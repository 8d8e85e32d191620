// Package capability defines the external collaborator contracts the
// core pipeline depends on by interface, not by concrete type: the
// embedder, vector store, cross-encoder, language model, and
// conversation history store. Reference implementations live under
// internal/model and internal/store; the core never imports those
// packages directly, only this one — the same seam the teacher keeps
// between internal/types/interfaces and internal/models/*.
package capability

import (
	"context"

	"github.com/wekai-labs/ragqa/internal/types"
)

// Embedder turns text into vectors for a fixed dimensionality per
// deployment; a collection embedded with one model cannot be searched
// with another.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// ScoredChunk pairs a vector-store hit with its similarity distance.
// ChildIndex/ParentIndex carry the chunk's original position within
// its document, needed by the sequential (summarization-branch)
// retriever to reconstruct reading order without a similarity score.
type ScoredChunk struct {
	ChunkID       string
	DocumentID    string
	Source        string
	Page          int
	Content       string
	ParentID      string
	ParentContext string
	ChildIndex    int
	ParentIndex   int
	Distance      float64
}

// CollectionInfo reports a collection's size.
type CollectionInfo struct {
	Count int
}

// VectorStore is the dense-retrieval capability contract.
type VectorStore interface {
	SimilaritySearchWithScore(ctx context.Context, query []float32, collection string, k int) ([]ScoredChunk, error)
	Add(ctx context.Context, chunks []ChunkRecord) error
	Delete(ctx context.Context, collection string) error
	DeleteByMetadata(ctx context.Context, collection string, filter map[string]any) error
	ListCollections(ctx context.Context) ([]string, error)
	GetAllChunks(ctx context.Context, collection string, limit int) ([]ScoredChunk, error)
	GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, bool, error)
}

// ChunkRecord is a chunk plus its embedding, as written by an ingestion
// pipeline outside this repository's scope.
type ChunkRecord struct {
	ChunkID       string
	DocumentID    string
	Collection    string
	Source        string
	Page          int
	Content       string
	ParentID      string
	ParentContext string
	ChildIndex    int
	ParentIndex   int
	Embedding     []float32
}

// CrossEncoder scores (query, passage) pairs and returns unnormalized
// logits — higher is more relevant, but the scale is not a probability.
type CrossEncoder interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// LanguageModel is the generation/classification/rewrite capability
// contract. Stream must not drop chunks: the channel is unbuffered or
// small and the caller is expected to drain it promptly.
type LanguageModel interface {
	Invoke(ctx context.Context, prompt Prompt) (string, error)
	Stream(ctx context.Context, prompt Prompt) (<-chan string, <-chan error)
}

// Prompt is the (system, user, temperature, max-token) shape every
// model-calling stage constructs, mirroring the teacher's ChatOptions.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// HistoryStore persists conversation turns, session-keyed. Concurrent
// writes to the same session are last-writer-wins; Get returns
// newest-first.
type HistoryStore interface {
	Add(ctx context.Context, session string, role, content string, sources []types.Source) error
	Get(ctx context.Context, session string, limit int) ([]types.ConversationTurn, error)
	Clear(ctx context.Context, session string) error
	ListSessions(ctx context.Context) ([]string, error)
}
