package retrieval

import (
	"context"
	"sort"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/types"
)

const sequentialChunkCap = 500

// syntheticTopScore is assigned to every document the sequential
// retriever returns: they are all in scope for a summarization
// request, so no relevance ranking among them is meaningful.
const syntheticTopScore = 1.0

// SequentialRetriever bypasses similarity search entirely for the
// summarize branch: it fetches (up to a cap) every chunk in the
// collection, orders it the way the document was originally laid out,
// and deduplicates by parent so the reranker gate has whole sections
// rather than redundant child chunks.
type SequentialRetriever struct {
	vectors capability.VectorStore
}

func NewSequentialRetriever(vectors capability.VectorStore) *SequentialRetriever {
	return &SequentialRetriever{vectors: vectors}
}

func (r *SequentialRetriever) Retrieve(ctx context.Context, collection string) ([]types.RetrievedDocument, error) {
	chunks, err := r.vectors.GetAllChunks(ctx, collection, sequentialChunkCap)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Page != chunks[j].Page {
			return chunks[i].Page < chunks[j].Page
		}
		if chunks[i].ParentIndex != chunks[j].ParentIndex {
			return chunks[i].ParentIndex < chunks[j].ParentIndex
		}
		return chunks[i].ChildIndex < chunks[j].ChildIndex
	})

	seenParents := make(map[string]struct{})
	docs := make([]types.RetrievedDocument, 0, len(chunks))
	for _, chunk := range chunks {
		content := chunk.Content
		isExpanded := false
		if chunk.ParentID != "" {
			if _, dup := seenParents[chunk.ParentID]; dup {
				continue
			}
			seenParents[chunk.ParentID] = struct{}{}
			content = chunk.ParentContext
			isExpanded = true
		}

		docs = append(docs, types.RetrievedDocument{
			Content: content,
			Score:   syntheticTopScore,
			Metadata: types.DocumentMetadata{
				ChunkID:        chunk.ChunkID,
				DocumentID:     chunk.DocumentID,
				Source:         chunk.Source,
				Page:           chunk.Page,
				ParentID:       chunk.ParentID,
				IsExpanded:     isExpanded,
				RetrievalScore: syntheticTopScore,
			},
		})
	}
	return docs, nil
}

// SequentialPlugin wires SequentialRetriever into the pipeline's
// retrieve_sequential stage.
type SequentialPlugin struct {
	retriever *SequentialRetriever
}

func NewSequentialPlugin(eventManager *pipeline.EventManager, retriever *SequentialRetriever) *SequentialPlugin {
	p := &SequentialPlugin{retriever: retriever}
	eventManager.Register(p)
	return p
}

func (p *SequentialPlugin) ActivationEvents() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageRetrieveSequential}
}

func (p *SequentialPlugin) OnEvent(
	ctx context.Context, stage pipeline.Stage, state *types.PipelineState, next func() *pipeline.PluginError,
) *pipeline.PluginError {
	docs, err := p.retriever.Retrieve(ctx, state.Collection)
	if err != nil {
		return pipeline.ErrRetrieve.WithError(err)
	}
	state.RetrievedDocuments = docs
	state.CollectionEmpty = len(docs) == 0
	logger.Infof(ctx, "sequential retrieval returned %d documents request_id=%s", len(docs), state.RequestID)
	state.RecordStep("retrieve_sequential")
	return next()
}
