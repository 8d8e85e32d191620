package retrieval

import (
	"context"

	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/types"
)

// Plugin wires HybridRetriever into the pipeline's retrieve stage.
type Plugin struct {
	retriever *HybridRetriever
}

func NewPlugin(eventManager *pipeline.EventManager, retriever *HybridRetriever) *Plugin {
	p := &Plugin{retriever: retriever}
	eventManager.Register(p)
	return p
}

func (p *Plugin) ActivationEvents() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageRetrieve}
}

func (p *Plugin) OnEvent(
	ctx context.Context, stage pipeline.Stage, state *types.PipelineState, next func() *pipeline.PluginError,
) *pipeline.PluginError {
	query := state.RewrittenQuery
	if query == "" {
		query = state.Question
	}

	docs, collectionEmpty, err := p.retriever.Retrieve(ctx, state.Collection, query)
	if err != nil {
		return pipeline.ErrRetrieve.WithError(err)
	}

	state.RetrievedDocuments = docs
	state.CollectionEmpty = collectionEmpty
	logger.Infof(ctx, "retrieved %d documents request_id=%s collection_empty=%v",
		len(docs), state.RequestID, collectionEmpty)
	state.RecordStep("retrieve")
	return next()
}
