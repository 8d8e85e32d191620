package rerank

import (
	"context"

	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/types"
)

// Plugin wires the context filter and cross-encoder gate into the
// pipeline's grade_documents stage. The summarize branch skips the
// rerank stage entirely per §4.8, so this plugin passes through
// untouched when IsSummarization is set.
type Plugin struct {
	contextFilter *ContextFilter
	gate          *Gate
}

func NewPlugin(eventManager *pipeline.EventManager, contextFilter *ContextFilter, gate *Gate) *Plugin {
	p := &Plugin{contextFilter: contextFilter, gate: gate}
	eventManager.Register(p)
	return p
}

func (p *Plugin) ActivationEvents() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageGradeDocuments}
}

func (p *Plugin) OnEvent(
	ctx context.Context, stage pipeline.Stage, state *types.PipelineState, next func() *pipeline.PluginError,
) *pipeline.PluginError {
	if state.IsSummarization {
		state.RelevantDocuments = state.RetrievedDocuments
		state.Sources = BuildSources(state.Question, state.RelevantDocuments)
		state.RecordStep("grade_documents")
		return next()
	}

	query := state.RewrittenQuery
	if query == "" {
		query = state.Question
	}

	filtered := p.contextFilter.Filter(ctx, query, state.RetrievedDocuments)
	kept := p.gate.Rank(ctx, query, filtered, state.Complexity)

	state.RelevantDocuments = kept
	state.Sources = BuildSources(query, kept)

	logger.Infof(ctx, "graded documents request_id=%s retrieved=%d filtered=%d kept=%d",
		state.RequestID, len(state.RetrievedDocuments), len(filtered), len(kept))
	state.RecordStep("grade_documents")
	return next()
}
