// Package router implements the heuristic query-complexity classifier
// that runs after intent classification has confirmed a retrieval
// intent: no model call, so it costs well under a millisecond and can
// sit directly in the request's hot path. Grounded on the teacher's
// chatpipline plugin shape for how a cheap, synchronous stage is wired
// into the EventManager.
package router

import (
	"context"
	"strings"

	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/types"
)

var complexMarkers = []string{"compare", "contrast", "vs", "difference"}

var summarizeMarkers = []string{
	"summarize", "summary", "summarise", "overview", "tl;dr", "tldr",
	"main points", "key takeaways", "what is this document about",
	"give me a rundown",
}

// Classify applies the router's rules in order: garbage passes through
// unchanged (it is set upstream by the intent classifier), a
// summarization marker routes to the sequential retriever's branch,
// and otherwise a comparison marker or more than one '?' marks the
// query complex; everything else is simple.
func Classify(question string) types.QueryComplexity {
	lower := strings.ToLower(question)

	for _, marker := range summarizeMarkers {
		if strings.Contains(lower, marker) {
			return types.ComplexitySummarize
		}
	}

	for _, marker := range complexMarkers {
		if strings.Contains(lower, marker) {
			return types.ComplexityComplex
		}
	}
	if strings.Count(lower, "?") > 1 {
		return types.ComplexityComplex
	}

	return types.ComplexitySimple
}

// Plugin wires Classify into the pipeline's route_query stage.
type Plugin struct{}

func NewPlugin(eventManager *pipeline.EventManager) *Plugin {
	p := &Plugin{}
	eventManager.Register(p)
	return p
}

func (p *Plugin) ActivationEvents() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageRouteQuery}
}

func (p *Plugin) OnEvent(
	ctx context.Context, stage pipeline.Stage, state *types.PipelineState, next func() *pipeline.PluginError,
) *pipeline.PluginError {
	if state.IsGarbage {
		state.Complexity = types.ComplexityGarbage
		state.RecordStep("route_query")
		return next()
	}

	complexity := Classify(state.Question)
	state.Complexity = complexity
	state.IsSummarization = complexity == types.ComplexitySummarize
	state.SkipRewrite = complexity == types.ComplexitySimple

	logger.Infof(ctx, "routed query complexity=%s skip_rewrite=%v request_id=%s",
		complexity, state.SkipRewrite, state.RequestID)
	state.RecordStep("route_query")
	return next()
}
