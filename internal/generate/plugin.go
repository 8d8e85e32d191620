package generate

import (
	"context"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/types"
)

// Plugin wires the non-streaming Generator into the pipeline's
// generate stage. The streaming path is driven directly by the
// orchestrator (it needs to forward tokens to the caller's event
// channel as they arrive, which a synchronous plugin chain cannot do),
// so this plugin only ever produces a complete answer.
type Plugin struct {
	generator *Generator
	history   capability.HistoryStore
}

func NewPlugin(eventManager *pipeline.EventManager, generator *Generator, history capability.HistoryStore) *Plugin {
	p := &Plugin{generator: generator, history: history}
	eventManager.Register(p)
	return p
}

func (p *Plugin) ActivationEvents() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageGenerate}
}

func (p *Plugin) OnEvent(
	ctx context.Context, stage pipeline.Stage, state *types.PipelineState, next func() *pipeline.PluginError,
) *pipeline.PluginError {
	contextStr := BuildContext(state.RelevantDocuments)

	var historyStr string
	if state.Iteration == 0 {
		turns, err := p.history.Get(ctx, state.SessionID, maxHistoryTurnsForPrompt)
		if err != nil {
			logger.Warnf(ctx, "generate: failed to load history for session %s: %v", state.SessionID, err)
		}
		historyStr = BuildHistory(turns)
	}

	answer, err := p.generator.Invoke(ctx, state.Question, contextStr, historyStr, state.Iteration)
	if err != nil {
		return pipeline.ErrGenerate.WithError(err)
	}

	state.Answer = answer
	logger.Infof(ctx, "generated answer request_id=%s iteration=%d length=%d",
		state.RequestID, state.Iteration, len(answer))
	state.RecordStep("generate")
	return next()
}
