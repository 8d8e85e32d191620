// Package pipeline implements the orchestrator's plugin chain: an
// EventManager that dispatches a named stage to its registered
// Plugin(s), and PluginError for stage-level failures. Adapted from the
// teacher's internal/application/service/chat_pipline package, which
// uses the identical shape (EventManager/Plugin/next-based chaining)
// to drive a linear sequence of chat-completion stages; here the same
// machinery drives the state-machine nodes of the self-correcting RAG
// orchestrator, including its two cycles (grade_documents back to
// rewrite_query, check_hallucination back to generate).
package pipeline

import (
	"context"

	"github.com/wekai-labs/ragqa/internal/types"
)

// Stage names the orchestrator's state-machine nodes. Each stage is an
// EventType the EventManager can have one or more Plugins registered
// against; chaining lets e.g. a fast groundedness check fall through to
// a model-backed check via next().
type Stage string

const (
	StageClassifyIntent     Stage = "classify_intent"
	StageHandleNonRAGIntent Stage = "handle_non_rag_intent"
	StageRouteQuery         Stage = "route_query"
	StageRewriteQuery       Stage = "rewrite_query"
	StageRetrieve           Stage = "retrieve"
	StageRetrieveSequential Stage = "retrieve_sequential"
	StageHandleGarbageQuery Stage = "handle_garbage_query"
	StageGradeDocuments     Stage = "grade_documents"
	StageGenerate           Stage = "generate"
	StageCheckHallucination Stage = "check_hallucination"
	StageSaveToMemory       Stage = "save_to_memory"
)

// Plugin handles one orchestrator stage. Implementations read and
// write the fields of state they own, and call next to fall through to
// another plugin chained on the same stage.
type Plugin interface {
	OnEvent(ctx context.Context, stage Stage, state *types.PipelineState, next func() *PluginError) *PluginError
	ActivationEvents() []Stage
}

// EventManager dispatches a Stage to its registered Plugin chain.
type EventManager struct {
	listeners map[Stage][]Plugin
	handlers  map[Stage]func(context.Context, Stage, *types.PipelineState) *PluginError
}

func NewEventManager() *EventManager {
	return &EventManager{
		listeners: make(map[Stage][]Plugin),
		handlers:  make(map[Stage]func(context.Context, Stage, *types.PipelineState) *PluginError),
	}
}

// Register adds a plugin and rebuilds the handler chain for every
// stage it activates on.
func (e *EventManager) Register(plugin Plugin) {
	if e.listeners == nil {
		e.listeners = make(map[Stage][]Plugin)
	}
	if e.handlers == nil {
		e.handlers = make(map[Stage]func(context.Context, Stage, *types.PipelineState) *PluginError)
	}
	for _, stage := range plugin.ActivationEvents() {
		e.listeners[stage] = append(e.listeners[stage], plugin)
		e.handlers[stage] = e.buildHandler(e.listeners[stage])
	}
}

func (e *EventManager) buildHandler(plugins []Plugin) func(
	ctx context.Context, stage Stage, state *types.PipelineState,
) *PluginError {
	next := func(context.Context, Stage, *types.PipelineState) *PluginError { return nil }
	for i := len(plugins) - 1; i >= 0; i-- {
		current := plugins[i]
		prevNext := next
		next = func(ctx context.Context, stage Stage, state *types.PipelineState) *PluginError {
			return current.OnEvent(ctx, stage, state, func() *PluginError {
				return prevNext(ctx, stage, state)
			})
		}
	}
	return next
}

// Trigger runs the stage's plugin chain against state.
func (e *EventManager) Trigger(ctx context.Context, stage Stage, state *types.PipelineState) *PluginError {
	if handler, ok := e.handlers[stage]; ok {
		return handler(ctx, stage, state)
	}
	return nil
}

// PluginError is a stage-level failure. Orchestrator.trigger converts
// it into an AppError and the request ends; a stage that degrades on a
// transient external failure (for example to an empty result) does so
// itself and returns no PluginError.
type PluginError struct {
	Err         error
	Description string
	ErrorType   string
}

var (
	ErrClassify = &PluginError{Description: "intent classification failed", ErrorType: "classify_failed"}
	ErrRoute    = &PluginError{Description: "routing failed", ErrorType: "route_failed"}
	ErrRewrite  = &PluginError{Description: "query rewrite failed", ErrorType: "rewrite_failed"}
	ErrRetrieve = &PluginError{Description: "retrieval failed", ErrorType: "retrieve_failed"}
	ErrRerank   = &PluginError{Description: "grading/rerank failed", ErrorType: "rerank_failed"}
	ErrGenerate = &PluginError{Description: "generation failed", ErrorType: "generate_failed"}
	ErrVerify   = &PluginError{Description: "groundedness verification failed", ErrorType: "verify_failed"}
	ErrHistory  = &PluginError{Description: "conversation history read/write failed", ErrorType: "history_failed"}
)

func (p *PluginError) clone() *PluginError {
	return &PluginError{Description: p.Description, ErrorType: p.ErrorType}
}

func (p *PluginError) WithError(err error) *PluginError {
	pp := p.clone()
	pp.Err = err
	return pp
}
