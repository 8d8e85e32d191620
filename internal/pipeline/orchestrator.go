package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wekai-labs/ragqa/internal/apperrors"
	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/tracing"
	"github.com/wekai-labs/ragqa/internal/types"
)

const defaultMaxIterations = 2

// Generator is the minimal surface the orchestrator needs from
// internal/generate to drive the streaming path directly, bypassing
// the synchronous plugin chain. Tokens are not forwarded to the caller
// as they arrive: each pass's tokens are collected, and the final
// verified answer is emitted as one token event (see
// generateVerifyLoop).
type Generator interface {
	Stream(ctx context.Context, question, contextStr, historyStr string, iteration int) (<-chan string, <-chan error)
}

// Orchestrator runs the state machine described by the node graph in
// the pipeline's specification: classify → route → (rewrite/retrieve)*
// → grade → generate ⇄ verify → save. It owns no retrieval or
// generation logic itself — every node is a registered Plugin, except
// the streaming generate path, which this type drives directly against
// a Generator; that path collects each pass's tokens and sends the
// final answer once verification settles, not token by token as the
// model produces them.
type Orchestrator struct {
	events    *EventManager
	generator Generator
	history   capability.HistoryStore
	contextFn func(docs []types.RetrievedDocument) string
	historyFn func(turns []types.ConversationTurn) string
}

func NewOrchestrator(
	events *EventManager, generator Generator, history capability.HistoryStore,
	contextFn func([]types.RetrievedDocument) string, historyFn func([]types.ConversationTurn) string,
) *Orchestrator {
	return &Orchestrator{events: events, generator: generator, history: history, contextFn: contextFn, historyFn: historyFn}
}

// NewState initializes a PipelineState with the invariant defaults
// from §4.13: iteration=0, rewrite_count=0, max_iterations=2.
func NewState(requestID, sessionID, collection, question string) *types.PipelineState {
	return &types.PipelineState{
		RequestID:     requestID,
		SessionID:     sessionID,
		Collection:    collection,
		Question:      question,
		MaxIterations: defaultMaxIterations,
	}
}

func needsRAG(intent types.Intent) bool {
	return intent == types.IntentQuestion || intent == types.IntentCommand
}

// hasRelevant implements the grade_documents branch predicate.
func hasRelevant(state *types.PipelineState) bool {
	if state.RewriteCount >= state.MaxIterations {
		return true
	}
	if state.CollectionEmpty {
		return true
	}
	return len(state.RelevantDocuments) > 0
}

func shouldStopRetrying(state *types.PipelineState) bool {
	return state.IsGrounded || state.Iteration >= state.MaxIterations
}

// Run drives state through the full node graph to a terminal node
// without streaming, returning once answer/sources/is_grounded are
// settled.
func (o *Orchestrator) Run(ctx context.Context, state *types.PipelineState) error {
	if err := o.trigger(ctx, StageClassifyIntent, state); err != nil {
		return err
	}

	if !needsRAG(state.Classification.Intent) {
		stage := StageHandleNonRAGIntent
		if state.IsGarbage {
			stage = StageHandleGarbageQuery
		}
		if err := o.trigger(ctx, stage, state); err != nil {
			return err
		}
		// §4.13's FSM draws handle_non_rag_intent straight to END, not
		// through save_to_memory; this still saves so a later followup
		// (handleContextAware) has a prior turn to work from. See
		// DESIGN.md's Open Question decisions.
		return o.saveToMemory(ctx, state)
	}

	if err := o.trigger(ctx, StageRouteQuery, state); err != nil {
		return err
	}
	if state.IsGarbage || state.Complexity == types.ComplexityGarbage {
		if err := o.trigger(ctx, StageHandleGarbageQuery, state); err != nil {
			return err
		}
		// Same deviation as the non-RAG branch above.
		return o.saveToMemory(ctx, state)
	}

	if err := o.retrieveLoop(ctx, state); err != nil {
		return err
	}

	if err := o.generateVerifyLoop(ctx, state, nil); err != nil {
		return err
	}

	return o.saveToMemory(ctx, state)
}

// retrieveLoop runs route→(rewrite→retrieve | retrieve_sequential) and
// the grade_documents re-entry back to rewrite_query when nothing
// relevant came back.
func (o *Orchestrator) retrieveLoop(ctx context.Context, state *types.PipelineState) error {
	for {
		if state.IsSummarization {
			if err := o.trigger(ctx, StageRetrieveSequential, state); err != nil {
				return err
			}
		} else {
			if !state.SkipRewrite || state.RewriteCount > 0 {
				if err := o.trigger(ctx, StageRewriteQuery, state); err != nil {
					return err
				}
			}
			if err := o.trigger(ctx, StageRetrieve, state); err != nil {
				return err
			}
		}

		if err := o.trigger(ctx, StageGradeDocuments, state); err != nil {
			return err
		}

		if hasRelevant(state) {
			return nil
		}
		// loop back through rewrite_query with one more rewrite
		state.SkipRewrite = false
	}
}

// generateVerifyLoop runs generate⇄check_hallucination until the
// verifier is satisfied or max_iterations is reached. When events is
// non-nil, every pass still drives the generator through its streaming
// entry point (so context/history are built identically to the
// non-streaming path and the Generator is always exercised the same
// way), but a pass's tokens are only ever forwarded to the caller once
// the retry loop has settled on its final answer — forwarding them
// live per iteration would let a rejected (self-correction) pass's
// tokens reach the client ahead of the retry's, interleaved between
// the single sources/done pair. The final answer is emitted as one
// token event, the same convention emitFullAnswerAsTokens already uses
// for the non-RAG branches.
func (o *Orchestrator) generateVerifyLoop(ctx context.Context, state *types.PipelineState, events chan<- types.StreamEvent) error {
	for {
		if events != nil {
			if err := o.generateBuffered(ctx, state); err != nil {
				return err
			}
		} else {
			if err := o.trigger(ctx, StageGenerate, state); err != nil {
				return err
			}
		}

		if err := o.trigger(ctx, StageCheckHallucination, state); err != nil {
			return err
		}

		if shouldStopRetrying(state) {
			break
		}
	}

	if events != nil {
		emitFullAnswerAsTokens(ctx, events, state.Answer)
	}
	return nil
}

// generateBuffered drives one streaming generation pass into a sink
// that is drained but never forwarded, so intermediate retries never
// reach the client's event channel.
func (o *Orchestrator) generateBuffered(ctx context.Context, state *types.PipelineState) error {
	sink := make(chan types.StreamEvent, streamEventBuffer)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range sink {
		}
	}()
	err := o.streamGenerate(ctx, state, sink)
	close(sink)
	<-drained
	return err
}

func (o *Orchestrator) saveToMemory(ctx context.Context, state *types.PipelineState) error {
	if err := o.history.Add(ctx, state.SessionID, "user", state.Question, nil); err != nil {
		logger.Warnf(ctx, "failed to save user turn to history: %v", err)
	}
	if err := o.history.Add(ctx, state.SessionID, "assistant", state.Answer, state.Sources); err != nil {
		logger.Warnf(ctx, "failed to save assistant turn to history: %v", err)
	}
	state.RecordStep("save_to_memory")
	return nil
}

// trigger runs a stage's plugin chain and converts any PluginError into
// the AppError taxonomy the rest of the engine (and this function's
// callers outside the pipeline) branches on by code, instead of
// leaking the pipeline package's internal error chaining type.
func (o *Orchestrator) trigger(ctx context.Context, stage Stage, state *types.PipelineState) error {
	ctx, span := tracing.ContextWithSpan(ctx, "pipeline."+string(stage))
	defer span.End()
	span.SetAttributes(
		attribute.String("ragqa.request_id", state.RequestID),
		attribute.String("ragqa.session_id", state.SessionID),
	)

	pluginErr := o.events.Trigger(ctx, stage, state)
	if pluginErr == nil {
		return nil
	}
	state.RecordError(string(stage), pluginErr.Description)
	appErr := appErrorForStage(pluginErr)
	span.SetStatus(codes.Error, pluginErr.Description)
	span.RecordError(appErr)
	return appErr
}

func appErrorForStage(pluginErr *PluginError) *apperrors.AppError {
	var appErr *apperrors.AppError
	switch pluginErr.ErrorType {
	case ErrClassify.ErrorType:
		appErr = apperrors.NewInternalError(pluginErr.Description)
	case ErrRoute.ErrorType:
		appErr = apperrors.NewInternalError(pluginErr.Description)
	case ErrRewrite.ErrorType:
		appErr = apperrors.NewGenerationFailedError(pluginErr.Description)
	case ErrRetrieve.ErrorType:
		appErr = apperrors.NewRetrievalFailedError(pluginErr.Description)
	case ErrRerank.ErrorType:
		appErr = apperrors.NewRetrievalFailedError(pluginErr.Description)
	case ErrGenerate.ErrorType:
		appErr = apperrors.NewGenerationFailedError(pluginErr.Description)
	case ErrVerify.ErrorType:
		appErr = apperrors.NewVerificationFailedError(pluginErr.Description)
	case ErrHistory.ErrorType:
		appErr = apperrors.NewInternalError(pluginErr.Description)
	default:
		appErr = apperrors.NewInternalError(pluginErr.Description)
	}
	if pluginErr.Err != nil {
		appErr = appErr.WithDetails(pluginErr.Err.Error())
	}
	return appErr
}

// streamGenerate invokes the generator's streaming entry point and
// forwards each token as a {type: token} event, honoring ctx
// cancellation and backpressure on events (an unbuffered or small
// channel; send blocks until the caller drains it).
func (o *Orchestrator) streamGenerate(ctx context.Context, state *types.PipelineState, events chan<- types.StreamEvent) error {
	contextStr := o.contextFn(state.RelevantDocuments)
	var historyStr string
	if state.Iteration == 0 {
		turns, err := o.history.Get(ctx, state.SessionID, 5)
		if err != nil {
			logger.Warnf(ctx, "streamGenerate: failed to load history: %v", err)
		}
		historyStr = o.historyFn(turns)
	}

	tokens, errs := o.generator.Stream(ctx, state.Question, contextStr, historyStr, state.Iteration)
	var answer string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tok, ok := <-tokens:
			if !ok {
				tokens = nil
				if errs == nil {
					state.Answer = answer
					state.RecordStep("generate")
					return nil
				}
				continue
			}
			answer += tok
			select {
			case events <- types.StreamEvent{Type: types.EventToken, Content: tok}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				if tokens == nil {
					state.Answer = answer
					state.RecordStep("generate")
					return nil
				}
				continue
			}
			if err != nil {
				return err
			}
		}
	}
}
