package pipeline

import (
	"context"
	"time"

	"github.com/wekai-labs/ragqa/internal/types"
)

// streamEventBuffer bounds the client event channel: producing
// suspends once it fills, so a slow client holds the orchestrator back
// instead of events being dropped. On the retrieval path the
// generator's tokens first go to a separate, always-drained buffer
// (see generateVerifyLoop), so this backpressure reaches the event
// emits rather than the token loop.
const streamEventBuffer = 8

// RunStreaming drives the same node graph as Run but emits ordered
// streaming events — phase(searching) → sources → phase(generating) →
// token* → done — on the returned channel, which the caller must drain
// until it closes. On cancellation or a stage failure it emits a
// single error event and closes, never a partial done.
func (o *Orchestrator) RunStreaming(ctx context.Context, state *types.PipelineState) <-chan types.StreamEvent {
	events := make(chan types.StreamEvent, streamEventBuffer)

	go func() {
		defer close(events)
		start := time.Now()

		err := o.runStreamingInner(ctx, state, events)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			// Sent without the ctx select so a cancelled run still
			// delivers its error; the caller drains until close.
			events <- types.StreamEvent{
				Type: types.EventError, Message: err.Error(), Code: "pipeline_error",
			}
			return
		}

		emit(ctx, events, types.StreamEvent{
			Type:             types.EventDone,
			MessageID:        state.RequestID,
			WasGrounded:      state.IsGrounded,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		})
	}()

	return events
}

func (o *Orchestrator) runStreamingInner(ctx context.Context, state *types.PipelineState, events chan<- types.StreamEvent) error {
	if err := o.trigger(ctx, StageClassifyIntent, state); err != nil {
		return err
	}

	emit(ctx, events, types.StreamEvent{Type: types.EventPhase, Phase: types.PhaseSearching})

	if !needsRAG(state.Classification.Intent) {
		stage := StageHandleNonRAGIntent
		if state.IsGarbage {
			stage = StageHandleGarbageQuery
		}
		if err := o.trigger(ctx, stage, state); err != nil {
			return err
		}
		emit(ctx, events, types.StreamEvent{Type: types.EventSources, Sources: state.Sources})
		emit(ctx, events, types.StreamEvent{Type: types.EventPhase, Phase: types.PhaseGenerating})
		emitFullAnswerAsTokens(ctx, events, state.Answer)
		// Deviates from §4.13's diagram (handle_non_rag_intent → END);
		// see Orchestrator.Run's matching branch and DESIGN.md.
		return o.saveToMemory(ctx, state)
	}

	if err := o.trigger(ctx, StageRouteQuery, state); err != nil {
		return err
	}
	if state.IsGarbage || state.Complexity == types.ComplexityGarbage {
		if err := o.trigger(ctx, StageHandleGarbageQuery, state); err != nil {
			return err
		}
		emit(ctx, events, types.StreamEvent{Type: types.EventSources, Sources: state.Sources})
		emit(ctx, events, types.StreamEvent{Type: types.EventPhase, Phase: types.PhaseGenerating})
		emitFullAnswerAsTokens(ctx, events, state.Answer)
		return o.saveToMemory(ctx, state)
	}

	if err := o.retrieveLoop(ctx, state); err != nil {
		return err
	}

	emit(ctx, events, types.StreamEvent{Type: types.EventSources, Sources: state.Sources})
	emit(ctx, events, types.StreamEvent{Type: types.EventPhase, Phase: types.PhaseGenerating})

	if err := o.generateVerifyLoop(ctx, state, events); err != nil {
		return err
	}

	return o.saveToMemory(ctx, state)
}

// emitFullAnswerAsTokens is used for non-RAG/garbage branches, which
// never call the streaming generator: the whole fixed or short
// model-produced answer is emitted as one token event so streaming
// clients see a consistent event sequence regardless of branch.
func emitFullAnswerAsTokens(ctx context.Context, events chan<- types.StreamEvent, answer string) {
	emit(ctx, events, types.StreamEvent{Type: types.EventToken, Content: answer})
}

func emit(ctx context.Context, events chan<- types.StreamEvent, event types.StreamEvent) {
	select {
	case events <- event:
	case <-ctx.Done():
	}
}
