package streamreg

import (
	"testing"

	"github.com/wekai-labs/ragqa/internal/types"
)

func TestBuildReplayEventsMidStreamHasNoTerminalEvent(t *testing.T) {
	rec := record{Content: "partial answer so far"}
	events := buildReplayEvents(rec)

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (token only)", len(events))
	}
	if events[0].Type != types.EventToken {
		t.Errorf("event type = %v, want token", events[0].Type)
	}
}

func TestBuildReplayEventsIncludesSourcesWhenSettled(t *testing.T) {
	rec := record{
		Sources: []types.Source{{Filename: "a.pdf"}},
		Content: "partial",
	}
	events := buildReplayEvents(rec)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (sources, token)", len(events))
	}
	if events[0].Type != types.EventSources {
		t.Errorf("events[0].Type = %v, want sources", events[0].Type)
	}
	if events[1].Type != types.EventToken {
		t.Errorf("events[1].Type = %v, want token", events[1].Type)
	}
}

func TestBuildReplayEventsDoneEmitsDoneEvent(t *testing.T) {
	rec := record{Content: "final answer", Done: true, WasGrounded: true}
	events := buildReplayEvents(rec)

	last := events[len(events)-1]
	if last.Type != types.EventDone {
		t.Errorf("last event type = %v, want done", last.Type)
	}
	if !last.WasGrounded {
		t.Error("WasGrounded = false, want true")
	}
}

func TestBuildReplayEventsFailedEmitsErrorEventNotDone(t *testing.T) {
	rec := record{Content: "partial", Done: true, ErrMessage: "model timed out"}
	events := buildReplayEvents(rec)

	last := events[len(events)-1]
	if last.Type != types.EventError {
		t.Errorf("last event type = %v, want error", last.Type)
	}
	if last.Message != "model timed out" {
		t.Errorf("Message = %q, want %q", last.Message, "model timed out")
	}

	for _, e := range events {
		if e.Type == types.EventDone {
			t.Error("a failed stream's replay should never include a done event")
		}
	}
}

func TestBuildReplayEventsEmptyRecordIsEmpty(t *testing.T) {
	events := buildReplayEvents(record{})
	if len(events) != 0 {
		t.Errorf("got %d events, want 0 for an empty record", len(events))
	}
}
