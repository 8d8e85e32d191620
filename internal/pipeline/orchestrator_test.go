package pipeline

import (
	"context"
	"testing"

	"github.com/wekai-labs/ragqa/internal/types"
)

// fakePlugin runs an arbitrary function on a fixed set of stages,
// recording a step name each time it fires.
type fakePlugin struct {
	stages []Stage
	step   string
	fn     func(state *types.PipelineState)
}

func (p *fakePlugin) ActivationEvents() []Stage { return p.stages }

func (p *fakePlugin) OnEvent(ctx context.Context, stage Stage, state *types.PipelineState, next func() *PluginError) *PluginError {
	if p.fn != nil {
		p.fn(state)
	}
	state.RecordStep(p.step)
	return next()
}

type fakeHistory struct {
	added []string
}

func (h *fakeHistory) Add(ctx context.Context, session, role, content string, sources []types.Source) error {
	h.added = append(h.added, role+":"+content)
	return nil
}
func (h *fakeHistory) Get(ctx context.Context, session string, limit int) ([]types.ConversationTurn, error) {
	return nil, nil
}
func (h *fakeHistory) Clear(ctx context.Context, session string) error    { return nil }
func (h *fakeHistory) ListSessions(ctx context.Context) ([]string, error) { return nil, nil }

func stepCount(steps []string, want string) int {
	n := 0
	for _, s := range steps {
		if s == want {
			n++
		}
	}
	return n
}

func TestRunGreetingShortCircuit(t *testing.T) {
	events := NewEventManager()
	events.Register(&fakePlugin{
		stages: []Stage{StageClassifyIntent},
		step:   "classify_intent",
		fn: func(state *types.PipelineState) {
			state.Classification = types.Classification{Intent: types.IntentGreeting, Confidence: 1.0}
		},
	})
	events.Register(&fakePlugin{
		stages: []Stage{StageHandleNonRAGIntent},
		step:   "handle_non_rag_intent",
		fn: func(state *types.PipelineState) {
			state.Answer = "Hello! How can I help you today?"
			state.IsGrounded = true
		},
	})

	history := &fakeHistory{}
	orch := NewOrchestrator(events, nil, history,
		func([]types.RetrievedDocument) string { return "" },
		func([]types.ConversationTurn) string { return "" })

	state := NewState("req-1", "sess-1", "docs", "hi")
	if err := orch.Run(context.Background(), state); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(state.Sources) != 0 {
		t.Errorf("expected no sources for a greeting, got %v", state.Sources)
	}
	if !state.IsGrounded {
		t.Errorf("expected greeting short-circuit to be grounded")
	}
	if len(state.RetrievedDocuments) != 0 {
		t.Errorf("expected no retrieval for a greeting, got %v", state.RetrievedDocuments)
	}
	want := []string{"classify_intent", "handle_non_rag_intent", "save_to_memory"}
	if len(state.ProcessingSteps) != len(want) {
		t.Fatalf("ProcessingSteps = %v, want %v", state.ProcessingSteps, want)
	}
	for i, step := range want {
		if state.ProcessingSteps[i] != step {
			t.Errorf("ProcessingSteps[%d] = %q, want %q", i, state.ProcessingSteps[i], step)
		}
	}
}

func TestRunSelfCorrectionRetryReachesGrounded(t *testing.T) {
	events := NewEventManager()
	events.Register(&fakePlugin{
		stages: []Stage{StageClassifyIntent},
		step:   "classify_intent",
		fn: func(state *types.PipelineState) {
			state.Classification = types.Classification{Intent: types.IntentQuestion, Confidence: 1.0}
		},
	})
	events.Register(&fakePlugin{stages: []Stage{StageRouteQuery}, step: "route_query"})
	events.Register(&fakePlugin{
		stages: []Stage{StageRetrieve},
		step:   "retrieve",
		fn: func(state *types.PipelineState) {
			state.RetrievedDocuments = []types.RetrievedDocument{{Content: "x"}}
		},
	})
	events.Register(&fakePlugin{
		stages: []Stage{StageGradeDocuments},
		step:   "grade_documents",
		fn: func(state *types.PipelineState) {
			state.RelevantDocuments = state.RetrievedDocuments
		},
	})
	events.Register(&fakePlugin{
		stages: []Stage{StageGenerate},
		step:   "generate",
		fn: func(state *types.PipelineState) {
			state.Answer = "an answer"
		},
	})
	events.Register(&fakePlugin{
		stages: []Stage{StageCheckHallucination},
		step:   "check_hallucination",
		fn: func(state *types.PipelineState) {
			state.IsGrounded = state.Iteration >= 1
			state.Iteration++
		},
	})

	history := &fakeHistory{}
	orch := NewOrchestrator(events, nil, history,
		func([]types.RetrievedDocument) string { return "" },
		func([]types.ConversationTurn) string { return "" })

	state := NewState("req-2", "sess-2", "docs", "what is the CAP theorem?")
	state.SkipRewrite = true // exercise the retrieve path without a rewrite plugin registered

	if err := orch.Run(context.Background(), state); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if state.Iteration != 2 {
		t.Errorf("Iteration = %d, want 2", state.Iteration)
	}
	if !state.IsGrounded {
		t.Errorf("expected final state to be grounded")
	}
	if got := stepCount(state.ProcessingSteps, "generate"); got != 2 {
		t.Errorf("generate ran %d times, want 2: %v", got, state.ProcessingSteps)
	}
	if got := stepCount(state.ProcessingSteps, "check_hallucination"); got != 2 {
		t.Errorf("check_hallucination ran %d times, want 2: %v", got, state.ProcessingSteps)
	}
	if violations := state.CheckInvariants(); len(violations) != 0 {
		t.Errorf("CheckInvariants() = %v, want none", violations)
	}
}

func TestHasRelevantBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		state *types.PipelineState
		want  bool
	}{
		{"has relevant docs", &types.PipelineState{RelevantDocuments: []types.RetrievedDocument{{}}}, true},
		{"empty collection", &types.PipelineState{CollectionEmpty: true}, true},
		{"exhausted rewrites", &types.PipelineState{RewriteCount: 2, MaxIterations: 2}, true},
		{"no relevant, retries left", &types.PipelineState{RewriteCount: 0, MaxIterations: 2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := hasRelevant(tc.state); got != tc.want {
				t.Errorf("hasRelevant(%+v) = %v, want %v", tc.state, got, tc.want)
			}
		})
	}
}

func TestShouldStopRetrying(t *testing.T) {
	cases := []struct {
		name  string
		state *types.PipelineState
		want  bool
	}{
		{"grounded", &types.PipelineState{IsGrounded: true}, true},
		{"max iterations reached", &types.PipelineState{Iteration: 2, MaxIterations: 2}, true},
		{"keep retrying", &types.PipelineState{Iteration: 0, MaxIterations: 2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldStopRetrying(tc.state); got != tc.want {
				t.Errorf("shouldStopRetrying(%+v) = %v, want %v", tc.state, got, tc.want)
			}
		})
	}
}

func TestNeedsRAG(t *testing.T) {
	if !needsRAG(types.IntentQuestion) {
		t.Error("needsRAG(question) = false, want true")
	}
	if !needsRAG(types.IntentCommand) {
		t.Error("needsRAG(command) = false, want true")
	}
	if needsRAG(types.IntentGreeting) {
		t.Error("needsRAG(greeting) = true, want false")
	}
}
