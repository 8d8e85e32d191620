package intenthandle

import (
	"context"
	"testing"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/types"
)

type fakeModel struct {
	response string
	err      error
}

func (m *fakeModel) Invoke(ctx context.Context, prompt capability.Prompt) (string, error) {
	return m.response, m.err
}
func (m *fakeModel) Stream(ctx context.Context, prompt capability.Prompt) (<-chan string, <-chan error) {
	return nil, nil
}

type fakeHistory struct {
	turns []types.ConversationTurn
}

func (h *fakeHistory) Add(ctx context.Context, session, role, content string, sources []types.Source) error {
	return nil
}
func (h *fakeHistory) Get(ctx context.Context, session string, limit int) ([]types.ConversationTurn, error) {
	return h.turns, nil
}
func (h *fakeHistory) Clear(ctx context.Context, session string) error    { return nil }
func (h *fakeHistory) ListSessions(ctx context.Context) ([]string, error) { return nil, nil }

func testPrompts() config.PromptsConfig {
	return config.PromptsConfig{
		GreetingResponse:  "Hello! How can I help you today?",
		GratitudeResponse: "You're welcome!",
		GarbageResponse:   "I couldn't understand that. Could you rephrase your question?",
		OffTopicResponse:  "That's outside what I can help with here.",
	}
}

func runHandler(t *testing.T, model *fakeModel, history *fakeHistory, state *types.PipelineState, stage pipeline.Stage) {
	t.Helper()
	events := pipeline.NewEventManager()
	NewPlugin(events, model, history, testPrompts())
	if err := events.Trigger(context.Background(), stage, state); err != nil {
		t.Fatalf("Trigger returned plugin error: %v", err)
	}
}

func TestFixedIntentsReturnConfiguredResponses(t *testing.T) {
	cases := []struct {
		intent types.Intent
		stage  pipeline.Stage
		want   string
	}{
		{types.IntentGreeting, pipeline.StageHandleNonRAGIntent, "Hello! How can I help you today?"},
		{types.IntentGratitude, pipeline.StageHandleNonRAGIntent, "You're welcome!"},
		{types.IntentGarbage, pipeline.StageHandleGarbageQuery, "I couldn't understand that. Could you rephrase your question?"},
		{types.IntentOffTopic, pipeline.StageHandleNonRAGIntent, "That's outside what I can help with here."},
	}
	for _, tc := range cases {
		t.Run(string(tc.intent), func(t *testing.T) {
			state := &types.PipelineState{Classification: types.Classification{Intent: tc.intent}}
			runHandler(t, &fakeModel{}, &fakeHistory{}, state, tc.stage)
			if state.Answer != tc.want {
				t.Errorf("Answer = %q, want %q", state.Answer, tc.want)
			}
			if !state.IsGrounded {
				t.Error("fixed-response intents should always be marked grounded")
			}
		})
	}
}

func TestFollowupWithNoPriorAssistantTurnAsksForSpecificQuestion(t *testing.T) {
	state := &types.PipelineState{Classification: types.Classification{Intent: types.IntentFollowup}}
	runHandler(t, &fakeModel{response: "should not be used"}, &fakeHistory{}, state, pipeline.StageHandleNonRAGIntent)

	if state.Answer != askSpecificQuestionReply {
		t.Errorf("Answer = %q, want the ask-for-specifics fallback", state.Answer)
	}
}

func TestDeepenExpandsPriorAnswerViaModel(t *testing.T) {
	history := &fakeHistory{turns: []types.ConversationTurn{
		{Role: "assistant", Content: "Paris is the capital of France."},
		{Role: "user", Content: "what's the capital of France?"},
	}}
	model := &fakeModel{response: "Paris, the capital of France, sits on the Seine and has been the seat of government since..."}
	state := &types.PipelineState{Classification: types.Classification{Intent: types.IntentDeepen}, Question: "tell me more"}

	runHandler(t, model, history, state, pipeline.StageHandleNonRAGIntent)

	if state.Answer != model.response {
		t.Errorf("Answer = %q, want model's expanded response", state.Answer)
	}
	if !state.IsGrounded {
		t.Error("context-aware handler should mark the result grounded")
	}
}

func TestContextAwareFallsBackToPriorAnswerOnModelError(t *testing.T) {
	history := &fakeHistory{turns: []types.ConversationTurn{{Role: "assistant", Content: "the original answer"}}}
	model := &fakeModel{err: context.DeadlineExceeded}
	state := &types.PipelineState{Classification: types.Classification{Intent: types.IntentSimplify}}

	runHandler(t, model, history, state, pipeline.StageHandleNonRAGIntent)

	if state.Answer != "the original answer" {
		t.Errorf("Answer = %q, want the prior answer preserved on model error", state.Answer)
	}
}

func TestMostRecentAssistantTurnSkipsUserTurns(t *testing.T) {
	turns := []types.ConversationTurn{
		{Role: "user", Content: "a question"},
		{Role: "assistant", Content: "an answer"},
		{Role: "user", Content: "an older question"},
	}
	if got := mostRecentAssistantTurn(turns); got != "an answer" {
		t.Errorf("mostRecentAssistantTurn = %q, want %q", got, "an answer")
	}
}

func TestMostRecentAssistantTurnEmpty(t *testing.T) {
	if got := mostRecentAssistantTurn(nil); got != "" {
		t.Errorf("mostRecentAssistantTurn(nil) = %q, want empty", got)
	}
}
