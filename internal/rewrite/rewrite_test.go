package rewrite

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
	lastUser string
}

func (m *fakeModel) Invoke(ctx context.Context, prompt capability.Prompt) (string, error) {
	m.lastUser = prompt.User
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
func (h *fakeHistory) Clear(ctx context.Context, session string) error       { return nil }
func (h *fakeHistory) ListSessions(ctx context.Context) ([]string, error)    { return nil, nil }

func testPrompts() config.PromptsConfig {
	return config.PromptsConfig{
		RewriteSystem: "rewrite this",
		RewriteUser:   "query: {{query}} history: {{history}}",
	}
}

func runRewrite(t *testing.T, model *fakeModel, history *fakeHistory, state *types.PipelineState) {
	t.Helper()
	events := pipeline.NewEventManager()
	NewPlugin(events, model, history, testPrompts())
	if err := events.Trigger(context.Background(), pipeline.StageRewriteQuery, state); err != nil {
		t.Fatalf("Trigger returned plugin error: %v", err)
	}
}

func TestRewriteUsesModelOutputAndIncrementsCount(t *testing.T) {
	model := &fakeModel{response: "standalone rewritten query"}
	history := &fakeHistory{turns: []types.ConversationTurn{{Role: "user", Content: "what is CAP?"}}}
	state := &types.PipelineState{Question: "what about availability?", SessionID: "s1"}

	runRewrite(t, model, history, state)

	if state.RewrittenQuery != "standalone rewritten query" {
		t.Errorf("RewrittenQuery = %q, want model's response", state.RewrittenQuery)
	}
	if state.RewriteCount != 1 {
		t.Errorf("RewriteCount = %d, want 1", state.RewriteCount)
	}
}

func TestRewriteSkipsModelWhenSkipRewriteSet(t *testing.T) {
	model := &fakeModel{response: "should not be used"}
	state := &types.PipelineState{Question: "hello", SkipRewrite: true}

	runRewrite(t, model, &fakeHistory{}, state)

	if state.RewrittenQuery != "hello" {
		t.Errorf("RewrittenQuery = %q, want original question when rewrite is skipped", state.RewrittenQuery)
	}
	if state.RewriteCount != 0 {
		t.Errorf("RewriteCount = %d, want 0 when rewrite is skipped", state.RewriteCount)
	}
	if model.lastUser != "" {
		t.Error("model should not be invoked when SkipRewrite is set")
	}
}

func TestRewriteFallsBackToOriginalQueryOnModelError(t *testing.T) {
	model := &fakeModel{err: context.DeadlineExceeded}
	state := &types.PipelineState{Question: "what about availability?"}

	runRewrite(t, model, &fakeHistory{}, state)

	if state.RewrittenQuery != "what about availability?" {
		t.Errorf("RewrittenQuery = %q, want original question preserved on model error", state.RewrittenQuery)
	}
	if state.RewriteCount != 1 {
		t.Errorf("RewriteCount = %d, want 1 (a failed rewrite attempt still advances retrieveLoop's bound)", state.RewriteCount)
	}
}

func TestRewriteBlankModelResponseKeepsOriginalQuery(t *testing.T) {
	model := &fakeModel{response: "   "}
	state := &types.PipelineState{Question: "what about availability?"}

	runRewrite(t, model, &fakeHistory{}, state)

	if state.RewrittenQuery != "what about availability?" {
		t.Errorf("RewrittenQuery = %q, want original question when model returns blank", state.RewrittenQuery)
	}
	if state.RewriteCount != 1 {
		t.Errorf("RewriteCount = %d, want 1 (a blank response still counts as an attempted rewrite)", state.RewriteCount)
	}
}
