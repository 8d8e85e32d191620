package generate

import (
	"strings"
	"testing"

	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/types"
)

func TestBuildContextIncludesEverySourceInOrder(t *testing.T) {
	docs := []types.RetrievedDocument{
		{Content: "first chunk", Metadata: types.Chunk{Source: "a.pdf", Page: 1}},
		{Content: "second chunk", Metadata: types.Chunk{Source: "b.pdf", Page: 2}},
	}
	got := BuildContext(docs)
	if !strings.Contains(got, "first chunk") || !strings.Contains(got, "second chunk") {
		t.Fatalf("BuildContext output missing chunk content: %q", got)
	}
	if strings.Index(got, "first chunk") > strings.Index(got, "second chunk") {
		t.Errorf("BuildContext did not preserve document order: %q", got)
	}
	if !strings.Contains(got, "a.pdf") || !strings.Contains(got, "b.pdf") {
		t.Errorf("BuildContext should label each chunk with its source: %q", got)
	}
}

func TestBuildContextEmptyInput(t *testing.T) {
	if got := BuildContext(nil); got != "" {
		t.Errorf("BuildContext(nil) = %q, want empty", got)
	}
}

func TestBuildHistoryOrdersOldestFirstAndCaps(t *testing.T) {
	turns := []types.ConversationTurn{
		{Role: "user", Content: "turn1 (most recent)"},
		{Role: "user", Content: "turn2"},
		{Role: "user", Content: "turn3"},
		{Role: "user", Content: "turn4"},
		{Role: "user", Content: "turn5"},
		{Role: "user", Content: "turn6"},
	}
	got := BuildHistory(turns)
	if strings.Contains(got, "turn6") {
		t.Errorf("BuildHistory should cap at %d most recent turns, got %q", maxHistoryTurnsForPrompt, got)
	}
	if strings.Index(got, "turn2") > strings.Index(got, "turn1") {
		t.Errorf("BuildHistory should render oldest-kept-turn first: %q", got)
	}
}

func TestBuildHistoryEmptyInput(t *testing.T) {
	if got := BuildHistory(nil); got != "" {
		t.Errorf("BuildHistory(nil) = %q, want empty", got)
	}
}

func TestBuildPromptSelectsStandardTemplateOnFirstIteration(t *testing.T) {
	g := NewGenerator(nil, config.PromptsConfig{
		GenerateSystem:    "sys",
		GenerateUser:      "Q: {{question}} CTX: {{context}} HIST: {{history}}",
		RetryGenerateUser: "STRICT Q: {{question}} CTX: {{context}}",
	})
	prompt := g.buildPrompt("what is X?", "some context", "some history", 0)
	if !strings.Contains(prompt.User, "what is X?") || !strings.Contains(prompt.User, "some history") {
		t.Errorf("iteration 0 prompt = %q, want the standard template with history filled in", prompt.User)
	}
	if prompt.Temperature != 0.2 {
		t.Errorf("iteration 0 temperature = %v, want 0.2", prompt.Temperature)
	}
}

func TestBuildPromptSelectsRetryTemplateOnRetry(t *testing.T) {
	g := NewGenerator(nil, config.PromptsConfig{
		GenerateSystem:    "sys",
		GenerateUser:      "Q: {{question}} CTX: {{context}} HIST: {{history}}",
		RetryGenerateUser: "STRICT Q: {{question}} CTX: {{context}}",
	})
	prompt := g.buildPrompt("what is X?", "some context", "some history", 1)
	if !strings.HasPrefix(prompt.User, "STRICT") {
		t.Errorf("retry prompt = %q, want the retry template", prompt.User)
	}
	if strings.Contains(prompt.User, "some history") {
		t.Errorf("retry prompt should drop history: %q", prompt.User)
	}
	if prompt.Temperature != 0.0 {
		t.Errorf("retry temperature = %v, want 0.0", prompt.Temperature)
	}
}
