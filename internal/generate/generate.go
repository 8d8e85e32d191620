// Package generate builds the grounded-answer prompt and invokes the
// language model, both non-streaming and streaming. Grounded on the
// teacher's chat_pipline/into_chat_message.go (prompt/context string
// assembly) and chat_completion_stream.go (token-by-token emission),
// adapted to this engine's retry-aware two-template scheme instead of
// the teacher's single fixed template.
package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/types"
)

const maxHistoryTurnsForPrompt = 5

// BuildContext concatenates each relevant document, prefixed with a
// bracketed source header, in the order the reranker gate kept them.
func BuildContext(docs []types.RetrievedDocument) string {
	var b strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&b, "[Source %d: %s (page %d)]\n%s\n\n", i+1, d.Metadata.Source, d.Metadata.Page, d.Content)
	}
	return strings.TrimSpace(b.String())
}

// BuildHistory renders the last five turns as "role: content" lines,
// oldest first.
func BuildHistory(turns []types.ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	if len(turns) > maxHistoryTurnsForPrompt {
		turns = turns[:maxHistoryTurnsForPrompt]
	}
	var b strings.Builder
	for i := len(turns) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%s: %s\n", turns[i].Role, turns[i].Content)
	}
	return strings.TrimSpace(b.String())
}

// Generator produces answer text from a question, its retrieved
// context, and conversation history, selecting between the standard
// and retry prompt templates by iteration.
type Generator struct {
	model   capability.LanguageModel
	prompts config.PromptsConfig
}

func NewGenerator(model capability.LanguageModel, prompts config.PromptsConfig) *Generator {
	return &Generator{model: model, prompts: prompts}
}

// buildPrompt selects the standard template for iteration 0 and the
// stricter retry template (no chat history, stronger grounding
// emphasis) for any retry.
func (g *Generator) buildPrompt(question, contextStr, historyStr string, iteration int) capability.Prompt {
	if iteration == 0 {
		user := render(g.prompts.GenerateUser, map[string]string{
			"question": question, "context": contextStr, "history": historyStr,
		})
		return capability.Prompt{System: g.prompts.GenerateSystem, User: user, Temperature: 0.2, MaxTokens: 1024}
	}

	user := render(g.prompts.RetryGenerateUser, map[string]string{
		"question": question, "context": contextStr,
	})
	return capability.Prompt{System: g.prompts.GenerateSystem, User: user, Temperature: 0.0, MaxTokens: 1024}
}

// Invoke produces the full answer text in one call.
func (g *Generator) Invoke(ctx context.Context, question, contextStr, historyStr string, iteration int) (string, error) {
	prompt := g.buildPrompt(question, contextStr, historyStr, iteration)
	answer, err := g.model.Invoke(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Stream produces the answer token by token; the caller is expected to
// forward tokens as {type: token, content} events and drain both
// channels until they close.
func (g *Generator) Stream(ctx context.Context, question, contextStr, historyStr string, iteration int) (<-chan string, <-chan error) {
	prompt := g.buildPrompt(question, contextStr, historyStr, iteration)
	return g.model.Stream(ctx, prompt)
}

func render(template string, fields map[string]string) string {
	result := template
	for key, value := range fields {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}
