// Package rewrite reformulates a user's question into a standalone
// query for retrieval, folding in prior conversation turns so pronouns
// and ellipsis in a follow-up question resolve against the actual
// antecedent. Grounded on the teacher's
// chat_pipline/rewrite.go (PluginRewrite), which gathers recent
// session history, renders it into a prompt template, and calls the
// chat model with a short token budget; this version drops the
// teacher's <think> tag stripping (no reasoning-trace models in this
// engine's model set) and rebuilds history from HistoryStore turns
// instead of paired request/response messages.
package rewrite

import (
	"fmt"
	"strings"

	"context"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/types"
)

const maxHistoryTurns = 5

// Plugin wires query rewriting into the pipeline's rewrite_query
// stage. It is only triggered for stages the router did not mark
// skip_rewrite, but it still checks the flag itself so it behaves
// correctly if ever invoked directly.
type Plugin struct {
	model   capability.LanguageModel
	history capability.HistoryStore
	prompts config.PromptsConfig
}

func NewPlugin(
	eventManager *pipeline.EventManager, model capability.LanguageModel,
	history capability.HistoryStore, prompts config.PromptsConfig,
) *Plugin {
	p := &Plugin{model: model, history: history, prompts: prompts}
	eventManager.Register(p)
	return p
}

func (p *Plugin) ActivationEvents() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageRewriteQuery}
}

func (p *Plugin) OnEvent(
	ctx context.Context, stage pipeline.Stage, state *types.PipelineState, next func() *pipeline.PluginError,
) *pipeline.PluginError {
	state.RewrittenQuery = state.Question

	if state.SkipRewrite {
		state.RecordStep("rewrite_query")
		return next()
	}

	turns, err := p.history.Get(ctx, state.SessionID, maxHistoryTurns)
	if err != nil {
		logger.Warnf(ctx, "rewrite: failed to load history for session %s: %v", state.SessionID, err)
	}

	historyText := formatHistory(turns)

	userContent := strings.NewReplacer(
		"{{query}}", state.Question,
		"{{history}}", historyText,
	).Replace(p.prompts.RewriteUser)
	systemContent := strings.NewReplacer(
		"{{query}}", state.Question,
		"{{history}}", historyText,
	).Replace(p.prompts.RewriteSystem)

	response, err := p.model.Invoke(ctx, capability.Prompt{
		System:      systemContent,
		User:        userContent,
		Temperature: 0.3,
		MaxTokens:   80,
	})
	if err != nil {
		logger.Errorf(ctx, "rewrite: model invocation failed, keeping original query: %v", err)
		// Still counts toward rewrite_count: retrieveLoop's hasRelevant
		// bound only advances via this counter, and a persistently
		// unavailable rewrite model must not leave it pinned while
		// retrieval keeps coming back empty on a non-empty collection.
		state.RewriteCount++
		state.RecordStep("rewrite_query")
		return next()
	}

	rewritten := strings.TrimSpace(response)
	if rewritten != "" {
		state.RewrittenQuery = rewritten
	}
	state.RewriteCount++

	logger.Infof(ctx, "rewrote query request_id=%s rewrite_count=%d rewritten=%q",
		state.RequestID, state.RewriteCount, state.RewrittenQuery)
	state.RecordStep("rewrite_query")
	return next()
}

// formatHistory renders turns oldest-first as "role: content" lines,
// the same shape the teacher's rewrite prompt template consumes.
func formatHistory(turns []types.ConversationTurn) string {
	if len(turns) == 0 {
		return "(no prior conversation)"
	}
	// turns arrive newest-first from HistoryStore.Get; reverse for a
	// chronological prompt.
	var b strings.Builder
	for i := len(turns) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%s: %s\n", turns[i].Role, turns[i].Content)
	}
	return b.String()
}
