// Package intent implements the three-layer intent classification
// cascade: deterministic rules, semantic exemplar matching, and a
// language-model fallback, each layer passing through to the next on
// low confidence or failure. Grounded on the teacher's chatpipline
// plugin shape (chat_pipline/rewrite.go) for how a pipeline stage
// calls into a capability.LanguageModel and logs failures non-fatally.
package intent

import (
	"context"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/support"
	"github.com/wekai-labs/ragqa/internal/types"
)

// Classifier runs the three-layer cascade and applies the
// conversation-dependent override.
type Classifier struct {
	semantic *semanticLayer
	model    capability.LanguageModel
}

func NewClassifier(embedder capability.Embedder, model capability.LanguageModel) *Classifier {
	return &Classifier{semantic: newSemanticLayer(embedder), model: model}
}

// Warm embeds the exemplar bank; call once during startup. Safe to
// skip — the semantic layer simply stays disabled and layer 2 runs
// for every non-rule-caught query.
func (c *Classifier) Warm(ctx context.Context) {
	c.semantic.Warm(ctx)
}

// Classify returns the query's intent and confidence, applying the
// conversation-dependent override for context-dependent intents with
// no prior turns to operate on.
func (c *Classifier) Classify(ctx context.Context, query string, hasPriorTurns bool) types.Classification {
	if result, ok := classifyRules(query); ok {
		return result
	}

	if result, ok := c.semantic.classify(ctx, query); ok {
		return c.override(result, hasPriorTurns)
	}

	result := classifyModel(ctx, c.model, query)
	return c.override(result, hasPriorTurns)
}

// override downgrades followup/simplify/deepen to a plain question
// when the session has no history for them to act on — those intents
// are meaningless without a prior answer.
func (c *Classifier) override(result types.Classification, hasPriorTurns bool) types.Classification {
	if hasPriorTurns {
		return result
	}
	switch result.Intent {
	case types.IntentFollowup, types.IntentSimplify, types.IntentDeepen:
		return types.Classification{Intent: types.IntentQuestion, Confidence: 1.0}
	default:
		return result
	}
}

// HistoryChecker reports whether a session has any prior turns, used
// by the conversation-dependent override.
type HistoryChecker interface {
	HasPriorTurns(ctx context.Context, sessionID string) bool
}

// Plugin wires the classifier into the pipeline's classify_intent
// stage.
type Plugin struct {
	classifier *Classifier
	history    HistoryChecker
}

func NewPlugin(eventManager *pipeline.EventManager, classifier *Classifier, history HistoryChecker) *Plugin {
	p := &Plugin{classifier: classifier, history: history}
	eventManager.Register(p)
	return p
}

func (p *Plugin) ActivationEvents() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageClassifyIntent}
}

func (p *Plugin) OnEvent(
	ctx context.Context, stage pipeline.Stage, state *types.PipelineState, next func() *pipeline.PluginError,
) *pipeline.PluginError {
	cleaned, ok := support.ValidateInput(state.Question)
	if !ok {
		logger.Warnf(ctx, "classify_intent: rejecting malformed input request_id=%s", state.RequestID)
		state.Classification = types.Classification{Intent: types.IntentGarbage, Confidence: 1.0}
		state.IsGarbage = true
		state.RecordStep("classify_intent")
		return next()
	}
	state.Question = cleaned

	hasHistory := p.history.HasPriorTurns(ctx, state.SessionID)
	classification := p.classifier.Classify(ctx, state.Question, hasHistory)
	state.Classification = classification
	state.IsGarbage = classification.Intent == types.IntentGarbage
	logger.Infof(ctx, "classified intent=%s confidence=%.2f request_id=%s",
		classification.Intent, classification.Confidence, state.RequestID)
	state.RecordStep("classify_intent")
	return next()
}
