// Package intenthandle implements the non-retrieval intent handlers
// (§4.12): fixed polite responses for greeting/gratitude/garbage/
// off_topic, and context-aware expand/simplify/deepen handlers that
// operate on the most recent assistant turn. Grounded on the teacher's
// chat_pipline plugin shape, reusing its pattern of reading session
// history and building a handler-specific prompt (rewrite.go), applied
// here to answer transformation instead of query reformulation.
package intenthandle

import (
	"context"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/types"
)

const askSpecificQuestionReply = "I don't have a previous answer to work from yet — could you ask a specific question first?"

// Plugin wires the non-retrieval intent handlers into the pipeline's
// handle_non_rag_intent and handle_garbage_query stages.
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
	return []pipeline.Stage{pipeline.StageHandleNonRAGIntent, pipeline.StageHandleGarbageQuery}
}

func (p *Plugin) OnEvent(
	ctx context.Context, stage pipeline.Stage, state *types.PipelineState, next func() *pipeline.PluginError,
) *pipeline.PluginError {
	switch state.Classification.Intent {
	case types.IntentGreeting:
		state.Answer = p.prompts.GreetingResponse
		state.IsGrounded = true
	case types.IntentGratitude:
		state.Answer = p.prompts.GratitudeResponse
		state.IsGrounded = true
	case types.IntentGarbage:
		state.Answer = p.prompts.GarbageResponse
		state.IsGrounded = true
	case types.IntentOffTopic:
		state.Answer = p.prompts.OffTopicResponse
		state.IsGrounded = true
	case types.IntentFollowup, types.IntentSimplify, types.IntentDeepen:
		p.handleContextAware(ctx, state)
	case types.IntentClarifyNeeded:
		state.Answer = askSpecificQuestionReply
		state.IsGrounded = true
	default:
		// types.IntentQuestion and types.IntentCommand never reach this
		// plugin; the orchestrator's needsRAG routes both to retrieval
		// instead.
	}

	logger.Infof(ctx, "handled non-rag intent=%s request_id=%s", state.Classification.Intent, state.RequestID)
	state.RecordStep(string(stage))
	return next()
}

// handleContextAware retrieves the most recent assistant turn and asks
// the model to expand, simplify, or deepen it. With no prior assistant
// turn to operate on, it falls back to a short prompt asking the user
// to ask a specific question, rather than silently routing to full
// retrieval — the conservative choice per §4.12's "or, depending on
// policy" note, since a bare expand/simplify request with no context
// has nothing grounded to work from.
func (p *Plugin) handleContextAware(ctx context.Context, state *types.PipelineState) {
	turns, err := p.history.Get(ctx, state.SessionID, 10)
	if err != nil {
		logger.Warnf(ctx, "intent handler: failed to load history for session %s: %v", state.SessionID, err)
	}

	lastAnswer := mostRecentAssistantTurn(turns)
	if lastAnswer == "" {
		state.Answer = askSpecificQuestionReply
		state.IsGrounded = true
		return
	}

	system, user := handlerPrompt(state.Classification.Intent, lastAnswer, state.Question)
	response, err := p.model.Invoke(ctx, capability.Prompt{
		System: system, User: user, Temperature: 0.3, MaxTokens: 512,
	})
	if err != nil {
		logger.Errorf(ctx, "intent handler: model invocation failed for intent %s: %v", state.Classification.Intent, err)
		state.Answer = lastAnswer
		state.IsGrounded = true
		return
	}
	state.Answer = response
	state.IsGrounded = true
}

func mostRecentAssistantTurn(turns []types.ConversationTurn) string {
	for _, t := range turns {
		if t.Role == "assistant" {
			return t.Content
		}
	}
	return ""
}

func handlerPrompt(intent types.Intent, priorAnswer, question string) (system, user string) {
	switch intent {
	case types.IntentSimplify:
		return "Rewrite the following answer in simpler terms, for a reader with no background in the topic. Keep it accurate.",
			priorAnswer
	case types.IntentDeepen:
		return "Expand the following answer with more technical depth and detail, while staying consistent with it.",
			priorAnswer
	default: // IntentFollowup
		return "Continue the conversation. Given the previous answer, respond to the follow-up request.",
			"Previous answer: " + priorAnswer + "\n\nFollow-up: " + question
	}
}
