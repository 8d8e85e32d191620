package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/types"
)

const classifierSystemPrompt = `You are an intent classifier for a question-answering assistant. ` +
	`Classify the user's message into exactly one of these categories:
QUESTION, GREETING, GRATITUDE, FOLLOWUP, SIMPLIFY, DEEPEN, CLARIFY_NEEDED, COMMAND, GARBAGE, OFF_TOPIC

Respond with only the category name in uppercase. If uncertain, choose QUESTION.`

var categoryToIntent = map[string]types.Intent{
	"QUESTION":       types.IntentQuestion,
	"GREETING":       types.IntentGreeting,
	"GRATITUDE":      types.IntentGratitude,
	"FOLLOWUP":       types.IntentFollowup,
	"SIMPLIFY":       types.IntentSimplify,
	"DEEPEN":         types.IntentDeepen,
	"CLARIFY_NEEDED": types.IntentClarifyNeeded,
	"COMMAND":        types.IntentCommand,
	"GARBAGE":        types.IntentGarbage,
	"OFF_TOPIC":      types.IntentOffTopic,
}

// classifyModel is layer 2, the last resort when rules and semantic
// exemplars both pass through: a short prompt sent to the language
// model, parsed for its uppercase category token. Any failure to call
// the model or parse its response yields (question, 0.30) rather than
// propagating an error, per the classifier's failure model.
func classifyModel(ctx context.Context, model capability.LanguageModel, query string) types.Classification {
	response, err := model.Invoke(ctx, capability.Prompt{
		System:      classifierSystemPrompt,
		User:        fmt.Sprintf("Message: %s", query),
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		logger.Warnf(ctx, "intent classifier: model fallback failed, defaulting to question: %v", err)
		return types.Classification{Intent: types.IntentQuestion, Confidence: 0.30}
	}

	category := strings.ToUpper(strings.TrimSpace(response))
	for token, intent := range categoryToIntent {
		if strings.Contains(category, token) {
			return types.Classification{Intent: intent, Confidence: 0.70}
		}
	}
	return types.Classification{Intent: types.IntentQuestion, Confidence: 0.30}
}
