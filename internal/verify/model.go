package verify

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/logger"
)

// ModelVerdict is the parsed structured response from the model
// verification prompt.
type ModelVerdict struct {
	Grounded bool
	Score    float64
	Issues   string
}

// verifyModel asks the language model to judge whether answer is
// supported by sourceText, for the ambiguous band only. When the call
// fails or the response cannot be parsed it keeps the fast score, and
// the answer counts as grounded unless the fast verdict alone is
// not-grounded (so within the ambiguous band it counts as grounded).
func verifyModel(ctx context.Context, model capability.LanguageModel, prompts config.PromptsConfig, fast FastScore, sourceText, answer string) ModelVerdict {
	user := strings.NewReplacer(
		"{{sources}}", sourceText,
		"{{answer}}", answer,
	).Replace(prompts.GroundednessUser)

	response, err := model.Invoke(ctx, capability.Prompt{
		System:      prompts.GroundednessSystem,
		User:        user,
		Temperature: 0,
		MaxTokens:   200,
	})
	if err != nil {
		logger.Warnf(ctx, "groundedness verifier: model call failed, keeping fast score: %v", err)
		return ModelVerdict{Grounded: fast.Verdict() != VerdictNotGrounded, Score: fast.Combined}
	}

	verdict, ok := parseModelVerdict(response)
	if !ok {
		logger.Warnf(ctx, "groundedness verifier: unparseable model response, keeping fast score")
		return ModelVerdict{Grounded: fast.Verdict() != VerdictNotGrounded, Score: fast.Combined}
	}
	return verdict
}

// parseModelVerdict reads GROUNDED/SCORE/ISSUES lines from response.
func parseModelVerdict(response string) (ModelVerdict, bool) {
	var verdict ModelVerdict
	var sawGrounded, sawScore bool

	scanner := bufio.NewScanner(strings.NewReader(response))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "GROUNDED"):
			value := strings.ToLower(afterColon(line))
			verdict.Grounded = strings.HasPrefix(value, "yes") || strings.HasPrefix(value, "true")
			sawGrounded = true
		case strings.HasPrefix(upper, "SCORE"):
			value := strings.TrimSpace(afterColon(line))
			if score, err := strconv.ParseFloat(value, 64); err == nil {
				verdict.Score = score
				sawScore = true
			}
		case strings.HasPrefix(upper, "ISSUES"):
			verdict.Issues = strings.TrimSpace(afterColon(line))
		}
	}
	if !sawGrounded || !sawScore {
		return ModelVerdict{}, false
	}
	return verdict, true
}

func afterColon(line string) string {
	idx := strings.Index(line, ":")
	if idx == -1 {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}
