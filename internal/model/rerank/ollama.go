package rerank

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	ollamaapi "github.com/ollama/ollama/api"
	"github.com/wekai-labs/ragqa/internal/model/ollamasvc"
)

// OllamaCrossEncoder scores passages with a local generative model
// prompted to emit a single relevance number, using Service.Generate —
// the teacher's ollama util comments this method as "used for Rerank"
// but never wires it to anything; this adapter is that wiring.
type OllamaCrossEncoder struct {
	modelName string
	svc       *ollamasvc.Service
}

func NewOllamaCrossEncoder(modelName string, svc *ollamasvc.Service) *OllamaCrossEncoder {
	return &OllamaCrossEncoder{modelName: modelName, svc: svc}
}

const scorePrompt = `Rate how relevant the passage is to the query on a scale from 0 to 10. Respond with only the number.

Query: %s

Passage: %s

Score:`

func (e *OllamaCrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if err := e.svc.EnsureModelAvailable(ctx, e.modelName); err != nil {
		return nil, err
	}

	scores := make([]float64, len(passages))
	for i, passage := range passages {
		prompt := fmt.Sprintf(scorePrompt, query, passage)
		var raw string
		req := &ollamaapi.GenerateRequest{Model: e.modelName, Prompt: prompt, Options: map[string]interface{}{"temperature": 0}}
		err := e.svc.Generate(ctx, req, func(resp ollamaapi.GenerateResponse) error {
			raw += resp.Response
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("generate rerank score for passage %d: %w", i, err)
		}
		scores[i] = parseScore(raw)
	}
	return scores, nil
}

// parseScore extracts the first number the model wrote, tolerating
// prose around it; an unparseable response scores 0 rather than
// failing the whole batch.
func parseScore(raw string) float64 {
	raw = strings.TrimSpace(raw)
	var numStart, numEnd = -1, -1
	for i, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			if numStart == -1 {
				numStart = i
			}
			numEnd = i + 1
		} else if numStart != -1 {
			break
		}
	}
	if numStart == -1 {
		return 0
	}
	score, err := strconv.ParseFloat(raw[numStart:numEnd], 64)
	if err != nil {
		return 0
	}
	return score
}

func (e *OllamaCrossEncoder) GetModelName() string {
	return e.modelName
}
