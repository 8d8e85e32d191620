// Package rerank implements the capability.CrossEncoder contract. No
// go-openai or ollama client exposes a rerank endpoint, so this
// adapter speaks the Cohere/Jina-style /rerank HTTP contract directly,
// same as the teacher's OpenAIReranker — justified in DESIGN.md as the
// one capability adapter built on net/http rather than a client
// library, since none in the corpus covers this endpoint shape.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wekai-labs/ragqa/internal/logger"
)

type RemoteCrossEncoder struct {
	modelName string
	apiKey    string
	baseURL   string
	client    *http.Client
}

func NewRemoteCrossEncoder(modelName, baseURL, apiKey string) *RemoteCrossEncoder {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &RemoteCrossEncoder{
		modelName: modelName,
		apiKey:    apiKey,
		baseURL:   baseURL,
		client:    &http.Client{},
	}
}

type rerankRequest struct {
	Model                string   `json:"model"`
	Query                string   `json:"query"`
	Documents            []string `json:"documents"`
	TruncatePromptTokens int      `json:"truncate_prompt_tokens"`
}

type rankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rankResult `json:"results"`
}

// Score returns one logit per passage, in the same order as passages —
// it reorders the provider's index-tagged results back into input
// order so callers never have to sort by Index themselves.
func (r *RemoteCrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	body, err := json.Marshal(rerankRequest{
		Model:                r.modelName,
		Query:                query,
		Documents:            passages,
		TruncatePromptTokens: 511,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send rerank request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rerank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Errorf(ctx, "rerank API error: status %s body %s", resp.Status, respBody)
		return nil, fmt.Errorf("rerank API error: status %s", resp.Status)
	}

	var parsed rerankResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal rerank response: %w", err)
	}

	scores := make([]float64, len(passages))
	for _, result := range parsed.Results {
		if result.Index >= 0 && result.Index < len(scores) {
			scores[result.Index] = result.RelevanceScore
		}
	}
	return scores, nil
}

func (r *RemoteCrossEncoder) GetModelName() string {
	return r.modelName
}
