// Package embedding implements the capability.Embedder contract over
// local (ollama) and remote (OpenAI-compatible) backends, adapted from
// the teacher's internal/models/embedding package.
package embedding

import (
	"context"
	"fmt"
	"time"

	ollamaapi "github.com/ollama/ollama/api"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/model/ollamasvc"
)

type OllamaEmbedder struct {
	modelName            string
	truncatePromptTokens int
	dimensions           int
	svc                  *ollamasvc.Service
}

func NewOllamaEmbedder(modelName string, dimensions, truncatePromptTokens int, svc *ollamasvc.Service) *OllamaEmbedder {
	if modelName == "" {
		modelName = "nomic-embed-text"
	}
	if truncatePromptTokens == 0 {
		truncatePromptTokens = 511
	}
	return &OllamaEmbedder{
		modelName:            modelName,
		truncatePromptTokens: truncatePromptTokens,
		dimensions:           dimensions,
		svc:                  svc,
	}
}

func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: empty response")
	}
	return vectors[0], nil
}

func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.svc.EnsureModelAvailable(ctx, e.modelName); err != nil {
		return nil, err
	}

	req := &ollamaapi.EmbedRequest{
		Model:   e.modelName,
		Input:   texts,
		Options: map[string]interface{}{},
	}
	if e.truncatePromptTokens > 0 {
		req.Options["truncate"] = e.truncatePromptTokens
	}

	start := time.Now()
	resp, err := e.svc.Embed(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	logger.Debugf(ctx, "embedding %d texts took %v", len(texts), time.Since(start))
	return resp.Embeddings, nil
}

func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}
