package embedding

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/wekai-labs/ragqa/internal/logger"
)

// RemoteAPIEmbedder calls an OpenAI-compatible embeddings endpoint,
// retrying transient failures with exponential backoff — the teacher's
// OpenAIEmbedder hand-rolls the HTTP request and the same retry loop;
// this adapter gets the request/response shape from go-openai instead.
type RemoteAPIEmbedder struct {
	client     *openai.Client
	modelName  string
	dimensions int
	maxRetries int
}

func NewRemoteAPIEmbedder(modelName, baseURL, apiKey string, dimensions int) *RemoteAPIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &RemoteAPIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		modelName:  modelName,
		dimensions: dimensions,
		maxRetries: 3,
	}
}

func (e *RemoteAPIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

func (e *RemoteAPIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.modelName),
	}

	var resp openai.EmbeddingResponse
	var err error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
			logger.Infof(ctx, "retrying embedding request (%d/%d) in %v", attempt, e.maxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err = e.client.CreateEmbeddings(ctx, req)
		if err == nil {
			break
		}
		logger.Errorf(ctx, "embedding request failed (attempt %d/%d): %v", attempt+1, e.maxRetries+1, err)
	}
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (e *RemoteAPIEmbedder) Dimensions() int {
	return e.dimensions
}
