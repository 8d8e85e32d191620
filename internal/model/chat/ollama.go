// Package chat implements the capability.LanguageModel contract over
// local (ollama) and remote (OpenAI-compatible) backends, adapted from
// the teacher's internal/models/chat package.
package chat

import (
	"context"
	"fmt"

	ollamaapi "github.com/ollama/ollama/api"
	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/model/ollamasvc"
)

// OllamaChat calls a locally-hosted model through ollamasvc.
type OllamaChat struct {
	modelName string
	svc       *ollamasvc.Service
}

func NewOllamaChat(modelName string, svc *ollamasvc.Service) *OllamaChat {
	return &OllamaChat{modelName: modelName, svc: svc}
}

func (c *OllamaChat) buildRequest(prompt capability.Prompt, stream bool) *ollamaapi.ChatRequest {
	messages := []ollamaapi.Message{
		{Role: "system", Content: prompt.System},
		{Role: "user", Content: prompt.User},
	}
	opts := map[string]interface{}{}
	if prompt.Temperature > 0 {
		opts["temperature"] = prompt.Temperature
	}
	if prompt.MaxTokens > 0 {
		opts["num_predict"] = prompt.MaxTokens
	}
	streamFlag := stream
	return &ollamaapi.ChatRequest{
		Model:    c.modelName,
		Messages: messages,
		Stream:   &streamFlag,
		Options:  opts,
	}
}

func (c *OllamaChat) Invoke(ctx context.Context, prompt capability.Prompt) (string, error) {
	if err := c.svc.EnsureModelAvailable(ctx, c.modelName); err != nil {
		return "", err
	}

	req := c.buildRequest(prompt, false)
	var content string
	err := c.svc.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	return content, nil
}

func (c *OllamaChat) Stream(ctx context.Context, prompt capability.Prompt) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(tokens)
		defer close(errs)

		if err := c.svc.EnsureModelAvailable(ctx, c.modelName); err != nil {
			errs <- err
			return
		}

		req := c.buildRequest(prompt, true)
		err := c.svc.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
			if resp.Message.Content != "" {
				select {
				case tokens <- resp.Message.Content:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
		if err != nil {
			logger.Errorf(ctx, "ollama stream failed: %v", err)
			errs <- err
		}
	}()

	return tokens, errs
}
