package chat

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"github.com/wekai-labs/ragqa/internal/capability"
)

// RemoteAPIChat calls an OpenAI-compatible chat completions endpoint.
type RemoteAPIChat struct {
	modelName string
	client    *openai.Client
}

func NewRemoteAPIChat(modelName, baseURL, apiKey string) *RemoteAPIChat {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &RemoteAPIChat{modelName: modelName, client: openai.NewClientWithConfig(cfg)}
}

func (c *RemoteAPIChat) buildRequest(prompt capability.Prompt, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		Stream: stream,
	}
	if prompt.Temperature > 0 {
		req.Temperature = float32(prompt.Temperature)
	}
	if prompt.MaxTokens > 0 {
		req.MaxTokens = prompt.MaxTokens
	}
	return req
}

func (c *RemoteAPIChat) Invoke(ctx context.Context, prompt capability.Prompt) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(prompt, false))
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from remote chat model")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *RemoteAPIChat) Stream(ctx context.Context, prompt capability.Prompt) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)

	stream, err := c.client.CreateChatCompletionStream(ctx, c.buildRequest(prompt, true))
	if err != nil {
		close(tokens)
		errs <- fmt.Errorf("create chat completion stream: %w", err)
		close(errs)
		return tokens, errs
	}

	go func() {
		defer close(tokens)
		defer close(errs)
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					errs <- err
				}
				return
			}
			if len(response.Choices) > 0 && response.Choices[0].Delta.Content != "" {
				select {
				case tokens <- response.Choices[0].Delta.Content:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return tokens, errs
}

func (c *RemoteAPIChat) GetModelName() string {
	return c.modelName
}
