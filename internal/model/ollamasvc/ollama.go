// Package ollamasvc wraps the ollama/ollama API client as a singleton
// service shared by the chat, embedding, and rerank adapters, adapted
// from the teacher's internal/models/utils/ollama package. Kept
// separate from internal/model/chat etc. because all three capability
// adapters that can run against a local model share the same
// heartbeat/pull/availability bookkeeping.
package ollamasvc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/ollama/ollama/api"
	"github.com/wekai-labs/ragqa/internal/logger"
)

type Service struct {
	client      *api.Client
	baseURL     string
	mu          sync.Mutex
	isAvailable bool
	isOptional  bool
}

// New builds a Service pointed at baseURL, or $OLLAMA_BASE_URL, or the
// local default. When OLLAMA_OPTIONAL=true a down service degrades the
// adapters that depend on it rather than failing startup — the engine
// can still serve requests against a remote-only model configuration.
func New(baseURL string) (*Service, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
		if env := os.Getenv("OLLAMA_BASE_URL"); env != "" {
			baseURL = env
		}
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url: %w", err)
	}

	client := api.NewClient(parsedURL, http.DefaultClient)

	return &Service{
		client:     client,
		baseURL:    baseURL,
		isOptional: os.Getenv("OLLAMA_OPTIONAL") == "true",
	}, nil
}

func (s *Service) StartService(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.Heartbeat(ctx); err != nil {
		logger.Warnf(ctx, "ollama service unavailable: %v", err)
		s.isAvailable = false
		if s.isOptional {
			return nil
		}
		return fmt.Errorf("ollama service unavailable: %w", err)
	}

	s.isAvailable = true
	return nil
}

func (s *Service) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAvailable
}

func (s *Service) IsModelAvailable(ctx context.Context, modelName string) (bool, error) {
	if err := s.StartService(ctx); err != nil {
		return false, err
	}
	if !s.isAvailable && s.isOptional {
		return false, nil
	}

	listResp, err := s.client.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list models: %w", err)
	}
	for _, model := range listResp.Models {
		if model.Name == modelName {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) PullModel(ctx context.Context, modelName string) error {
	if err := s.StartService(ctx); err != nil {
		return err
	}
	if !s.isAvailable && s.isOptional {
		logger.Warnf(ctx, "ollama unavailable, cannot pull model %s", modelName)
		return nil
	}

	available, err := s.IsModelAvailable(ctx, modelName)
	if err != nil {
		return err
	}
	if available {
		return nil
	}

	logger.Infof(ctx, "pulling model %s", modelName)
	return s.client.Pull(ctx, &api.PullRequest{Name: modelName}, func(progress api.ProgressResponse) error {
		return nil
	})
}

func (s *Service) EnsureModelAvailable(ctx context.Context, modelName string) error {
	if !s.IsAvailable() && s.isOptional {
		return nil
	}

	available, err := s.IsModelAvailable(ctx, modelName)
	if err != nil {
		if s.isOptional {
			return nil
		}
		return err
	}
	if !available {
		return s.PullModel(ctx, modelName)
	}
	return nil
}

func (s *Service) Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error {
	if err := s.StartService(ctx); err != nil {
		return err
	}
	return s.client.Chat(ctx, req, fn)
}

func (s *Service) Embed(ctx context.Context, req *api.EmbedRequest) (*api.EmbedResponse, error) {
	if err := s.StartService(ctx); err != nil {
		return nil, err
	}
	return s.client.Embed(ctx, req)
}

func (s *Service) Generate(ctx context.Context, req *api.GenerateRequest, fn api.GenerateResponseFunc) error {
	if err := s.StartService(ctx); err != nil {
		return err
	}
	return s.client.Generate(ctx, req, fn)
}
