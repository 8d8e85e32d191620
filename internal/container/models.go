package container

import (
	"fmt"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/model/chat"
	"github.com/wekai-labs/ragqa/internal/model/embedding"
	"github.com/wekai-labs/ragqa/internal/model/ollamasvc"
	"github.com/wekai-labs/ragqa/internal/model/rerank"
)

// buildModels walks cfg.Models once and returns the three capability
// adapters the pipeline needs, dispatching each entry on its Type
// ("chat"|"embedding"|"rerank") and Source ("ollama"|"openai") the way
// the teacher's ModelService resolves a ModelConfig row to a concrete
// models.* implementation, collapsed here into one pass since this
// engine's model set is fixed at startup rather than reloaded per
// tenant request.
func buildModels(cfg *config.Config, svc *ollamasvc.Service) (capability.LanguageModel, capability.Embedder, capability.CrossEncoder, error) {
	var languageModel capability.LanguageModel
	var embedder capability.Embedder
	var crossEncoder capability.CrossEncoder

	for _, m := range cfg.Models {
		switch m.Type {
		case "chat":
			built, err := buildChatModel(m, svc)
			if err != nil {
				return nil, nil, nil, err
			}
			languageModel = built
		case "embedding":
			built, err := buildEmbedder(m, svc)
			if err != nil {
				return nil, nil, nil, err
			}
			embedder = built
		case "rerank":
			built, err := buildCrossEncoder(m, svc)
			if err != nil {
				return nil, nil, nil, err
			}
			crossEncoder = built
		default:
			return nil, nil, nil, fmt.Errorf("container: unknown model type %q", m.Type)
		}
	}

	if languageModel == nil {
		return nil, nil, nil, fmt.Errorf("container: no chat model configured")
	}
	if embedder == nil {
		return nil, nil, nil, fmt.Errorf("container: no embedding model configured")
	}
	if crossEncoder == nil {
		return nil, nil, nil, fmt.Errorf("container: no rerank model configured")
	}
	return languageModel, embedder, crossEncoder, nil
}

func buildChatModel(m config.ModelConfig, svc *ollamasvc.Service) (capability.LanguageModel, error) {
	switch m.Source {
	case "ollama":
		return chat.NewOllamaChat(m.ModelName, svc), nil
	case "openai":
		return chat.NewRemoteAPIChat(m.ModelName, m.BaseURL, m.APIKey), nil
	default:
		return nil, fmt.Errorf("container: unknown chat model source %q", m.Source)
	}
}

func buildEmbedder(m config.ModelConfig, svc *ollamasvc.Service) (capability.Embedder, error) {
	dimensions := intParam(m.Parameters, "dimensions")
	switch m.Source {
	case "ollama":
		truncate := intParam(m.Parameters, "truncate_prompt_tokens")
		return embedding.NewOllamaEmbedder(m.ModelName, dimensions, truncate, svc), nil
	case "openai":
		return embedding.NewRemoteAPIEmbedder(m.ModelName, m.BaseURL, m.APIKey, dimensions), nil
	default:
		return nil, fmt.Errorf("container: unknown embedding model source %q", m.Source)
	}
}

func buildCrossEncoder(m config.ModelConfig, svc *ollamasvc.Service) (capability.CrossEncoder, error) {
	switch m.Source {
	case "ollama":
		return rerank.NewOllamaCrossEncoder(m.ModelName, svc), nil
	case "openai":
		return rerank.NewRemoteCrossEncoder(m.ModelName, m.BaseURL, m.APIKey), nil
	default:
		return nil, fmt.Errorf("container: unknown rerank model source %q", m.Source)
	}
}

func intParam(params map[string]interface{}, key string) int {
	v, ok := params[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
