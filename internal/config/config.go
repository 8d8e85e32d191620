// Package config loads the engine's configuration the way the teacher
// does (internal/config/config.go): viper reads a YAML file, then a
// second pass substitutes ${ENV_VAR} references in the raw file text
// before mapstructure decodes it into typed Config.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the engine's top-level configuration tree.
type Config struct {
	Retrieval  RetrievalConfig  `yaml:"retrieval" json:"retrieval"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Correction CorrectionConfig `yaml:"correction" json:"correction"`
	Intent     IntentConfig     `yaml:"intent" json:"intent"`
	Models     []ModelConfig    `yaml:"models" json:"models"`
	Lexical    LexicalConfig    `yaml:"lexical" json:"lexical"`
	VectorStore VectorStoreConfig `yaml:"vector_store" json:"vector_store"`
	History    HistoryConfig    `yaml:"history" json:"history"`
	Prompts    PromptsConfig    `yaml:"prompts" json:"prompts"`
}

// RetrievalConfig holds the hybrid retriever's tunables, named exactly
// as enumerated in the external interfaces section: vector_k/bm25_k top
// candidates per lane, rrf_k the reciprocal rank fusion smoothing
// constant, initial_k/final_k the pre/post-rerank window, and
// relevance_threshold the rerank gate's score cutoff.
type RetrievalConfig struct {
	VectorK            int     `yaml:"vector_k" json:"vector_k"`
	BM25K              int     `yaml:"bm25_k" json:"bm25_k"`
	RRFK               int     `yaml:"rrf_k" json:"rrf_k"`
	InitialK           int     `yaml:"initial_k" json:"initial_k"`
	FinalK             int     `yaml:"final_k" json:"final_k"`
	RelevanceThreshold float64 `yaml:"relevance_threshold" json:"relevance_threshold"`
}

// ChunkingConfig documents the ingestion-time split sizes the core
// relies on (ingestion itself is out of scope; the core only needs to
// know the shape of what it reads).
type ChunkingConfig struct {
	ParentSize    int `yaml:"parent_size" json:"parent_size"`
	ParentOverlap int `yaml:"parent_overlap" json:"parent_overlap"`
	ChildSize     int `yaml:"child_size" json:"child_size"`
	ChildOverlap  int `yaml:"child_overlap" json:"child_overlap"`
}

// CorrectionConfig holds the self-correction retry loop's thresholds.
type CorrectionConfig struct {
	MaxRetries             int     `yaml:"max_retries" json:"max_retries"`
	HallucinationThreshold float64 `yaml:"hallucination_threshold" json:"hallucination_threshold"`
	FastFailCutoff         float64 `yaml:"fast_fail_cutoff" json:"fast_fail_cutoff"`
	FastSkipRetrievalScore float64 `yaml:"fast_skip_retrieval_score" json:"fast_skip_retrieval_score"`
	SimpleAdaptiveK        int     `yaml:"simple_adaptive_k" json:"simple_adaptive_k"`
}

// IntentConfig holds the 3-layer classifier's confidence gates.
type IntentConfig struct {
	SemanticConfidenceThreshold float64 `yaml:"semantic_confidence_threshold" json:"semantic_confidence_threshold"`
	LLMFallbackConfidence       float64 `yaml:"llm_fallback_confidence" json:"llm_fallback_confidence"`
}

// ModelConfig names one capability-backing model, mirroring the
// teacher's ModelConfig (type/source/model_name/parameters).
type ModelConfig struct {
	Type       string                 `yaml:"type" json:"type"` // "chat" | "embedding" | "rerank"
	Source     string                 `yaml:"source" json:"source"` // "ollama" | "openai"
	ModelName  string                 `yaml:"model_name" json:"model_name"`
	BaseURL    string                 `yaml:"base_url" json:"base_url"`
	APIKey     string                 `yaml:"api_key" json:"api_key"`
	Parameters map[string]interface{} `yaml:"parameters" json:"parameters"`
}

// LexicalConfig selects and configures the lexical (keyword) index
// backend: the in-process BM25-family scorer, or Elasticsearch for
// multi-process deployments.
type LexicalConfig struct {
	Backend   string        `yaml:"backend" json:"backend"` // "memory" | "elasticsearch"
	ES        ESConfig      `yaml:"elasticsearch" json:"elasticsearch"`
	RebuildQueue AsynqConfig `yaml:"rebuild_queue" json:"rebuild_queue"`
}

type ESConfig struct {
	Addresses []string `yaml:"addresses" json:"addresses"`
	Username  string   `yaml:"username" json:"username"`
	Password  string   `yaml:"password" json:"password"`
}

// AsynqConfig configures the background rebuild queue, adapted from
// the teacher's AsynqConfig.
type AsynqConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	Username     string        `yaml:"username" json:"username"`
	Password     string        `yaml:"password" json:"password"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	Concurrency  int           `yaml:"concurrency" json:"concurrency"`
}

// VectorStoreConfig configures the reference pgvector-backed adapter.
type VectorStoreConfig struct {
	DSN string `yaml:"dsn" json:"dsn"`
}

// HistoryConfig configures the reference redis-backed HistoryStore and
// the SSE reconnect stream registry.
type HistoryConfig struct {
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Address  string        `yaml:"address" json:"address"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// PromptsConfig carries every template the pipeline's model-calling
// stages execute, mirroring the teacher's practice of keeping prompt
// text in configuration rather than source (ConversationConfig's
// Rewrite/Summary/GenerateSessionTitle prompt fields).
type PromptsConfig struct {
	RewriteSystem      string `yaml:"rewrite_system" json:"rewrite_system"`
	RewriteUser        string `yaml:"rewrite_user" json:"rewrite_user"`
	GenerateSystem     string `yaml:"generate_system" json:"generate_system"`
	GenerateUser       string `yaml:"generate_user" json:"generate_user"`
	RetryGenerateUser  string `yaml:"retry_generate_user" json:"retry_generate_user"`
	GroundednessSystem string `yaml:"groundedness_system" json:"groundedness_system"`
	GroundednessUser   string `yaml:"groundedness_user" json:"groundedness_user"`
	IntentSystem       string `yaml:"intent_system" json:"intent_system"`
	NoDataResponse     string `yaml:"no_data_response" json:"no_data_response"`
	GarbageResponse    string `yaml:"garbage_response" json:"garbage_response"`
	GreetingResponse   string `yaml:"greeting_response" json:"greeting_response"`
	GratitudeResponse  string `yaml:"gratitude_response" json:"gratitude_response"`
	OffTopicResponse   string `yaml:"off_topic_response" json:"off_topic_response"`
}

// LoadConfig reads config.yaml from the usual search path, expands
// ${ENV_VAR} references in its raw text, then decodes it.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.ragqa")
	viper.AddConfigPath("/etc/ragqa/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	configFileContent, err := os.ReadFile(viper.ConfigFileUsed())
	if err != nil {
		return nil, fmt.Errorf("error reading config file content: %w", err)
	}

	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	result := re.ReplaceAllStringFunc(string(configFileContent), func(match string) string {
		envVar := match[2 : len(match)-1]
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})

	if err := viper.ReadConfig(strings.NewReader(result)); err != nil {
		return nil, fmt.Errorf("error re-reading expanded config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills in the values enumerated in the external
// interfaces spec when the config file omits them, so a minimal
// deployment config still produces the documented behavior.
func applyDefaults(cfg *Config) {
	if cfg.Retrieval.VectorK == 0 {
		cfg.Retrieval.VectorK = 20
	}
	if cfg.Retrieval.BM25K == 0 {
		cfg.Retrieval.BM25K = 20
	}
	if cfg.Retrieval.RRFK == 0 {
		cfg.Retrieval.RRFK = 60
	}
	if cfg.Retrieval.InitialK == 0 {
		cfg.Retrieval.InitialK = 50
	}
	if cfg.Retrieval.FinalK == 0 {
		cfg.Retrieval.FinalK = 5
	}
	if cfg.Retrieval.RelevanceThreshold == 0 {
		cfg.Retrieval.RelevanceThreshold = 0.30
	}
	if cfg.Chunking.ParentSize == 0 {
		cfg.Chunking.ParentSize = 2000
	}
	if cfg.Chunking.ParentOverlap == 0 {
		cfg.Chunking.ParentOverlap = 200
	}
	if cfg.Chunking.ChildSize == 0 {
		cfg.Chunking.ChildSize = 400
	}
	if cfg.Chunking.ChildOverlap == 0 {
		cfg.Chunking.ChildOverlap = 50
	}
	if cfg.Correction.MaxRetries == 0 {
		cfg.Correction.MaxRetries = 2
	}
	if cfg.Correction.HallucinationThreshold == 0 {
		cfg.Correction.HallucinationThreshold = 0.80
	}
	if cfg.Correction.FastFailCutoff == 0 {
		cfg.Correction.FastFailCutoff = 0.30
	}
	if cfg.Correction.FastSkipRetrievalScore == 0 {
		cfg.Correction.FastSkipRetrievalScore = 0.70
	}
	if cfg.Correction.SimpleAdaptiveK == 0 {
		cfg.Correction.SimpleAdaptiveK = 2
	}
	if cfg.Intent.SemanticConfidenceThreshold == 0 {
		cfg.Intent.SemanticConfidenceThreshold = 0.85
	}
	if cfg.Intent.LLMFallbackConfidence == 0 {
		cfg.Intent.LLMFallbackConfidence = 0.70
	}
}
