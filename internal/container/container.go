// Package container wires the engine's components through a
// go.uber.org/dig graph, the same dependency-injection library and
// global-accessor pattern the teacher uses (internal/container/
// container.go). Build returns the one thing a synchronous caller
// needs — a ready-to-run Orchestrator — and starts the background
// lexical-rebuild consumer and tracer as side effects; Shutdown flushes
// the latter on process exit.
package container

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/dig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/evaluation"
	"github.com/wekai-labs/ragqa/internal/generate"
	"github.com/wekai-labs/ragqa/internal/intent"
	"github.com/wekai-labs/ragqa/internal/intenthandle"
	"github.com/wekai-labs/ragqa/internal/lexical"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/model/ollamasvc"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/rerank"
	"github.com/wekai-labs/ragqa/internal/retrieval"
	"github.com/wekai-labs/ragqa/internal/rewrite"
	"github.com/wekai-labs/ragqa/internal/router"
	"github.com/wekai-labs/ragqa/internal/store/migrations"
	"github.com/wekai-labs/ragqa/internal/store/pgvectorstore"
	"github.com/wekai-labs/ragqa/internal/store/redishistory"
	"github.com/wekai-labs/ragqa/internal/streamreg"
	"github.com/wekai-labs/ragqa/internal/tracing"
	"github.com/wekai-labs/ragqa/internal/verify"
)

var (
	global        *dig.Container
	tracerCleanup func(context.Context) error
)

func init() {
	global = dig.New()
}

// Get returns the global dependency injection container.
func Get() *dig.Container {
	return global
}

// Provide registers a constructor on the global container, panicking on
// a wiring error since this only ever runs at process startup.
func Provide(constructor interface{}, opts ...dig.ProvideOption) {
	must(global.Provide(constructor, opts...))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Build wires every capability adapter, plugin, and the orchestrator
// itself onto the global container, runs pending schema migrations,
// and returns the orchestrator ready to serve Run/RunStreaming calls.
func Build(cfg *config.Config) (*pipeline.Orchestrator, error) {
	tracer, err := tracing.InitTracer()
	if err != nil {
		return nil, fmt.Errorf("container: init tracer: %w", err)
	}
	tracerCleanup = tracer.Cleanup

	Provide(func() *config.Config { return cfg })
	Provide(initDB)
	Provide(initAntsPool)
	Provide(initOllamaService)
	Provide(buildModels)
	Provide(func(db *gorm.DB) capability.VectorStore { return pgvectorstore.New(db) })
	Provide(func(cfg *config.Config) capability.HistoryStore { return redishistory.New(cfg.History.Redis) })
	Provide(func(store capability.HistoryStore) intent.HistoryChecker { return newHistoryChecker(store) })
	Provide(buildLexicalSearcher)
	Provide(func(
		cfg *config.Config, embedder capability.Embedder, vectors capability.VectorStore, lex retrieval.LexicalSearcher,
	) *retrieval.HybridRetriever {
		return retrieval.NewHybridRetriever(
			embedder, vectors, lex,
			cfg.Retrieval.VectorK, cfg.Retrieval.BM25K, cfg.Retrieval.RRFK, cfg.Retrieval.FinalK,
		)
	})
	Provide(retrieval.NewSequentialRetriever)
	Provide(func(embedder capability.Embedder, model capability.LanguageModel) *intent.Classifier {
		return intent.NewClassifier(embedder, model)
	})
	Provide(func(model capability.LanguageModel, cfg *config.Config) *generate.Generator {
		return generate.NewGenerator(model, cfg.Prompts)
	})
	Provide(func(g *generate.Generator) pipeline.Generator { return g })
	Provide(pipeline.NewEventManager)

	var orchestrator *pipeline.Orchestrator
	err = global.Invoke(func(
		events *pipeline.EventManager,
		classifier *intent.Classifier, historyChecker intent.HistoryChecker,
		model capability.LanguageModel, history capability.HistoryStore, cfg *config.Config,
		hybridRetriever *retrieval.HybridRetriever, sequentialRetriever *retrieval.SequentialRetriever,
		embedder capability.Embedder, crossEncoder capability.CrossEncoder,
		vectors capability.VectorStore, lexIndex *lexical.Index,
		generator *generate.Generator, generatorIface pipeline.Generator,
	) {
		intent.NewPlugin(events, classifier, historyChecker)
		router.NewPlugin(events)
		rewrite.NewPlugin(events, model, history, cfg.Prompts)
		retrieval.NewPlugin(events, hybridRetriever)
		retrieval.NewSequentialPlugin(events, sequentialRetriever)
		rerank.NewPlugin(events, rerank.NewContextFilter(embedder), rerank.NewGate(crossEncoder, cfg.Retrieval.RelevanceThreshold))
		generate.NewPlugin(events, generator, history)
		verify.NewPlugin(events, model, cfg.Prompts, cfg.Correction.HallucinationThreshold)
		intenthandle.NewPlugin(events, model, history, cfg.Prompts)

		if lexIndex != nil {
			startRebuildServer(cfg.Lexical.RebuildQueue, lexIndex, vectors)
		}

		orchestrator = pipeline.NewOrchestrator(events, generatorIface, history, generate.BuildContext, generate.BuildHistory)
	})
	if err != nil {
		return nil, fmt.Errorf("container: wiring failed: %w", err)
	}
	return orchestrator, nil
}

// BuildHarness wires the same graph Build does and additionally pulls
// out the hybrid retriever and worker pool the offline evaluation
// harness needs, so a caller doesn't have to duplicate Build's wiring
// to run a labeled-query set against a live deployment.
func BuildHarness(cfg *config.Config) (*evaluation.Harness, error) {
	orchestrator, err := Build(cfg)
	if err != nil {
		return nil, err
	}

	var harness *evaluation.Harness
	err = global.Invoke(func(retriever *retrieval.HybridRetriever, pool *ants.Pool) {
		harness = evaluation.NewHarness(retriever, orchestrator, pool)
	})
	if err != nil {
		return nil, fmt.Errorf("container: harness wiring failed: %w", err)
	}
	return harness, nil
}

// Shutdown flushes any spans buffered by the tracer InitTracer set up
// during Build. Callers should defer this after a successful Build.
func Shutdown(ctx context.Context) error {
	if tracerCleanup == nil {
		return nil
	}
	return tracerCleanup(ctx)
}

// NewStreamRegistry builds the SSE reconnect registry for a caller
// that exposes RunStreaming over a network transport and needs to let
// a dropped client resume an in-flight answer. Not part of Build's
// graph since the synchronous/channel-based Orchestrator surface has
// no notion of a reconnecting client itself.
func NewStreamRegistry(cfg *config.Config) *streamreg.Registry {
	return streamreg.New(cfg.History.Redis)
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.VectorStore.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("container: open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("container: underlying sql.DB: %w", err)
	}
	if err := runMigrations(sqlDB); err != nil {
		return nil, err
	}
	return db, nil
}

func runMigrations(sqlDB *sql.DB) error {
	if err := migrations.Up(sqlDB); err != nil {
		return fmt.Errorf("container: migrate: %w", err)
	}
	return nil
}

// initAntsPool sizes the bounded worker pool shared by the evaluation
// harness's concurrent query runs, defaulting to 5 the way the
// teacher's initAntsPool does, overridable via CONCURRENCY_POOL_SIZE.
func initAntsPool() (*ants.Pool, error) {
	size := 5
	if v := os.Getenv("CONCURRENCY_POOL_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			size = parsed
		}
	}
	return ants.NewPool(size, ants.WithPreAlloc(true))
}

// startRebuildServer launches the background lexical-rebuild consumer
// for the memory backend in its own goroutine; a failure after startup
// is logged rather than surfaced through Build, since a broken rebuild
// consumer degrades to a stale index rather than an unusable one.
func startRebuildServer(cfg config.AsynqConfig, idx *lexical.Index, vectors capability.VectorStore) {
	srv := NewRebuildServer(cfg, idx, vectors)
	go func() {
		if err := srv.Run(context.Background()); err != nil {
			logger.Errorf(context.Background(), "container: lexical rebuild server stopped: %v", err)
		}
	}()
}

func initOllamaService(cfg *config.Config) (*ollamasvc.Service, error) {
	baseURL := ""
	for _, m := range cfg.Models {
		if m.Source == "ollama" && m.BaseURL != "" {
			baseURL = m.BaseURL
			break
		}
	}
	return ollamasvc.New(baseURL)
}
