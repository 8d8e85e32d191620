// Package rebuildqueue backgrounds a collection's lexical index
// rebuild behind asynq/redis so an ingestion-time writer (add/remove)
// never blocks a concurrent reader on the same collection, adapted
// from the teacher's internal/common/asyncq.go (there a generic
// task-type registry; here specialized to the one task this engine
// actually enqueues).
package rebuildqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/lexical"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/types"
)

const TaskTypeRebuild = "lexical:rebuild"

// RebuildPayload names the collection to rebuild; the handler re-reads
// the current chunk set via rebuildFn rather than carrying chunks
// through the queue, so a slow consumer doesn't pin a stale snapshot
// in redis.
type RebuildPayload struct {
	Collection string `json:"collection"`
}

// Queue wraps an asynq client for enqueueing rebuild jobs.
type Queue struct {
	client *asynq.Client
}

func NewQueue(cfg config.AsynqConfig) *Queue {
	return &Queue{client: asynq.NewClient(asynq.RedisClientOpt{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})}
}

// Enqueue schedules a rebuild for collection on the default queue.
func (q *Queue) Enqueue(collection string) error {
	payload, err := json.Marshal(RebuildPayload{Collection: collection})
	if err != nil {
		return fmt.Errorf("marshal rebuild payload: %w", err)
	}
	_, err = q.client.Enqueue(asynq.NewTask(TaskTypeRebuild, payload), asynq.Queue("default"))
	return err
}

// RebuildFunc lists a collection's current chunks, typically backed by
// the VectorStore's GetAllChunks capability.
type RebuildFunc func(ctx context.Context, collection string) ([]types.Chunk, error)

// Server runs the background worker that pops rebuild jobs and applies
// them to idx via rebuildFn.
type Server struct {
	cfg       config.AsynqConfig
	idx       *lexical.Index
	rebuildFn RebuildFunc
}

func NewServer(cfg config.AsynqConfig, idx *lexical.Index, rebuildFn RebuildFunc) *Server {
	return &Server{cfg: cfg, idx: idx, rebuildFn: rebuildFn}
}

// Run starts the asynq server and blocks until it stops or ctx is done.
// Intended to be launched in its own goroutine by the container.
func (s *Server) Run(ctx context.Context) error {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:         s.cfg.Addr,
			Username:     s.cfg.Username,
			Password:     s.cfg.Password,
			ReadTimeout:  s.cfg.ReadTimeout,
			WriteTimeout: s.cfg.WriteTimeout,
		},
		asynq.Config{
			Concurrency: maxInt(s.cfg.Concurrency, 1),
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeRebuild, s.handleRebuild)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(mux) }()

	select {
	case <-ctx.Done():
		srv.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleRebuild(ctx context.Context, task *asynq.Task) error {
	var payload RebuildPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal rebuild payload: %w", err)
	}

	chunks, err := s.rebuildFn(ctx, payload.Collection)
	if err != nil {
		logger.Errorf(ctx, "lexical rebuild failed for collection %s: %v", payload.Collection, err)
		return err
	}

	s.idx.Build(payload.Collection, chunks)
	logger.Infof(ctx, "lexical index rebuilt for collection %s (%d chunks)", payload.Collection, len(chunks))
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
