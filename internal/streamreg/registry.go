// Package streamreg is a redis-backed registry of in-flight answer
// streams, letting a client that dropped its connection mid-stream
// reconnect and replay what it missed instead of re-running the whole
// pipeline. Grounded on the teacher's stream.RedisStreamManager: same
// client construction, same key-prefix/TTL conventions, same
// read-modify-write-whole-record-as-JSON update pattern, generalized
// from the teacher's single Content+KnowledgeReferences record to this
// engine's StreamEvent vocabulary (phase/sources/token/done).
package streamreg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/types"
)

const defaultTTL = 30 * time.Minute

// record is the accumulated state of one in-flight (or recently
// finished) stream, keyed by session+request.
type record struct {
	SessionID   string         `json:"session_id"`
	RequestID   string         `json:"request_id"`
	Query       string         `json:"query"`
	Content     string         `json:"content"`
	Sources     []types.Source `json:"sources,omitempty"`
	WasGrounded bool           `json:"was_grounded"`
	Done        bool           `json:"done"`
	ErrMessage  string         `json:"err_message,omitempty"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Registry tracks in-flight streams in Redis so a dropped connection
// can reconnect and pick up from where it left off.
type Registry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func New(cfg config.RedisConfig) *Registry {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "ragqa"
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	return &Registry{client: client, prefix: prefix, ttl: ttl}
}

func (r *Registry) key(sessionID, requestID string) string {
	return fmt.Sprintf("%s:stream:%s:%s", r.prefix, sessionID, requestID)
}

// Register starts tracking a new stream. Call once, before the first
// token is produced.
func (r *Registry) Register(ctx context.Context, sessionID, requestID, query string) error {
	rec := record{
		SessionID:   sessionID,
		RequestID:   requestID,
		Query:       query,
		LastUpdated: time.Now(),
	}
	return r.save(ctx, sessionID, requestID, rec)
}

// AppendToken accumulates one more token onto the stream's content.
func (r *Registry) AppendToken(ctx context.Context, sessionID, requestID, token string) error {
	rec, ok, err := r.load(ctx, sessionID, requestID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rec.Content += token
	rec.LastUpdated = time.Now()
	return r.save(ctx, sessionID, requestID, rec)
}

// SetSources records the sources list once the grading stage settles it.
func (r *Registry) SetSources(ctx context.Context, sessionID, requestID string, sources []types.Source) error {
	rec, ok, err := r.load(ctx, sessionID, requestID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rec.Sources = sources
	rec.LastUpdated = time.Now()
	return r.save(ctx, sessionID, requestID, rec)
}

// Complete marks the stream finished and schedules its eventual
// deletion, mirroring the teacher's 30s grace window so a client that
// reconnects in the few seconds after completion still sees the final
// record instead of a cache miss.
func (r *Registry) Complete(ctx context.Context, sessionID, requestID string, wasGrounded bool) error {
	rec, ok, err := r.load(ctx, sessionID, requestID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rec.Done = true
	rec.WasGrounded = wasGrounded
	rec.LastUpdated = time.Now()
	if err := r.save(ctx, sessionID, requestID, rec); err != nil {
		return err
	}

	key := r.key(sessionID, requestID)
	go func() {
		time.Sleep(30 * time.Second)
		r.client.Del(context.Background(), key)
	}()
	return nil
}

// Fail marks the stream aborted with an error, so a reconnecting
// client sees the same terminal error instead of hanging.
func (r *Registry) Fail(ctx context.Context, sessionID, requestID, message string) error {
	rec, ok, err := r.load(ctx, sessionID, requestID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rec.Done = true
	rec.ErrMessage = message
	rec.LastUpdated = time.Now()
	return r.save(ctx, sessionID, requestID, rec)
}

// Replay reconstructs the event sequence a reconnecting client should
// receive to catch up: sources (if settled), the full content
// accumulated so far as a single token, and a terminal done/error
// event only when the stream has actually finished — a client that
// reconnects mid-stream gets no terminal event at all and should keep
// its connection open for further polling or a live resubscribe.
func (r *Registry) Replay(ctx context.Context, sessionID, requestID string) ([]types.StreamEvent, bool, error) {
	rec, ok, err := r.load(ctx, sessionID, requestID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return buildReplayEvents(rec), true, nil
}

// buildReplayEvents is the pure half of Replay, split out so the
// catch-up sequencing rules can be tested without a redis round trip.
func buildReplayEvents(rec record) []types.StreamEvent {
	var events []types.StreamEvent
	if len(rec.Sources) > 0 {
		events = append(events, types.StreamEvent{Type: types.EventSources, Sources: rec.Sources})
	}
	if rec.Content != "" {
		events = append(events, types.StreamEvent{Type: types.EventToken, Content: rec.Content})
	}
	if rec.Done {
		if rec.ErrMessage != "" {
			events = append(events, types.StreamEvent{Type: types.EventError, Message: rec.ErrMessage})
		} else {
			events = append(events, types.StreamEvent{Type: types.EventDone, WasGrounded: rec.WasGrounded})
		}
	}
	return events
}

func (r *Registry) load(ctx context.Context, sessionID, requestID string) (record, bool, error) {
	data, err := r.client.Get(ctx, r.key(sessionID, requestID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return record{}, false, nil
		}
		return record{}, false, fmt.Errorf("streamreg: load %s/%s: %w", sessionID, requestID, err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, false, fmt.Errorf("streamreg: unmarshal %s/%s: %w", sessionID, requestID, err)
	}
	return rec, true, nil
}

func (r *Registry) save(ctx context.Context, sessionID, requestID string, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("streamreg: marshal %s/%s: %w", sessionID, requestID, err)
	}
	if err := r.client.Set(ctx, r.key(sessionID, requestID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("streamreg: save %s/%s: %w", sessionID, requestID, err)
	}
	return nil
}
