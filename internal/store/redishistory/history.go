// Package redishistory is the reference capability.HistoryStore
// implementation, grounded on the teacher's stream.RedisStreamManager:
// same client construction, same prefix/TTL conventions, same
// marshal-whole-record-as-JSON approach, applied here to conversation
// turns instead of in-flight stream state.
package redishistory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/types"
)

const defaultTTL = 24 * time.Hour

// Store is a redis-backed conversation history store, one list per
// session. Each Add is a single atomic LPUSH, so concurrent writers to
// the same session never interleave a partial record — the last push
// to land is simply the newest turn, which is the last-writer-wins
// behavior the capability contract promises.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func New(cfg config.RedisConfig) *Store {
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
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) historyKey(session string) string {
	return fmt.Sprintf("%s:history:%s", s.prefix, session)
}

func (s *Store) sessionsKey() string {
	return fmt.Sprintf("%s:sessions", s.prefix)
}

// Add appends one turn to the front of the session's list (so Get's
// LRANGE returns newest-first with no extra reversal) and refreshes
// the list's TTL and the session's membership in the session index.
func (s *Store) Add(ctx context.Context, session string, role, content string, sources []types.Source) error {
	turn := types.ConversationTurn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Sources:   sources,
	}
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("redishistory: marshal turn: %w", err)
	}

	key := s.historyKey(session)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	pipe.SAdd(ctx, s.sessionsKey(), session)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Errorf(ctx, "redishistory: failed to append turn for session %s: %v", session, err)
		return fmt.Errorf("redishistory: add: %w", err)
	}
	return nil
}

// Get returns up to limit turns, newest-first.
func (s *Store) Get(ctx context.Context, session string, limit int) ([]types.ConversationTurn, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.historyKey(session), 0, int64(limit-1)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redishistory: get session %s: %w", session, err)
	}

	turns := make([]types.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn types.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			logger.Warnf(ctx, "redishistory: skipping unparseable turn for session %s: %v", session, err)
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *Store) Clear(ctx context.Context, session string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.historyKey(session))
	pipe.SRem(ctx, s.sessionsKey(), session)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redishistory: clear session %s: %w", session, err)
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	sessions, err := s.client.SMembers(ctx, s.sessionsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redishistory: list sessions: %w", err)
	}
	return sessions, nil
}

var _ capability.HistoryStore = (*Store)(nil)
