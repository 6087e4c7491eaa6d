package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const sessionKeyPrefix = "chat_session:"

// RedisSessionStore persists sessions as JSON blobs with a sliding TTL, so a
// visitor can resume an in-progress conversation across page loads.
type RedisSessionStore struct {
	redis       *redis.Client
	tracer      trace.Tracer
	ttl         time.Duration
	maxMessages int
}

// NewRedisSessionStore creates a Redis-backed session store. ttl <= 0 means
// sessions never expire; maxMessages <= 0 keeps the full log.
func NewRedisSessionStore(redisClient *redis.Client, ttl time.Duration, maxMessages int) *RedisSessionStore {
	if redisClient == nil {
		return nil
	}
	return &RedisSessionStore{
		redis:       redisClient,
		tracer:      otel.Tracer("medichat.internal.chat.session_store"),
		ttl:         ttl,
		maxMessages: maxMessages,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("chat: session id required")
	}

	ctx, span := r.tracer.Start(ctx, "chat.session_store.get")
	defer span.End()

	raw, err := r.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return errors.New("chat: session with id required")
	}

	if r.maxMessages > 0 && len(s.Messages) > r.maxMessages {
		s.Messages = s.Messages[len(s.Messages)-r.maxMessages:]
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("chat: marshal session: %w", err)
	}

	ctx, span := r.tracer.Start(ctx, "chat.session_store.save")
	defer span.End()

	if err := r.redis.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "chat.session_store.delete")
	defer span.End()

	if err := r.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: delete session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) List(ctx context.Context) ([]SessionSummary, error) {
	ctx, span := r.tracer.Start(ctx, "chat.session_store.list")
	defer span.End()

	var out []SessionSummary
	iter := r.redis.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := r.redis.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // expired between scan and get
			}
			span.RecordError(err)
			return nil, fmt.Errorf("chat: list sessions: %w", err)
		}
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		out = append(out, SessionSummary{
			ID:           s.ID,
			Step:         s.Step,
			MessageCount: len(s.Messages),
			UpdatedAt:    s.UpdatedAt,
		})
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: scan sessions: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}
