package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisSessionRepository implements SessionRepository
var _ SessionRepository = (*redisSessionRepository)(nil)

const sessionKeyPrefix = "studio_session:"

type redisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewRedisSessionRepository creates a Redis-backed SessionRepository.
// Each session is one JSON value at studio_session:{id}; TTL is refreshed on every save.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) SessionRepository {
	return &redisSessionRepository{
		client: client,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.Named("RedisSessionRepo"),
	}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (r *redisSessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		r.logger.Error("Failed to get session from redis", zap.String("sessionID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *redisSessionRepository) Save(ctx context.Context, s *Session) error {
	stamp(s, r.now())
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to store session in redis", zap.String("sessionID", s.ID), zap.Error(err))
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	r.logger.Debug("Session stored", zap.String("sessionID", s.ID), zap.Int("bytes", len(data)), zap.Duration("ttl", r.ttl))
	return nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete session from redis", zap.String("sessionID", id), zap.Error(err))
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op: Redis expires keys itself.
func (r *redisSessionRepository) PurgeExpired(context.Context) (int64, error) {
	return 0, nil
}
