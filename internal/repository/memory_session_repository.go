package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var _ SessionRepository = (*memorySessionRepository)(nil)

// memorySessionRepository keeps sessions in process. Records are stored
// encoded so callers never share slices with the stored copy.
type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

type memoryEntry struct {
	data      []byte
	touchedAt time.Time
}

// NewMemorySessionRepository создает хранилище сессий в памяти процесса.
func NewMemorySessionRepository(ttl time.Duration, logger *zap.Logger) SessionRepository {
	return newMemorySessionRepository(ttl, time.Now, logger)
}

func newMemorySessionRepository(ttl time.Duration, now func() time.Time, logger *zap.Logger) *memorySessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      now,
		logger:   logger.Named("MemorySessionRepo"),
	}
}

func (r *memorySessionRepository) Get(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	entry, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || r.expired(entry) {
		return nil, ErrSessionNotFound
	}
	var s Session
	if err := json.Unmarshal(entry.data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *memorySessionRepository) Save(_ context.Context, s *Session) error {
	now := r.now()
	stamp(s, now)
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}
	r.mu.Lock()
	r.sessions[s.ID] = memoryEntry{data: data, touchedAt: now}
	r.mu.Unlock()
	return nil
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

func (r *memorySessionRepository) PurgeExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, entry := range r.sessions {
		if r.expired(entry) {
			delete(r.sessions, id)
			n++
		}
	}
	if n > 0 {
		r.logger.Debug("Purged expired sessions", zap.Int64("count", n))
	}
	return n, nil
}

func (r *memorySessionRepository) expired(e memoryEntry) bool {
	return r.ttl > 0 && r.now().Sub(e.touchedAt) > r.ttl
}
