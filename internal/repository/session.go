package repository

import (
	"context"
	"errors"
	"time"

	"studio-server/internal/curriculum"
)

var (
	// ErrSessionNotFound возвращается, когда сессии нет или её TTL истёк.
	ErrSessionNotFound = errors.New("studio session not found")
)

// Session is one instructor's editing session: the curriculum draft plus
// course settings, bound to the LMS user that opened it.
type Session struct {
	ID        string              `json:"id"`
	OwnerID   string              `json:"owner_id"`
	CourseID  *uint64             `json:"course_id,omitempty"`
	Settings  curriculum.Settings `json:"settings"`
	State     curriculum.Snapshot `json:"state"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// SessionRepository хранит сессии редактора между запросами.
type SessionRepository interface {
	// Get returns ErrSessionNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	// Save inserts or replaces the session and refreshes its TTL.
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	// PurgeExpired removes sessions idle for longer than the TTL.
	PurgeExpired(ctx context.Context) (int64, error)
}

// stamp sets CreatedAt on first save and UpdatedAt on every save, as the
// postgres upsert does.
func stamp(s *Session, now time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}
