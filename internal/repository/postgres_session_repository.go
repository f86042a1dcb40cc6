package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// MigrationsFS содержит SQL миграции таблицы studio_sessions.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath is the directory inside MigrationsFS.
const MigrationsPath = "migrations"

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	getSessionQuery = `
        SELECT id, owner_id, course_id, settings, state, created_at, updated_at
        FROM studio_sessions
        WHERE id = $1 AND updated_at > $2`
	upsertSessionQuery = `
        INSERT INTO studio_sessions (id, owner_id, course_id, settings, state, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (id) DO UPDATE SET
            owner_id   = EXCLUDED.owner_id,
            course_id  = EXCLUDED.course_id,
            settings   = EXCLUDED.settings,
            state      = EXCLUDED.state,
            updated_at = NOW()
        RETURNING updated_at`
	deleteSessionQuery = `DELETE FROM studio_sessions WHERE id = $1`
	purgeSessionsQuery = `DELETE FROM studio_sessions WHERE updated_at <= $1`
)

var _ SessionRepository = (*pgSessionRepository)(nil)

type pgSessionRepository struct {
	db     DBTX
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// sessionRow is the studio_sessions row; jsonb columns stay raw.
type sessionRow struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	CourseID  *int64    `db:"course_id"`
	Settings  []byte    `db:"settings"`
	State     []byte    `db:"state"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewPgSessionRepository создает репозиторий сессий поверх PostgreSQL.
func NewPgSessionRepository(querier DBTX, ttl time.Duration, logger *zap.Logger) SessionRepository {
	return &pgSessionRepository{
		db:     querier,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Named("PgSessionRepo"),
	}
}

func (r *pgSessionRepository) cutoff() time.Time {
	if r.ttl <= 0 {
		return time.Time{}
	}
	return r.now().Add(-r.ttl)
}

func (r *pgSessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	log := r.logger.With(zap.String("sessionID", id))

	var row sessionRow
	if err := pgxscan.Get(ctx, r.db, &row, getSessionQuery, id, r.cutoff()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		log.Error("Error getting studio session", zap.Error(err))
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	s := &Session{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.CourseID != nil {
		courseID := uint64(*row.CourseID)
		s.CourseID = &courseID
	}
	if err := json.Unmarshal(row.Settings, &s.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings of session %s: %w", id, err)
	}
	if err := json.Unmarshal(row.State, &s.State); err != nil {
		return nil, fmt.Errorf("failed to decode state of session %s: %w", id, err)
	}
	return s, nil
}

func (r *pgSessionRepository) Save(ctx context.Context, s *Session) error {
	log := r.logger.With(zap.String("sessionID", s.ID))

	settings, err := json.Marshal(s.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	state, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	var courseID *int64
	if s.CourseID != nil {
		v := int64(*s.CourseID)
		courseID = &v
	}
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	if err := r.db.QueryRow(ctx, upsertSessionQuery, s.ID, s.OwnerID, courseID, settings, state, createdAt).Scan(&s.UpdatedAt); err != nil {
		log.Error("Error upserting studio session", zap.Error(err))
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	s.CreatedAt = createdAt
	return nil
}

func (r *pgSessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, deleteSessionQuery, id); err != nil {
		r.logger.Error("Error deleting studio session", zap.String("sessionID", id), zap.Error(err))
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func (r *pgSessionRepository) PurgeExpired(ctx context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, purgeSessionsQuery, r.cutoff())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		r.logger.Info("Purged expired studio sessions", zap.Int64("count", n))
	}
	return tag.RowsAffected(), nil
}
