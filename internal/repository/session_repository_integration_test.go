//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"studio-server/internal/curriculum"
	"studio-server/internal/repository"
	"studio-server/pkg/migration"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// SessionStoreSuite прогоняет одинаковые сценарии против Redis и PostgreSQL.
type SessionStoreSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger
}

func (s *SessionStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("studio_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)
	s.pgPool, err = pgxpool.New(s.ctx, dsn)
	require.NoError(s.T(), err)

	migrator := migration.NewMigrator(migration.Config{
		MigrationsFS:   repository.MigrationsFS,
		MigrationsPath: repository.MigrationsPath,
	}, s.pgPool, s.logger)
	require.NoError(s.T(), migrator.Up(), "Failed to run migrations")
	version, dirty, err := migrator.Version()
	require.NoError(s.T(), err)
	s.Equal(uint(1), version)
	s.False(dirty)

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")
	host, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())
}

func (s *SessionStoreSuite) TearDownSuite() {
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
}

func (s *SessionStoreSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
	_, err := s.pgPool.Exec(s.ctx, "TRUNCATE TABLE studio_sessions")
	require.NoError(s.T(), err)
}

func (s *SessionStoreSuite) stores() map[string]repository.SessionRepository {
	return map[string]repository.SessionRepository{
		"redis":    repository.NewRedisSessionRepository(s.redisClient, time.Hour, s.logger),
		"postgres": repository.NewPgSessionRepository(s.pgPool, time.Hour, s.logger),
	}
}

func newSession(id string) *repository.Session {
	ids := curriculum.NewSequenceGenerator()
	e := curriculum.NewEditor(ids)
	e.Load(curriculum.BlankSections(ids))
	sid := e.AddSection()
	lid, _ := e.AddLesson(sid)
	e.SetLessonType(lid, curriculum.LessonQuiz)
	e.AddQuestion(lid)
	e.OpenLesson(lid)

	courseID := uint64(7)
	return &repository.Session{
		ID:       id,
		OwnerID:  "17",
		CourseID: &courseID,
		Settings: curriculum.DefaultSettings(),
		State:    e.Snapshot(),
	}
}

func (s *SessionStoreSuite) TestRoundTrip() {
	for name, store := range s.stores() {
		s.Run(name, func() {
			in := newSession("session-" + name)
			s.Require().NoError(store.Save(s.ctx, in))

			out, err := store.Get(s.ctx, in.ID)
			s.Require().NoError(err)
			s.Equal(in.OwnerID, out.OwnerID)
			s.Equal(*in.CourseID, *out.CourseID)
			s.Equal(in.Settings, out.Settings)
			s.Equal(in.State.OpenLessonID, out.State.OpenLessonID)
			s.Require().Len(out.State.Sections, 2)

			lesson := out.State.Sections[1].Lessons[0]
			s.Equal(curriculum.LessonQuiz, lesson.Type())
			s.Len(lesson.Content().(*curriculum.Quiz).Questions, 1)
			s.False(out.CreatedAt.IsZero(), "created_at is stamped")
			s.False(out.UpdatedAt.IsZero(), "updated_at is stamped")
			firstUpdate := out.UpdatedAt

			// повторное сохранение обновляет запись, а не создает новую
			in.Settings.Title = "Renamed"
			s.Require().NoError(store.Save(s.ctx, in))
			out, err = store.Get(s.ctx, in.ID)
			s.Require().NoError(err)
			s.Equal("Renamed", out.Settings.Title)
			s.False(out.UpdatedAt.Before(firstUpdate))

			s.Require().NoError(store.Delete(s.ctx, in.ID))
			_, err = store.Get(s.ctx, in.ID)
			s.ErrorIs(err, repository.ErrSessionNotFound)
		})
	}
}

func (s *SessionStoreSuite) TestPostgresExpiry() {
	store := repository.NewPgSessionRepository(s.pgPool, time.Minute, s.logger)
	in := newSession("stale")
	s.Require().NoError(store.Save(s.ctx, in))

	_, err := s.pgPool.Exec(s.ctx, "UPDATE studio_sessions SET updated_at = NOW() - INTERVAL '1 hour' WHERE id = $1", in.ID)
	s.Require().NoError(err)

	_, err = store.Get(s.ctx, in.ID)
	s.ErrorIs(err, repository.ErrSessionNotFound)

	n, err := store.PurgeExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func TestSessionStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed tests in short mode")
	}
	suite.Run(t, new(SessionStoreSuite))
}
