package repository

import (
	"context"
	"testing"
	"time"

	"studio-server/internal/curriculum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleSession(t *testing.T, id string) *Session {
	t.Helper()
	e := curriculum.NewEditor(curriculum.NewSequenceGenerator())
	e.Load(curriculum.BlankSections(curriculum.NewSequenceGenerator()))
	lessonID := e.OpenLessonID()
	e.SetLessonType(lessonID, curriculum.LessonQuiz)
	e.SetLessonType(lessonID, curriculum.LessonArticle)

	courseID := uint64(42)
	return &Session{
		ID:       id,
		OwnerID:  "17",
		CourseID: &courseID,
		Settings: curriculum.DefaultSettings(),
		State:    e.Snapshot(),
	}
}

func TestMemorySessionRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	repo := newMemorySessionRepository(time.Hour, clock, zap.NewNop())

	t.Run("unknown session", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("save and get returns an independent copy", func(t *testing.T) {
		s := sampleSession(t, "a")
		require.NoError(t, repo.Save(ctx, s))

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "17", got.OwnerID)
		assert.Equal(t, uint64(42), *got.CourseID)
		assert.Equal(t, s.State.OpenLessonID, got.State.OpenLessonID)

		restored := curriculum.RestoreEditor(got.State, curriculum.NewSequenceGenerator())
		lesson, ok := restored.Lesson(restored.OpenLessonID())
		require.True(t, ok)
		assert.Equal(t, curriculum.LessonArticle, lesson.Type())
		_, parked := lesson.Payload(curriculum.LessonQuiz)
		assert.True(t, parked, "parked payloads survive storage")

		got.State.Sections[0].Title = "mutated"
		again, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.State.Sections[0].Title)
	})

	t.Run("save stamps created and updated times", func(t *testing.T) {
		s := sampleSession(t, "stamped")
		require.NoError(t, repo.Save(ctx, s))
		assert.Equal(t, now, s.CreatedAt)
		assert.Equal(t, now, s.UpdatedAt)

		opened := now
		now = now.Add(time.Minute)
		require.NoError(t, repo.Save(ctx, s))

		got, err := repo.Get(ctx, "stamped")
		require.NoError(t, err)
		assert.True(t, got.CreatedAt.Equal(opened), "created_at is kept")
		assert.True(t, got.UpdatedAt.Equal(now), "updated_at advances")
	})

	t.Run("expiry and purge", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, sampleSession(t, "old")))
		now = now.Add(2 * time.Hour)
		require.NoError(t, repo.Save(ctx, sampleSession(t, "fresh")))

		_, err := repo.Get(ctx, "old")
		assert.ErrorIs(t, err, ErrSessionNotFound)

		n, err := repo.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n) // "a", "stamped" и "old"

		_, err = repo.Get(ctx, "fresh")
		assert.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "fresh"))
		_, err := repo.Get(ctx, "fresh")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}
