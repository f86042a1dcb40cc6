package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"studio-server/internal/curriculum"
	"studio-server/internal/lmsapi"
	lmsmocks "studio-server/internal/lmsapi/mocks"
	"studio-server/internal/messaging"
	msgmocks "studio-server/internal/messaging/mocks"
	"studio-server/internal/repository"
	repomocks "studio-server/internal/repository/mocks"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []messaging.StudioEvent
}

func (r *recordingEvents) PublishStudioEvent(_ context.Context, e messaging.StudioEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEvents) last(t *testing.T) messaging.StudioEvent {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.events)
	return r.events[len(r.events)-1]
}

type recordingProgress struct {
	mu      sync.Mutex
	percent []int
}

func (r *recordingProgress) UploadProgress(_, _ string, percent int) {
	r.mu.Lock()
	r.percent = append(r.percent, percent)
	r.mu.Unlock()
}

type fixture struct {
	svc      StudioService
	lms      *lmsmocks.Client
	repo     repository.SessionRepository
	events   *recordingEvents
	progress *recordingProgress
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		lms:      new(lmsmocks.Client),
		repo:     repository.NewMemorySessionRepository(time.Hour, zap.NewNop()),
		events:   &recordingEvents{},
		progress: &recordingProgress{},
	}
	f.svc = NewStudioService(f.lms, f.repo, f.events, f.progress, curriculum.NewSequenceGenerator(), zap.NewNop())
	t.Cleanup(func() { f.lms.AssertExpectations(t) })
	return f
}

func credsFor(t *testing.T, userID any) *lmsapi.Credentials {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte("test"))
	require.NoError(t, err)
	return lmsapi.NewCredentials(s, "refresh")
}

func u64(n uint64) *uint64 { return &n }

func TestOpenSession(t *testing.T) {
	ctx := context.Background()
	creds := credsFor(t, 5)

	t.Run("blank course", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.svc.OpenSession(ctx, creds, nil)
		require.NoError(t, err)

		parsed, err := uuid.Parse(view.ID)
		require.NoError(t, err, "the session id is an unguessable uuid")
		assert.Equal(t, uuid.Version(4), parsed.Version())
		assert.Nil(t, view.CourseID)
		assert.Equal(t, curriculum.DefaultSettings(), view.Settings)
		require.Len(t, view.Sections, 1)
		assert.Equal(t, "Welcome & Fundamentals", view.Sections[0].Title)
		require.Len(t, view.Sections[0].Lessons, 1)
		assert.Equal(t, "Course Introduction", view.Sections[0].Lessons[0].Title)
		assert.Equal(t, view.Sections[0].Lessons[0].ID, view.OpenLessonID)
	})

	t.Run("existing course", func(t *testing.T) {
		f := newFixture(t)
		f.lms.On("GetCourse", ctx, creds, uint64(42)).Return(&lmsapi.CourseDTO{
			ID: u64(42), Title: "Go", Level: "advanced", Price: "10.00",
			Sections: []lmsapi.SectionDTO{{ID: u64(1), Title: "Basics", Lessons: []lmsapi.LessonDTO{
				{ID: u64(10), Title: "Intro", LessonType: "video"},
			}}},
		}, nil).Once()

		view, err := f.svc.OpenSession(ctx, creds, u64(42))
		require.NoError(t, err)
		assert.Equal(t, uint64(42), *view.CourseID)
		assert.Equal(t, curriculum.LevelAdvanced, view.Settings.Level)
		assert.Equal(t, curriculum.PersistedID(10), view.OpenLessonID)
	})

	t.Run("lms error is surfaced", func(t *testing.T) {
		f := newFixture(t)
		f.lms.On("GetCourse", ctx, creds, uint64(9)).Return(nil, &lmsapi.APIError{Status: 404, Message: "Not found."}).Once()

		_, err := f.svc.OpenSession(ctx, creds, u64(9))
		assert.ErrorIs(t, err, lmsapi.ErrNotFound)
	})

	t.Run("unreadable token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.OpenSession(ctx, lmsapi.NewCredentials("opaque", ""), nil)
		assert.ErrorIs(t, err, lmsapi.ErrUnauthorized)
	})
}

func TestSessionOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	view, err := f.svc.OpenSession(ctx, credsFor(t, 5), nil)
	require.NoError(t, err)

	_, err = f.svc.GetSession(ctx, credsFor(t, 6), view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = f.svc.AddSection(ctx, credsFor(t, 6), view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	owner, err := f.svc.Authorize(ctx, credsFor(t, 5), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "5", owner)

	require.NoError(t, f.svc.CloseSession(ctx, credsFor(t, 5), view.ID))
	_, err = f.svc.GetSession(ctx, credsFor(t, 5), view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionTimestamps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creds := credsFor(t, 5)

	opened, err := f.svc.OpenSession(ctx, creds, nil)
	require.NoError(t, err)
	assert.False(t, opened.CreatedAt.IsZero())
	assert.False(t, opened.UpdatedAt.IsZero())

	time.Sleep(2 * time.Millisecond)
	_, edited, err := f.svc.AddSection(ctx, creds, opened.ID)
	require.NoError(t, err)
	assert.True(t, edited.UpdatedAt.After(opened.UpdatedAt), "updated_at advances on edit")

	reloaded, err := f.svc.GetSession(ctx, creds, opened.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.CreatedAt.Equal(opened.CreatedAt))
	assert.True(t, reloaded.UpdatedAt.Equal(edited.UpdatedAt))
}

func TestEditingFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creds := credsFor(t, 5)
	view, err := f.svc.OpenSession(ctx, creds, nil)
	require.NoError(t, err)
	sid := view.ID

	sectionID, view, err := f.svc.AddSection(ctx, creds, sid)
	require.NoError(t, err)
	require.Len(t, view.Sections, 2)
	assert.Equal(t, "Untitled Section", view.Sections[1].Title)

	lessonID, _, err := f.svc.AddLesson(ctx, creds, sid, sectionID)
	require.NoError(t, err)

	_, err = f.svc.SetLessonType(ctx, creds, sid, lessonID, curriculum.LessonQuiz)
	require.NoError(t, err)
	questionID, _, err := f.svc.AddQuestion(ctx, creds, sid, lessonID)
	require.NoError(t, err)
	choiceID, _, err := f.svc.AddChoice(ctx, creds, sid, lessonID, questionID)
	require.NoError(t, err)
	_, err = f.svc.UpdateChoiceText(ctx, creds, sid, lessonID, questionID, choiceID, "Goroutines")
	require.NoError(t, err)
	view, err = f.svc.MarkChoiceCorrect(ctx, creds, sid, lessonID, questionID, choiceID)
	require.NoError(t, err)

	quiz := view.Sections[1].Lessons[0].Content().(*curriculum.Quiz)
	require.Len(t, quiz.Questions, 1)
	require.Len(t, quiz.Questions[0].Choices, 2)
	assert.False(t, quiz.Questions[0].Choices[0].IsCorrect)
	assert.True(t, quiz.Questions[0].Choices[1].IsCorrect)
	assert.Equal(t, "Goroutines", quiz.Questions[0].Choices[1].Text)

	view, err = f.svc.MoveSection(ctx, creds, sid, 1, curriculum.Up)
	require.NoError(t, err)
	assert.Equal(t, sectionID, view.Sections[0].ID)

	title := "Concurrency"
	view, err = f.svc.UpdateSettings(ctx, creds, sid, curriculum.SettingsPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Concurrency", view.Settings.Title)

	// состояние переживает повторное чтение из хранилища
	reloaded, err := f.svc.GetSession(ctx, creds, sid)
	require.NoError(t, err)
	assert.Equal(t, view.Sections[0].ID, reloaded.Sections[0].ID)
	assert.Equal(t, curriculum.LessonQuiz, reloaded.Sections[0].Lessons[0].Type())
}

func TestEditingErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creds := credsFor(t, 5)
	view, err := f.svc.OpenSession(ctx, creds, nil)
	require.NoError(t, err)
	sid := view.ID
	missing := curriculum.DraftID("temp-l-missing")

	_, err = f.svc.DeleteLesson(ctx, creds, sid, missing)
	assert.ErrorIs(t, err, ErrLessonNotFound)
	_, _, err = f.svc.AddLesson(ctx, creds, sid, curriculum.PersistedID(999))
	assert.ErrorIs(t, err, ErrSectionNotFound)
	_, err = f.svc.SetLessonType(ctx, creds, sid, view.OpenLessonID, curriculum.LessonType("podcast"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.MoveSection(ctx, creds, sid, 0, curriculum.Direction("sideways"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	bad := curriculum.Level("expert")
	_, err = f.svc.UpdateSettings(ctx, creds, sid, curriculum.SettingsPatch{Level: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = f.svc.AddQuestion(ctx, creds, sid, view.OpenLessonID)
	assert.ErrorIs(t, err, ErrInvalidInput, "a video lesson has no quiz")

	after, err := f.svc.GetSession(ctx, creds, sid)
	require.NoError(t, err)
	assert.Equal(t, view.Sections, after.Sections, "failed edits leave the session untouched")
}

func TestSaveNewCourse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creds := credsFor(t, 5)
	view, err := f.svc.OpenSession(ctx, creds, nil)
	require.NoError(t, err)

	f.lms.On("CreateCourse", ctx, creds, mock.MatchedBy(func(p lmsapi.CourseDTO) bool {
		return p.ID == nil && p.IsPublished &&
			len(p.Sections) == 1 && p.Sections[0].ID == nil && p.Sections[0].Lessons[0].ID == nil &&
			p.Description == curriculum.EmptyDescription
	})).Return(&lmsapi.CourseDTO{
		ID: u64(77), Title: "New UI Mastery Course", IsPublished: true,
		Sections: []lmsapi.SectionDTO{{ID: u64(3), Title: "Welcome & Fundamentals", Lessons: []lmsapi.LessonDTO{
			{ID: u64(30), Title: "Course Introduction", LessonType: "video"},
		}}},
	}, nil).Once()

	saved, err := f.svc.Save(ctx, creds, view.ID, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), *saved.CourseID)
	assert.True(t, saved.Settings.IsPublished)
	assert.Equal(t, curriculum.PersistedID(3), saved.Sections[0].ID)
	assert.Equal(t, curriculum.PersistedID(30), saved.OpenLessonID, "open draft lesson follows its saved copy")

	event := f.events.last(t)
	assert.Equal(t, messaging.EventCoursePublished, event.Kind)
	assert.Equal(t, "Course created.", event.Message)
	assert.Equal(t, uint64(77), *event.CourseID)

	path, err := f.svc.PreviewPath(ctx, creds, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "/learn/77", path)
}

func TestSaveExistingCourseUsesPut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creds := credsFor(t, 5)
	course := &lmsapi.CourseDTO{ID: u64(42), Title: "Go", Sections: []lmsapi.SectionDTO{{ID: u64(1), Title: "A"}}}
	f.lms.On("GetCourse", ctx, creds, uint64(42)).Return(course, nil).Once()
	view, err := f.svc.OpenSession(ctx, creds, u64(42))
	require.NoError(t, err)

	f.lms.On("UpdateCourse", ctx, creds, uint64(42), mock.MatchedBy(func(p lmsapi.CourseDTO) bool {
		return !p.IsPublished && *p.Sections[0].ID == 1
	})).Return(course, nil).Once()

	_, err = f.svc.Save(ctx, creds, view.ID, false)
	require.NoError(t, err)
	event := f.events.last(t)
	assert.Equal(t, messaging.EventCourseUpdated, event.Kind)
	assert.Equal(t, "Course updated.", event.Message)
}

func TestSaveFailureKeepsLocalState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creds := credsFor(t, 5)
	view, err := f.svc.OpenSession(ctx, creds, nil)
	require.NoError(t, err)
	_, view, err = f.svc.AddSection(ctx, creds, view.ID)
	require.NoError(t, err)

	f.lms.On("CreateCourse", ctx, creds, mock.Anything).
		Return(nil, &lmsapi.APIError{Status: 400, Message: "Title required"}).Once()

	_, err = f.svc.Save(ctx, creds, view.ID, false)
	assert.ErrorIs(t, err, lmsapi.ErrBadRequest)

	after, err := f.svc.GetSession(ctx, creds, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Sections, after.Sections)
	assert.Nil(t, after.CourseID)

	event := f.events.last(t)
	assert.Equal(t, messaging.LevelError, event.Level)
	assert.Equal(t, "Failed to save.", event.Message)

	_, err = f.svc.PreviewPath(ctx, creds, view.ID)
	assert.ErrorIs(t, err, ErrDraftNotSaved)
	assert.Equal(t, "Please save your course as a draft before previewing.", f.events.last(t).Message)
}

func TestSaveIsNotReentrantButEditsContinue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creds := credsFor(t, 5)
	view, err := f.svc.OpenSession(ctx, creds, nil)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	f.lms.On("CreateCourse", ctx, creds, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil, errors.New("lms down")).Once()

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Save(ctx, creds, view.ID, false)
		done <- err
	}()
	<-started

	_, err = f.svc.Save(ctx, creds, view.ID, false)
	assert.ErrorIs(t, err, ErrSaveInProgress)

	_, _, err = f.svc.AddSection(ctx, creds, view.ID)
	assert.NoError(t, err, "editing is not blocked by an in-flight save")

	close(release)
	assert.Error(t, <-done)
}

func TestForeignSaveDoesNotBlockOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := credsFor(t, 5)
	view, err := f.svc.OpenSession(ctx, owner, nil)
	require.NoError(t, err)
	svc := f.svc.(*studioService)

	saving := func() bool {
		svc.savingMu.Lock()
		defer svc.savingMu.Unlock()
		return svc.saving[view.ID]
	}

	// пока сессия заблокирована, чужой Save ждет проверки владельца
	unlock := svc.locks.Lock(view.ID)
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Save(ctx, credsFor(t, 6), view.ID, false)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, saving(), "a caller that does not own the session cannot mark it as saving")
	unlock()
	assert.ErrorIs(t, <-done, ErrSessionNotFound)

	f.lms.On("CreateCourse", ctx, owner, mock.Anything).Return(&lmsapi.CourseDTO{ID: u64(5)}, nil).Once()
	_, err = f.svc.Save(ctx, owner, view.ID, false)
	assert.NoError(t, err)
	assert.False(t, saving())
}

func TestUploads(t *testing.T) {
	ctx := context.Background()
	creds := credsFor(t, 5)
	course := &lmsapi.CourseDTO{ID: u64(42), Sections: []lmsapi.SectionDTO{{ID: u64(1), Lessons: []lmsapi.LessonDTO{
		{ID: u64(10), Title: "Intro", LessonType: "video"},
	}}}}
	file := lmsapi.Upload{Name: "lecture.mp4", Size: 4}

	open := func(t *testing.T) (*fixture, *SessionView) {
		f := newFixture(t)
		f.lms.On("GetCourse", ctx, creds, uint64(42)).Return(course, nil).Once()
		view, err := f.svc.OpenSession(ctx, creds, u64(42))
		require.NoError(t, err)
		return f, view
	}

	t.Run("draft lesson is refused without calling the lms", func(t *testing.T) {
		f, view := open(t)
		draftID, _, err := f.svc.AddLesson(ctx, creds, view.ID, curriculum.PersistedID(1))
		require.NoError(t, err)

		_, err = f.svc.UploadVideo(ctx, creds, view.ID, draftID, file)
		assert.ErrorIs(t, err, ErrDraftNotSaved)
		assert.Equal(t, "Save draft before uploading video.", f.events.last(t).Message)
		assert.Equal(t, messaging.LevelWarning, f.events.last(t).Level)

		_, err = f.svc.AddResource(ctx, creds, view.ID, draftID, file)
		assert.ErrorIs(t, err, ErrDraftNotSaved)
		assert.Equal(t, "Save draft first.", f.events.last(t).Message)
	})

	t.Run("video upload reports progress and stores the url", func(t *testing.T) {
		f, view := open(t)
		f.lms.On("UploadLessonVideo", ctx, creds, uint64(10), file, mock.Anything).
			Run(func(args mock.Arguments) {
				progress := args.Get(4).(lmsapi.ProgressFunc)
				progress(50)
				progress(100)
			}).
			Return("https://cdn/10.mp4", nil).Once()

		out, err := f.svc.UploadVideo(ctx, creds, view.ID, curriculum.PersistedID(10), file)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/10.mp4", out.Sections[0].Lessons[0].Content().(*curriculum.Video).URL)
		assert.Equal(t, []int{50, 100}, f.progress.percent)
		assert.Equal(t, "Video uploaded.", f.events.last(t).Message)
	})

	t.Run("failed video upload", func(t *testing.T) {
		f, view := open(t)
		f.lms.On("UploadLessonVideo", ctx, creds, uint64(10), file, mock.Anything).
			Return("", lmsapi.ErrUnavailable).Once()

		_, err := f.svc.UploadVideo(ctx, creds, view.ID, curriculum.PersistedID(10), file)
		assert.ErrorIs(t, err, lmsapi.ErrUnavailable)
		assert.Equal(t, "Upload failed.", f.events.last(t).Message)
	})

	t.Run("resource attach and delete", func(t *testing.T) {
		f, view := open(t)
		f.lms.On("UploadResource", ctx, creds, uint64(10), file).Return(&lmsapi.ResourceDTO{
			ID: 5, Title: "lecture.mp4", File: "/media/r/5", FileType: "mp4", FileSize: "0.0 MB",
		}, nil).Once()
		f.lms.On("DeleteResource", ctx, creds, uint64(5)).Return(nil).Once()

		out, err := f.svc.AddResource(ctx, creds, view.ID, curriculum.PersistedID(10), file)
		require.NoError(t, err)
		require.Len(t, out.Sections[0].Lessons[0].Resources, 1)
		assert.Equal(t, "Resource attached.", f.events.last(t).Message)

		out, err = f.svc.DeleteResource(ctx, creds, view.ID, curriculum.PersistedID(10), 5)
		require.NoError(t, err)
		assert.Empty(t, out.Sections[0].Lessons[0].Resources)
		assert.Equal(t, messaging.LevelInfo, f.events.last(t).Level)
		assert.Equal(t, "Resource deleted.", f.events.last(t).Message)
	})
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("session")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, k.size(), "idle keys are released")
}

func TestStoreFailureIsReported(t *testing.T) {
	ctx := context.Background()
	creds := credsFor(t, 5)
	repo := new(repomocks.SessionRepository)
	lms := new(lmsmocks.Client)
	svc := NewStudioService(lms, repo, nil, nil, curriculum.NewSequenceGenerator(), zap.NewNop())

	stored := &repository.Session{
		ID:       "s1",
		OwnerID:  "5",
		Settings: curriculum.DefaultSettings(),
		State:    curriculum.NewEditor(curriculum.NewSequenceGenerator()).Snapshot(),
	}
	repo.On("Get", ctx, "s1").Return(stored, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*repository.Session")).Return(errors.New("redis: connection refused")).Once()

	_, _, err := svc.AddSection(ctx, creds, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store session")

	repo.On("Get", ctx, "gone").Return(nil, repository.ErrSessionNotFound).Once()
	_, err = svc.GetSession(ctx, creds, "gone")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	repo.AssertExpectations(t)
}

func TestEventFailureDoesNotFailTheEdit(t *testing.T) {
	ctx := context.Background()
	creds := credsFor(t, 5)
	events := new(msgmocks.EventPublisher)
	lms := new(lmsmocks.Client)
	repo := repository.NewMemorySessionRepository(time.Hour, zap.NewNop())
	svc := NewStudioService(lms, repo, events, nil, curriculum.NewSequenceGenerator(), zap.NewNop())

	view, err := svc.OpenSession(ctx, creds, nil)
	require.NoError(t, err)

	events.On("PublishStudioEvent", ctx, mock.MatchedBy(func(e messaging.StudioEvent) bool {
		return e.Kind == messaging.EventPreviewBlocked && e.SessionID == view.ID && e.OwnerID == "5"
	})).Return(errors.New("broker down")).Once()

	_, err = svc.PreviewPath(ctx, creds, view.ID)
	assert.ErrorIs(t, err, ErrDraftNotSaved, "the caller sees the domain error, not the broker failure")
	events.AssertExpectations(t)
}
