package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"studio-server/internal/curriculum"
	"studio-server/internal/lmsapi"
	"studio-server/internal/messaging"
	"studio-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StudioService hosts instructor editing sessions. Every method checks that
// the caller owns the session; a session of another user looks missing.
type StudioService interface {
	OpenSession(ctx context.Context, creds *lmsapi.Credentials, courseID *uint64) (*SessionView, error)
	GetSession(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (*SessionView, error)
	CloseSession(ctx context.Context, creds *lmsapi.Credentials, sessionID string) error
	UpdateSettings(ctx context.Context, creds *lmsapi.Credentials, sessionID string, patch curriculum.SettingsPatch) (*SessionView, error)
	Save(ctx context.Context, creds *lmsapi.Credentials, sessionID string, publish bool) (*SessionView, error)
	PreviewPath(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (string, error)

	AddSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (curriculum.ID, *SessionView, error)
	ToggleSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID) (*SessionView, error)
	UpdateSectionTitle(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID, title string) (*SessionView, error)
	DeleteSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID) (*SessionView, error)
	MoveSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string, index int, dir curriculum.Direction) (*SessionView, error)

	AddLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID) (curriculum.ID, *SessionView, error)
	UpdateLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, patch curriculum.LessonPatch) (*SessionView, error)
	DeleteLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID) (*SessionView, error)
	MoveLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID, index int, dir curriculum.Direction) (*SessionView, error)
	SetLessonType(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, t curriculum.LessonType) (*SessionView, error)
	OpenLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID) (*SessionView, error)
	CloseLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (*SessionView, error)

	UpdateQuiz(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, patch curriculum.QuizPatch) (*SessionView, error)
	AddQuestion(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID) (curriculum.ID, *SessionView, error)
	UpdateQuestion(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID curriculum.ID, patch curriculum.QuestionPatch) (*SessionView, error)
	RemoveQuestion(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID curriculum.ID) (*SessionView, error)
	AddChoice(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID curriculum.ID) (curriculum.ID, *SessionView, error)
	UpdateChoiceText(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID, choiceID curriculum.ID, text string) (*SessionView, error)
	RemoveChoice(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID, choiceID curriculum.ID) (*SessionView, error)
	MarkChoiceCorrect(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID, choiceID curriculum.ID) (*SessionView, error)
	UpdateAssignment(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, patch curriculum.AssignmentPatch) (*SessionView, error)

	UploadVideo(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, file lmsapi.Upload) (*SessionView, error)
	AddResource(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, file lmsapi.Upload) (*SessionView, error)
	DeleteResource(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, resourceID uint64) (*SessionView, error)

	// Authorize reports whether the caller may watch the session, e.g. over websocket.
	Authorize(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (ownerID string, err error)
}

// ProgressNotifier receives upload percentages for a session's lesson.
type ProgressNotifier interface {
	UploadProgress(sessionID, lessonID string, percent int)
}

// SessionView is what the browser sees of a session.
type SessionView struct {
	ID           string               `json:"id"`
	CourseID     *uint64              `json:"course_id"`
	Settings     curriculum.Settings  `json:"settings"`
	Sections     []curriculum.Section `json:"sections"`
	OpenLessonID curriculum.ID        `json:"open_lesson_id"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func newView(s *repository.Session) *SessionView {
	return &SessionView{
		ID:           s.ID,
		CourseID:     s.CourseID,
		Settings:     s.Settings,
		Sections:     s.State.Sections,
		OpenLessonID: s.State.OpenLessonID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

type studioService struct {
	lms      lmsapi.Client
	repo     repository.SessionRepository
	events   messaging.EventPublisher
	progress ProgressNotifier
	ids      curriculum.IDGenerator
	locks    *keyedMutex
	logger   *zap.Logger

	savingMu sync.Mutex
	saving   map[string]bool
}

// NewStudioService wires the studio. progress may be nil.
func NewStudioService(
	lms lmsapi.Client,
	repo repository.SessionRepository,
	events messaging.EventPublisher,
	progress ProgressNotifier,
	ids curriculum.IDGenerator,
	logger *zap.Logger,
) StudioService {
	if ids == nil {
		ids = curriculum.UUIDGenerator{}
	}
	return &studioService{
		lms:      lms,
		repo:     repo,
		events:   events,
		progress: progress,
		ids:      ids,
		locks:    newKeyedMutex(),
		logger:   logger.Named("StudioService"),
		saving:   make(map[string]bool),
	}
}

func ownerOf(creds *lmsapi.Credentials) (string, error) {
	if creds == nil {
		return "", lmsapi.ErrUnauthorized
	}
	owner, err := creds.UserID()
	if err != nil {
		return "", fmt.Errorf("%w: %v", lmsapi.ErrUnauthorized, err)
	}
	return owner, nil
}

func (s *studioService) OpenSession(ctx context.Context, creds *lmsapi.Credentials, courseID *uint64) (*SessionView, error) {
	owner, err := ownerOf(creds)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("ownerID", owner))

	sess := &repository.Session{
		ID:      uuid.NewString(),
		OwnerID: owner,
	}
	e := curriculum.NewEditor(s.ids)
	source := "blank"
	if courseID != nil {
		course, err := s.lms.GetCourse(ctx, creds, *courseID)
		if err != nil {
			log.Warn("Failed to load course", zap.Uint64("courseID", *courseID), zap.Error(err))
			return nil, fmt.Errorf("failed to load course %d: %w", *courseID, err)
		}
		id := *courseID
		sess.CourseID = &id
		sess.Settings = lmsapi.SettingsFromDTO(*course)
		e.Load(lmsapi.SectionsFromDTO(course.Sections))
		source = "course"
	} else {
		sess.Settings = curriculum.DefaultSettings()
		e.Load(curriculum.BlankSections(s.ids))
	}
	sess.State = e.Snapshot()

	if err := s.repo.Save(ctx, sess); err != nil {
		log.Error("Failed to store new session", zap.Error(err))
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	sessionsOpenedTotal.WithLabelValues(source).Inc()
	log.Info("Studio session opened", zap.String("sessionID", sess.ID), zap.String("source", source))
	return newView(sess), nil
}

func (s *studioService) GetSession(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (*SessionView, error) {
	sess, err := s.load(ctx, creds, sessionID)
	if err != nil {
		return nil, err
	}
	return newView(sess), nil
}

func (s *studioService) Authorize(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (string, error) {
	sess, err := s.load(ctx, creds, sessionID)
	if err != nil {
		return "", err
	}
	return sess.OwnerID, nil
}

func (s *studioService) CloseSession(ctx context.Context, creds *lmsapi.Credentials, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	if _, err := s.load(ctx, creds, sessionID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("Studio session closed", zap.String("sessionID", sessionID))
	return nil
}

func (s *studioService) UpdateSettings(ctx context.Context, creds *lmsapi.Credentials, sessionID string, patch curriculum.SettingsPatch) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "update_settings", func(sess *repository.Session, _ *curriculum.Editor) error {
		updated, err := sess.Settings.Apply(patch)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		sess.Settings = updated
		return nil
	})
}

// PreviewPath returns the learner view of the saved course.
func (s *studioService) PreviewPath(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (string, error) {
	sess, err := s.load(ctx, creds, sessionID)
	if err != nil {
		return "", err
	}
	if sess.CourseID == nil {
		s.notify(ctx, sess, "", messaging.EventPreviewBlocked, messaging.LevelWarning,
			"Please save your course as a draft before previewing.")
		return "", ErrDraftNotSaved
	}
	return fmt.Sprintf("/learn/%d", *sess.CourseID), nil
}

// load fetches the session and hides sessions of other users.
func (s *studioService) load(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (*repository.Session, error) {
	owner, err := ownerOf(creds)
	if err != nil {
		return nil, err
	}
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.OwnerID != owner {
		s.logger.Warn("Session accessed by another user",
			zap.String("sessionID", sessionID), zap.String("ownerID", sess.OwnerID), zap.String("callerID", owner))
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// edit runs fn against the session's editor under the session lock and
// stores the result. Nothing is stored when fn fails.
func (s *studioService) edit(ctx context.Context, creds *lmsapi.Credentials, sessionID, op string, fn func(*repository.Session, *curriculum.Editor) error) (*SessionView, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, creds, sessionID)
	if err != nil {
		return nil, err
	}
	e := curriculum.RestoreEditor(sess.State, s.ids)
	if err := fn(sess, e); err != nil {
		return nil, err
	}
	sess.State = e.Snapshot()
	if err := s.repo.Save(ctx, sess); err != nil {
		s.logger.Error("Failed to store session", zap.String("sessionID", sessionID), zap.String("operation", op), zap.Error(err))
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	editsTotal.WithLabelValues(op).Inc()
	return newView(sess), nil
}

// notify publishes a studio event; delivery failures are only logged.
func (s *studioService) notify(ctx context.Context, sess *repository.Session, lessonID string, kind messaging.EventKind, level messaging.EventLevel, message string) {
	if s.events == nil {
		return
	}
	event := messaging.NewStudioEvent(kind, level, message)
	event.SessionID = sess.ID
	event.OwnerID = sess.OwnerID
	event.CourseID = sess.CourseID
	event.LessonID = lessonID
	if err := s.events.PublishStudioEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish studio event", zap.String("kind", string(kind)), zap.Error(err))
	}
}
