package mocks

import (
	"context"

	"studio-server/internal/curriculum"
	"studio-server/internal/lmsapi"
	"studio-server/internal/service"

	"github.com/stretchr/testify/mock"
)

// StudioService is a testify mock of service.StudioService.
type StudioService struct {
	mock.Mock
}

var _ service.StudioService = (*StudioService)(nil)

func (m *StudioService) OpenSession(ctx context.Context, creds *lmsapi.Credentials, courseID *uint64) (*service.SessionView, error) {
	args := m.Called(ctx, creds, courseID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) GetSession(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) CloseSession(ctx context.Context, creds *lmsapi.Credentials, sessionID string) error {
	args := m.Called(ctx, creds, sessionID)
	return args.Error(0)
}

func (m *StudioService) UpdateSettings(ctx context.Context, creds *lmsapi.Credentials, sessionID string, patch curriculum.SettingsPatch) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, patch)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) Save(ctx context.Context, creds *lmsapi.Credentials, sessionID string, publish bool) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, publish)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) PreviewPath(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (string, error) {
	args := m.Called(ctx, creds, sessionID)
	return args.String(0), args.Error(1)
}

func (m *StudioService) AddSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (curriculum.ID, *service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID)
	id, _ := args.Get(0).(curriculum.ID)
	view, _ := args.Get(1).(*service.SessionView)
	return id, view, args.Error(2)
}

func (m *StudioService) ToggleSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, sectionID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) UpdateSectionTitle(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID, title string) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, sectionID, title)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) DeleteSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, sectionID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) MoveSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string, index int, dir curriculum.Direction) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, index, dir)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) AddLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID) (curriculum.ID, *service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, sectionID)
	id, _ := args.Get(0).(curriculum.ID)
	view, _ := args.Get(1).(*service.SessionView)
	return id, view, args.Error(2)
}

func (m *StudioService) UpdateLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, patch curriculum.LessonPatch) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, patch)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) DeleteLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) MoveLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID, index int, dir curriculum.Direction) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, sectionID, index, dir)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) SetLessonType(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, t curriculum.LessonType) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, t)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) OpenLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) CloseLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) UpdateQuiz(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, patch curriculum.QuizPatch) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, patch)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) AddQuestion(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID) (curriculum.ID, *service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID)
	id, _ := args.Get(0).(curriculum.ID)
	view, _ := args.Get(1).(*service.SessionView)
	return id, view, args.Error(2)
}

func (m *StudioService) UpdateQuestion(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID curriculum.ID, patch curriculum.QuestionPatch) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, questionID, patch)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) RemoveQuestion(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID curriculum.ID) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, questionID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) AddChoice(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID curriculum.ID) (curriculum.ID, *service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, questionID)
	id, _ := args.Get(0).(curriculum.ID)
	view, _ := args.Get(1).(*service.SessionView)
	return id, view, args.Error(2)
}

func (m *StudioService) UpdateChoiceText(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID, choiceID curriculum.ID, text string) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, questionID, choiceID, text)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) RemoveChoice(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID, choiceID curriculum.ID) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, questionID, choiceID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) MarkChoiceCorrect(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID, choiceID curriculum.ID) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, questionID, choiceID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) UpdateAssignment(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, patch curriculum.AssignmentPatch) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, patch)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) UploadVideo(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, file lmsapi.Upload) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, file)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) AddResource(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, file lmsapi.Upload) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, file)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) DeleteResource(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, resourceID uint64) (*service.SessionView, error) {
	args := m.Called(ctx, creds, sessionID, lessonID, resourceID)
	view, _ := args.Get(0).(*service.SessionView)
	return view, args.Error(1)
}

func (m *StudioService) Authorize(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (string, error) {
	args := m.Called(ctx, creds, sessionID)
	return args.String(0), args.Error(1)
}
