package mocks

import (
	"context"

	"studio-server/internal/lmsapi"

	"github.com/stretchr/testify/mock"
)

// Mock lmsapi.Client
type Client struct {
	mock.Mock
}

func (m *Client) GetCourse(ctx context.Context, creds *lmsapi.Credentials, courseID uint64) (*lmsapi.CourseDTO, error) {
	args := m.Called(ctx, creds, courseID)
	c, _ := args.Get(0).(*lmsapi.CourseDTO)
	return c, args.Error(1)
}
func (m *Client) CreateCourse(ctx context.Context, creds *lmsapi.Credentials, payload lmsapi.CourseDTO) (*lmsapi.CourseDTO, error) {
	args := m.Called(ctx, creds, payload)
	c, _ := args.Get(0).(*lmsapi.CourseDTO)
	return c, args.Error(1)
}
func (m *Client) UpdateCourse(ctx context.Context, creds *lmsapi.Credentials, courseID uint64, payload lmsapi.CourseDTO) (*lmsapi.CourseDTO, error) {
	args := m.Called(ctx, creds, courseID, payload)
	c, _ := args.Get(0).(*lmsapi.CourseDTO)
	return c, args.Error(1)
}
func (m *Client) UploadLessonVideo(ctx context.Context, creds *lmsapi.Credentials, lessonID uint64, file lmsapi.Upload, progress lmsapi.ProgressFunc) (string, error) {
	args := m.Called(ctx, creds, lessonID, file, progress)
	return args.String(0), args.Error(1)
}
func (m *Client) UploadResource(ctx context.Context, creds *lmsapi.Credentials, lessonID uint64, file lmsapi.Upload) (*lmsapi.ResourceDTO, error) {
	args := m.Called(ctx, creds, lessonID, file)
	r, _ := args.Get(0).(*lmsapi.ResourceDTO)
	return r, args.Error(1)
}
func (m *Client) DeleteResource(ctx context.Context, creds *lmsapi.Credentials, resourceID uint64) error {
	args := m.Called(ctx, creds, resourceID)
	return args.Error(0)
}
