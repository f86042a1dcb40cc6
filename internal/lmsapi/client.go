package lmsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is the studio's view of the LMS REST API.
type Client interface {
	GetCourse(ctx context.Context, creds *Credentials, courseID uint64) (*CourseDTO, error)
	CreateCourse(ctx context.Context, creds *Credentials, payload CourseDTO) (*CourseDTO, error)
	UpdateCourse(ctx context.Context, creds *Credentials, courseID uint64, payload CourseDTO) (*CourseDTO, error)
	UploadLessonVideo(ctx context.Context, creds *Credentials, lessonID uint64, file Upload, progress ProgressFunc) (string, error)
	UploadResource(ctx context.Context, creds *Credentials, lessonID uint64, file Upload) (*ResourceDTO, error)
	DeleteResource(ctx context.Context, creds *Credentials, resourceID uint64) error
}

// httpClient реализует Client поверх net/http.
type httpClient struct {
	baseURL      string
	httpClient   *http.Client
	uploadClient *http.Client
	logger       *zap.Logger
}

var _ Client = (*httpClient)(nil)

// NewClient creates an LMS client. timeout bounds JSON calls, uploadTimeout bounds file uploads.
func NewClient(baseURL string, timeout, uploadTimeout time.Duration, logger *zap.Logger) (Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL for LMS API: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &httpClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		uploadClient: &http.Client{Timeout: uploadTimeout},
		logger:       logger.Named("LMSClient"),
	}, nil
}

func (c *httpClient) GetCourse(ctx context.Context, creds *Credentials, courseID uint64) (*CourseDTO, error) {
	var course CourseDTO
	if err := c.doJSON(ctx, creds, http.MethodGet, fmt.Sprintf("/courses/%d/", courseID), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *httpClient) CreateCourse(ctx context.Context, creds *Credentials, payload CourseDTO) (*CourseDTO, error) {
	var course CourseDTO
	if err := c.doJSON(ctx, creds, http.MethodPost, "/courses/", payload, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *httpClient) UpdateCourse(ctx context.Context, creds *Credentials, courseID uint64, payload CourseDTO) (*CourseDTO, error) {
	var course CourseDTO
	if err := c.doJSON(ctx, creds, http.MethodPut, fmt.Sprintf("/courses/%d/", courseID), payload, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *httpClient) DeleteResource(ctx context.Context, creds *Credentials, resourceID uint64) error {
	return c.doJSON(ctx, creds, http.MethodDelete, fmt.Sprintf("/resources/%d/", resourceID), nil, nil)
}

// bodyFunc builds a fresh request body; it is called again when a request is
// retried after a token refresh.
type bodyFunc func() (body io.Reader, contentType string, length int64, err error)

func (c *httpClient) doJSON(ctx context.Context, creds *Credentials, method, path string, payload, out any) error {
	var body bodyFunc
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("internal error marshalling request: %w", err)
		}
		body = func() (io.Reader, string, int64, error) {
			return bytes.NewReader(data), "application/json", int64(len(data)), nil
		}
	}
	return c.do(ctx, c.httpClient, creds, method, path, body, out)
}

func (c *httpClient) do(ctx context.Context, client *http.Client, creds *Credentials, method, path string, body bodyFunc, out any) error {
	fullURL := c.baseURL + path
	log := c.logger.With(zap.String("method", method), zap.String("url", fullURL))

	if creds != nil && creds.canRefresh() && creds.Expired(time.Now()) {
		log.Debug("Access token expired, refreshing before request")
		if err := c.refresh(ctx, creds); err != nil {
			return err
		}
	}

	status, respBody, err := c.send(ctx, client, creds, method, fullURL, body)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && creds != nil && creds.canRefresh() && !creds.Refreshed() {
		log.Info("LMS rejected access token, refreshing once")
		if err := c.refresh(ctx, creds); err != nil {
			return err
		}
		status, respBody, err = c.send(ctx, client, creds, method, fullURL, body)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		apiErr := newAPIError(status, respBody)
		if status >= http.StatusInternalServerError {
			log.Error("LMS request failed", zap.Int("status", status), zap.ByteString("body", respBody))
		} else {
			log.Warn("LMS rejected request", zap.Int("status", status), zap.String("message", apiErr.Message))
		}
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			log.Error("Failed to unmarshal LMS response", zap.Int("status", status), zap.ByteString("body", respBody), zap.Error(err))
			return fmt.Errorf("invalid response format from LMS: %w", err)
		}
	}
	log.Debug("LMS request completed", zap.Int("status", status))
	return nil
}

func (c *httpClient) send(ctx context.Context, client *http.Client, creds *Credentials, method, fullURL string, body bodyFunc) (int, []byte, error) {
	var (
		reader      io.Reader
		contentType string
		length      int64 = -1
	)
	if body != nil {
		var err error
		reader, contentType, length, err = body()
		if err != nil {
			return 0, nil, fmt.Errorf("internal error preparing request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("internal error creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if length >= 0 && reader != nil {
		req.ContentLength = length
	}
	req.Header.Set("Accept", "application/json")
	if creds != nil && creds.Access() != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Access())
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, fmt.Errorf("%w: request to LMS timed out: %v", ErrUnavailable, err)
		}
		return 0, nil, fmt.Errorf("%w: cannot connect to LMS: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read LMS response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// refresh exchanges the refresh token for a new access token.
func (c *httpClient) refresh(ctx context.Context, creds *Credentials) error {
	data, err := json.Marshal(refreshRequest{Refresh: creds.refreshToken()})
	if err != nil {
		return fmt.Errorf("internal error marshalling refresh request: %w", err)
	}
	fullURL := c.baseURL + "/token/refresh/"
	body := func() (io.Reader, string, int64, error) {
		return bytes.NewReader(data), "application/json", int64(len(data)), nil
	}
	status, respBody, err := c.send(ctx, c.httpClient, nil, http.MethodPost, fullURL, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		c.logger.Warn("Token refresh rejected", zap.Int("status", status))
		return fmt.Errorf("%w: token refresh failed (status %d)", ErrUnauthorized, status)
	}
	var tokens refreshResponse
	if err := json.Unmarshal(respBody, &tokens); err != nil || tokens.Access == "" {
		return fmt.Errorf("%w: invalid token refresh response", ErrUnauthorized)
	}
	creds.update(tokens.Access, tokens.Refresh)
	c.logger.Info("Access token refreshed")
	return nil
}
