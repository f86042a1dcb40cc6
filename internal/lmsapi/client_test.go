package lmsapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"studio-server/internal/lmsapi"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signToken(t *testing.T, userID any, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     exp.Unix(),
	})
	s, err := token.SignedString([]byte("lms-secret"))
	require.NoError(t, err)
	return s
}

// testContext stands in for testing.T.Context (Go 1.24+): a context that is
// cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func newClient(t *testing.T, srv *httptest.Server) lmsapi.Client {
	t.Helper()
	c, err := lmsapi.NewClient(srv.URL+"/api/", 5*time.Second, 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := lmsapi.NewClient("not a url", time.Second, time.Second, nil)
	assert.Error(t, err)
}

func TestGetCourse(t *testing.T) {
	access := signToken(t, 5, time.Now().Add(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/courses/42/", r.URL.Path)
		assert.Equal(t, "Bearer "+access, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":42,"title":"Go","price":"19.99","level":"advanced","sections":[{"id":1,"title":"S","order":0,"lessons":[]}]}`)
	}))
	defer srv.Close()

	course, err := newClient(t, srv).GetCourse(testContext(t), lmsapi.NewCredentials(access, ""), 42)
	require.NoError(t, err)
	require.NotNil(t, course.ID)
	assert.Equal(t, uint64(42), *course.ID)
	assert.Equal(t, "19.99", course.Price)
	assert.Len(t, course.Sections, 1)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		sentinel error
		message  string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Title required"}`, lmsapi.ErrBadRequest, "Title required"},
		{"detail field", http.StatusNotFound, `{"detail":"Not found."}`, lmsapi.ErrNotFound, "Not found."},
		{"error field", http.StatusBadRequest, `{"error":"No file uploaded"}`, lmsapi.ErrBadRequest, "No file uploaded"},
		{"forbidden", http.StatusForbidden, `{"detail":"nope"}`, lmsapi.ErrForbidden, "nope"},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, lmsapi.ErrUnavailable, "An unexpected error occurred"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := newClient(t, srv).GetCourse(testContext(t), nil, 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.sentinel)
			var apiErr *lmsapi.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestRefreshOnUnauthorized(t *testing.T) {
	stale := signToken(t, 5, time.Now().Add(time.Hour))
	fresh := signToken(t, 5, time.Now().Add(2*time.Hour))
	var refreshCalls, courseCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token/refresh/":
			refreshCalls.Add(1)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "refresh-1", body["refresh"])
			_ = json.NewEncoder(w).Encode(map[string]string{"access": fresh})
		case "/api/courses/":
			courseCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer "+fresh {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"detail":"Given token not valid"}`)
				return
			}
			raw, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(raw), `"title":"Replayed"`)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":9,"title":"Replayed","sections":[]}`)
		}
	}))
	defer srv.Close()

	creds := lmsapi.NewCredentials(stale, "refresh-1")
	course, err := newClient(t, srv).CreateCourse(testContext(t), creds, lmsapi.CourseDTO{Title: "Replayed"})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), *course.ID)
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(2), courseCalls.Load())
	assert.True(t, creds.Refreshed())
	assert.Equal(t, fresh, creds.Access())
}

func TestRefreshFailureIsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := lmsapi.NewCredentials(signToken(t, 5, time.Now().Add(time.Hour)), "expired-refresh")
	err := newClient(t, srv).DeleteResource(testContext(t), creds, 3)
	assert.ErrorIs(t, err, lmsapi.ErrUnauthorized)
	assert.False(t, creds.Refreshed())
}

func TestProactiveRefreshOfExpiredToken(t *testing.T) {
	expired := signToken(t, 5, time.Now().Add(-time.Minute))
	fresh := signToken(t, 5, time.Now().Add(time.Hour))
	var order []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		if r.URL.Path == "/api/token/refresh/" {
			_ = json.NewEncoder(w).Encode(map[string]string{"access": fresh, "refresh": "rotated"})
			return
		}
		assert.Equal(t, "Bearer "+fresh, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	creds := lmsapi.NewCredentials(expired, "r")
	require.NoError(t, newClient(t, srv).DeleteResource(testContext(t), creds, 3))
	assert.Equal(t, []string{"/api/token/refresh/", "/api/resources/3/"}, order)
}

func TestCredentialsUserID(t *testing.T) {
	id, err := lmsapi.NewCredentials(signToken(t, 17, time.Now().Add(time.Hour)), "").UserID()
	require.NoError(t, err)
	assert.Equal(t, "17", id)

	id, err = lmsapi.NewCredentials(signToken(t, "abc", time.Now().Add(time.Hour)), "").UserID()
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = lmsapi.NewCredentials("garbage", "").UserID()
	assert.Error(t, err)

	assert.False(t, lmsapi.NewCredentials("garbage", "").Expired(time.Now()))
}

func TestUploadMetadata(t *testing.T) {
	u := lmsapi.Upload{Name: "Week 1/slides.final.pdf", Size: int64(2.5 * 1024 * 1024)}
	assert.Equal(t, "pdf", u.FileType())
	assert.Equal(t, "2.5 MB", u.HumanSize())
	assert.Equal(t, "", lmsapi.Upload{Name: "README"}.FileType())
}

func TestUploadResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/lessons/12/resources/", r.URL.Path)
		assert.Greater(t, r.ContentLength, int64(0))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "slides.pdf", r.FormValue("title"))
		assert.Equal(t, "pdf", r.FormValue("file_type"))
		assert.Equal(t, "0.0 MB", r.FormValue("file_size"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "slides.pdf", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF", string(data))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":55,"title":"slides.pdf","file":"/media/resources/slides.pdf","file_type":"pdf","file_size":"0.0 MB"}`)
	}))
	defer srv.Close()

	upload := lmsapi.Upload{Name: "slides.pdf", Size: 4, Content: strings.NewReader("%PDF")}
	res, err := newClient(t, srv).UploadResource(testContext(t), nil, 12, upload)
	require.NoError(t, err)
	assert.Equal(t, uint64(55), res.ID)
	assert.Equal(t, "/media/resources/slides.pdf", res.File)
}

func TestUploadLessonVideoReplaysAfterRefresh(t *testing.T) {
	fresh := signToken(t, 5, time.Now().Add(time.Hour))
	payload := strings.Repeat("v", 64*1024)
	var attempts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/token/refresh/" {
			_ = json.NewEncoder(w).Encode(map[string]string{"access": fresh})
			return
		}
		assert.Equal(t, "/api/lessons/8/video/", r.URL.Path)
		attempts.Add(1)
		f, _, err := r.FormFile("video_file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		f.Close()
		assert.Len(t, data, len(payload), "body must be replayed from the start")
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"video_url":"https://cdn/videos/8.mp4","message":"Video uploaded successfully"}`)
	}))
	defer srv.Close()

	var progress []int
	// токен еще не истек, но LMS его уже отозвала
	revoked := signToken(t, 5, time.Now().Add(30*time.Minute))
	require.NotEqual(t, fresh, revoked)
	creds := lmsapi.NewCredentials(revoked, "r")
	upload := lmsapi.Upload{Name: "lecture.mp4", Size: int64(len(payload)), Content: strings.NewReader(payload)}
	url, err := newClient(t, srv).UploadLessonVideo(testContext(t), creds, 8, upload, func(p int) { progress = append(progress, p) })

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/videos/8.mp4", url)
	assert.Equal(t, int32(2), attempts.Load())
	assert.True(t, creds.Refreshed())
	assert.Equal(t, fresh, creds.Access())
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
}
