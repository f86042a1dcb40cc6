package lmsapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// Upload is a file forwarded to the LMS. Content must be seekable so the
// request can be replayed after a token refresh.
type Upload struct {
	Name    string
	Size    int64
	Content io.ReadSeeker
}

// ProgressFunc receives the share of the file sent so far, 0 to 100.
type ProgressFunc func(percent int)

// FileType is the extension without the dot, as the LMS stores it.
func (u Upload) FileType() string {
	ext := filepath.Ext(u.Name)
	if ext == "" {
		return ""
	}
	return strings.TrimPrefix(ext, ".")
}

// HumanSize formats the size in megabytes with one decimal, e.g. "2.4 MB".
func (u Upload) HumanSize() string {
	return fmt.Sprintf("%.1f MB", float64(u.Size)/(1024*1024))
}

func (c *httpClient) UploadLessonVideo(ctx context.Context, creds *Credentials, lessonID uint64, file Upload, progress ProgressFunc) (string, error) {
	var resp videoUploadResponse
	body := multipartBody("video_file", file, nil, progress)
	if err := c.do(ctx, c.uploadClient, creds, http.MethodPost, fmt.Sprintf("/lessons/%d/video/", lessonID), body, &resp); err != nil {
		return "", err
	}
	return resp.VideoURL, nil
}

func (c *httpClient) UploadResource(ctx context.Context, creds *Credentials, lessonID uint64, file Upload) (*ResourceDTO, error) {
	fields := [][2]string{
		{"title", file.Name},
		{"file_type", file.FileType()},
		{"file_size", file.HumanSize()},
	}
	var resource ResourceDTO
	body := multipartBody("file", file, fields, nil)
	if err := c.do(ctx, c.uploadClient, creds, http.MethodPost, fmt.Sprintf("/lessons/%d/resources/", lessonID), body, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// multipartBody streams fields and the file without buffering the file in memory.
// The envelope is rendered up front so the request carries a Content-Length.
func multipartBody(fileField string, file Upload, fields [][2]string, progress ProgressFunc) bodyFunc {
	return func() (io.Reader, string, int64, error) {
		if _, err := file.Content.Seek(0, io.SeekStart); err != nil {
			return nil, "", 0, fmt.Errorf("rewind upload: %w", err)
		}

		var head bytes.Buffer
		mw := multipart.NewWriter(&head)
		for _, f := range fields {
			if err := mw.WriteField(f[0], f[1]); err != nil {
				return nil, "", 0, err
			}
		}
		if _, err := mw.CreateFormFile(fileField, filepath.Base(file.Name)); err != nil {
			return nil, "", 0, err
		}
		prefix := append([]byte(nil), head.Bytes()...)
		head.Reset()
		if err := mw.Close(); err != nil {
			return nil, "", 0, err
		}
		suffix := append([]byte(nil), head.Bytes()...)

		var content io.Reader = file.Content
		if progress != nil {
			content = &progressReader{r: file.Content, total: file.Size, report: progress, last: -1}
		}
		length := int64(len(prefix)) + file.Size + int64(len(suffix))
		return io.MultiReader(bytes.NewReader(prefix), content, bytes.NewReader(suffix)), mw.FormDataContentType(), length, nil
	}
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	total := p.total
	if total <= 0 {
		total = 1
	}
	pct := int(p.read * 100 / total)
	if pct > 100 {
		pct = 100
	}
	if pct != p.last {
		p.last = pct
		p.report(pct)
	}
	return n, err
}
