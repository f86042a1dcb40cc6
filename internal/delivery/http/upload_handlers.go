package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"studio-server/internal/lmsapi"
	"studio-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// formUpload opens the multipart file field. The caller closes it.
func (h *StudioHandler) formUpload(c *gin.Context, field string) (lmsapi.Upload, func(), bool) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Message: fmt.Sprintf("File exceeds the %s limit", lmsapi.Upload{Size: h.maxUploadBytes}.HumanSize()),
			})
			return lmsapi.Upload{}, nil, false
		}
		badRequest(c, fmt.Errorf("multipart field %q: %w", field, err))
		return lmsapi.Upload{}, nil, false
	}
	file, err := header.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.String("file", header.Filename), zap.Error(err))
		handleServiceError(c, err)
		return lmsapi.Upload{}, nil, false
	}
	closer := func() {
		if err := file.Close(); err != nil {
			h.logger.Warn("Failed to close uploaded file", zap.String("file", header.Filename), zap.Error(err))
		}
	}
	return lmsapi.Upload{Name: header.Filename, Size: header.Size, Content: file}, closer, true
}

func (h *StudioHandler) uploadVideo(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	upload, closeFile, ok := h.formUpload(c, "video_file")
	if !ok {
		return
	}
	defer closeFile()

	view, err := h.svc.UploadVideo(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"), upload)
	respond(c, view, err)
}

func (h *StudioHandler) addResource(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	upload, closeFile, ok := h.formUpload(c, "file")
	if !ok {
		return
	}
	defer closeFile()

	view, err := h.svc.AddResource(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"), upload)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *StudioHandler) deleteResource(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	resourceID, err := strconv.ParseUint(c.Param("rid"), 10, 64)
	if err != nil {
		handleServiceError(c, fmt.Errorf("%w: resource id must be numeric", service.ErrInvalidInput))
		return
	}
	view, err := h.svc.DeleteResource(c.Request.Context(), creds, c.Param("sid"), pathID(c, "lid"), resourceID)
	respond(c, view, err)
}
