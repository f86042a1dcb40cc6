package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// openSession starts editing an existing course (course_id) or a blank one.
func (h *StudioHandler) openSession(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	view, err := h.svc.OpenSession(c.Request.Context(), creds, req.CourseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Debug("Session opened", zap.String("sessionID", view.ID), zap.Uint64p("courseID", req.CourseID))
	c.JSON(http.StatusCreated, view)
}

func (h *StudioHandler) getSession(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	view, err := h.svc.GetSession(c.Request.Context(), creds, c.Param("sid"))
	respond(c, view, err)
}

func (h *StudioHandler) closeSession(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	if err := h.svc.CloseSession(c.Request.Context(), creds, c.Param("sid")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StudioHandler) updateSettings(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.UpdateSettings(c.Request.Context(), creds, c.Param("sid"), req.patch())
	respond(c, view, err)
}

// save creates or updates the course in the LMS; the body is optional.
func (h *StudioHandler) save(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	view, err := h.svc.Save(c.Request.Context(), creds, c.Param("sid"), req.Publish)
	respond(c, view, err)
}

func (h *StudioHandler) preview(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	path, err := h.svc.PreviewPath(c.Request.Context(), creds, c.Param("sid"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, previewResponse{Path: path})
}

func (h *StudioHandler) closeLesson(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	view, err := h.svc.CloseLesson(c.Request.Context(), creds, c.Param("sid"))
	respond(c, view, err)
}

// serveWS streams upload progress and studio events of one session.
func (h *StudioHandler) serveWS(c *gin.Context) {
	creds, ok := credentials(c)
	if !ok {
		return
	}
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: "session_id is required"})
		return
	}
	ownerID, err := h.svc.Authorize(c.Request.Context(), creds, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.ws.ServeWS(c.Writer, c.Request, sessionID, ownerID)
}
