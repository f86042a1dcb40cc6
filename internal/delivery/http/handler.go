package http

import (
	"net/http"

	"studio-server/internal/curriculum"
	"studio-server/internal/delivery/http/middleware"
	"studio-server/internal/delivery/websocket"
	"studio-server/internal/lmsapi"
	"studio-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StudioHandler exposes the studio service under /api/studio.
type StudioHandler struct {
	svc            service.StudioService
	ws             *websocket.Manager
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewStudioHandler creates the handler. ws may be nil, then /ws is not served.
func NewStudioHandler(svc service.StudioService, ws *websocket.Manager, maxUploadBytes int64, logger *zap.Logger) *StudioHandler {
	registerValidators(logger)
	return &StudioHandler{
		svc:            svc,
		ws:             ws,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("StudioHandler"),
	}
}

func (h *StudioHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/studio")
	api.Use(middleware.Credentials(h.logger))
	{
		api.POST("/sessions", h.openSession)
		api.GET("/sessions/:sid", h.getSession)
		api.DELETE("/sessions/:sid", h.closeSession)
		api.PATCH("/sessions/:sid/settings", h.updateSettings)
		api.POST("/sessions/:sid/save", h.save)
		api.GET("/sessions/:sid/preview", h.preview)
		api.DELETE("/sessions/:sid/open-lesson", h.closeLesson)

		api.POST("/sessions/:sid/sections", h.addSection)
		api.POST("/sessions/:sid/sections/move", h.moveSection)
		api.PATCH("/sessions/:sid/sections/:secid", h.updateSectionTitle)
		api.DELETE("/sessions/:sid/sections/:secid", h.deleteSection)
		api.POST("/sessions/:sid/sections/:secid/toggle", h.toggleSection)
		api.POST("/sessions/:sid/sections/:secid/lessons", h.addLesson)
		api.POST("/sessions/:sid/sections/:secid/lessons/move", h.moveLesson)

		lessons := api.Group("/sessions/:sid/lessons/:lid")
		lessons.PATCH("", h.updateLesson)
		lessons.DELETE("", h.deleteLesson)
		lessons.PUT("/type", h.setLessonType)
		lessons.POST("/open", h.openLesson)
		lessons.POST("/video", h.uploadVideo)
		lessons.POST("/resources", h.addResource)
		lessons.DELETE("/resources/:rid", h.deleteResource)
		lessons.PATCH("/quiz", h.updateQuiz)
		lessons.POST("/quiz/questions", h.addQuestion)
		lessons.PATCH("/quiz/questions/:qid", h.updateQuestion)
		lessons.DELETE("/quiz/questions/:qid", h.removeQuestion)
		lessons.POST("/quiz/questions/:qid/choices", h.addChoice)
		lessons.PATCH("/quiz/questions/:qid/choices/:cid", h.updateChoice)
		lessons.DELETE("/quiz/questions/:qid/choices/:cid", h.removeChoice)
		lessons.POST("/quiz/questions/:qid/choices/:cid/correct", h.markChoiceCorrect)
		lessons.PATCH("/assignment", h.updateAssignment)

		if h.ws != nil {
			api.GET("/ws", h.serveWS)
		}
	}
}

// credentials is only false when the middleware was not installed.
func credentials(c *gin.Context) (*lmsapi.Credentials, bool) {
	creds, ok := middleware.CredentialsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication credentials were not provided."})
	}
	return creds, ok
}

func pathID(c *gin.Context, name string) curriculum.ID {
	return curriculum.ParseID(c.Param(name))
}

// created answers requests that add an entity with its id and the session.
func created(c *gin.Context, id curriculum.ID, view *service.SessionView) {
	c.JSON(http.StatusCreated, createdResponse{ID: id, Session: view})
}

func respond(c *gin.Context, view *service.SessionView, err error) {
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
