package http

import (
	"errors"
	"net/http"

	"studio-server/internal/lmsapi"
	"studio-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	message := err.Error()

	var apiErr *lmsapi.APIError
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrLessonNotFound),
		errors.Is(err, service.ErrSectionNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		statusCode = http.StatusBadRequest
	case errors.Is(err, service.ErrDraftNotSaved),
		errors.Is(err, service.ErrSaveInProgress):
		statusCode = http.StatusConflict
	case errors.As(err, &apiErr):
		// ответ LMS отдаем браузеру как есть, 5xx превращается в 502
		statusCode = apiErr.Status
		if statusCode >= http.StatusInternalServerError {
			statusCode = http.StatusBadGateway
		}
		message = apiErr.Message
	case errors.Is(err, lmsapi.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		message = "Authentication credentials were not provided or are invalid."
	case errors.Is(err, lmsapi.ErrForbidden):
		statusCode = http.StatusForbidden
	case errors.Is(err, lmsapi.ErrNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, lmsapi.ErrBadRequest):
		statusCode = http.StatusBadRequest
	case errors.Is(err, lmsapi.ErrUnavailable):
		statusCode = http.StatusBadGateway
		message = "The LMS is unavailable, try again later."
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		_ = c.Error(err)
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal error occurred"
	}

	c.AbortWithStatusJSON(statusCode, ErrorResponse{Message: message})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request data: " + err.Error()})
}
