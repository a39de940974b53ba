package handler

import (
	"errors"
	"net/http"

	"circuitbot/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Тексты ошибок, которые видит клиент. Подробности остаются в логах.
const (
	msgInvalidBody     = "Invalid request body"
	msgNoMessages      = "No messages provided"
	msgMissingChoice   = "Missing choice or styles"
	msgInvalidChoice   = "Choice must be A or B"
	msgUnknownStyle    = "Unknown style"
	msgChatFailed      = "OpenAI call failed"
	msgChatABFailed    = "OpenAI A/B call failed"
	msgPreviewFailed   = "Failed to generate preview"
	msgStatsFailed     = "Could not read stats"
	msgFrontendMissing = "Frontend not built. Run 'npm run build'."
	msgNotFound        = "Not found"
	msgInternal        = "Internal server error"
)

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: message})
}

// handleServiceError переводит ошибку сервиса в HTTP ответ.
// Ошибки входных данных - 400, все остальное - 500 с общим сообщением fallback.
func (h *Handler) handleServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrEmptyConversation):
		abortWithError(c, http.StatusBadRequest, msgNoMessages)
	case errors.Is(err, models.ErrMissingStyles):
		abortWithError(c, http.StatusBadRequest, msgMissingChoice)
	case errors.Is(err, models.ErrInvalidChoice):
		abortWithError(c, http.StatusBadRequest, msgInvalidChoice)
	case errors.Is(err, models.ErrUnknownStyle):
		abortWithError(c, http.StatusBadRequest, msgUnknownStyle)
	case errors.Is(err, models.ErrInvalidInput):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Service call failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
