package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"retail-scraper-service/internal/apperrors"
	"retail-scraper-service/internal/models"
	"retail-scraper-service/internal/repository"
)

// respondError writes err as an ErrorResponse. Typed errors keep their status
// and code; not-found maps to 404; anything else is a 500 with fallbackCode.
func respondError(c *gin.Context, err error, fallbackCode, fallbackMessage string) {
	status := http.StatusInternalServerError
	body := models.Error{Code: fallbackCode, Message: fallbackMessage}

	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		status = appErr.Status
		body = models.Error{Code: appErr.Code, Message: appErr.Message}
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
		body = models.Error{Code: "NOT_FOUND", Message: "Resource not found"}
	default:
		body.Details = map[string]interface{}{"error": err.Error()}
	}

	c.JSON(status, models.ErrorResponse{
		Success:   false,
		Error:     body,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
}
