package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps service errors to status codes. Anything unexpected is
// attached to the gin context for the logging middleware and hidden from
// the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidHabitID),
		errors.Is(err, domain.ErrInvalidHabitKind),
		errors.Is(err, domain.ErrMetadataTooLarge),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, services.ErrFutureDate):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrHabitNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "habit not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return "", false
	}
	return userID, true
}
