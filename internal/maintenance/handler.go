package maintenance

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	httperr "github.com/fanzdash/pulse/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the administrative maintenance routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.DELETE("/v1/events", s.HandleClearOldEvents)
	r.POST("/v1/snapshots", s.HandleSnapshot)
}

// HandleClearOldEvents handles DELETE /v1/events?older_than_days=N
func (s *Service) HandleClearOldEvents(c *gin.Context) {
	raw := c.Query("older_than_days")
	days, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "older_than_days must be an integer",
			Details:   map[string]interface{}{"older_than_days": raw},
		})
		return
	}

	removed, err := s.ClearOldEvents(c.Request.Context(), days)
	if err != nil {
		if errors.Is(err, ErrInvalidAge) {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidQueryError,
				Message:   "Invalid age",
				Details:   err.Error(),
			})
			return
		}
		slog.Error("Failed to clear old events", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to clear old events",
			Details:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// HandleSnapshot handles POST /v1/snapshots
func (s *Service) HandleSnapshot(c *gin.Context) {
	err := s.Snapshot(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "persisted"})
	case errors.Is(err, ErrSnapshotsDisabled):
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Snapshots are disabled",
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to write snapshot",
			Details:   err.Error(),
		})
	}
}
