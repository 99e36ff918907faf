package projection

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	httperr "github.com/fanzdash/pulse/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/query", s.HandleQuery)
	r.GET("/v1/events/export", s.HandleExport)
}

// HandleQuery handles POST /v1/query with an EventQuery body.
func (s *Service) HandleQuery(c *gin.Context) {
	var q EventQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid query body",
			Details:   err.Error(),
		})
		return
	}

	result, err := s.Query(c.Request.Context(), q)
	if err != nil {
		writeQueryError(c, err, "Failed to query events")
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleExport handles GET /v1/events/export
// Query parameters: start, end (RFC 3339)
func (s *Service) HandleExport(c *gin.Context) {
	var query struct {
		Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
		End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	events, err := s.ExportEvents(c.Request.Context(), query.Start, query.End)
	if err != nil {
		writeQueryError(c, err, "Failed to export events")
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func writeQueryError(c *gin.Context, err error, message string) {
	if errors.Is(err, ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query",
			Details:   err.Error(),
		})
		return
	}

	slog.Error(message, "error", err)
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   message,
		Details:   err.Error(),
	})
}
