package engine

import (
	"log/slog"
	"net/http"

	httperr "github.com/fanzdash/pulse/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// HandleStats handles GET /v1/stats
func (e *Engine) HandleStats(c *gin.Context) {
	stats, err := e.Stats(c.Request.Context())
	if err != nil {
		slog.Error("Failed to compute stats", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to compute stats",
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}
