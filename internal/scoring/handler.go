package scoring

import (
	"log/slog"
	"net/http"

	httperr "github.com/fanzdash/pulse/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the behavior endpoint on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/users/:user_id/behavior", s.HandleUserBehavior)
}

// HandleUserBehavior handles GET /v1/users/:user_id/behavior
func (s *Service) HandleUserBehavior(c *gin.Context) {
	userID := c.Param("user_id")

	behavior, err := s.GetUserBehavior(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to compute user behavior", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to compute user behavior",
			Details:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, behavior)
}
