package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the realtime endpoint on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/realtime", s.HandleRealtime)
}

// HandleRealtime handles GET /v1/realtime
func (s *Service) HandleRealtime(c *gin.Context) {
	c.JSON(http.StatusOK, s.GetRealtimeMetrics(c.Request.Context()))
}
