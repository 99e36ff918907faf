package funnel

import (
	"errors"
	"log/slog"
	"net/http"

	httperr "github.com/fanzdash/pulse/internal/core/errors"
	"github.com/gin-gonic/gin"
)

type createRequest struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// RegisterRoutes registers all funnel routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/funnels", s.HandleCreate)
	r.GET("/v1/funnels", s.HandleList)
	r.POST("/v1/funnels/:name/evaluate", s.HandleEvaluate)
}

// HandleCreate handles POST /v1/funnels with an ad hoc definition.
func (s *Service) HandleCreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid funnel body",
			Details:   err.Error(),
		})
		return
	}

	f, err := s.CreateConversionFunnel(c.Request.Context(), req.Name, req.Steps)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// HandleList handles GET /v1/funnels
func (s *Service) HandleList(c *gin.Context) {
	defs, err := s.Definitions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"funnels": defs})
}

// HandleEvaluate handles POST /v1/funnels/:name/evaluate
func (s *Service) HandleEvaluate(c *gin.Context) {
	f, err := s.EvaluateSaved(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidFunnel):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid funnel",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrDefinitionNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "Funnel not found",
			Details:   err.Error(),
		})
	default:
		slog.Error("Funnel evaluation failed", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to evaluate funnel",
			Details:   err.Error(),
		})
	}
}
