package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	httperr "github.com/fanzdash/pulse/internal/core/errors"
	"github.com/fanzdash/pulse/internal/schema"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist event"
	msgUnknownKind    = "Unknown event kind"
)

// ingestionError carries the structured HTTP error shape from a helper back to the handler.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// trackRequest is the body of POST /v1/events.
type trackRequest struct {
	Type       string                 `json:"type"`
	Category   string                 `json:"category"`
	Properties map[string]interface{} `json:"properties"`
	UserID     string                 `json:"userId"`
	SessionID  string                 `json:"sessionId"`
	Metadata   v1.EventMetadata       `json:"metadata"`
}

// kindRequest is the body of POST /v1/events/:kind. Only the fields of the
// addressed kind are read.
type kindRequest struct {
	UserID     string                 `json:"userId"`
	SessionID  string                 `json:"sessionId"`
	Metadata   v1.EventMetadata       `json:"metadata"`
	Properties map[string]interface{} `json:"properties"`

	Page         string   `json:"page"`
	ContentID    string   `json:"contentId"`
	CreatorID    string   `json:"creatorId"`
	ContentType  string   `json:"contentType"`
	StreamID     string   `json:"streamId"`
	Amount       *float64 `json:"amount"`
	Currency     string   `json:"currency"`
	Processor    string   `json:"processor"`
	Action       string   `json:"action"`
	TargetID     string   `json:"targetId"`
	Message      string   `json:"message"`
	Endpoint     string   `json:"endpoint"`
	Method       string   `json:"method"`
	StatusCode   int      `json:"statusCode"`
	ResponseTime float64  `json:"responseTime"` // milliseconds
}

// TrackHandler handles POST /v1/events.
// Known kinds are checked against the vocabulary; unknown kinds are accepted as free-form.
func (s *Service) TrackHandler(c *gin.Context) {
	var req trackRequest
	if err := s.parseBody(c, &req); err != nil {
		writeError(c, err)
		return
	}

	if err := s.vocab.Check(req.Type, req.Category, req.Properties); err != nil {
		slog.Warn("Vocabulary validation failed", "type", req.Type, "category", req.Category, "error", err)
		writeError(c, validationError(err))
		return
	}

	opts := requestOptions(c, req.UserID, req.SessionID, req.Metadata)
	id, err := s.Track(c.Request.Context(), req.Type, req.Category, req.Properties, opts)
	if err != nil {
		writeError(c, trackError(err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": id})
}

// TrackKindHandler handles POST /v1/events/:kind for the typed wrappers.
func (s *Service) TrackKindHandler(c *gin.Context) {
	kind := c.Param("kind")

	var req kindRequest
	if err := s.parseBody(c, &req); err != nil {
		writeError(c, err)
		return
	}

	opts := requestOptions(c, req.UserID, req.SessionID, req.Metadata)
	opts.Properties = req.Properties
	ctx := c.Request.Context()

	var (
		id  string
		err error
	)
	switch kind {
	case "page-view":
		id, err = s.TrackPageView(ctx, req.Page, opts)
	case "content-view":
		id, err = s.TrackContentView(ctx, req.ContentID, req.CreatorID, opts)
	case "content-upload":
		id, err = s.TrackContentUpload(ctx, req.ContentID, req.ContentType, opts)
	case "stream-start":
		id, err = s.TrackStreamStart(ctx, req.StreamID, opts)
	case "stream-view":
		id, err = s.TrackStreamView(ctx, req.StreamID, req.CreatorID, opts)
	case "payment":
		if req.Amount == nil {
			err = fmt.Errorf("%w: amount is required", ErrInvalidEvent)
			break
		}
		id, err = s.TrackPayment(ctx, *req.Amount, req.Currency, req.Processor, opts)
	case "moderation-action":
		id, err = s.TrackModerationAction(ctx, req.Action, req.TargetID, opts)
	case "error":
		id, err = s.TrackError(ctx, req.Message, opts)
	case "api-call":
		responseTime := time.Duration(req.ResponseTime * float64(time.Millisecond))
		id, err = s.TrackAPICall(ctx, req.Endpoint, req.Method, req.StatusCode, responseTime, opts)
	default:
		writeError(c, &ingestionError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpNotFoundError,
			message:    msgUnknownKind,
			details:    map[string]interface{}{"kind": kind},
		})
		return
	}

	if err != nil {
		writeError(c, trackError(err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": id})
}

// parseBody reads the size-limited request body and decodes it into dst.
func (s *Service) parseBody(c *gin.Context, dst interface{}) *ingestionError {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	if err := json.Unmarshal(bodyBytes, dst); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return nil
}

// requestOptions fills ip and user agent from the request when the body leaves them empty.
func requestOptions(c *gin.Context, userID, sessionID string, md v1.EventMetadata) TrackOptions {
	opts := TrackOptions{
		UserID:    userID,
		SessionID: sessionID,
		IP:        md.IP,
		UserAgent: md.UserAgent,
		Referrer:  md.Referrer,
		Platform:  md.Platform,
		Device:    md.Device,
	}
	if opts.IP == "" {
		opts.IP = c.ClientIP()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = c.GetHeader("User-Agent")
	}
	if opts.Referrer == "" {
		opts.Referrer = c.GetHeader("Referer")
	}
	return opts
}

func validationError(err error) *ingestionError {
	e := &ingestionError{
		statusCode: http.StatusBadRequest,
		errorType:  httperr.HttpInvalidEventError,
		message:    err.Error(),
	}
	var d schema.ValidationDetailer
	if errors.As(err, &d) {
		e.details = d.Details()
	}
	return e
}

func trackError(err error) *ingestionError {
	if errors.Is(err, ErrInvalidEvent) {
		return validationError(err)
	}
	return &ingestionError{
		statusCode: http.StatusInternalServerError,
		errorType:  httperr.HttpInternalError,
		message:    msgPersistFailed,
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
