package ingestion

import (
	"context"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
)

// Typed wrappers fix the (type, category) pair and the required properties of
// each vocabulary kind. Empty required strings are rejected with ErrInvalidEvent.

func (s *Service) TrackPageView(ctx context.Context, page string, opts TrackOptions) (string, error) {
	return s.trackKnown(ctx, v1.TypePageView, map[string]interface{}{
		"page": page,
	}, opts)
}

func (s *Service) TrackContentView(ctx context.Context, contentID, creatorID string, opts TrackOptions) (string, error) {
	return s.trackKnown(ctx, v1.TypeContentView, map[string]interface{}{
		"contentId": contentID,
		"creatorId": creatorID,
	}, opts)
}

func (s *Service) TrackContentUpload(ctx context.Context, contentID, contentType string, opts TrackOptions) (string, error) {
	return s.trackKnown(ctx, v1.TypeContentUpload, map[string]interface{}{
		"contentId":   contentID,
		"contentType": contentType,
	}, opts)
}

func (s *Service) TrackStreamStart(ctx context.Context, streamID string, opts TrackOptions) (string, error) {
	return s.trackKnown(ctx, v1.TypeStreamStart, map[string]interface{}{
		"streamId": streamID,
	}, opts)
}

func (s *Service) TrackStreamView(ctx context.Context, streamID, creatorID string, opts TrackOptions) (string, error) {
	return s.trackKnown(ctx, v1.TypeStreamView, map[string]interface{}{
		"streamId":  streamID,
		"creatorId": creatorID,
	}, opts)
}

func (s *Service) TrackPayment(ctx context.Context, amount float64, currency, processor string, opts TrackOptions) (string, error) {
	return s.trackKnown(ctx, v1.TypePayment, map[string]interface{}{
		"amount":    amount,
		"currency":  currency,
		"processor": processor,
	}, opts)
}

func (s *Service) TrackModerationAction(ctx context.Context, action, targetID string, opts TrackOptions) (string, error) {
	return s.trackKnown(ctx, v1.TypeModerationAction, map[string]interface{}{
		"action":   action,
		"targetId": targetID,
	}, opts)
}

func (s *Service) TrackError(ctx context.Context, message string, opts TrackOptions) (string, error) {
	return s.trackKnown(ctx, v1.TypeError, map[string]interface{}{
		"message": message,
	}, opts)
}

// TrackAPICall records responseTime in milliseconds.
func (s *Service) TrackAPICall(ctx context.Context, endpoint, method string, statusCode int, responseTime time.Duration, opts TrackOptions) (string, error) {
	return s.trackKnown(ctx, v1.TypeAPICall, map[string]interface{}{
		"endpoint":     endpoint,
		"method":       method,
		"statusCode":   statusCode,
		"responseTime": float64(responseTime) / float64(time.Millisecond),
	}, opts)
}
