package v1

import (
	"fmt"
	"strconv"
	"time"
)

// Canonical event kinds. Callers agree on these strings; new kinds should be
// registered in the vocabulary alongside their required properties.
const (
	TypePageView         = "page_view"
	TypeContentView      = "content_view"
	TypeContentUpload    = "content_upload"
	TypeStreamStart      = "stream_start"
	TypeStreamView       = "stream_view"
	TypePayment          = "payment"
	TypeModerationAction = "moderation_action"
	TypeError            = "error"
	TypeAPICall          = "api_call"

	// Kinds that have no wrapper but still feed scoring.
	TypeComment      = "comment"
	TypeLike         = "like"
	TypeSubscription = "subscription"
	TypeTip          = "tip"
)

// Canonical categories.
const (
	CategoryNavigation  = "navigation"
	CategoryEngagement  = "engagement"
	CategoryCreation    = "creation"
	CategoryRevenue     = "revenue"
	CategorySafety      = "safety"
	CategorySystem      = "system"
	CategoryPerformance = "performance"
)

// Metadata defaults applied at ingestion when the caller leaves a field empty.
const (
	DefaultIP        = "127.0.0.1"
	DefaultUserAgent = "Unknown"
	DefaultPlatform  = "web"
	DefaultDevice    = "desktop"
)

// AnalyticsEvent is an immutable record of something that happened on the platform.
type AnalyticsEvent struct {
	// ID is generated at ingestion time and is unique for the process lifetime.
	ID string `json:"id"`

	// Type is the short event-kind tag, e.g. "page_view" or "payment".
	Type string `json:"type"`

	// Category is the coarser grouping tag, e.g. "navigation" or "revenue".
	Category string `json:"category"`

	// UserID and SessionID are empty for anonymous events.
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`

	// Timestamp is stamped by the ingestion service, not the caller.
	Timestamp time.Time `json:"timestamp"`

	Properties map[string]interface{} `json:"properties"`
	Metadata   EventMetadata          `json:"metadata"`

	// IngestSeq is the storage-assigned ordering key.
	// Set by the database (BIGSERIAL) for the postgres backend, not exposed in the public API.
	IngestSeq int64 `json:"-"`
}

// EventMetadata has a fixed shape; every field except Referrer is defaulted on ingestion.
type EventMetadata struct {
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer,omitempty"`
	Platform  string `json:"platform"`
	Device    string `json:"device"`
}

// Validate ensures the event has all required system attributes.
func (e *AnalyticsEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}

	if e.Type == "" {
		return fmt.Errorf("type is required")
	}

	if e.Category == "" {
		return fmt.Errorf("category is required")
	}

	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	return nil
}

// Property returns the raw property value for key.
func (e *AnalyticsEvent) Property(key string) (interface{}, bool) {
	if e.Properties == nil {
		return nil, false
	}
	v, ok := e.Properties[key]
	return v, ok
}

// PropertyEquals reports whether the property key holds want.
// Numbers compare by value so a filter decoded from JSON (float64) matches a
// property tracked from Go code as an int.
func (e *AnalyticsEvent) PropertyEquals(key string, want interface{}) bool {
	got, ok := e.Property(key)
	if !ok {
		return false
	}
	return ValuesEqual(got, want)
}

// ValuesEqual compares two loosely typed property values.
func ValuesEqual(a, b interface{}) bool {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		return af == bf
	}
	if aNum != bNum {
		return false
	}
	return FormatValue(a) == FormatValue(b)
}

// FormatValue renders a property value as a grouping key.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	}
	return fmt.Sprint(v)
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	}
	return 0, false
}
