package projection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/aggregation"
	"github.com/fanzdash/pulse/internal/core/storage"
	"github.com/fanzdash/pulse/internal/observability"
	"github.com/shopspring/decimal"
)

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid query")

// Service implements the read side: filtered queries with insights, and export.
// It never mutates the store.
type Service struct {
	store    storage.EventStore
	metrics  *observability.Metrics
	maxRange time.Duration
	loc      *time.Location
	nowFn    func() time.Time
}

// NewService creates a new projection service.
// maxRange of 0 disables the range bound. A nil loc means UTC.
func NewService(store storage.EventStore, metrics *observability.Metrics, maxRange time.Duration, loc *time.Location) *Service {
	if store == nil {
		panic("projection: event store is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    store,
		metrics:  metrics,
		maxRange: maxRange,
		loc:      loc,
		nowFn:    time.Now,
	}
}

// Query filters the range [StartDate, EndDate] and summarizes the result.
func (s *Service) Query(ctx context.Context, q EventQuery) (*QueryResult, error) {
	defer s.metrics.ObserveQuery("query", time.Now())

	if err := s.validate(q); err != nil {
		return nil, err
	}

	candidates, err := s.store.RetrieveRange(ctx, q.StartDate, q.EndDate)
	if err != nil {
		return nil, fmt.Errorf("retrieve range: %w", err)
	}

	matched := filterEvents(candidates, q)

	result := &QueryResult{
		Events:       matched,
		Aggregations: groupAggregations(matched, q.GroupBy, s.loc),
		Measures:     measures(matched, q),
		Insights:     buildInsights(matched, s.nowFn(), s.loc),
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		result.Events = matched[:q.Limit]
	}
	return result, nil
}

// ExportEvents returns every event in [start, end] sorted ascending by timestamp.
func (s *Service) ExportEvents(ctx context.Context, start, end time.Time) ([]*v1.AnalyticsEvent, error) {
	defer s.metrics.ObserveQuery("export", time.Now())

	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}

	events, err := s.store.RetrieveRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("retrieve range: %w", err)
	}
	if events == nil {
		events = []*v1.AnalyticsEvent{}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func (s *Service) validate(q EventQuery) error {
	if err := s.validateRange(q.StartDate, q.EndDate); err != nil {
		return err
	}
	if q.Limit < 0 {
		return invalidQueryf("limit must not be negative, got %d", q.Limit)
	}

	switch {
	case q.Aggregation == "", q.Aggregation == aggregation.OpCount:
	case !aggregation.ValidOperator(q.Aggregation):
		return invalidQueryf("unsupported aggregation: %s", q.Aggregation)
	case q.AggregationField == "":
		return invalidQueryf("aggregation %s requires aggregationField", q.Aggregation)
	}
	return nil
}

func (s *Service) validateRange(start, end time.Time) error {
	if start.IsZero() {
		return invalidQueryf("startDate is required")
	}
	if end.IsZero() {
		return invalidQueryf("endDate is required")
	}
	if end.Before(start) {
		return invalidQueryf("endDate must not be before startDate")
	}
	if s.maxRange > 0 && end.Sub(start) > s.maxRange {
		return invalidQueryf("range %s exceeds maximum %s", end.Sub(start), s.maxRange)
	}
	return nil
}

func filterEvents(events []*v1.AnalyticsEvent, q EventQuery) []*v1.AnalyticsEvent {
	types := toSet(q.EventTypes)
	categories := toSet(q.Categories)
	users := toSet(q.UserIDs)

	out := make([]*v1.AnalyticsEvent, 0, len(events))
	for _, evt := range events {
		if types != nil {
			if _, ok := types[evt.Type]; !ok {
				continue
			}
		}
		if categories != nil {
			if _, ok := categories[evt.Category]; !ok {
				continue
			}
		}
		if users != nil {
			if _, ok := users[evt.UserID]; !ok || evt.UserID == "" {
				continue
			}
		}
		if !matchesFilters(evt, q.Filters) {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func matchesFilters(evt *v1.AnalyticsEvent, filters map[string]interface{}) bool {
	for key, want := range filters {
		if !evt.PropertyEquals(key, want) {
			return false
		}
	}
	return true
}

// measures reduces AggregationField over the matched set. Events without a
// numeric value for the field are skipped.
func measures(events []*v1.AnalyticsEvent, q EventQuery) map[string]decimal.Decimal {
	if q.Aggregation == "" || q.Aggregation == aggregation.OpCount {
		return nil
	}

	samples := make([]decimal.Decimal, 0, len(events))
	for _, evt := range events {
		if v, ok := aggregation.ExtractDecimal(evt.Properties, q.AggregationField); ok {
			samples = append(samples, v)
		}
	}

	value, ok := aggregation.Reduce(q.Aggregation, samples)
	if !ok {
		return nil
	}
	return map[string]decimal.Decimal{q.AggregationField + "_" + q.Aggregation: value}
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
