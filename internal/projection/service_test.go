package projection

import (
	"context"
	"fmt"
	"testing"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/aggregation"
	"github.com/fanzdash/pulse/internal/core/storage/memory"
	storagemocks "github.com/fanzdash/pulse/internal/mocks/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

type eventSpec struct {
	typ, category, user string
	at                  time.Time
	props               map[string]interface{}
	platform            string
}

func seed(t *testing.T, specs ...eventSpec) (*Service, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	for i, sp := range specs {
		platform := sp.platform
		if platform == "" {
			platform = v1.DefaultPlatform
		}
		props := sp.props
		if props == nil {
			props = map[string]interface{}{}
		}
		require.NoError(t, store.SaveEvent(context.Background(), &v1.AnalyticsEvent{
			ID:         fmt.Sprintf("evt-%d", i),
			Type:       sp.typ,
			Category:   sp.category,
			UserID:     sp.user,
			Timestamp:  sp.at,
			Properties: props,
			Metadata:   v1.EventMetadata{Platform: platform, Device: v1.DefaultDevice},
		}))
	}

	svc := NewService(store, nil, 90*24*time.Hour, time.UTC)
	svc.nowFn = func() time.Time { return testNow }
	return svc, store
}

func TestQuery_ThreePageViewsForOneUser(t *testing.T) {
	base := testNow.Add(-10 * time.Minute)
	svc, _ := seed(t,
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, user: "userA", at: base},
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, user: "userA", at: base.Add(time.Minute)},
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, user: "userA", at: base.Add(2 * time.Minute)},
	)

	result, err := svc.Query(context.Background(), EventQuery{
		StartDate: base.Add(-time.Hour),
		EndDate:   testNow,
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.Insights.TotalEvents)
	require.Equal(t, 1, result.Insights.UniqueUsers)
	require.Equal(t, []aggregation.Ranked{{Name: v1.TypePageView, Count: 3}}, result.Insights.TopEvents)
	require.Len(t, result.Events, 3)
}

func TestQuery_PointRangeReturnsEvent(t *testing.T) {
	ts := testNow.Add(-time.Hour)
	svc, _ := seed(t,
		eventSpec{typ: v1.TypeError, category: v1.CategorySystem, at: ts.Add(-time.Nanosecond)},
		eventSpec{typ: v1.TypePayment, category: v1.CategoryRevenue, user: "u1", at: ts},
		eventSpec{typ: v1.TypeError, category: v1.CategorySystem, at: ts.Add(time.Nanosecond)},
	)

	result, err := svc.Query(context.Background(), EventQuery{StartDate: ts, EndDate: ts})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	require.Equal(t, "evt-1", result.Events[0].ID)
}

func TestQuery_Filters(t *testing.T) {
	at := testNow.Add(-time.Hour)
	svc, _ := seed(t,
		eventSpec{typ: v1.TypePayment, category: v1.CategoryRevenue, user: "u1", at: at, props: map[string]interface{}{"currency": "USD", "amount": 10}},
		eventSpec{typ: v1.TypePayment, category: v1.CategoryRevenue, user: "u2", at: at, props: map[string]interface{}{"currency": "EUR", "amount": 10}},
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, user: "u1", at: at},
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, at: at},
		eventSpec{typ: v1.TypeError, category: v1.CategorySystem, user: "u3", at: at},
	)

	tests := []struct {
		name    string
		query   EventQuery
		wantIDs []string
	}{
		{
			name:    "event types",
			query:   EventQuery{EventTypes: []string{v1.TypePageView}},
			wantIDs: []string{"evt-2", "evt-3"},
		},
		{
			name:    "categories",
			query:   EventQuery{Categories: []string{v1.CategoryRevenue, v1.CategorySystem}},
			wantIDs: []string{"evt-0", "evt-1", "evt-4"},
		},
		{
			name:    "user ids exclude anonymous",
			query:   EventQuery{UserIDs: []string{"u1", ""}},
			wantIDs: []string{"evt-0", "evt-2"},
		},
		{
			name:    "property filters all match",
			query:   EventQuery{Filters: map[string]interface{}{"currency": "USD", "amount": float64(10)}},
			wantIDs: []string{"evt-0"},
		},
		{
			name:    "conjunction with no match",
			query:   EventQuery{EventTypes: []string{v1.TypePageView}, Filters: map[string]interface{}{"currency": "USD"}},
			wantIDs: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := tc.query
			q.StartDate = at
			q.EndDate = at

			result, err := svc.Query(context.Background(), q)
			require.NoError(t, err)

			ids := make([]string, 0, len(result.Events))
			for _, evt := range result.Events {
				ids = append(ids, evt.ID)
			}
			require.Equal(t, tc.wantIDs, ids)
			require.Equal(t, len(tc.wantIDs), result.Insights.TotalEvents)
		})
	}
}

func TestQuery_LimitTruncatesEventsOnly(t *testing.T) {
	at := testNow.Add(-time.Hour)
	specs := make([]eventSpec, 5)
	for i := range specs {
		specs[i] = eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, user: fmt.Sprintf("u%d", i), at: at}
	}
	svc, _ := seed(t, specs...)

	result, err := svc.Query(context.Background(), EventQuery{
		StartDate: at,
		EndDate:   at,
		GroupBy:   []string{"userId"},
		Limit:     2,
	})
	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	require.Equal(t, "evt-0", result.Events[0].ID)
	require.Equal(t, 5, result.Insights.TotalEvents)
	require.Equal(t, 5, result.Insights.UniqueUsers)
	require.Equal(t, 5, result.Aggregations["userId_groups"])
}

func TestQuery_Validation(t *testing.T) {
	svc, _ := seed(t)
	start := testNow.Add(-time.Hour)

	tests := []struct {
		name  string
		query EventQuery
	}{
		{name: "missing start", query: EventQuery{EndDate: testNow}},
		{name: "missing end", query: EventQuery{StartDate: start}},
		{name: "end before start", query: EventQuery{StartDate: testNow, EndDate: start}},
		{name: "range too large", query: EventQuery{StartDate: testNow.AddDate(0, 0, -91), EndDate: testNow}},
		{name: "negative limit", query: EventQuery{StartDate: start, EndDate: testNow, Limit: -1}},
		{name: "unknown aggregation", query: EventQuery{StartDate: start, EndDate: testNow, Aggregation: "median"}},
		{name: "sum without field", query: EventQuery{StartDate: start, EndDate: testNow, Aggregation: aggregation.OpSum}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Query(context.Background(), tc.query)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestQuery_Distributions(t *testing.T) {
	svc, _ := seed(t,
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, at: time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC)},
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, at: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, at: time.Date(2026, 3, 5, 23, 59, 0, 0, time.UTC)},
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, at: time.Date(2026, 3, 7, 9, 15, 0, 0, time.UTC)},
	)

	result, err := svc.Query(context.Background(), EventQuery{
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   testNow,
	})
	require.NoError(t, err)

	var hourly [24]int
	hourly[9] = 3
	hourly[23] = 1
	require.Equal(t, hourly, result.Insights.HourlyDistribution)

	require.Equal(t, []DailyCount{
		{Date: "2026-03-01", Count: 1},
		{Date: "2026-03-02", Count: 0},
		{Date: "2026-03-03", Count: 0},
		{Date: "2026-03-04", Count: 0},
		{Date: "2026-03-05", Count: 1},
		{Date: "2026-03-06", Count: 0},
		{Date: "2026-03-07", Count: 1},
	}, result.Insights.DailyDistribution)
}

func TestQuery_DistributionsUseConfiguredTimezone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	svc, _ := seed(t,
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, at: time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC)},
	)
	svc.loc = tokyo

	result, err := svc.Query(context.Background(), EventQuery{
		StartDate: testNow.Add(-24 * time.Hour),
		EndDate:   testNow,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Insights.HourlyDistribution[5])
	last := result.Insights.DailyDistribution[len(result.Insights.DailyDistribution)-1]
	require.Equal(t, DailyCount{Date: "2026-03-07", Count: 1}, last)
}

func TestQuery_TopEventsTiesKeepFirstSeenOrder(t *testing.T) {
	at := testNow.Add(-time.Minute)
	svc, _ := seed(t,
		eventSpec{typ: "b", category: "x", at: at},
		eventSpec{typ: "a", category: "y", at: at},
		eventSpec{typ: "a", category: "y", at: at},
		eventSpec{typ: "c", category: "x", at: at},
		eventSpec{typ: "b", category: "z", at: at},
	)

	result, err := svc.Query(context.Background(), EventQuery{StartDate: at, EndDate: at})
	require.NoError(t, err)
	require.Equal(t, []aggregation.Ranked{{Name: "b", Count: 2}, {Name: "a", Count: 2}, {Name: "c", Count: 1}}, result.Insights.TopEvents)
	require.Equal(t, []aggregation.Ranked{{Name: "x", Count: 2}, {Name: "y", Count: 2}, {Name: "z", Count: 1}}, result.Insights.TopCategories)
}

func TestQuery_GroupByAggregations(t *testing.T) {
	at := time.Date(2026, 3, 7, 8, 0, 0, 0, time.UTC)
	svc, _ := seed(t,
		eventSpec{typ: v1.TypePayment, category: v1.CategoryRevenue, at: at, platform: "ios", props: map[string]interface{}{"currency": "USD"}},
		eventSpec{typ: v1.TypePayment, category: v1.CategoryRevenue, at: at, platform: "ios", props: map[string]interface{}{"currency": "USD"}},
		eventSpec{typ: v1.TypePayment, category: v1.CategoryRevenue, at: at, props: map[string]interface{}{"currency": "EUR"}},
		eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, at: at},
	)

	result, err := svc.Query(context.Background(), EventQuery{
		StartDate: at,
		EndDate:   at,
		GroupBy:   []string{"platform", "currency", "hour", "type"},
	})
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"platform_groups": 2,
		"platform_top_1":  2,
		"platform_top_2":  2,
		"currency_groups": 3,
		"currency_top_1":  2,
		"currency_top_2":  1,
		"currency_top_3":  1,
		"hour_groups":     1,
		"hour_top_1":      4,
		"type_groups":     2,
		"type_top_1":      3,
		"type_top_2":      1,
	}, result.Aggregations)
}

func TestQuery_Measures(t *testing.T) {
	at := testNow.Add(-time.Minute)
	svc, _ := seed(t,
		eventSpec{typ: v1.TypePayment, category: v1.CategoryRevenue, at: at, props: map[string]interface{}{"amount": 10.5}},
		eventSpec{typ: v1.TypePayment, category: v1.CategoryRevenue, at: at, props: map[string]interface{}{"amount": 4}},
		eventSpec{typ: v1.TypePayment, category: v1.CategoryRevenue, at: at, props: map[string]interface{}{"amount": "not a number"}},
	)

	tests := []struct {
		op   string
		want string
	}{
		{op: aggregation.OpSum, want: "14.5"},
		{op: aggregation.OpMin, want: "4"},
		{op: aggregation.OpMax, want: "10.5"},
		{op: aggregation.OpAvg, want: "7.25"},
	}

	for _, tc := range tests {
		t.Run(tc.op, func(t *testing.T) {
			result, err := svc.Query(context.Background(), EventQuery{
				StartDate:        at,
				EndDate:          at,
				Aggregation:      tc.op,
				AggregationField: "amount",
			})
			require.NoError(t, err)
			got, ok := result.Measures["amount_"+tc.op]
			require.True(t, ok)
			require.True(t, decimal.RequireFromString(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestQuery_CountAggregationHasNoMeasures(t *testing.T) {
	at := testNow.Add(-time.Minute)
	svc, _ := seed(t, eventSpec{typ: v1.TypePageView, category: v1.CategoryNavigation, at: at})

	result, err := svc.Query(context.Background(), EventQuery{StartDate: at, EndDate: at, Aggregation: aggregation.OpCount})
	require.NoError(t, err)
	require.Nil(t, result.Measures)
	require.Empty(t, result.Aggregations)
}

func TestQuery_StoreErrorIsWrapped(t *testing.T) {
	start := testNow.Add(-time.Hour)
	eventStore := storagemocks.NewEventStore(t)
	eventStore.EXPECT().
		RetrieveRange(mock.Anything, start, testNow).
		Return(nil, fmt.Errorf("db failure")).
		Once()

	svc := NewService(eventStore, nil, 0, nil)
	_, err := svc.Query(context.Background(), EventQuery{StartDate: start, EndDate: testNow})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidQuery)
	require.Contains(t, err.Error(), "db failure")
}

func TestExportEvents_SortedAscending(t *testing.T) {
	base := testNow.Add(-time.Hour)
	svc, _ := seed(t,
		eventSpec{typ: "c", category: "x", at: base.Add(2 * time.Minute)},
		eventSpec{typ: "a", category: "x", at: base},
		eventSpec{typ: "b", category: "x", at: base.Add(time.Minute)},
		eventSpec{typ: "late", category: "x", at: base.Add(time.Hour)},
	)

	events, err := svc.ExportEvents(context.Background(), base, base.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "a", events[0].Type)
	require.Equal(t, "b", events[1].Type)
	require.Equal(t, "c", events[2].Type)
}

func TestExportEvents_InvalidRange(t *testing.T) {
	svc, _ := seed(t)
	_, err := svc.ExportEvents(context.Background(), testNow, testNow.Add(-time.Second))
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestNewService_PanicsWithoutStore(t *testing.T) {
	require.Panics(t, func() { NewService(nil, nil, 0, nil) })
}
