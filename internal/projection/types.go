package projection

import (
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

// EventQuery selects events from the canonical collection.
// Every supplied filter must match (conjunctive).
type EventQuery struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	EventTypes []string `json:"eventTypes,omitempty"`
	Categories []string `json:"categories,omitempty"`

	// UserIDs excludes anonymous events whenever it is non-empty.
	UserIDs []string `json:"userIds,omitempty"`

	// Filters is property key → exact value.
	Filters map[string]interface{} `json:"filters,omitempty"`

	GroupBy []string `json:"groupBy,omitempty"`

	// Aggregation is one of count, sum, min, max, avg. Counting is always done;
	// the other operators need AggregationField.
	Aggregation      string `json:"aggregation,omitempty"`
	AggregationField string `json:"aggregationField,omitempty"`

	// Limit truncates Events only. 0 means no limit.
	Limit int `json:"limit,omitempty"`
}

// QueryResult is the response of Query.
type QueryResult struct {
	Events       []*v1.AnalyticsEvent       `json:"events"`
	Aggregations map[string]int             `json:"aggregations"`
	Measures     map[string]decimal.Decimal `json:"measures,omitempty"`
	Insights     Insights                   `json:"insights"`
}

// Insights summarize the full filtered set, regardless of Limit.
type Insights struct {
	TotalEvents        int                  `json:"totalEvents"`
	UniqueUsers        int                  `json:"uniqueUsers"`
	TopEvents          []aggregation.Ranked `json:"topEvents"`
	TopCategories      []aggregation.Ranked `json:"topCategories"`
	HourlyDistribution [24]int              `json:"hourlyDistribution"`
	DailyDistribution  []DailyCount         `json:"dailyDistribution"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
