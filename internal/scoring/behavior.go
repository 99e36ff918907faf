package scoring

import (
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

const topActions = 10

// UserBehavior is the behavioral profile of one user.
type UserBehavior struct {
	UserID       string `json:"userId"`
	TotalEvents  int    `json:"totalEvents"`
	SessionCount int    `json:"sessionCount"`

	// AverageSessionDuration is in seconds, over sessions with at least two events.
	AverageSessionDuration float64 `json:"averageSessionDuration"`

	LastActivity     time.Time            `json:"lastActivity"`
	TopActions       []aggregation.Ranked `json:"topActions"`
	ConversionEvents []string             `json:"conversionEvents"`
	RiskScore        int                  `json:"riskScore"`
	EngagementScore  int                  `json:"engagementScore"`
	Categories       []string             `json:"categories"`
}

// Profile derives a UserBehavior from the user's events.
func Profile(userID string, events []*v1.AnalyticsEvent, now time.Time) *UserBehavior {
	sorted := sortedByTime(events)

	actions := aggregation.NewCounter()
	seenTypes := make(map[string]struct{})
	seenCategories := make(map[string]struct{})
	categories := make([]string, 0)

	// session id → first and last timestamp, in first-seen order
	type span struct {
		first, last time.Time
		events      int
	}
	spans := make(map[string]*span)
	var sessionOrder []string

	for _, evt := range sorted {
		actions.Add(evt.Type)
		seenTypes[evt.Type] = struct{}{}
		if _, ok := seenCategories[evt.Category]; !ok {
			seenCategories[evt.Category] = struct{}{}
			categories = append(categories, evt.Category)
		}

		if evt.SessionID == "" {
			continue
		}
		sp, ok := spans[evt.SessionID]
		if !ok {
			sp = &span{first: evt.Timestamp}
			spans[evt.SessionID] = sp
			sessionOrder = append(sessionOrder, evt.SessionID)
		}
		sp.last = evt.Timestamp
		sp.events++
	}

	var durations []decimal.Decimal
	for _, id := range sessionOrder {
		sp := spans[id]
		if sp.events < 2 {
			continue
		}
		durations = append(durations, decimal.NewFromFloat(sp.last.Sub(sp.first).Seconds()))
	}

	conversions := make([]string, 0, len(conversionTypes))
	for _, t := range conversionTypes {
		if _, ok := seenTypes[t]; ok {
			conversions = append(conversions, t)
		}
	}

	lastActivity := now
	if len(sorted) > 0 {
		lastActivity = sorted[len(sorted)-1].Timestamp
	}

	return &UserBehavior{
		UserID:                 userID,
		TotalEvents:            len(sorted),
		SessionCount:           len(spans),
		AverageSessionDuration: aggregation.Mean(durations),
		LastActivity:           lastActivity,
		TopActions:             actions.Top(topActions),
		ConversionEvents:       conversions,
		RiskScore:              RiskScore(sorted),
		EngagementScore:        EngagementScore(sorted, len(spans), now),
		Categories:             categories,
	}
}
