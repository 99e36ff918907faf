package projection

import (
	"strconv"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/aggregation"
)

const (
	topN       = 10
	dailyDays  = 7
	unknownKey = "unknown"
)

// buildInsights summarizes events. The daily window is the 7 calendar days
// ending with the date of now in loc.
func buildInsights(events []*v1.AnalyticsEvent, now time.Time, loc *time.Location) Insights {
	types := aggregation.NewCounter()
	categories := aggregation.NewCounter()
	users := make(map[string]struct{})
	days := make(map[string]int)

	var hourly [24]int
	for _, evt := range events {
		types.Add(evt.Type)
		categories.Add(evt.Category)
		if evt.UserID != "" {
			users[evt.UserID] = struct{}{}
		}
		hourly[aggregation.HourOf(evt.Timestamp, loc)]++
		days[aggregation.DateKey(evt.Timestamp, loc)]++
	}

	dates := aggregation.LastNDates(now, dailyDays, loc)
	daily := make([]DailyCount, 0, len(dates))
	for _, d := range dates {
		daily = append(daily, DailyCount{Date: d, Count: days[d]})
	}

	return Insights{
		TotalEvents:        len(events),
		UniqueUsers:        len(users),
		TopEvents:          types.Top(topN),
		TopCategories:      categories.Top(topN),
		HourlyDistribution: hourly,
		DailyDistribution:  daily,
	}
}

// groupAggregations emits <field>_groups and <field>_top_<rank> for every groupBy field.
// Ranks start at 1.
func groupAggregations(events []*v1.AnalyticsEvent, groupBy []string, loc *time.Location) map[string]int {
	out := make(map[string]int)
	for _, field := range groupBy {
		if field == "" {
			continue
		}
		c := aggregation.NewCounter()
		for _, evt := range events {
			c.Add(groupKey(evt, field, loc))
		}
		out[field+"_groups"] = c.Len()
		for i, r := range c.Top(topN) {
			out[field+"_top_"+strconv.Itoa(i+1)] = r.Count
		}
	}
	return out
}

func groupKey(evt *v1.AnalyticsEvent, field string, loc *time.Location) string {
	var key string
	switch field {
	case "type":
		key = evt.Type
	case "category":
		key = evt.Category
	case "userId":
		key = evt.UserID
	case "platform":
		key = evt.Metadata.Platform
	case "device":
		key = evt.Metadata.Device
	case "hour":
		key = strconv.Itoa(aggregation.HourOf(evt.Timestamp, loc))
	case "date":
		key = aggregation.DateKey(evt.Timestamp, loc)
	default:
		if v, ok := evt.Property(field); ok {
			key = v1.FormatValue(v)
		}
	}
	if key == "" {
		return unknownKey
	}
	return key
}
