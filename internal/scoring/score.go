package scoring

import (
	"math"
	"sort"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
)

const (
	maxScore       = 100
	rapidActionGap = time.Second
	day            = 24 * time.Hour
)

var (
	creationTypes = map[string]struct{}{
		v1.TypeContentUpload: {},
		v1.TypeStreamStart:   {},
		v1.TypeComment:       {},
		v1.TypeLike:          {},
	}

	revenueTypes = map[string]struct{}{
		v1.TypePayment:      {},
		v1.TypeSubscription: {},
		v1.TypeTip:          {},
	}

	// conversionTypes is ordered so UserBehavior.ConversionEvents is stable.
	conversionTypes = []string{
		v1.TypePayment,
		v1.TypeSubscription,
		v1.TypeContentUpload,
		v1.TypeStreamStart,
	}
)

// tier awards the points of the first threshold that n exceeds.
// Thresholds are ordered from highest to lowest.
type tier struct {
	over   float64
	points int
}

func award(n float64, tiers ...tier) int {
	for _, t := range tiers {
		if n > t.over {
			return t.points
		}
	}
	return 0
}

func capped(n, per, limit int) int {
	return min(n*per, limit)
}

func clamp(score int) int {
	return max(0, min(score, maxScore))
}

// RiskScore rates how suspicious a user's history looks, 0 to 100.
// The order of events does not matter.
func RiskScore(events []*v1.AnalyticsEvent) int {
	var errCount, flags int
	for _, evt := range events {
		switch evt.Type {
		case v1.TypeError:
			errCount++
		case v1.TypeModerationAction:
			if evt.PropertyEquals("action", "flag") {
				flags++
			}
		}
	}

	score := award(float64(errCount), tier{10, 30}, tier{5, 15})
	score += award(float64(rapidActions(events)), tier{20, 40}, tier{10, 20})
	score += award(float64(flags), tier{3, 50}, tier{1, 25})
	return clamp(score)
}

// rapidActions counts consecutive pairs, in time order, less than a second apart.
func rapidActions(events []*v1.AnalyticsEvent) int {
	if len(events) < 2 {
		return 0
	}
	sorted := sortedByTime(events)

	n := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Timestamp.Sub(sorted[i-1].Timestamp) < rapidActionGap {
			n++
		}
	}
	return n
}

// EngagementScore rates how active a user is, 0 to 100.
// sessions is the number of distinct sessions the user has had.
func EngagementScore(events []*v1.AnalyticsEvent, sessions int, now time.Time) int {
	if len(events) == 0 {
		return clamp(award(float64(sessions), tier{10, 15}, tier{5, 10}, tier{1, 5}))
	}

	first := events[0].Timestamp
	types := make(map[string]struct{})
	var creation, revenue int
	for _, evt := range events {
		if evt.Timestamp.Before(first) {
			first = evt.Timestamp
		}
		types[evt.Type] = struct{}{}
		if _, ok := creationTypes[evt.Type]; ok {
			creation++
		}
		if _, ok := revenueTypes[evt.Type]; ok {
			revenue++
		}
	}

	days := math.Max(1, math.Ceil(now.Sub(first).Hours()/day.Hours()))
	perDay := float64(len(events)) / days

	score := award(perDay, tier{50, 30}, tier{20, 20}, tier{5, 10})
	score += capped(len(types), 2, 20)
	score += capped(creation, 1, 25)
	score += award(float64(sessions), tier{10, 15}, tier{5, 10}, tier{1, 5})
	score += capped(revenue, 5, 10)
	return clamp(score)
}

func sortedByTime(events []*v1.AnalyticsEvent) []*v1.AnalyticsEvent {
	sorted := make([]*v1.AnalyticsEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
