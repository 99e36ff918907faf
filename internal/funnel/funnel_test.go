package funnel

import (
	"fmt"
	"math"
	"testing"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

func event(id, typ, user string, props map[string]interface{}) *v1.AnalyticsEvent {
	return &v1.AnalyticsEvent{
		ID:         id,
		Type:       typ,
		Category:   "test",
		UserID:     user,
		Timestamp:  testNow,
		Properties: props,
	}
}

func signupEvents() []*v1.AnalyticsEvent {
	var events []*v1.AnalyticsEvent
	for i := 0; i < 10; i++ {
		events = append(events, event(fmt.Sprintf("view-%d", i), v1.TypePageView, fmt.Sprintf("user-%d", i), nil))
	}
	events = append(events,
		event("pay-0", v1.TypePayment, "user-0", nil),
		event("pay-1", v1.TypePayment, "user-1", nil),
		event("pay-1b", v1.TypePayment, "user-1", nil),
		// paid without viewing: not part of the funnel
		event("pay-x", v1.TypePayment, "user-x", nil),
	)
	return events
}

func TestEvaluate_SignupScenario(t *testing.T) {
	f, err := Evaluate("signup", []Step{
		{Name: "view", EventType: v1.TypePageView},
		{Name: "pay", EventType: v1.TypePayment},
	}, signupEvents())
	require.NoError(t, err)

	require.Equal(t, "signup", f.Name)
	require.Equal(t, []StepResult{
		{Name: "view", EventType: v1.TypePageView, Users: 10, ConversionRate: 100, DropoffRate: 0},
		{Name: "pay", EventType: v1.TypePayment, Users: 2, ConversionRate: 20, DropoffRate: 80},
	}, f.Steps)
	require.Equal(t, 20.0, f.OverallConversion)
}

func TestEvaluate_ZeroPreviousUsers(t *testing.T) {
	f, err := Evaluate("empty", []Step{
		{Name: "upload", EventType: v1.TypeContentUpload},
		{Name: "stream", EventType: v1.TypeStreamStart},
		{Name: "pay", EventType: v1.TypePayment},
	}, signupEvents())
	require.NoError(t, err)

	require.Equal(t, 100.0, f.Steps[0].ConversionRate)
	require.Zero(t, f.Steps[0].Users)
	for _, s := range f.Steps[1:] {
		require.Zero(t, s.Users)
		require.Zero(t, s.ConversionRate)
		require.Equal(t, 100.0, s.DropoffRate)
	}
	require.Zero(t, f.OverallConversion)
}

func TestEvaluate_FiltersAndAnonymous(t *testing.T) {
	events := []*v1.AnalyticsEvent{
		event("1", v1.TypePageView, "a", map[string]interface{}{"page": "/pricing"}),
		event("2", v1.TypePageView, "b", map[string]interface{}{"page": "/pricing"}),
		event("3", v1.TypePageView, "c", map[string]interface{}{"page": "/home"}),
		event("4", v1.TypePageView, "", map[string]interface{}{"page": "/pricing"}),
		event("5", v1.TypePayment, "a", map[string]interface{}{"currency": "USD", "amount": 5}),
		event("6", v1.TypePayment, "b", map[string]interface{}{"currency": "EUR", "amount": 5}),
		event("7", v1.TypePayment, "c", map[string]interface{}{"currency": "USD", "amount": 5}),
	}

	f, err := Evaluate("pricing", []Step{
		{Name: "pricing", EventType: v1.TypePageView, Filters: map[string]interface{}{"page": "/pricing"}},
		{Name: "usd", EventType: v1.TypePayment, Filters: map[string]interface{}{"currency": "USD", "amount": 5.0}},
	}, events)
	require.NoError(t, err)
	require.Equal(t, 2, f.Steps[0].Users)
	require.Equal(t, 1, f.Steps[1].Users)
	require.Equal(t, 50.0, f.Steps[1].ConversionRate)
	require.Equal(t, 50.0, f.Steps[1].DropoffRate)
}

func TestEvaluate_RoundsRates(t *testing.T) {
	events := []*v1.AnalyticsEvent{
		event("1", "a", "u1", nil), event("2", "a", "u2", nil), event("3", "a", "u3", nil),
		event("4", "b", "u1", nil),
	}
	f, err := Evaluate("thirds", []Step{{EventType: "a"}, {EventType: "b"}}, events)
	require.NoError(t, err)
	require.Equal(t, "a", f.Steps[0].Name, "step name defaults to the event type")
	require.Equal(t, 33.33, f.Steps[1].ConversionRate)
	require.Equal(t, 66.67, f.Steps[1].DropoffRate)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		fname string
		steps []Step
	}{
		{name: "missing name", fname: "", steps: []Step{{EventType: "a"}}},
		{name: "no steps", fname: "f", steps: nil},
		{name: "step without type", fname: "f", steps: []Step{{EventType: "a"}, {Name: "b"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(tc.fname, tc.steps, nil)
			require.ErrorIs(t, err, ErrInvalidFunnel)
		})
	}
}

func TestEvaluate_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	types := []string{"a", "b", "c", "d"}

	build := func(users, kinds []int) []*v1.AnalyticsEvent {
		n := min(len(users), len(kinds))
		out := make([]*v1.AnalyticsEvent, 0, n)
		for i := 0; i < n; i++ {
			user := ""
			if users[i] > 0 {
				user = fmt.Sprintf("u%d", users[i])
			}
			out = append(out, event(fmt.Sprintf("e%d", i), types[kinds[i]], user, nil))
		}
		return out
	}

	properties.Property("rates stay within bounds and users never grow", prop.ForAll(
		func(users, kinds, stepKinds []int) bool {
			steps := make([]Step, 0, len(stepKinds)+1)
			steps = append(steps, Step{EventType: "a"})
			for _, k := range stepKinds {
				steps = append(steps, Step{EventType: types[k]})
			}

			f, err := Evaluate("prop", steps, build(users, kinds))
			if err != nil {
				return false
			}
			if f.Steps[0].ConversionRate != 100 || f.Steps[0].DropoffRate != 0 {
				return false
			}
			for i, s := range f.Steps {
				if s.ConversionRate < 0 || s.ConversionRate > 100 {
					return false
				}
				if math.Abs(s.ConversionRate+s.DropoffRate-100) > 1e-9 {
					return false
				}
				if i > 0 && s.Users > f.Steps[i-1].Users {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 12)),
		gen.SliceOf(gen.IntRange(0, len(types)-1)),
		gen.SliceOfN(4, gen.IntRange(0, len(types)-1)),
	))

	properties.TestingRun(t)
}
