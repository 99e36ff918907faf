package funnel

import (
	"errors"
	"fmt"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

// ErrInvalidFunnel marks funnel definitions that cannot be evaluated.
var ErrInvalidFunnel = errors.New("invalid funnel")

var hundred = decimal.NewFromInt(100)

// Step matches events by type and exact property values.
type Step struct {
	Name      string                 `json:"name" yaml:"name"`
	EventType string                 `json:"eventType" yaml:"event_type"`
	Filters   map[string]interface{} `json:"filters,omitempty" yaml:"filters"`
}

type StepResult struct {
	Name           string  `json:"name"`
	EventType      string  `json:"eventType"`
	Users          int     `json:"users"`
	ConversionRate float64 `json:"conversionRate"`
	DropoffRate    float64 `json:"dropoffRate"`
}

// ConversionFunnel is the evaluated form of a funnel.
type ConversionFunnel struct {
	Name              string       `json:"name"`
	Steps             []StepResult `json:"steps"`
	OverallConversion float64      `json:"overallConversion"`
	EvaluatedAt       time.Time    `json:"evaluatedAt"`
}

// Validate checks that a funnel can be evaluated.
func Validate(name string, steps []Step) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFunnel)
	}
	if len(steps) == 0 {
		return fmt.Errorf("%w: %s has no steps", ErrInvalidFunnel, name)
	}
	for i, s := range steps {
		if s.EventType == "" {
			return fmt.Errorf("%w: %s step %d has no event type", ErrInvalidFunnel, name, i)
		}
	}
	return nil
}

// Evaluate narrows the user set step by step. Step 0 takes every identified
// user with a matching event; each later step only keeps users that were in the
// previous step's set. Event order across steps is not enforced.
func Evaluate(name string, steps []Step, events []*v1.AnalyticsEvent) (*ConversionFunnel, error) {
	if err := Validate(name, steps); err != nil {
		return nil, err
	}

	results := make([]StepResult, 0, len(steps))
	var prev map[string]struct{}
	for i, step := range steps {
		cur := make(map[string]struct{})
		for _, evt := range events {
			if evt.UserID == "" || !matches(evt, step) {
				continue
			}
			if i > 0 {
				if _, ok := prev[evt.UserID]; !ok {
					continue
				}
			}
			cur[evt.UserID] = struct{}{}
		}

		rate := 100.0
		if i > 0 {
			rate = aggregation.Percent(len(cur), len(prev))
		}

		stepName := step.Name
		if stepName == "" {
			stepName = step.EventType
		}
		results = append(results, StepResult{
			Name:           stepName,
			EventType:      step.EventType,
			Users:          len(cur),
			ConversionRate: rate,
			DropoffRate:    aggregation.Round2(hundred.Sub(decimal.NewFromFloat(rate))),
		})
		prev = cur
	}

	return &ConversionFunnel{
		Name:              name,
		Steps:             results,
		OverallConversion: aggregation.Percent(results[len(results)-1].Users, results[0].Users),
	}, nil
}

func matches(evt *v1.AnalyticsEvent, step Step) bool {
	if evt.Type != step.EventType {
		return false
	}
	for key, want := range step.Filters {
		if !evt.PropertyEquals(key, want) {
			return false
		}
	}
	return true
}
