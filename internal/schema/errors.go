package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAlreadyExists = errors.New("event kind already registered")
	ErrInvalidKind   = errors.New("invalid event kind")
)

// ValidationError represents one vocabulary violation.
type ValidationError struct {
	Type             string `json:"type"`
	Message          string `json:"message"`
	Field            string `json:"field,omitempty"`
	ExpectedCategory string `json:"expected_category,omitempty"`
	ActualCategory   string `json:"actual_category,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("property '%s': %s (event %s)", e.Field, e.Message, e.Type)
	}
	return fmt.Sprintf("%s (event %s)", e.Message, e.Type)
}

// MultiValidationError aggregates multiple validation errors.
type MultiValidationError struct {
	Errors []*ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// ValidationDetailer surfaces structured validation details for API error responses.
type ValidationDetailer interface {
	Details() map[string]interface{}
}

func (e *ValidationError) Details() map[string]interface{} {
	d := map[string]interface{}{"type": e.Type}
	if e.Field != "" {
		d["field"] = e.Field
	}
	if e.ExpectedCategory != "" {
		d["expected_category"] = e.ExpectedCategory
		d["actual_category"] = e.ActualCategory
	}
	return d
}

// Details aggregates the failed property names from all child errors.
func (e *MultiValidationError) Details() map[string]interface{} {
	d := make(map[string]interface{})
	var fields []string
	for _, ve := range e.Errors {
		if ve.Field != "" {
			fields = append(fields, ve.Field)
		}
		if ve.ExpectedCategory != "" {
			d["expected_category"] = ve.ExpectedCategory
			d["actual_category"] = ve.ActualCategory
		}
	}
	if len(fields) > 0 {
		d["fields"] = fields
	}
	if len(e.Errors) > 0 {
		d["type"] = e.Errors[0].Type
	}
	return d
}

func newRequiredPropertyError(eventType, field string) *ValidationError {
	return &ValidationError{
		Type:    eventType,
		Message: "required property is missing",
		Field:   field,
	}
}

func newCategoryMismatchError(eventType, expected, actual string) *ValidationError {
	return &ValidationError{
		Type:             eventType,
		Message:          fmt.Sprintf("expected category %s, got %s", expected, actual),
		ExpectedCategory: expected,
		ActualCategory:   actual,
	}
}
