package schema

import (
	"fmt"
	"sort"
	"sync"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
)

// Kind is one entry of the event vocabulary: the canonical category of an
// event type and the properties every producer must supply.
type Kind struct {
	Type        string   `yaml:"type" json:"type"`
	Category    string   `yaml:"category" json:"category"`
	Required    []string `yaml:"required" json:"required"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`

	// Fingerprint is the SHA-256 of the file a kind was loaded from; empty for built-ins.
	Fingerprint string `yaml:"-" json:"fingerprint,omitempty"`
}

// Builtins is the caller-agreed vocabulary.
var Builtins = []Kind{
	{Type: v1.TypePageView, Category: v1.CategoryNavigation, Required: []string{"page"}},
	{Type: v1.TypeContentView, Category: v1.CategoryEngagement, Required: []string{"contentId", "creatorId"}},
	{Type: v1.TypeContentUpload, Category: v1.CategoryCreation, Required: []string{"contentId", "contentType"}},
	{Type: v1.TypeStreamStart, Category: v1.CategoryCreation, Required: []string{"streamId"}},
	{Type: v1.TypeStreamView, Category: v1.CategoryEngagement, Required: []string{"streamId", "creatorId"}},
	{Type: v1.TypePayment, Category: v1.CategoryRevenue, Required: []string{"amount", "currency", "processor"}},
	{Type: v1.TypeModerationAction, Category: v1.CategorySafety, Required: []string{"action", "targetId"}},
	{Type: v1.TypeError, Category: v1.CategorySystem, Required: []string{"message"}},
	{Type: v1.TypeAPICall, Category: v1.CategoryPerformance, Required: []string{"endpoint", "method", "statusCode", "responseTime"}},
}

// Vocabulary is a concurrency-safe registry of known event kinds.
// Types that are not registered are accepted as free-form.
type Vocabulary struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

func NewVocabulary() *Vocabulary {
	return &Vocabulary{kinds: make(map[string]Kind)}
}

// DefaultVocabulary returns a vocabulary seeded with Builtins.
func DefaultVocabulary() *Vocabulary {
	v := NewVocabulary()
	for _, k := range Builtins {
		if err := v.Register(k); err != nil {
			panic(fmt.Sprintf("schema: builtin kind %q: %v", k.Type, err))
		}
	}
	return v
}

// Register adds a kind. Returns ErrAlreadyExists if the type is taken.
func (v *Vocabulary) Register(k Kind) error {
	if k.Type == "" || k.Category == "" {
		return fmt.Errorf("%w: type and category are required", ErrInvalidKind)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.kinds[k.Type]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, k.Type)
	}
	k.Required = append([]string(nil), k.Required...)
	v.kinds[k.Type] = k
	return nil
}

func (v *Vocabulary) Lookup(eventType string) (Kind, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	k, ok := v.kinds[eventType]
	return k, ok
}

// List returns every registered kind sorted by type.
func (v *Vocabulary) List() []Kind {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]Kind, 0, len(v.kinds))
	for _, k := range v.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Check validates an event against its registered kind.
// It returns nil for unregistered types.
func (v *Vocabulary) Check(eventType, category string, props map[string]interface{}) error {
	k, ok := v.Lookup(eventType)
	if !ok {
		return nil
	}

	var errs []*ValidationError
	if category != k.Category {
		errs = append(errs, newCategoryMismatchError(eventType, k.Category, category))
	}
	for _, field := range k.Required {
		if missing(props, field) {
			errs = append(errs, newRequiredPropertyError(eventType, field))
		}
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &MultiValidationError{Errors: errs}
	}
}

func missing(props map[string]interface{}, field string) bool {
	val, ok := props[field]
	if !ok || val == nil {
		return true
	}
	if s, isString := val.(string); isString && s == "" {
		return true
	}
	return false
}
