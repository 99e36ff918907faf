package funnel

import (
	"context"
	"fmt"
	"time"

	"github.com/fanzdash/pulse/internal/core/storage"
	"github.com/fanzdash/pulse/internal/observability"
)

// Service evaluates ad hoc and saved funnels over the canonical collection.
type Service struct {
	store       storage.EventStore
	definitions DefinitionRepository
	metrics     *observability.Metrics
	nowFn       func() time.Time
}

// NewService creates a funnel service. definitions may be nil when no saved
// funnels are configured.
func NewService(store storage.EventStore, definitions DefinitionRepository, metrics *observability.Metrics) *Service {
	if store == nil {
		panic("funnel: event store is required")
	}
	return &Service{
		store:       store,
		definitions: definitions,
		metrics:     metrics,
		nowFn:       time.Now,
	}
}

// CreateConversionFunnel evaluates steps against every stored event.
func (s *Service) CreateConversionFunnel(ctx context.Context, name string, steps []Step) (*ConversionFunnel, error) {
	defer s.metrics.ObserveQuery("funnel", time.Now())

	if err := Validate(name, steps); err != nil {
		return nil, err
	}

	events, err := s.store.RetrieveAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve events: %w", err)
	}

	f, err := Evaluate(name, steps, events)
	if err != nil {
		return nil, err
	}
	f.EvaluatedAt = s.nowFn()
	return f, nil
}

// EvaluateSaved evaluates the saved definition called name.
func (s *Service) EvaluateSaved(ctx context.Context, name string) (*ConversionFunnel, error) {
	if s.definitions == nil {
		return nil, fmt.Errorf("%w: %s", ErrDefinitionNotFound, name)
	}
	def, err := s.definitions.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.CreateConversionFunnel(ctx, def.Name, def.Steps)
}

// Definitions lists saved funnels.
func (s *Service) Definitions(ctx context.Context) ([]Definition, error) {
	if s.definitions == nil {
		return []Definition{}, nil
	}
	return s.definitions.List(ctx)
}
