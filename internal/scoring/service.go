package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fanzdash/pulse/internal/core/storage"
	"github.com/fanzdash/pulse/internal/notify"
	"github.com/fanzdash/pulse/internal/observability"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrUserRequired is returned when GetUserBehavior is called without a user id.
var ErrUserRequired = errors.New("user id is required")

// Service computes user behavior profiles on demand.
// Profiles are cached per user and dropped when that user tracks a new event.
type Service struct {
	store   storage.EventStore
	cache   *expirable.LRU[string, *UserBehavior]
	metrics *observability.Metrics
	nowFn   func() time.Time

	// mu orders cache fills against invalidations. A fill is dropped when
	// the user's generation moved while the profile was being computed.
	mu          sync.Mutex
	generations map[string]uint64
	epoch       uint64
}

type generation struct {
	user  uint64
	epoch uint64
}

// NewService creates a scoring service. A cacheSize of 0 disables caching.
func NewService(store storage.EventStore, metrics *observability.Metrics, cacheSize int, cacheTTL time.Duration) *Service {
	if store == nil {
		panic("scoring: event store is required")
	}

	s := &Service{
		store:       store,
		metrics:     metrics,
		nowFn:       time.Now,
		generations: make(map[string]uint64),
	}
	if cacheSize > 0 {
		s.cache = expirable.NewLRU[string, *UserBehavior](cacheSize, nil, cacheTTL)
	}
	return s
}

// GetUserBehavior returns the behavior profile of userID. A user without
// events gets an empty profile, not an error.
func (s *Service) GetUserBehavior(ctx context.Context, userID string) (*UserBehavior, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}

	if s.cache != nil {
		if b, ok := s.cache.Get(userID); ok {
			s.metrics.BehaviorCache(true)
			out := *b
			return &out, nil
		}
		s.metrics.BehaviorCache(false)
	}

	gen := s.generation(userID)
	events, err := s.store.RetrieveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("retrieve events for user %s: %w", userID, err)
	}

	b := Profile(userID, events, s.nowFn())
	// A profile without events depends on the clock, so it is never cached.
	if s.cache != nil && len(events) > 0 {
		s.fill(userID, gen, b)
	}
	out := *b
	return &out, nil
}

func (s *Service) generation(userID string) generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return generation{user: s.generations[userID], epoch: s.epoch}
}

func (s *Service) fill(userID string, gen generation, b *UserBehavior) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen.user || s.epoch != gen.epoch {
		return
	}
	s.cache.Add(userID, b)
}

// Notify keeps the cache consistent with the store.
func (s *Service) Notify(_ context.Context, n notify.Notification) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch n.Kind {
	case notify.KindEventTracked:
		if n.Event != nil && n.Event.UserID != "" {
			s.generations[n.Event.UserID]++
			s.cache.Remove(n.Event.UserID)
		}
	case notify.KindOldEventsCleared:
		if n.Count > 0 {
			slog.Debug("[Scoring] Purging behavior cache", "cleared", n.Count)
			s.epoch++
			clear(s.generations)
			s.cache.Purge()
		}
	}
}
