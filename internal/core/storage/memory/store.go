package memory

import (
	"context"
	"sync"
	"time"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/fanzdash/pulse/internal/core/storage"
)

// Store is an in-memory implementation of storage.EventStore.
// Events are immutable after ingestion, so callers share the stored pointers.
type Store struct {
	mu     sync.RWMutex
	seq    int64
	events []*v1.AnalyticsEvent
	byID   map[string]struct{}
	byUser map[string][]*v1.AnalyticsEvent
}

// NewStore creates an empty in-memory event store.
func NewStore() *Store {
	return &Store{
		byID:   make(map[string]struct{}),
		byUser: make(map[string][]*v1.AnalyticsEvent),
	}
}

func (s *Store) SaveEvent(ctx context.Context, event *v1.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[event.ID]; exists {
		return storage.ErrDuplicate
	}

	s.seq++
	event.IngestSeq = s.seq
	s.events = append(s.events, event)
	s.byID[event.ID] = struct{}{}
	if event.UserID != "" {
		s.byUser[event.UserID] = append(s.byUser[event.UserID], event)
	}
	return nil
}

func (s *Store) RetrieveRange(ctx context.Context, start, end time.Time) ([]*v1.AnalyticsEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*v1.AnalyticsEvent
	for _, e := range s.events {
		if e.Timestamp.Before(start) || e.Timestamp.After(end) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (s *Store) RetrieveByUser(ctx context.Context, userID string) ([]*v1.AnalyticsEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byUser[userID]
	result := make([]*v1.AnalyticsEvent, len(events))
	copy(result, events)
	return result, nil
}

func (s *Store) RetrieveAll(ctx context.Context) ([]*v1.AnalyticsEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*v1.AnalyticsEvent, len(s.events))
	copy(result, s.events)
	return result, nil
}

func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*v1.AnalyticsEvent, 0, len(s.events))
	removed := 0
	for _, e := range s.events {
		if e.Timestamp.Before(cutoff) {
			delete(s.byID, e.ID)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0, nil
	}

	s.events = kept
	s.byUser = make(map[string][]*v1.AnalyticsEvent)
	for _, e := range kept {
		if e.UserID != "" {
			s.byUser[e.UserID] = append(s.byUser[e.UserID], e)
		}
	}
	return removed, nil
}

func (s *Store) Counts(ctx context.Context) (storage.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return storage.Counts{Events: len(s.events), Users: len(s.byUser)}, nil
}
