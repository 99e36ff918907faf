package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fanzdash/pulse/internal/core/aggregation"
	"github.com/fanzdash/pulse/internal/core/storage"
	"github.com/fanzdash/pulse/internal/notify"
	"github.com/fanzdash/pulse/internal/observability"
)

var (
	// ErrInvalidAge is returned by ClearOldEvents for a negative age.
	ErrInvalidAge = errors.New("days old must not be negative")

	// ErrSnapshotsDisabled is returned by Snapshot once persistence is off.
	ErrSnapshotsDisabled = errors.New("snapshots disabled")
)

// Service owns the housekeeping duties: buffer trim, daily snapshots and
// age-based deletion.
type Service struct {
	store     storage.EventStore
	buffer    *storage.RollingBuffer
	sessions  *storage.SessionIndex
	snapshots Snapshotter
	publisher notify.Publisher
	metrics   *observability.Metrics
	loc       *time.Location
	nowFn     func() time.Time

	// snapshotMu serializes snapshot writes so an on-demand write never races the scheduled one.
	snapshotMu sync.Mutex
	enabled    atomic.Bool
}

// NewService creates the maintenance service. A nil snapshotter starts with
// persistence disabled. sessions may be nil; when set, restored events are
// registered in it.
func NewService(
	store storage.EventStore,
	buffer *storage.RollingBuffer,
	sessions *storage.SessionIndex,
	snapshots Snapshotter,
	publisher notify.Publisher,
	metrics *observability.Metrics,
	loc *time.Location,
) *Service {
	if store == nil {
		panic("maintenance: event store is required")
	}
	if buffer == nil {
		panic("maintenance: rolling buffer is required")
	}
	if publisher == nil {
		publisher = notify.Discard
	}
	if loc == nil {
		loc = time.UTC
	}

	s := &Service{
		store:     store,
		buffer:    buffer,
		sessions:  sessions,
		snapshots: snapshots,
		publisher: publisher,
		metrics:   metrics,
		loc:       loc,
		nowFn:     time.Now,
	}
	s.enabled.Store(snapshots != nil)
	return s
}

// StorageEnabled reports whether snapshots are still being written.
func (s *Service) StorageEnabled() bool {
	return s.enabled.Load()
}

// PrepareSnapshots checks the snapshot destination. A failure turns
// persistence off the same way a failed write does.
func (s *Service) PrepareSnapshots(ctx context.Context) {
	if !s.enabled.Load() {
		return
	}
	if err := s.snapshots.Prepare(ctx); err != nil {
		s.enabled.Store(false)
		s.metrics.SnapshotWritten(false)
		slog.Error("[Snapshot] Storage unavailable, continuing memory-only", "error", err)
	}
}

// TrimBuffer drops all but the newest buffered events and returns how many were dropped.
func (s *Service) TrimBuffer() int {
	dropped := s.buffer.Trim()
	s.metrics.SetBufferSize(s.buffer.Len())
	if dropped > 0 {
		slog.Debug("[Maintenance] Trimmed rolling buffer", "dropped", dropped, "size", s.buffer.Len())
	}
	return dropped
}

// Snapshot writes the whole canonical collection under today's date.
// A failed write turns persistence off for the rest of the process lifetime.
func (s *Service) Snapshot(ctx context.Context) error {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()

	if !s.enabled.Load() {
		return ErrSnapshotsDisabled
	}

	events, err := s.store.RetrieveAll(ctx)
	if err != nil {
		return fmt.Errorf("retrieve events for snapshot: %w", err)
	}

	now := s.nowFn()
	date := aggregation.DateKey(now, s.loc)
	if err := s.snapshots.Write(ctx, date, events); err != nil {
		s.enabled.Store(false)
		s.metrics.SnapshotWritten(false)
		slog.Error("[Snapshot] Write failed, continuing memory-only",
			"date", date,
			"events", len(events),
			"error", err,
		)
		return fmt.Errorf("write snapshot %s: %w", date, err)
	}

	s.metrics.SnapshotWritten(true)
	slog.Debug("[Snapshot] Persisted events", "date", date, "events", len(events))
	s.publisher.Publish(ctx, notify.Notification{
		Kind:   notify.KindEventsPersisted,
		At:     now,
		Count:  len(events),
		Detail: date,
	})
	return nil
}

// ClearOldEvents removes events older than daysOld days from the canonical
// store. The rolling buffer is left alone.
func (s *Service) ClearOldEvents(ctx context.Context, daysOld int) (int, error) {
	if daysOld < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAge, daysOld)
	}

	now := s.nowFn()
	cutoff := now.Add(-time.Duration(daysOld) * 24 * time.Hour)
	removed, err := s.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete events before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	s.metrics.EventsCleared(removed)
	slog.Info("[Maintenance] Cleared old events", "days_old", daysOld, "cutoff", cutoff, "removed", removed)
	s.publisher.Publish(ctx, notify.Notification{
		Kind:  notify.KindOldEventsCleared,
		At:    now,
		Count: removed,
	})
	return removed, nil
}

// Restore loads today's snapshot back into the store. Events already present
// are skipped. A missing snapshot restores nothing.
func (s *Service) Restore(ctx context.Context) (int, error) {
	if s.snapshots == nil || !s.StorageEnabled() {
		return 0, nil
	}

	date := aggregation.DateKey(s.nowFn(), s.loc)
	events, err := s.snapshots.Read(ctx, date)
	if errors.Is(err, ErrSnapshotNotFound) {
		slog.Info("[Snapshot] No snapshot to restore", "date", date)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read snapshot %s: %w", date, err)
	}

	restored := 0
	for _, evt := range events {
		err := s.store.SaveEvent(ctx, evt)
		if err != nil && !errors.Is(err, storage.ErrDuplicate) {
			return restored, fmt.Errorf("restore event %s: %w", evt.ID, err)
		}
		if s.sessions != nil && evt.UserID != "" && evt.SessionID != "" {
			s.sessions.Register(evt.UserID, evt.SessionID)
		}
		if err == nil {
			restored++
		}
	}
	slog.Info("[Snapshot] Restored events", "date", date, "restored", restored)
	return restored, nil
}
