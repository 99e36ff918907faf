package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
)

// ErrSnapshotNotFound is returned by Read when no snapshot exists for a date.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshotter persists one JSON array of events per calendar day.
// Writing the same date again overwrites the previous snapshot.
type Snapshotter interface {
	// Prepare checks the destination once at startup.
	Prepare(ctx context.Context) error
	Write(ctx context.Context, date string, events []*v1.AnalyticsEvent) error
	Read(ctx context.Context, date string) ([]*v1.AnalyticsEvent, error)
}

// SnapshotName is the object name for date (YYYY-MM-DD).
func SnapshotName(date string) string {
	return "events-" + date + ".json"
}

func encodeSnapshot(events []*v1.AnalyticsEvent) ([]byte, error) {
	if events == nil {
		events = []*v1.AnalyticsEvent{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) ([]*v1.AnalyticsEvent, error) {
	var events []*v1.AnalyticsEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return events, nil
}

// FileSnapshotter writes snapshots into a local directory.
type FileSnapshotter struct {
	dir string
}

func NewFileSnapshotter(dir string) *FileSnapshotter {
	return &FileSnapshotter{dir: dir}
}

// Prepare creates the snapshot directory.
func (f *FileSnapshotter) Prepare(context.Context) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	return nil
}

// Write replaces the snapshot atomically through a temp file and rename.
func (f *FileSnapshotter) Write(_ context.Context, date string, events []*v1.AnalyticsEvent) error {
	data, err := encodeSnapshot(events)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".events-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(f.dir, SnapshotName(date))); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func (f *FileSnapshotter) Read(_ context.Context, date string) ([]*v1.AnalyticsEvent, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, SnapshotName(date)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, date)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return decodeSnapshot(data)
}
