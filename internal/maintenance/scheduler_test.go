package maintenance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewScheduler_RegistersJobs(t *testing.T) {
	env := newTestEnv(t, nil)

	s, err := NewScheduler(env.svc, SchedulerOptions{})
	require.NoError(t, err)
	require.Len(t, s.cron.Entries(), 2)
	require.Equal(t, DefaultTrimInterval, s.opts.TrimInterval)
	require.Equal(t, DefaultSnapshotInterval, s.opts.SnapshotInterval)

	s, err = NewScheduler(env.svc, SchedulerOptions{RetentionDays: 30})
	require.NoError(t, err)
	require.Len(t, s.cron.Entries(), 3)
}

func TestNewScheduler_InvalidRetentionSchedule(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := NewScheduler(env.svc, SchedulerOptions{RetentionDays: 1, RetentionSchedule: "every tuesday"})
	require.Error(t, err)
}

func TestScheduler_Jobs(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, NewFileSnapshotter(dir))
	for i := 0; i < 5; i++ {
		env.track(t, fmt.Sprintf("evt-%d", i), testNow.Add(-time.Duration(i)*24*time.Hour))
	}

	s, err := NewScheduler(env.svc, SchedulerOptions{RetentionDays: 2})
	require.NoError(t, err)

	s.trimJob()
	require.Equal(t, 3, env.buffer.Len())

	s.snapshotJob()
	got, err := NewFileSnapshotter(dir).Read(context.Background(), "2026-03-07")
	require.NoError(t, err)
	require.Len(t, got, 5)

	s.retentionJob()
	left, _ := env.store.RetrieveAll(context.Background())
	require.Len(t, left, 3)
}

func TestScheduler_SnapshotJobSurvivesFailure(t *testing.T) {
	env := newTestEnv(t, &failingSnapshotter{})
	s, err := NewScheduler(env.svc, SchedulerOptions{})
	require.NoError(t, err)

	require.NotPanics(t, s.snapshotJob)
	require.NotPanics(t, s.snapshotJob)
	require.False(t, env.svc.StorageEnabled())
}

func TestScheduler_StopWritesFinalSnapshot(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, NewFileSnapshotter(dir))
	env.track(t, "a", testNow)

	s, err := NewScheduler(env.svc, SchedulerOptions{})
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	got, err := NewFileSnapshotter(dir).Read(context.Background(), "2026-03-07")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestScheduler_StopWithoutPersistence(t *testing.T) {
	env := newTestEnv(t, nil)
	s, err := NewScheduler(env.svc, SchedulerOptions{})
	require.NoError(t, err)
	s.Start()

	require.NoError(t, s.Stop(context.Background()))
	require.Empty(t, env.pub.kinds())
}
