package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultTrimInterval     = 10 * time.Second
	DefaultSnapshotInterval = 60 * time.Second

	finalSnapshotTimeout = 30 * time.Second
)

// SchedulerOptions configures the periodic duties.
// RetentionDays of 0 disables the retention job.
type SchedulerOptions struct {
	TrimInterval      time.Duration
	SnapshotInterval  time.Duration
	RetentionDays     int
	RetentionSchedule string
	Location          *time.Location
}

func (o SchedulerOptions) normalized() SchedulerOptions {
	n := o
	if n.TrimInterval <= 0 {
		n.TrimInterval = DefaultTrimInterval
	}
	if n.SnapshotInterval <= 0 {
		n.SnapshotInterval = DefaultSnapshotInterval
	}
	if n.RetentionSchedule == "" {
		n.RetentionSchedule = "@daily"
	}
	if n.Location == nil {
		n.Location = time.UTC
	}
	return n
}

// Scheduler runs the maintenance duties on independent cron entries.
// Each entry skips a tick while its previous run is still going.
type Scheduler struct {
	cron *cron.Cron
	svc  *Service
	opts SchedulerOptions
}

type job struct {
	name string
	spec string
	run  func()
}

// NewScheduler registers the trim, snapshot and retention jobs.
func NewScheduler(svc *Service, opts SchedulerOptions) (*Scheduler, error) {
	if svc == nil {
		panic("maintenance: service is required")
	}
	opts = opts.normalized()

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(opts.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	s := &Scheduler{cron: c, svc: svc, opts: opts}

	jobs := []job{
		{"trim", every(opts.TrimInterval), s.trimJob},
		{"snapshot", every(opts.SnapshotInterval), s.snapshotJob},
	}
	if opts.RetentionDays > 0 {
		jobs = append(jobs, job{"retention", opts.RetentionSchedule, s.retentionJob})
	}

	for _, j := range jobs {
		if _, err := c.AddFunc(j.spec, j.run); err != nil {
			return nil, fmt.Errorf("schedule %s job %q: %w", j.name, j.spec, err)
		}
	}
	return s, nil
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

// Start begins running the jobs in the background.
func (s *Scheduler) Start() {
	slog.Info("[Scheduler] Starting maintenance scheduler",
		"trim_interval", s.opts.TrimInterval,
		"snapshot_interval", s.opts.SnapshotInterval,
		"retention_days", s.opts.RetentionDays,
	)
	s.cron.Start()
}

// Stop waits for running jobs, then writes a final snapshot.
func (s *Scheduler) Stop(ctx context.Context) error {
	slog.Info("[Scheduler] Stopping maintenance scheduler")

	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}

	if !s.svc.StorageEnabled() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, finalSnapshotTimeout)
	defer cancel()

	slog.Info("[Scheduler] Writing final snapshot before shutdown...")
	if err := s.svc.Snapshot(shutdownCtx); err != nil {
		return fmt.Errorf("final snapshot: %w", err)
	}
	slog.Info("[Scheduler] Final snapshot complete")
	return nil
}

func (s *Scheduler) trimJob() {
	s.svc.TrimBuffer()
}

func (s *Scheduler) snapshotJob() {
	err := s.svc.Snapshot(context.Background())
	if err != nil && !errors.Is(err, ErrSnapshotsDisabled) {
		slog.Warn("[Scheduler] Snapshot failed", "error", err)
	}
}

func (s *Scheduler) retentionJob() {
	if _, err := s.svc.ClearOldEvents(context.Background(), s.opts.RetentionDays); err != nil {
		slog.Error("[Scheduler] Retention run failed", "error", err)
	}
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("[Scheduler] "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("[Scheduler] "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
