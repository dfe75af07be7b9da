package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"rcjk/internal/config"
	"rcjk/internal/export"
	"rcjk/internal/logging"
	"rcjk/internal/preflight"
	"rcjk/internal/sweep"
)

// Exporter runs export passes.
type Exporter interface {
	Run(ctx context.Context, req export.Request) (*export.Report, error)
}

// Sweeper releases stale locks.
type Sweeper interface {
	Run(ctx context.Context) sweep.Report
}

// Store is the persistence the daemon maintains on start.
type Store interface {
	ResetRunningExports(ctx context.Context) (int64, error)
	Path() string
}

// Daemon schedules exports and lock sweeps and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    Store
	exporter Exporter
	sweeper  Sweeper
	now      func() time.Time

	lockPath string
	lock     *flock.Flock

	cron    *cron.Cron
	jobs    []*job
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DatabasePath string
	LockFilePath string
	Jobs         []JobStatus
}

// New constructs a daemon around its collaborators.
func New(cfg *config.Config, st Store, exporter Exporter, sweeper Sweeper, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || exporter == nil || sweeper == nil {
		return nil, errors.New("daemon requires config, store, exporter, and sweeper")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.DaemonLockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		exporter: exporter,
		sweeper:  sweeper,
		now:      time.Now,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.jobs = []*job{
		{name: JobExport, schedule: cfg.Export.Schedule, run: exportJob(exporter, false)},
		{name: JobFullExport, schedule: cfg.Export.FullSchedule, run: exportJob(exporter, true)},
		{name: JobLockSweep, schedule: cfg.Locks.SweepSchedule, run: sweepJob(sweeper)},
	}
	return d, nil
}

// Start acquires the daemon lock, recovers from an unclean shutdown, and
// starts the job schedule.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another rcjk daemon instance is already running")
	}

	reset, err := d.store.ResetRunningExports(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("reset export flags: %w", err)
	}
	if reset > 0 {
		logging.WarnWithContext(d.logger, "cleared export flags left by a previous process", "export_flags_reset",
			logging.Int64("count", reset),
			logging.String(logging.FieldImpact, "the next incremental export may rewrite more files than usual"),
		)
	}
	d.preflight()
	logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: d.cfg.Paths.LogDir, Pattern: "rcjk-*.log"},
	)

	c := cron.New(cron.WithLogger(cronLogger{logger: d.logger}), cron.WithChain(cron.Recover(cronLogger{logger: d.logger})))
	d.ctx, d.cancel = context.WithCancel(ctx)
	for _, j := range d.jobs {
		if j.schedule == "" {
			d.logger.Info("job disabled",
				logging.String(logging.FieldEventType, "job_disabled"),
				logging.String("job", j.name),
			)
			continue
		}
		schedule, err := config.ParseSchedule(j.schedule)
		if err != nil {
			d.cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
		j.entry = c.Schedule(schedule, cron.FuncJob(func() {
			_, _ = j.execute(d.ctx, d.logger, d.now)
		}))
	}
	d.cron = c
	c.Start()

	d.running.Store(true)
	d.logger.Info("rcjk daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()),
	)
	return nil
}

func (d *Daemon) preflight() {
	for _, r := range preflight.Failed(preflight.RunAll(d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldImpact, "scheduled exports are likely to fail"),
		)
	}
}

// Stop halts the schedule, waits for running jobs, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("rcjk daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// RunJob runs the named job immediately. It reports false when the job was
// skipped because a previous run is still active.
func (d *Daemon) RunJob(ctx context.Context, name string) (bool, error) {
	for _, j := range d.jobs {
		if j.name == name {
			return j.execute(ctx, d.logger, d.now)
		}
	}
	return false, fmt.Errorf("unknown job %q", name)
}

// Status reports the daemon state and every job.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
	for _, j := range d.jobs {
		s := j.snapshot()
		if d.cron != nil && j.entry != 0 && status.Running {
			s.Next = d.cron.Entry(j.entry).Next
		}
		status.Jobs = append(status.Jobs, s)
	}
	return status
}
