package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"rcjk/internal/export"
	"rcjk/internal/logging"
)

// Job names.
const (
	JobExport     = "export"
	JobFullExport = "full-export"
	JobLockSweep  = "lock-sweep"
)

// JobStatus reports the schedule and last outcome of one job.
type JobStatus struct {
	Name         string
	Schedule     string
	Next         time.Time
	LastRunAt    time.Time
	LastDuration time.Duration
	LastError    string
	Runs         int
	Active       bool
}

type job struct {
	name     string
	schedule string
	entry    cron.EntryID
	run      func(ctx context.Context) error

	mu     sync.Mutex
	active bool
	status JobStatus
}

// execute runs the job unless a previous run is still active.
func (j *job) execute(ctx context.Context, logger *slog.Logger, now func() time.Time) (bool, error) {
	j.mu.Lock()
	if j.active {
		j.mu.Unlock()
		logger.Info("job still running, skipped",
			logging.String(logging.FieldEventType, "job_skipped"),
			logging.String("job", j.name),
		)
		return false, nil
	}
	j.active = true
	j.mu.Unlock()

	start := now()
	err := j.run(ctx)

	j.mu.Lock()
	j.active = false
	j.status.Runs++
	j.status.LastRunAt = start
	j.status.LastDuration = now().Sub(start)
	j.status.LastError = ""
	if err != nil {
		j.status.LastError = err.Error()
	}
	j.mu.Unlock()

	if err != nil {
		logging.ErrorWithContext(logger, "scheduled job failed", "job_failed",
			logging.String("job", j.name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the job runs again at its next scheduled time"),
		)
	} else {
		logger.Info("scheduled job finished",
			logging.String(logging.FieldEventType, "job_finished"),
			logging.String("job", j.name),
			logging.Duration("duration", now().Sub(start)),
		)
	}
	return true, err
}

func (j *job) snapshot() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.status
	s.Name = j.name
	s.Schedule = j.schedule
	s.Active = j.active
	return s
}

// exportJob turns an export report into a job error when any project failed.
func exportJob(exporter Exporter, full bool) func(context.Context) error {
	return func(ctx context.Context) error {
		report, err := exporter.Run(ctx, export.Request{Full: full})
		if err != nil {
			return err
		}
		if failed := report.FailedProjects(); failed > 0 {
			return fmt.Errorf("%d of %d projects failed to export", failed, len(report.Projects))
		}
		return nil
	}
}

func sweepJob(sweeper Sweeper) func(context.Context) error {
	return func(ctx context.Context) error {
		return sweeper.Run(ctx).Err()
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{logging.Error(err)}, keysAndValues...)...)
}
