package daemon_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"rcjk/internal/daemon"
	"rcjk/internal/export"
	"rcjk/internal/sweep"
	"rcjk/internal/testsupport"
)

type fakeExporter struct {
	runs  atomic.Int32
	fulls atomic.Int32
	fail  bool
}

func (f *fakeExporter) Run(_ context.Context, req export.Request) (*export.Report, error) {
	f.runs.Add(1)
	if req.Full {
		f.fulls.Add(1)
	}
	report := &export.Report{Full: req.Full}
	if f.fail {
		report.Projects = []export.ProjectResult{{Slug: "broken", Err: errors.New("git push rejected")}}
	}
	return report, nil
}

type fakeSweeper struct {
	runs atomic.Int32
}

func (f *fakeSweeper) Run(context.Context) sweep.Report {
	f.runs.Add(1)
	return sweep.Report{}
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	st := testsupport.MustOpenStore(t, cfg)
	fx := testsupport.MustSeed(t, st)
	ctx := context.Background()
	if _, ok, err := st.BeginFontExport(ctx, fx.Font.ID); err != nil || !ok {
		t.Fatalf("BeginFontExport = %v, %v", ok, err)
	}

	d, err := daemon.New(cfg, st, &fakeExporter{}, &fakeSweeper{}, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(d.Stop)

	font, err := st.GetFont(ctx, fx.Font.ID)
	if err != nil || font.ExportRunning {
		t.Fatalf("expected stale export flag cleared, got %+v, %v", font, err)
	}

	status := d.Status()
	if !status.Running || len(status.Jobs) != 3 {
		t.Fatalf("unexpected status: %+v", status)
	}
	for _, job := range status.Jobs {
		if job.Next.IsZero() {
			t.Fatalf("expected next run for %s", job.Name)
		}
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}
	second, err := daemon.New(cfg, st, &fakeExporter{}, &fakeSweeper{}, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock held by first daemon")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
	if err := second.Start(ctx); err != nil {
		t.Fatalf("expected lock released after stop: %v", err)
	}
	second.Stop()
}

func TestRunJobRecordsOutcome(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Export.FullSchedule = ""
	st := testsupport.MustOpenStore(t, cfg)
	exporter := &fakeExporter{fail: true}
	sweeper := &fakeSweeper{}
	d, err := daemon.New(cfg, st, exporter, sweeper, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx := context.Background()

	ran, err := d.RunJob(ctx, daemon.JobExport)
	if !ran || err == nil {
		t.Fatalf("expected failed export run, got %v, %v", ran, err)
	}
	if ran, err := d.RunJob(ctx, daemon.JobFullExport); !ran || err == nil {
		t.Fatalf("manual run of a disabled job must still run: %v, %v", ran, err)
	}
	if ran, err := d.RunJob(ctx, daemon.JobLockSweep); !ran || err != nil {
		t.Fatalf("sweep run = %v, %v", ran, err)
	}
	if _, err := d.RunJob(ctx, "reindex"); err == nil {
		t.Fatal("expected unknown job error")
	}

	if exporter.runs.Load() != 2 || exporter.fulls.Load() != 1 || sweeper.runs.Load() != 1 {
		t.Fatalf("unexpected call counts: export=%d full=%d sweep=%d", exporter.runs.Load(), exporter.fulls.Load(), sweeper.runs.Load())
	}
	for _, job := range d.Status().Jobs {
		if job.Runs != 1 {
			t.Fatalf("%s runs = %d", job.Name, job.Runs)
		}
		if job.Name == daemon.JobExport && job.LastError == "" {
			t.Fatal("expected export failure recorded")
		}
		if job.Name == daemon.JobLockSweep && job.LastError != "" {
			t.Fatalf("unexpected sweep error %q", job.LastError)
		}
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemon.New(cfg, nil, &fakeExporter{}, &fakeSweeper{}, nil); err == nil {
		t.Fatal("expected error without store")
	}
}
