package bootstrap

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/trainlog/config"
	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/logger"
)

func newTestConfig() *config.ReportConfig {
	return &config.ReportConfig{
		Name:    "test-report",
		Version: "1.0.0",
		Input:   config.InputConfig{Pattern: "*.jsonl"},
	}
}

func newTestApp(t *testing.T, opts ...Option) (*App, *bytes.Buffer) {
	t.Helper()
	var summary bytes.Buffer
	quiet := logger.NewWithWriter(&logger.Config{Level: "disabled", Format: "json"}, "test", io.Discard)
	opts = append([]Option{WithLogger(quiet), WithSummaryWriter(&summary)}, opts...)
	app, err := NewApp(newTestConfig(), opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app, &summary
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)
	if app.Name != "test-report" || app.Version != "1.0.0" {
		t.Errorf("name=%q version=%q", app.Name, app.Version)
	}
	if app.Logger == nil || app.Summary == nil {
		t.Error("expected logger and summary")
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("defaults not applied: environment=%q", app.Cfg.Environment)
	}
}

func TestNewApp_Version(t *testing.T) {
	app, _ := newTestApp(t, WithVersion("2.0.0"))
	if app.Version != "2.0.0" {
		t.Errorf("Version = %q", app.Version)
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := newTestConfig()
	cfg.Input.Pattern = ""
	_, err := NewApp(cfg)
	if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	app, summary := newTestApp(t)
	var calls []string
	hook := func(name string) Hook {
		return func(context.Context) error {
			calls = append(calls, name)
			return nil
		}
	}
	app.OnStart(hook("start1"), hook("start2"))
	app.OnStop(hook("stop1"), hook("stop2"))

	err := app.RunTask(context.Background(), func(context.Context) error {
		calls = append(calls, "task")
		app.Summary.Track("files", 2)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"start1", "start2", "task", "stop2", "stop1"}, calls); diff != "" {
		t.Errorf("call order (-want +got):\n%s", diff)
	}
	if out := summary.String(); !strings.Contains(out, "finished test-report v1.0.0") || !strings.Contains(out, "files: 2") {
		t.Errorf("summary = %q", out)
	}
}

func TestRunTask_TaskError(t *testing.T) {
	app, summary := newTestApp(t)
	stopped := false
	app.OnStop(func(context.Context) error {
		stopped = true
		return stderrors.New("flush failed")
	})
	taskErr := stderrors.New("boom")

	err := app.RunTask(context.Background(), func(context.Context) error { return taskErr })
	if !stderrors.Is(err, taskErr) {
		t.Errorf("expected task error, got %v", err)
	}
	if !stopped {
		t.Error("stop hooks should run after a failed task")
	}
	if !strings.Contains(summary.String(), "failed") {
		t.Errorf("summary = %q", summary.String())
	}
}

func TestRunTask_StopError(t *testing.T) {
	app, _ := newTestApp(t)
	app.OnStop(func(context.Context) error { return stderrors.New("flush failed") })
	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if !errors.IsCode(err, errors.ErrCodeIO) {
		t.Errorf("expected IO_ERROR from stop hook, got %v", err)
	}
}

func TestRunTask_StartError(t *testing.T) {
	app, _ := newTestApp(t)
	ran := false
	app.OnStart(func(context.Context) error { return stderrors.New("no exporter") })
	err := app.RunTask(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "no exporter") {
		t.Errorf("expected start hook error, got %v", err)
	}
	if ran {
		t.Error("task should not run after a failed start hook")
	}
}

func TestRunTask_ContextCanceled(t *testing.T) {
	app, _ := newTestApp(t, WithGracefulTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.RunTask(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunTask_LogsOutcome(t *testing.T) {
	var logs bytes.Buffer
	l := logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "test", &logs)
	app, _ := newTestApp(t, WithLogger(l))

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), `"task finished"`) || !strings.Contains(logs.String(), `"duration_ms"`) {
		t.Errorf("logs = %s", logs.String())
	}

	logs.Reset()
	_ = app.RunTask(context.Background(), func(context.Context) error { return stderrors.New("boom") })
	if !strings.Contains(logs.String(), `"task failed"`) || !strings.Contains(logs.String(), "boom") {
		t.Errorf("logs = %s", logs.String())
	}
}

func TestSummary_Track(t *testing.T) {
	s := NewSummary("r", "1")
	s.Track("files", 1)
	s.Track("records", 10)
	s.Track("files", 3)
	want := []SummaryItem{{Name: "files", Value: 3}, {Name: "records", Value: 10}}
	if diff := cmp.Diff(want, s.Items()); diff != "" {
		t.Errorf("items (-want +got):\n%s", diff)
	}
}
