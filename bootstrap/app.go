package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/trainlog/config"
	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/logger"
	"github.com/kbukum/trainlog/observability"
)

// App runs one finite command.
type App struct {
	Name    string
	Version string
	Cfg     *config.ReportConfig
	Logger  *logger.Logger
	Summary *Summary

	gracefulTimeout time.Duration

	onStart []Hook
	onStop  []Hook
}

// NewApp applies defaults to cfg, validates it and initializes the logger.
// When telemetry is enabled, OTLP exporters are started before the task and
// flushed after it.
func NewApp(cfg *config.ReportConfig, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := resolveOptions(opts)
	app := &App{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
	}
	if o.version != "" {
		app.Version = o.version
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if o.logger != nil {
		app.Logger = o.logger
		logger.SetGlobalLogger(o.logger)
	} else {
		logger.Init(cfg.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Summary = NewSummary(app.Name, app.Version)
	if o.summaryOut != nil {
		app.Summary.out = o.summaryOut
	}

	if cfg.Telemetry.Enabled {
		app.OnStart(app.startTelemetry)
	}
	return app, nil
}

func (a *App) startTelemetry(ctx context.Context) error {
	t := a.Cfg.Telemetry

	tracerCfg := observability.DefaultTracerConfig(a.Name)
	tracerCfg.ServiceVersion = a.Version
	tracerCfg.Environment = a.Cfg.Environment
	tracerCfg.Endpoint = t.Endpoint
	tracerCfg.Insecure = t.Insecure
	tracerCfg.SampleRate = t.SampleRate
	tp, err := observability.InitTracer(ctx, &tracerCfg)
	if err != nil {
		return err
	}
	a.OnStop(tp.Shutdown)

	meterCfg := observability.DefaultMeterConfig(a.Name)
	meterCfg.ServiceVersion = a.Version
	meterCfg.Environment = a.Cfg.Environment
	meterCfg.Endpoint = t.Endpoint
	meterCfg.Insecure = t.Insecure
	meterCfg.Interval = t.Interval
	mp, err := observability.InitMeter(ctx, &meterCfg)
	if err != nil {
		return err
	}
	a.OnStop(mp.Shutdown)

	a.Summary.Track("telemetry", t.Endpoint)
	return nil
}

// RunTask runs start hooks, then task, then stop hooks. SIGINT and SIGTERM
// cancel the task's context. Stop hooks run even when the task fails; the
// task's error takes precedence over theirs.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	start := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := runHooks(ctx, a.onStart); err != nil {
		a.stop()
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)
	elapsed := time.Since(start)
	if taskErr != nil {
		a.Logger.WithError(taskErr).Error("task failed", logger.DurationFields(a.Name, elapsed))
	} else {
		a.Logger.Info("task finished", logger.DurationFields(a.Name, elapsed))
	}
	stopErr := a.stop()

	a.Summary.SetDuration(elapsed)
	a.Summary.SetError(taskErr)
	a.Summary.Display()

	if taskErr != nil {
		return taskErr
	}
	return stopErr
}

// stop runs the stop hooks in reverse registration order within the
// graceful timeout.
func (a *App) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var firstErr error
	for i := len(a.onStop) - 1; i >= 0; i-- {
		if err := a.onStop[i](ctx); err != nil {
			a.Logger.Error("stop hook failed", logger.ErrorFields("stop", err))
			if firstErr == nil {
				firstErr = errors.IO("shutdown", a.Name, err)
			}
		}
	}
	return firstErr
}
