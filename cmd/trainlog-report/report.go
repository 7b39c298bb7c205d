package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/trainlog/bootstrap"
	"github.com/kbukum/trainlog/config"
	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/logger"
	"github.com/kbukum/trainlog/logs"
	"github.com/kbukum/trainlog/observability"
)

// report runs the configured report, writing CSV to the configured file or
// to stdout.
func report(ctx context.Context, app *bootstrap.App, stdout io.Writer) (err error) {
	cfg := app.Cfg
	out := stdout
	if cfg.Output.Path != "" {
		f, cerr := os.Create(cfg.Output.Path)
		if cerr != nil {
			return errors.IO("create", cfg.Output.Path, cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = errors.IO("close", cfg.Output.Path, cerr)
			}
		}()
		out = f
		app.Summary.Track("output", cfg.Output.Path)
	}

	res, err := runReport(ctx, cfg, out)
	app.Summary.Track("logs", res.logs)
	app.Summary.Track("rows", res.rows)
	if err != nil {
		return err
	}
	app.Logger.WithContext(ctx).Info("report written", logger.Fields(
		logger.FieldPattern, cfg.Input.Pattern,
		logger.FieldRecords, res.rows,
		"logs", res.logs,
	))
	return nil
}

type reportResult struct {
	logs int
	rows int
}

// runReport loads the logs matching the configured pattern, applies the
// configured operations to each, and writes the selected columns to out.
func runReport(ctx context.Context, cfg *config.ReportConfig, out io.Writer) (res reportResult, err error) {
	run := observability.NewRun(cfg.Name, observability.Default())
	ctx, span := run.Start(ctx, observability.SpanReportRun)
	defer func() { run.End(ctx, span, res.rows, err) }()

	set, err := logs.Glob(ctx, cfg.Input.Pattern, cfg.Input.Recursive)
	if err != nil {
		return res, err
	}
	res.logs = set.Len()
	if set.Len() == 0 {
		return res, errors.Usage(fmt.Sprintf("no logs match %q", cfg.Input.Pattern))
	}

	operations, err := cfg.Ops.Operations()
	if err != nil {
		return res, err
	}
	if len(operations) > 0 {
		set = set.Apply(operations...)
	}
	if cfg.Output.Kind != "" {
		set = set.Kind(cfg.Output.Kind)
	}

	cols, err := set.Columns(ctx, cfg.Output.Columns...)
	if err != nil {
		return res, err
	}
	res.rows = cols.Rows()
	return res, cols.WriteCSV(out)
}
