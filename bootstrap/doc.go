// Package bootstrap runs a trainlog command through a uniform lifecycle:
// validated configuration, logger and telemetry setup, start hooks, the
// task itself under signal-driven cancellation, stop hooks, and a run
// summary.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    return report(ctx, app)
//	})
package bootstrap
