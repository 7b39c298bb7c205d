// Package observability provides OpenTelemetry tracing and metrics for
// trainlog.
//
// Libraries record through the global providers, which are no-ops until a
// program installs real ones:
//
//	mcfg := observability.DefaultMeterConfig("trainlog-report")
//	mp, err := observability.InitMeter(ctx, &mcfg)
//	defer mp.Shutdown(ctx)
//
//	tcfg := observability.DefaultTracerConfig("trainlog-report")
//	tp, err := observability.InitTracer(ctx, &tcfg)
//	defer tp.Shutdown(ctx)
//
// Instruments:
//
//	trainlog.records.read      records decoded from log files
//	trainlog.records.written   records encoded to log files
//	trainlog.ops.recovered     missing-field failures absorbed by ops.Duck
//	trainlog.run.duration      wall time of a traced run
package observability
