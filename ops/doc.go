// Package ops is the event-stream operator algebra: composable stages that
// consume an ordered stream of records and produce a new ordered stream.
//
// An Operation is a factory. Each traversal of a pipeline calls New to get
// a Stage with fresh state, so applying the same Operation to two logs, or
// re-reading one log, never shares counters or buffers.
//
// A Stage is offered one record at a time. It returns the output computed
// from its state before that record, plus a Commit that folds the record
// into its state. Because Offer never mutates state directly, Duck can drop
// a failed record's update and leave the stage exactly as it was.
//
// # Operators
//
// Per-event:
//
//   - Filter: keep records matching a predicate (size-reducing)
//   - Map: set a field computed from the record
//   - Copy: copy the last value of a field seen on another kind of record
//   - Header: copy a field from the header record onto every record
//
// Prefix aggregates (annotation uses strictly earlier records):
//
//   - Sum: running total of an extracted number
//   - CountIf: running count of records matching a predicate
//   - Window: reduction over the last N matching records
//
// Combinators:
//
//   - Group: run several operations over the same input and merge fields
//   - When: route only matching records through an operation
//   - Duck: tolerate missing fields in the wrapped operation
//
// # Usage
//
//	events := ops.Apply(src,
//	    ops.Must(ops.Header("learning_rate")),
//	    ops.Must(ops.CountIf(ops.Kind("step"))),
//	    ops.Must(ops.Window(ops.Kind("step"), 100, ops.ReduceMean("loss"), ops.As("train_loss"))),
//	    ops.Must(ops.Duck(ops.Must(ops.Map(ops.Named("accuracy", accuracy))))),
//	)
//	valid := ops.Apply(events, ops.Must(ops.Filter(ops.Kind("valid"))))
//
// Result keys default to a name derived from the extractor, predicate or
// reducer (Get("n") gives "sum_n" for Sum, Kind("step") gives "step" for
// CountIf). Anonymous functions have no derivable name, and constructing an
// aggregate over one without As fails with an INVALID_CONFIG error.
package ops
