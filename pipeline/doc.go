// Package pipeline provides the lazy, pull-based sequences that carry
// trainlog records between a source and a consumer.
//
// A Pipeline is a factory: nothing runs until a value is pulled via
// Collect, Drain, ForEach or First, and every pull session calls the
// factory again. Stateful stages built inside the factory therefore start
// from fresh state on each traversal, and re-reading a file-backed
// pipeline re-opens the file.
//
// Everything here runs on the caller's goroutine. The only point where a
// traversal may block is the source iterator (for example a file read);
// stopping early is done by closing the iterator.
//
// # Operators
//
//   - Map: transform each value
//   - Filter: keep values matching a predicate
//   - Tap: side-effect without altering the value (logging, metrics)
//   - Reduce: accumulate all values into one result
//   - Concat: join pipelines sequentially
//
// # Usage
//
//	src := pipeline.FromSlice(events)
//	steps := pipeline.Filter(src, func(r record.Record) bool {
//	    kind, _ := r.Kind()
//	    return kind == "step"
//	})
//	results, _ := pipeline.Collect(ctx, steps)
package pipeline
