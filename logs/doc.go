// Package logs loads training logs and wraps their event streams with a
// small analysis API.
//
// A Log is a lazy, re-iterable stream of records; a LogSet is an ordered
// collection of logs, typically produced by Glob:
//
//	set, err := logs.Glob(ctx, "runs/**/*.jsonl*", true)
//	if err != nil {
//	    return err
//	}
//	valid := set.Apply(ops.Must(ops.Header("name"))).Kind("valid")
//	cols, err := valid.Columns(ctx, "name", "step", "loss")
//
// Loading a file reads nothing until the log is traversed, and every
// traversal reopens the file. Use Cache before repeated analysis.
package logs
