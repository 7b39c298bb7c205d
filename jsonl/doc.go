// Package jsonl reads and writes JSON Lines (https://jsonlines.org/) log
// files: one compact JSON value per line, optionally gzip-compressed.
//
// Files whose name ends in .gz or .gzip are compressed transparently:
//
//	w, err := jsonl.Create("run.jsonl.gz")
//	w.Write(record.New("kind", "step", "loss", 2.5))
//	w.Close()
//
//	events := jsonl.ReadFile("run.jsonl.gz") // lazy, re-iterable
//	records, err := pipeline.Collect(ctx, events)
package jsonl
