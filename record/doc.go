// Package record defines the event data model shared by every trainlog
// package: an ordered mapping of field names to JSON-compatible values.
//
// Records are treated as immutable. With and Merge return new records and
// leave the receiver untouched, so operators can annotate events without
// affecting any other stage that holds the same input.
//
//	r := record.New("kind", "step", "loss", 0.25)
//	r2 := r.With("step", 10)
//	r.Has("step")  // false
//	r2.Keys()      // [kind loss step]
package record
