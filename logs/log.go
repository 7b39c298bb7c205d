package logs

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/kbukum/trainlog/columns"
	"github.com/kbukum/trainlog/ops"
	"github.com/kbukum/trainlog/pipeline"
	"github.com/kbukum/trainlog/record"
)

// Log is a single event stream.
type Log struct {
	Events *pipeline.Pipeline[record.Record]

	desc   string
	cached bool
}

// New wraps an event pipeline. desc names the source in String.
func New(events *pipeline.Pipeline[record.Record], desc string) *Log {
	return &Log{Events: events, desc: desc}
}

// FromRecords returns an in-memory log.
func FromRecords(records []record.Record) *Log {
	return &Log{
		Events: pipeline.FromSlice(records),
		desc:   fmt.Sprintf("[%d]", len(records)),
		cached: true,
	}
}

func (l *Log) String() string { return "Log(" + l.desc + ")" }

// Header returns the first record if it is a header, or the zero Record.
func (l *Log) Header(ctx context.Context) (record.Record, error) {
	first, ok, err := pipeline.First(ctx, l.Events)
	if err != nil || !ok || !first.IsHeader() {
		return record.Record{}, err
	}
	return first, nil
}

// Kinds returns the distinct kinds in the log, sorted. Records without a
// kind are not counted.
func (l *Log) Kinds(ctx context.Context) ([]string, error) {
	kinded := pipeline.Filter(l.Events, func(r record.Record) bool {
		_, ok := r.Kind()
		return ok
	})
	names := pipeline.Map(kinded, func(_ context.Context, r record.Record) (string, error) {
		kind, _ := r.Kind()
		return kind, nil
	})
	seen := pipeline.Reduce(names, []string(nil), func(acc []string, kind string) []string {
		return append(acc, kind)
	})
	kinds, _, err := pipeline.First(ctx, seen)
	if err != nil {
		return nil, err
	}
	return sortedUniq(kinds), nil
}

func sortedUniq(kinds []string) []string {
	out := lo.Uniq(kinds)
	sort.Strings(out)
	return out
}

// Apply returns a log whose events are transformed by ops, run as one
// Group.
func (l *Log) Apply(operations ...ops.Operation) *Log {
	return &Log{
		Events: ops.Apply(l.Events, operations...),
		desc:   fmt.Sprintf("Transform(%s, %s)", l.desc, ops.Group(operations...)),
	}
}

// Filter keeps the events matching p.
func (l *Log) Filter(p ops.Predicate) (*Log, error) {
	op, err := ops.Filter(p)
	if err != nil {
		return nil, err
	}
	return l.Apply(op), nil
}

// Kind keeps the events of one kind.
func (l *Log) Kind(kind string) *Log {
	return l.Apply(ops.Must(ops.Filter(ops.Kind(kind))))
}

// Cache reads the events into memory. A cached log is returned as is.
func (l *Log) Cache(ctx context.Context) (*Log, error) {
	if l.cached {
		return l, nil
	}
	records, err := pipeline.Collect(ctx, l.Events)
	if err != nil {
		return nil, err
	}
	return FromRecords(records), nil
}

// Columns reads the events into columns; see columns.FromRecords.
func (l *Log) Columns(ctx context.Context, names ...string) (*columns.Columns, error) {
	records, err := pipeline.Collect(ctx, l.Events)
	if err != nil {
		return nil, err
	}
	return columns.FromRecords(records, names...), nil
}
