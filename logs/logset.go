package logs

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/kbukum/trainlog/columns"
	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/ops"
	"github.com/kbukum/trainlog/pipeline"
	"github.com/kbukum/trainlog/record"
)

// LogSet is an ordered collection of logs. Operations apply to each log
// separately, so stateful operations never see across log boundaries.
type LogSet struct {
	logs []*Log
}

// NewSet returns a set of logs.
func NewSet(logs ...*Log) *LogSet {
	return &LogSet{logs: logs}
}

func (s *LogSet) String() string { return fmt.Sprintf("LogSet([%d])", len(s.logs)) }

// Len returns the number of logs.
func (s *LogSet) Len() int { return len(s.logs) }

// At returns the i-th log.
func (s *LogSet) At(i int) (*Log, error) {
	if i < 0 || i >= len(s.logs) {
		return nil, errors.Usage(fmt.Sprintf("log index %d out of range [0, %d)", i, len(s.logs)))
	}
	return s.logs[i], nil
}

// Logs returns the logs in order.
func (s *LogSet) Logs() []*Log { return s.logs }

// Events concatenates the events of every log, opening one at a time.
func (s *LogSet) Events() *pipeline.Pipeline[record.Record] {
	return pipeline.Concat(lo.Map(s.logs, func(l *Log, _ int) *pipeline.Pipeline[record.Record] {
		return l.Events
	})...)
}

// Kinds returns the distinct kinds across all logs, sorted.
func (s *LogSet) Kinds(ctx context.Context) ([]string, error) {
	var kinds []string
	for _, l := range s.logs {
		k, err := l.Kinds(ctx)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k...)
	}
	return sortedUniq(kinds), nil
}

// Apply applies ops to each log.
func (s *LogSet) Apply(operations ...ops.Operation) *LogSet {
	return s.each(func(l *Log) *Log { return l.Apply(operations...) })
}

// Filter keeps the events matching p in each log.
func (s *LogSet) Filter(p ops.Predicate) (*LogSet, error) {
	op, err := ops.Filter(p)
	if err != nil {
		return nil, err
	}
	return s.Apply(op), nil
}

// Kind keeps the events of one kind in each log.
func (s *LogSet) Kind(kind string) *LogSet {
	return s.each(func(l *Log) *Log { return l.Kind(kind) })
}

func (s *LogSet) each(fn func(*Log) *Log) *LogSet {
	return &LogSet{logs: lo.Map(s.logs, func(l *Log, _ int) *Log { return fn(l) })}
}

// Cache reads every log into memory.
func (s *LogSet) Cache(ctx context.Context) (*LogSet, error) {
	cached := make([]*Log, len(s.logs))
	for i, l := range s.logs {
		c, err := l.Cache(ctx)
		if err != nil {
			return nil, err
		}
		cached[i] = c
	}
	return &LogSet{logs: cached}, nil
}

// Columns reads the events of every log, in order, into columns.
func (s *LogSet) Columns(ctx context.Context, names ...string) (*columns.Columns, error) {
	records, err := pipeline.Collect(ctx, s.Events())
	if err != nil {
		return nil, err
	}
	return columns.FromRecords(records, names...), nil
}
