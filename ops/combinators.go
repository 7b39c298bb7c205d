package ops

import (
	"context"
	"strings"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/logger"
	"github.com/kbukum/trainlog/observability"
	"github.com/kbukum/trainlog/record"
)

type groupOp struct {
	ops []Operation
}

// Group runs every op over the same input and merges their outputs field by
// field; on a conflicting key the later op wins. A record dropped by any op
// is dropped. Group() is the identity.
func Group(ops ...Operation) Operation {
	if len(ops) == 1 {
		return ops[0]
	}
	return &groupOp{ops: ops}
}

func (o *groupOp) New() Stage {
	stages := make([]Stage, len(o.ops))
	for i, op := range o.ops {
		stages[i] = op.New()
	}
	return &groupStage{stages: stages}
}

func (o *groupOp) String() string {
	names := make([]string, len(o.ops))
	for i, op := range o.ops {
		names[i] = op.String()
	}
	return "group(" + strings.Join(names, ", ") + ")"
}

type groupStage struct {
	stages []Stage
}

// Offer commits all children or none. A child failing before it produced
// output fails the group the same way; a child failing only in its update
// still contributes its output and the group reports the first such error.
func (s *groupStage) Offer(r record.Record) (Step, error) {
	out := Step{Record: r, Keep: true}
	var commits []func()
	var updateErr error

	for _, stage := range s.stages {
		step, err := stage.Offer(r)
		if err != nil && step.Record.IsZero() {
			return Step{}, err
		}
		if err != nil && updateErr == nil {
			updateErr = err
		}
		out.Record = out.Record.Merge(step.Record)
		out.Keep = out.Keep && step.Keep
		if step.Commit != nil {
			commits = append(commits, step.Commit)
		}
	}

	if updateErr != nil {
		return out, updateErr
	}
	if len(commits) > 0 {
		out.Commit = func() {
			for _, c := range commits {
				c()
			}
		}
	}
	return out, nil
}

type whenOp struct {
	p  Predicate
	op Operation
}

// When applies op to the records matching p. Other records pass through
// untouched and are never seen by op, so op's state only reflects matching
// records.
func When(p Predicate, op Operation) (Operation, error) {
	if p == nil {
		return nil, errors.InvalidConfig("when", "predicate is required")
	}
	if op == nil {
		return nil, errors.InvalidConfig("when", "operation is required")
	}
	return &whenOp{p: p, op: op}, nil
}

func (o *whenOp) New() Stage { return &whenStage{p: o.p, inner: o.op.New()} }

func (o *whenOp) String() string {
	return "when(" + describe(o.p) + ", " + o.op.String() + ")"
}

type whenStage struct {
	p     Predicate
	inner Stage
}

func (s *whenStage) Offer(r record.Record) (Step, error) {
	ok, err := s.p.Match(r)
	if err != nil {
		return Step{}, err
	}
	if !ok {
		return emit(r), nil
	}
	return s.inner.Offer(r)
}

type duckOp struct {
	op Operation
}

// Duck makes op tolerate records missing a required field. If op cannot
// produce its output the original record is forwarded; if it produced the
// output but could not fold the record into its state, the output is kept.
// Either way op's state is unchanged. Errors other than MISSING_FIELD
// propagate.
func Duck(op Operation) (Operation, error) {
	if op == nil {
		return nil, errors.InvalidConfig("duck", "operation is required")
	}
	return &duckOp{op: op}, nil
}

func (o *duckOp) New() Stage {
	return &duckStage{
		name:    o.op.String(),
		inner:   o.op.New(),
		log:     logger.Get("ops"),
		metrics: observability.Default(),
	}
}

func (o *duckOp) String() string { return "duck(" + o.op.String() + ")" }

type duckStage struct {
	name    string
	inner   Stage
	log     *logger.Logger
	metrics *observability.Metrics
}

func (s *duckStage) Offer(r record.Record) (Step, error) {
	step, err := s.inner.Offer(r)
	appErr, ok := errors.AsAppError(err)
	if !ok || !appErr.Recoverable() {
		return step, err
	}

	field, _ := errors.MissingFieldName(err)
	s.metrics.RecordRecovered(context.Background(), s.name, field)
	s.log.Debug("missing field skipped", logger.Fields(logger.FieldOperation, s.name, "field", field))

	if step.Record.IsZero() {
		return emit(r), nil
	}
	return Step{Record: step.Record, Keep: step.Keep}, nil
}
