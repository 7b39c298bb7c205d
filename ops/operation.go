package ops

import (
	"context"

	"github.com/kbukum/trainlog/pipeline"
	"github.com/kbukum/trainlog/record"
)

// Step is the outcome of offering one record to a Stage.
type Step struct {
	// Record is the output for the offered record.
	Record record.Record
	// Keep is false when the record is dropped from the output.
	Keep bool
	// Commit folds the offered record into the stage's state. Nil when the
	// record changes nothing.
	Commit func()
}

// Stage is one operation's per-traversal state.
type Stage interface {
	// Offer computes the output for r from the state in effect before r and
	// returns the update as Step.Commit without applying it.
	//
	// When the output cannot be computed Offer returns a zero Step and an
	// error. When the output was computed but the update could not be (for
	// example Sum failing to extract a number), Offer returns the output
	// together with the error and a nil Commit.
	Offer(r record.Record) (Step, error)
}

// Operation builds stages. Every call to New returns a stage with freshly
// initialised state.
type Operation interface {
	New() Stage
	String() string
}

func emit(r record.Record) Step {
	return Step{Record: r, Keep: true}
}

// Apply returns a lazy pipeline that runs ops over src as one Group.
// Each traversal of the result builds fresh stages.
func Apply(src *pipeline.Pipeline[record.Record], ops ...Operation) *pipeline.Pipeline[record.Record] {
	op := Group(ops...)
	return pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[record.Record] {
		return &stageIter{source: src.Iter(ctx), stage: op.New()}
	})
}

// Run applies op to records and collects the output.
func Run(ctx context.Context, op Operation, records ...record.Record) ([]record.Record, error) {
	return pipeline.Collect(ctx, Apply(pipeline.FromSlice(records), op))
}

// Must panics if err is non-nil and returns op otherwise. It is meant for
// pipelines whose arguments are fixed in code.
func Must(op Operation, err error) Operation {
	if err != nil {
		panic(err)
	}
	return op
}

type stageIter struct {
	source pipeline.Iterator[record.Record]
	stage  Stage
}

func (it *stageIter) Next(ctx context.Context) (record.Record, bool, error) {
	for {
		r, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return record.Record{}, false, err
		}
		step, err := it.stage.Offer(r)
		if err != nil {
			return record.Record{}, false, err
		}
		if step.Commit != nil {
			step.Commit()
		}
		if step.Keep {
			return step.Record, true, nil
		}
	}
}

func (it *stageIter) Close() error { return it.source.Close() }

// Option configures an operation's result key.
type Option func(*options)

type options struct {
	key string
}

// As sets the result key, overriding any derived default.
func As(key string) Option {
	return func(o *options) { o.key = key }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
