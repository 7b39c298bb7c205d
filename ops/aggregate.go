package ops

import (
	"fmt"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/record"
	"github.com/kbukum/trainlog/validation"
)

type sumOp struct {
	ex  Extractor
	key string
}

// Sum annotates each record with the running total of ex over the records
// before it, then adds ex(record). A nil value counts as zero; a value that
// is not a number fails with a DECODE_ERROR. The default key is "sum_"
// followed by the extractor's name.
func Sum(ex Extractor, opts ...Option) (Operation, error) {
	if err := checkExtractor("sum", ex); err != nil {
		return nil, err
	}
	derived := ""
	if ex.Name() != "" {
		derived = "sum_" + ex.Name()
	}
	key, err := resultKey("sum", buildOptions(opts), derived)
	if err != nil {
		return nil, err
	}
	return &sumOp{ex: ex, key: key}, nil
}

func (o *sumOp) New() Stage { return &sumStage{op: o} }

func (o *sumOp) String() string {
	return fmt.Sprintf("sum(%s as %s)", describe(o.ex), o.key)
}

type sumStage struct {
	op    *sumOp
	total float64
}

func (s *sumStage) Offer(r record.Record) (Step, error) {
	out := Step{Record: r.With(s.op.key, s.total), Keep: true}

	v, err := s.op.ex.Extract(r)
	if err != nil {
		return out, err
	}
	if v == nil {
		return out, nil
	}
	f, err := toFloat(s.op.ex.Name(), v)
	if err != nil {
		return out, err
	}
	out.Commit = func() { s.total += f }
	return out, nil
}

type countIfOp struct {
	p   Predicate
	key string
}

// CountIf annotates each record with the number of earlier records that
// matched p. The default key is the predicate's name, so
// CountIf(Kind("step")) writes "step".
func CountIf(p Predicate, opts ...Option) (Operation, error) {
	if p == nil {
		return nil, errors.InvalidConfig("count_if", "predicate is required")
	}
	key, err := resultKey("count_if", buildOptions(opts), p.Name())
	if err != nil {
		return nil, err
	}
	return &countIfOp{p: p, key: key}, nil
}

func (o *countIfOp) New() Stage { return &countIfStage{op: o} }

func (o *countIfOp) String() string {
	return fmt.Sprintf("count_if(%s as %s)", describe(o.p), o.key)
}

type countIfStage struct {
	op    *countIfOp
	count int
}

func (s *countIfStage) Offer(r record.Record) (Step, error) {
	out := Step{Record: r.With(s.op.key, s.count), Keep: true}
	ok, err := s.op.p.Match(r)
	if err != nil {
		return out, err
	}
	if ok {
		out.Commit = func() { s.count++ }
	}
	return out, nil
}

// Reducer folds the records held by a Window into one value.
type Reducer interface {
	// Reduce is never called with an empty slice. It must not retain
	// records.
	Reduce(records []record.Record) (any, error)
	// Name is the reducer's canonical name, used to derive result keys.
	Name() string
}

type fieldReducer struct {
	prefix string
	field  string
	fn     func(field string, records []record.Record) (any, error)
}

func (f *fieldReducer) Reduce(records []record.Record) (any, error) { return f.fn(f.field, records) }
func (f *fieldReducer) Name() string                                { return f.prefix + "_" + f.field }
func (f *fieldReducer) String() string                              { return f.prefix + "(" + f.field + ")" }

func numbers(field string, records []record.Record) ([]float64, error) {
	out := make([]float64, len(records))
	for i, r := range records {
		f, err := Float64(r, field)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// ReduceMean averages field over the window. Its name is "mean_" + field.
func ReduceMean(field string) Reducer {
	return &fieldReducer{prefix: "mean", field: field, fn: func(field string, records []record.Record) (any, error) {
		xs, err := numbers(field, records)
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, x := range xs {
			sum += x
		}
		return sum / float64(len(xs)), nil
	}}
}

// ReduceMax takes the largest value of field in the window. Its name is
// "max_" + field.
func ReduceMax(field string) Reducer {
	return &fieldReducer{prefix: "max", field: field, fn: func(field string, records []record.Record) (any, error) {
		xs, err := numbers(field, records)
		if err != nil {
			return nil, err
		}
		m := xs[0]
		for _, x := range xs[1:] {
			if x > m {
				m = x
			}
		}
		return m, nil
	}}
}

// ReduceLast takes field from the newest record in the window. Its name is
// "last_" + field.
func ReduceLast(field string) Reducer {
	return &fieldReducer{prefix: "last", field: field, fn: func(field string, records []record.Record) (any, error) {
		v, ok := records[len(records)-1].Get(field)
		if !ok {
			return nil, errors.MissingField(field)
		}
		return v, nil
	}}
}

type funcReducer func([]record.Record) (any, error)

// ReduceFunc wraps fn as an anonymous reducer.
func ReduceFunc(fn func(records []record.Record) (any, error)) Reducer {
	return funcReducer(fn)
}

func (f funcReducer) Reduce(records []record.Record) (any, error) { return f(records) }
func (f funcReducer) Name() string                                { return "" }
func (f funcReducer) String() string                              { return "reduce" }

type windowSpec struct {
	Size int `json:"size" validate:"min=1"`
}

type windowOp struct {
	p       Predicate
	size    int
	reducer Reducer
	key     string
}

// Window keeps the last size records matching p and annotates every record
// with reducer applied to the records kept before it. The value is nil while
// nothing has been kept. The default key is the reducer's name.
func Window(p Predicate, size int, reducer Reducer, opts ...Option) (Operation, error) {
	if err := validation.ValidateFor("window", windowSpec{Size: size}); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.InvalidConfig("window", "predicate is required")
	}
	if reducer == nil {
		return nil, errors.InvalidConfig("window", "reducer is required")
	}
	key, err := resultKey("window", buildOptions(opts), reducer.Name())
	if err != nil {
		return nil, err
	}
	return &windowOp{p: p, size: size, reducer: reducer, key: key}, nil
}

func (o *windowOp) New() Stage {
	return &windowStage{op: o, buf: make([]record.Record, 0, o.size)}
}

func (o *windowOp) String() string {
	return fmt.Sprintf("window(%s, %d, %s as %s)", describe(o.p), o.size, describe(o.reducer), o.key)
}

type windowStage struct {
	op  *windowOp
	buf []record.Record
}

func (s *windowStage) Offer(r record.Record) (Step, error) {
	var v any
	if len(s.buf) > 0 {
		var err error
		if v, err = s.op.reducer.Reduce(s.buf); err != nil {
			return Step{}, err
		}
	}
	out := Step{Record: r.With(s.op.key, v), Keep: true}

	ok, err := s.op.p.Match(r)
	if err != nil {
		return out, err
	}
	if ok {
		out.Commit = func() { s.push(r) }
	}
	return out, nil
}

func (s *windowStage) push(r record.Record) {
	if len(s.buf) < s.op.size {
		s.buf = append(s.buf, r)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = r
}
