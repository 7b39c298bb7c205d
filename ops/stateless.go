package ops

import (
	"fmt"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/record"
	"github.com/kbukum/trainlog/validation"
)

type filterOp struct {
	p Predicate
}

// Filter emits only the records matching p, in order.
func Filter(p Predicate) (Operation, error) {
	if p == nil {
		return nil, errors.InvalidConfig("filter", "predicate is required")
	}
	return &filterOp{p: p}, nil
}

func (o *filterOp) New() Stage      { return o }
func (o *filterOp) String() string { return "filter(" + describe(o.p) + ")" }

func (o *filterOp) Offer(r record.Record) (Step, error) {
	ok, err := o.p.Match(r)
	if err != nil {
		return Step{}, err
	}
	return Step{Record: r, Keep: ok}, nil
}

type mapOp struct {
	ex  Extractor
	key string
}

// Map sets a field to the extractor's value on every record. The field is
// named by As, or by the extractor's name.
func Map(ex Extractor, opts ...Option) (Operation, error) {
	if err := checkExtractor("map", ex); err != nil {
		return nil, err
	}
	key, err := resultKey("map", buildOptions(opts), ex.Name())
	if err != nil {
		return nil, err
	}
	return &mapOp{ex: ex, key: key}, nil
}

func (o *mapOp) New() Stage { return o }

func (o *mapOp) String() string {
	return fmt.Sprintf("map(%s as %s)", describe(o.ex), o.key)
}

func (o *mapOp) Offer(r record.Record) (Step, error) {
	v, err := o.ex.Extract(r)
	if err != nil {
		return Step{}, err
	}
	return emit(r.With(o.key, v)), nil
}

type copySpec struct {
	SourceKind string `json:"source_kind" validate:"required"`
	Field      string `json:"field" validate:"required"`
	As         string `json:"as" validate:"required"`
}

type copyOp struct {
	spec copySpec
}

// Copy remembers field from the most recent record of kind sourceKind and
// sets it as key as on every other record. Records of sourceKind pass through
// unchanged; before the first one the remembered value is nil, and a source
// record without field resets it to nil.
func Copy(sourceKind, field, as string) (Operation, error) {
	spec := copySpec{SourceKind: sourceKind, Field: field, As: as}
	if err := validation.ValidateFor("copy", spec); err != nil {
		return nil, err
	}
	return &copyOp{spec: spec}, nil
}

func (o *copyOp) New() Stage { return &copyStage{spec: o.spec} }

func (o *copyOp) String() string {
	return fmt.Sprintf("copy(%s.%s as %s)", o.spec.SourceKind, o.spec.Field, o.spec.As)
}

type copyStage struct {
	spec copySpec
	last any
}

func (s *copyStage) Offer(r record.Record) (Step, error) {
	if kind, ok := r.Kind(); ok && kind == s.spec.SourceKind {
		v, _ := r.Get(s.spec.Field)
		return Step{Record: r, Keep: true, Commit: func() { s.last = v }}, nil
	}
	return emit(r.With(s.spec.As, s.last)), nil
}

type headerSpec struct {
	Key string `json:"key" validate:"required"`
}

type headerOp struct {
	key string
}

// Header copies key from the header record onto every record, the header
// included. The header must be the first record; when the first record is
// not a header, records pass through unannotated.
func Header(key string) (Operation, error) {
	if err := validation.ValidateFor("header", headerSpec{Key: key}); err != nil {
		return nil, err
	}
	return &headerOp{key: key}, nil
}

func (o *headerOp) New() Stage      { return &headerStage{key: o.key} }
func (o *headerOp) String() string { return "header(" + o.key + ")" }

type headerStage struct {
	key     string
	started bool
	found   bool
	value   any
}

func (s *headerStage) Offer(r record.Record) (Step, error) {
	if s.started {
		if s.found {
			return emit(r.With(s.key, s.value)), nil
		}
		return emit(r), nil
	}

	if !r.IsHeader() {
		return Step{Record: r, Keep: true, Commit: func() { s.started = true }}, nil
	}
	v, ok := r.Get(s.key)
	if !ok {
		return Step{}, errors.MissingField(s.key)
	}
	commit := func() {
		s.started, s.found, s.value = true, true, v
	}
	return Step{Record: r, Keep: true, Commit: commit}, nil
}

// resultKey returns the explicit key, or the derived one when no key was
// given. An anonymous extractor, predicate or reducer has no derived key.
func resultKey(component string, o options, derived string) (string, error) {
	if o.key != "" {
		return o.key, nil
	}
	if derived == "" {
		return "", errors.InvalidConfig(component, "result key cannot be derived; name it with As")
	}
	return derived, nil
}
