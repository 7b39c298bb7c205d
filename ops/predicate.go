package ops

import (
	"fmt"

	"github.com/kbukum/trainlog/record"
)

// Predicate is a boolean test over a record.
type Predicate interface {
	Match(r record.Record) (bool, error)
	// Name is the predicate's canonical name, used to derive result keys.
	// Anonymous predicates return "".
	Name() string
}

type kindPredicate string

// Kind holds for records whose kind field equals value. Its Name is value,
// so CountIf(Kind("step")) annotates records with "step".
func Kind(value string) Predicate {
	return kindPredicate(value)
}

func (k kindPredicate) Match(r record.Record) (bool, error) {
	kind, ok := r.Kind()
	return ok && kind == string(k), nil
}

func (k kindPredicate) Name() string   { return string(k) }
func (k kindPredicate) String() string { return fmt.Sprintf("kind(%s)", string(k)) }

type funcPredicate struct {
	fn func(record.Record) (bool, error)
}

// Where wraps an arbitrary test as an anonymous predicate.
func Where(fn func(record.Record) bool) Predicate {
	return funcPredicate{fn: func(r record.Record) (bool, error) { return fn(r), nil }}
}

// WhereErr wraps a test that can fail, typically with a MISSING_FIELD error
// from Get or Float64.
func WhereErr(fn func(record.Record) (bool, error)) Predicate {
	return funcPredicate{fn: fn}
}

func (f funcPredicate) Match(r record.Record) (bool, error) { return f.fn(r) }
func (f funcPredicate) Name() string                         { return "" }
func (f funcPredicate) String() string                       { return "where" }

type notPredicate struct {
	p Predicate
}

// Not negates p.
func Not(p Predicate) Predicate {
	return notPredicate{p: p}
}

func (n notPredicate) Match(r record.Record) (bool, error) {
	ok, err := n.p.Match(r)
	return !ok, err
}

func (n notPredicate) Name() string   { return "" }
func (n notPredicate) String() string { return "not(" + describe(n.p) + ")" }
