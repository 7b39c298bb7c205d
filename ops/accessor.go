package ops

import (
	"fmt"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/record"
	"github.com/spf13/cast"
)

// Extractor computes a value from a record.
type Extractor interface {
	Extract(r record.Record) (any, error)
	// Name is the extractor's canonical name, used to derive result keys.
	// Anonymous extractors return "".
	Name() string
}

// Accessor reads one named field. It is the Extractor built by Get.
type Accessor struct {
	field    string
	required bool
	def      any
}

// GetOption configures an Accessor.
type GetOption func(*Accessor)

// Required makes an absent field a MISSING_FIELD failure instead of
// yielding the default.
func Required() GetOption {
	return func(a *Accessor) { a.required = true }
}

// Default sets the value yielded for an absent field. The default default
// is nil.
func Default(value any) GetOption {
	return func(a *Accessor) { a.def = value }
}

// Get returns an accessor for field.
//
//	ops.Get("loss")                  // nil when absent
//	ops.Get("n", ops.Required())     // MISSING_FIELD when absent
//	ops.Get("lr", ops.Default(0.1))  // 0.1 when absent
func Get(field string, opts ...GetOption) *Accessor {
	a := &Accessor{field: field}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Extract returns the field's value, the default, or a MISSING_FIELD error.
func (a *Accessor) Extract(r record.Record) (any, error) {
	if v, ok := r.Get(a.field); ok {
		return v, nil
	}
	if a.required {
		return nil, errors.MissingField(a.field)
	}
	return a.def, nil
}

// Name returns the field name.
func (a *Accessor) Name() string { return a.field }

func (a *Accessor) String() string {
	if a.required {
		return fmt.Sprintf("get(%s, required)", a.field)
	}
	return fmt.Sprintf("get(%s)", a.field)
}

type funcExtractor struct {
	name string
	fn   func(record.Record) (any, error)
}

// Func wraps an arbitrary function as an anonymous extractor. Operations
// built on it need an explicit As key.
func Func(fn func(record.Record) (any, error)) Extractor {
	return &funcExtractor{fn: fn}
}

// Named wraps fn as an extractor whose name is used for derived keys.
//
//	ops.Map(ops.Named("accuracy", accuracy))
func Named(name string, fn func(record.Record) (any, error)) Extractor {
	return &funcExtractor{name: name, fn: fn}
}

func (f *funcExtractor) Extract(r record.Record) (any, error) { return f.fn(r) }
func (f *funcExtractor) Name() string                         { return f.name }

func (f *funcExtractor) String() string {
	if f.name == "" {
		return "func"
	}
	return f.name
}

// Float64 reads a required numeric field. It is a convenience for the
// bodies of Func and Named extractors.
func Float64(r record.Record, field string) (float64, error) {
	v, ok := r.Get(field)
	if !ok {
		return 0, errors.MissingField(field)
	}
	return toFloat(field, v)
}

// toFloat converts a field value to float64. Strings and booleans are not
// numbers even when cast could parse them.
func toFloat(field string, v any) (float64, error) {
	switch v.(type) {
	case string, bool:
		return 0, errors.Decode(fmt.Sprintf("field %q as a number", field), fmt.Errorf("got %T", v))
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, errors.Decode(fmt.Sprintf("field %q as a number", field), err)
	}
	return f, nil
}

func checkExtractor(component string, ex Extractor) error {
	if ex == nil {
		return errors.InvalidConfig(component, "extractor is required")
	}
	if a, ok := ex.(*Accessor); ok && a.field == "" {
		return errors.InvalidConfig(component, "field name is empty")
	}
	return nil
}

func describe(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}
