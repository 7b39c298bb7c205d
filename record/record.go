package record

import (
	"bytes"
	"reflect"
	"sort"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// KindField is the field that names an event's kind.
	KindField = "kind"
	// HeaderKind is the kind of the header event, by convention the first of a log.
	HeaderKind = "header"
)

// Record is one structured event. Field order is preserved from construction
// or decoding but is not significant for equality.
//
// The zero Record is an empty record.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// New builds a record from alternating key-value pairs. Pairs whose key is
// not a string are ignored.
//
//	record.New("kind", "valid", "loss", 4.5)
func New(kvs ...any) Record {
	om := orderedmap.New[string, any](len(kvs) / 2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			om.Set(key, kvs[i+1])
		}
	}
	return Record{fields: om}
}

// FromMap builds a record from a map. Keys are ordered lexically since map
// iteration order is undefined.
func FromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	om := orderedmap.New[string, any](len(keys))
	for _, k := range keys {
		om.Set(k, m[k])
	}
	return Record{fields: om}
}

// IsZero reports whether r was never initialised.
func (r Record) IsZero() bool { return r.fields == nil }

// Len returns the number of fields.
func (r Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Get returns the value of key and whether it is present. A present field
// may hold nil.
func (r Record) Get(key string) (any, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(key)
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Kind returns the record's kind when it is a string.
func (r Record) Kind() (string, bool) {
	v, ok := r.Get(KindField)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IsHeader reports whether r is a header event.
func (r Record) IsHeader() bool {
	kind, ok := r.Kind()
	return ok && kind == HeaderKind
}

// Keys returns field names in order.
func (r Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	r.Range(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Range calls fn for each field in order until fn returns false.
func (r Record) Range(fn func(key string, value any) bool) {
	if r.fields == nil {
		return
	}
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Map returns the fields as a plain map.
func (r Record) Map() map[string]any {
	m := make(map[string]any, r.Len())
	r.Range(func(key string, value any) bool {
		m[key] = value
		return true
	})
	return m
}

// With returns a copy of r with key set to value. An existing field keeps
// its position; a new field is appended.
func (r Record) With(key string, value any) Record {
	out := r.clone(1)
	out.fields.Set(key, value)
	return out
}

// Merge returns a copy of r with every field of other set on it. Fields of
// other win on conflict.
func (r Record) Merge(other Record) Record {
	out := r.clone(other.Len())
	other.Range(func(key string, value any) bool {
		out.fields.Set(key, value)
		return true
	})
	return out
}

func (r Record) clone(extra int) Record {
	om := orderedmap.New[string, any](r.Len() + extra)
	r.Range(func(key string, value any) bool {
		om.Set(key, value)
		return true
	})
	return Record{fields: om}
}

// Equal reports whether r and other hold the same fields with equal values,
// ignoring field order. Numbers compare by value regardless of Go type, so a
// decoded 10.0 equals a literal 10.
func (r Record) Equal(other Record) bool {
	if r.Len() != other.Len() {
		return false
	}
	equal := true
	r.Range(func(key string, value any) bool {
		ov, ok := other.Get(key)
		if !ok || !ValuesEqual(value, ov) {
			equal = false
		}
		return equal
	})
	return equal
}

// MarshalJSON encodes r as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping its key order. JSON null
// decodes to the zero Record.
func (r *Record) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Record{}
		return nil
	}
	om := orderedmap.New[string, any]()
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	*r = Record{fields: om}
	return nil
}

// String renders r as compact JSON.
func (r Record) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{!" + err.Error() + "}"
	}
	return string(b)
}

// ValuesEqual compares two field values. Numeric values are compared as
// float64; maps, slices and records are compared element-wise.
func ValuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case Record:
		bv, ok := b.(Record)
		return ok && av.Equal(bv)
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !ValuesEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// toFloat reports v as a float64 when it is a number. Strings and booleans
// are never numbers here, even when cast could parse them.
func toFloat(v any) (float64, bool) {
	switch v.(type) {
	case nil, string, bool, []byte:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}
