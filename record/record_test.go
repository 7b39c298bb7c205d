package record

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew_PreservesOrder(t *testing.T) {
	r := New("kind", "step", "loss", 5.0, "id", 1)
	want := []string{"kind", "loss", "id"}
	if diff := cmp.Diff(want, r.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_IgnoresNonStringKeys(t *testing.T) {
	r := New("a", 1, 2, "b", "c")
	if r.Len() != 1 || !r.Has("a") {
		t.Errorf("expected only field a, got %v", r)
	}
}

func TestZeroRecord(t *testing.T) {
	var r Record
	if !r.IsZero() {
		t.Error("zero record should report IsZero")
	}
	if r.Len() != 0 || r.Has("kind") {
		t.Error("zero record should be empty")
	}
	if got := r.With("a", 1); got.Len() != 1 {
		t.Errorf("With on zero record = %v", got)
	}
	if r.String() != "{}" {
		t.Errorf("String() = %q, want {}", r.String())
	}
}

func TestWith_DoesNotMutate(t *testing.T) {
	r := New("kind", "step")
	r2 := r.With("step", 3)
	if r.Has("step") {
		t.Error("With must not mutate the receiver")
	}
	if v, _ := r2.Get("step"); v != 3 {
		t.Errorf("step = %v, want 3", v)
	}
}

func TestWith_OverwriteKeepsPosition(t *testing.T) {
	r := New("a", 1, "b", 2).With("a", 10)
	if diff := cmp.Diff([]string{"a", "b"}, r.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := r.Get("a"); v != 10 {
		t.Errorf("a = %v, want 10", v)
	}
}

func TestMerge_LaterWins(t *testing.T) {
	got := New("a", 1, "b", 2).Merge(New("b", 3, "c", 4))
	want := New("a", 1, "b", 3, "c", 4)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestKindAndHeader(t *testing.T) {
	if !New("kind", "header").IsHeader() {
		t.Error("expected header")
	}
	if New("kind", "step").IsHeader() {
		t.Error("step is not a header")
	}
	if _, ok := New("kind", 3).Kind(); ok {
		t.Error("non-string kind should not be reported")
	}
}

func TestEqual_IgnoresOrderAndNumericType(t *testing.T) {
	a := New("loss", 10, "kind", "step")
	b := New("kind", "step", "loss", 10.0)
	if !a.Equal(b) {
		t.Errorf("%v should equal %v", a, b)
	}
	if a.Equal(b.With("extra", nil)) {
		t.Error("records with different field sets should differ")
	}
	if New("x", nil).Equal(New("y", nil)) {
		t.Error("different keys should differ")
	}
}

func TestValuesEqual_Nested(t *testing.T) {
	a := map[string]any{"xs": []any{1, 2.5, "s"}}
	b := map[string]any{"xs": []any{1.0, 2.5, "s"}}
	if !ValuesEqual(a, b) {
		t.Error("nested values should compare numerically")
	}
	if ValuesEqual([]any{1}, []any{1, 2}) {
		t.Error("slices of different length should differ")
	}
	if ValuesEqual(nil, 0) {
		t.Error("nil should not equal 0")
	}
}

func TestValuesEqual_Numbers(t *testing.T) {
	equal := [][2]any{
		{10, 10.0},
		{int32(3), uint8(3)},
		{float32(0.5), 0.5},
		{json.Number("10"), 10},
		{int64(-2), -2.0},
	}
	for _, c := range equal {
		if !ValuesEqual(c[0], c[1]) {
			t.Errorf("%v (%T) should equal %v (%T)", c[0], c[0], c[1], c[1])
		}
	}
	differ := [][2]any{
		{"10", 10},
		{true, 1},
		{10, "10"},
		{nil, 0.0},
		{1.5, 1},
	}
	for _, c := range differ {
		if ValuesEqual(c[0], c[1]) {
			t.Errorf("%v (%T) should differ from %v (%T)", c[0], c[0], c[1], c[1])
		}
	}
}

func TestJSON_RoundTripKeepsOrder(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"z":1,"kind":"step","a":{"b":true},"n":null}`), &r); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"z", "kind", "a", "n"}, r.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	v, ok := r.Get("n")
	if !ok || v != nil {
		t.Errorf("n = %v, %v; want present nil", v, ok)
	}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"z":1,"kind":"step","a":{"b":true},"n":null}` {
		t.Errorf("marshal = %s", out)
	}
}

func TestJSON_Null(t *testing.T) {
	r := New("a", 1)
	if err := json.Unmarshal([]byte("null"), &r); err != nil {
		t.Fatal(err)
	}
	if !r.IsZero() {
		t.Error("null should decode to the zero record")
	}
}

func TestFromMap_SortsKeys(t *testing.T) {
	r := FromMap(map[string]any{"b": 1, "a": 2})
	if diff := cmp.Diff([]string{"a", "b"}, r.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if m := r.Map(); m["a"] != 2 || m["b"] != 1 {
		t.Errorf("Map() = %v", m)
	}
}
