package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/pipeline"
	"github.com/kbukum/trainlog/record"
)

var rec = record.New

// normalize turns a record into a map with every number as float64, so
// expectations can be written with untyped constants.
func normalize(r record.Record) map[string]any {
	m := r.Map()
	for k, v := range m {
		switch n := v.(type) {
		case int:
			m[k] = float64(n)
		case int64:
			m[k] = float64(n)
		}
	}
	return m
}

func assertRecords(t *testing.T, got []record.Record, want ...record.Record) {
	t.Helper()
	g := make([]map[string]any, len(got))
	for i, r := range got {
		g[i] = normalize(r)
	}
	w := make([]map[string]any, len(want))
	for i, r := range want {
		w[i] = normalize(r)
	}
	if diff := cmp.Diff(w, g, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func run(t *testing.T, op Operation, records ...record.Record) []record.Record {
	t.Helper()
	got, err := Run(context.Background(), op, records...)
	if err != nil {
		t.Fatalf("Run(%s): %v", op, err)
	}
	return got
}

func accuracy(r record.Record) (any, error) {
	errorRate, err := Float64(r, "error_rate")
	if err != nil {
		return nil, err
	}
	return 1 - errorRate, nil
}

func assertCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	if !errors.IsCode(err, code) {
		t.Errorf("expected %s, got %v", code, err)
	}
}

func TestFilter(t *testing.T) {
	got := run(t, Must(Filter(Kind("step"))),
		rec("id", 0, "kind", "header"),
		rec("id", 1, "kind", "step"),
		rec("id", 2, "kind", "valid"),
		rec("id", 3, "kind", "step"),
	)
	assertRecords(t, got,
		rec("id", 1, "kind", "step"),
		rec("id", 3, "kind", "step"),
	)
}

func TestFilter_Not(t *testing.T) {
	got := run(t, Must(Filter(Not(Kind("step")))),
		rec("kind", "step"),
		rec("kind", "valid"),
		rec("id", 9),
	)
	assertRecords(t, got, rec("kind", "valid"), rec("id", 9))
}

func TestFilter_Partition(t *testing.T) {
	input := []record.Record{
		rec("id", 0, "kind", "header"),
		rec("id", 1, "kind", "step"),
		rec("id", 2, "kind", "valid"),
		rec("id", 3, "kind", "step"),
		rec("id", 4),
		rec("id", 5, "kind", "step"),
	}
	kept := run(t, Must(Filter(Kind("step"))), input...)
	rest := run(t, Must(Filter(Not(Kind("step")))), input...)
	if len(kept)+len(rest) != len(input) {
		t.Fatalf("got %d + %d records, want %d", len(kept), len(rest), len(input))
	}
	// Interleaving both sides in input order must consume each side in its
	// own order.
	for _, r := range input {
		switch {
		case len(kept) > 0 && kept[0].Equal(r):
			kept = kept[1:]
		case len(rest) > 0 && rest[0].Equal(r):
			rest = rest[1:]
		default:
			t.Fatalf("%v is out of order or missing", r)
		}
	}
}

func TestFilter_PredicateError(t *testing.T) {
	p := WhereErr(func(r record.Record) (bool, error) {
		loss, err := Float64(r, "loss")
		return loss > 1, err
	})
	_, err := Run(context.Background(), Must(Filter(p)), rec("loss", 2), rec("kind", "valid"))
	assertCode(t, err, errors.ErrCodeMissingField)
}

func TestMap(t *testing.T) {
	got := run(t, Must(Map(Named("accuracy", accuracy))),
		rec("id", 0, "error_rate", 0.2),
		rec("id", 1, "error_rate", 0.9),
	)
	assertRecords(t, got,
		rec("id", 0, "error_rate", 0.2, "accuracy", 0.8),
		rec("id", 1, "error_rate", 0.9, "accuracy", 0.1),
	)
}

func TestMap_KeyDerivation(t *testing.T) {
	got := run(t, Must(Map(Get("lr", Default(0.1)), As("learning_rate"))), rec("kind", "step"))
	assertRecords(t, got, rec("kind", "step", "learning_rate", 0.1))

	got = run(t, Must(Map(Get("loss"))), rec("kind", "step"))
	assertRecords(t, got, rec("kind", "step", "loss", nil))

	_, err := Map(Func(accuracy))
	assertCode(t, err, errors.ErrCodeInvalidConfig)

	_, err = Map(Get(""))
	assertCode(t, err, errors.ErrCodeInvalidConfig)
}

func TestMap_RequiredMissing(t *testing.T) {
	_, err := Run(context.Background(), Must(Map(Get("n", Required()))), rec("kind", "step"))
	assertCode(t, err, errors.ErrCodeMissingField)
	if field, _ := errors.MissingFieldName(err); field != "n" {
		t.Errorf("missing field = %q, want n", field)
	}
}

func TestCopy(t *testing.T) {
	got := run(t, Must(Copy("tick", "name", "last_tick")),
		rec("kind", "step", "name", 0),
		rec("kind", "tick", "name", "a"),
		rec("kind", "tick", "name", "b"),
		rec("kind", "step", "name", 1),
		rec("kind", "step", "name", 2),
	)
	assertRecords(t, got,
		rec("kind", "step", "name", 0, "last_tick", nil),
		rec("kind", "tick", "name", "a"),
		rec("kind", "tick", "name", "b"),
		rec("kind", "step", "name", 1, "last_tick", "b"),
		rec("kind", "step", "name", 2, "last_tick", "b"),
	)
}

func TestCopy_SourceWithoutField(t *testing.T) {
	got := run(t, Must(Copy("tick", "name", "last_tick")),
		rec("kind", "tick", "name", "a"),
		rec("kind", "tick"),
		rec("kind", "step"),
	)
	assertRecords(t, got,
		rec("kind", "tick", "name", "a"),
		rec("kind", "tick"),
		rec("kind", "step", "last_tick", nil),
	)
}

func TestCopy_InvalidArgs(t *testing.T) {
	_, err := Copy("tick", "", "last_tick")
	assertCode(t, err, errors.ErrCodeInvalidConfig)
	if err != nil && !strings.Contains(err.Error(), "field") {
		t.Errorf("error should name the field, got %v", err)
	}
}

func TestHeader(t *testing.T) {
	got := run(t, Must(Header("time")),
		rec("kind", "header", "time", "noon"),
		rec("kind", "valid"),
	)
	assertRecords(t, got,
		rec("kind", "header", "time", "noon"),
		rec("kind", "valid", "time", "noon"),
	)
}

func TestHeader_FirstRecordNotHeader(t *testing.T) {
	got := run(t, Must(Header("time")),
		rec("kind", "step"),
		rec("kind", "header", "time", "noon"),
		rec("kind", "valid"),
	)
	assertRecords(t, got,
		rec("kind", "step"),
		rec("kind", "header", "time", "noon"),
		rec("kind", "valid"),
	)
}

func TestHeader_MissingKey(t *testing.T) {
	_, err := Run(context.Background(), Must(Header("time")), rec("kind", "header"), rec("kind", "step"))
	assertCode(t, err, errors.ErrCodeMissingField)

	_, err = Header("")
	assertCode(t, err, errors.ErrCodeInvalidConfig)
}

func TestSum(t *testing.T) {
	examples := Named("examples", func(r record.Record) (any, error) {
		v, ok := r.Get("examples")
		if !ok {
			return nil, errors.MissingField("examples")
		}
		return v, nil
	})
	input := []record.Record{
		rec("id", 0, "examples", 10),
		rec("id", 1, "examples", 9),
		rec("id", 2, "examples", 8),
	}

	got := run(t, Must(Sum(examples, As("total_examples"))), input...)
	assertRecords(t, got,
		rec("id", 0, "examples", 10, "total_examples", 0),
		rec("id", 1, "examples", 9, "total_examples", 10),
		rec("id", 2, "examples", 8, "total_examples", 19),
	)

	got = run(t, Must(Sum(Get("examples"))), input...)
	assertRecords(t, got,
		rec("id", 0, "examples", 10, "sum_examples", 0),
		rec("id", 1, "examples", 9, "sum_examples", 10),
		rec("id", 2, "examples", 8, "sum_examples", 19),
	)
}

func TestSum_AnonymousNeedsKey(t *testing.T) {
	_, err := Sum(Func(accuracy))
	assertCode(t, err, errors.ErrCodeInvalidConfig)
}

func TestSum_NilCountsAsZero(t *testing.T) {
	got := run(t, Must(Sum(Get("n"))),
		rec("n", 2.5),
		rec("kind", "valid"),
		rec("n", 1),
		rec("n", nil),
	)
	assertRecords(t, got,
		rec("n", 2.5, "sum_n", 0),
		rec("kind", "valid", "sum_n", 2.5),
		rec("n", 1, "sum_n", 2.5),
		rec("n", nil, "sum_n", 3.5),
	)
}

func TestSum_NonNumeric(t *testing.T) {
	_, err := Run(context.Background(), Must(Sum(Get("n"))), rec("n", "ten"))
	assertCode(t, err, errors.ErrCodeDecode)
}

func TestCountIf(t *testing.T) {
	got := run(t, Must(CountIf(Kind("step"))),
		rec("kind", "header"),
		rec("kind", "step"),
		rec("kind", "valid"),
		rec("kind", "step"),
		rec("kind", "valid"),
	)
	assertRecords(t, got,
		rec("kind", "header", "step", 0),
		rec("kind", "step", "step", 0),
		rec("kind", "valid", "step", 1),
		rec("kind", "step", "step", 1),
		rec("kind", "valid", "step", 2),
	)
}

func TestCountIf_Where(t *testing.T) {
	big := Where(func(r record.Record) bool {
		loss, err := Float64(r, "loss")
		return err == nil && loss > 5
	})
	_, err := CountIf(big)
	assertCode(t, err, errors.ErrCodeInvalidConfig)

	got := run(t, Must(CountIf(big, As("spikes"))), rec("loss", 9), rec("loss", 1), rec("loss", 7), rec("loss", 0))
	assertRecords(t, got,
		rec("loss", 9, "spikes", 0),
		rec("loss", 1, "spikes", 1),
		rec("loss", 7, "spikes", 1),
		rec("loss", 0, "spikes", 2),
	)
}

func TestWindow(t *testing.T) {
	got := run(t, Must(Window(Kind("step"), 2, ReduceMean("loss"))),
		rec("id", 0, "kind", "step", "loss", 10),
		rec("id", 1, "kind", "step", "loss", 20),
		rec("id", 2, "kind", "step", "loss", 30),
		rec("id", 3, "kind", "valid", "loss", 0),
		rec("id", 4, "kind", "step", "loss", 40),
		rec("id", 5, "kind", "valid", "loss", 0),
	)
	assertRecords(t, got,
		rec("id", 0, "kind", "step", "loss", 10, "mean_loss", nil),
		rec("id", 1, "kind", "step", "loss", 20, "mean_loss", 10),
		rec("id", 2, "kind", "step", "loss", 30, "mean_loss", 15),
		rec("id", 3, "kind", "valid", "loss", 0, "mean_loss", 25),
		rec("id", 4, "kind", "step", "loss", 40, "mean_loss", 25),
		rec("id", 5, "kind", "valid", "loss", 0, "mean_loss", 35),
	)
}

func TestWindow_LargerSizeKeepsEarlierValues(t *testing.T) {
	input := []record.Record{
		rec("kind", "step", "loss", 10),
		rec("kind", "valid", "loss", 0),
		rec("kind", "step", "loss", 20),
		rec("kind", "step", "loss", 30),
		rec("kind", "step", "loss", 40),
		rec("kind", "valid", "loss", 0),
	}
	// prior[i] is the number of step records before input[i].
	prior := []int{0, 1, 1, 2, 3, 4}
	means := make(map[int][]any)
	for _, size := range []int{1, 2, 3} {
		for _, r := range run(t, Must(Window(Kind("step"), size, ReduceMean("loss"))), input...) {
			v, _ := r.Get("mean_loss")
			means[size] = append(means[size], v)
		}
	}
	for small := 1; small <= 3; small++ {
		for large := small + 1; large <= 3; large++ {
			for i := range input {
				if prior[i] > small {
					continue
				}
				if !record.ValuesEqual(means[small][i], means[large][i]) {
					t.Errorf("record %d: size %d gives %v, size %d gives %v",
						i, small, means[small][i], large, means[large][i])
				}
			}
		}
	}
	if record.ValuesEqual(means[1][4], means[3][4]) {
		t.Error("a full window of a different size should change the value")
	}
}

func TestWindow_Reducers(t *testing.T) {
	input := []record.Record{
		rec("kind", "step", "loss", 3),
		rec("kind", "step", "loss", 9),
		rec("kind", "step", "loss", 4),
		rec("kind", "valid"),
	}

	got := run(t, Must(Window(Kind("step"), 2, ReduceMax("loss"))), input...)
	assertRecords(t, got,
		rec("kind", "step", "loss", 3, "max_loss", nil),
		rec("kind", "step", "loss", 9, "max_loss", 3),
		rec("kind", "step", "loss", 4, "max_loss", 9),
		rec("kind", "valid", "max_loss", 9),
	)

	got = run(t, Must(Window(Kind("step"), 1, ReduceLast("loss"), As("prev_loss"))), input...)
	assertRecords(t, got,
		rec("kind", "step", "loss", 3, "prev_loss", nil),
		rec("kind", "step", "loss", 9, "prev_loss", 3),
		rec("kind", "step", "loss", 4, "prev_loss", 9),
		rec("kind", "valid", "prev_loss", 4),
	)

	size := ReduceFunc(func(records []record.Record) (any, error) { return len(records), nil })
	got = run(t, Must(Window(Kind("step"), 5, size, As("seen"))), input...)
	assertRecords(t, got,
		rec("kind", "step", "loss", 3, "seen", nil),
		rec("kind", "step", "loss", 9, "seen", 1),
		rec("kind", "step", "loss", 4, "seen", 2),
		rec("kind", "valid", "seen", 3),
	)
}

func TestWindow_InvalidArgs(t *testing.T) {
	_, err := Window(Kind("step"), 0, ReduceMean("loss"))
	assertCode(t, err, errors.ErrCodeInvalidConfig)

	_, err = Window(Kind("step"), 3, ReduceFunc(func([]record.Record) (any, error) { return nil, nil }))
	assertCode(t, err, errors.ErrCodeInvalidConfig)

	_, err = Window(Kind("step"), 3, nil)
	assertCode(t, err, errors.ErrCodeInvalidConfig)
}

func TestGroup(t *testing.T) {
	got := run(t, Group(Must(CountIf(Kind("step"))), Must(Map(Named("accuracy", accuracy)))),
		rec("kind", "step", "error_rate", 0.9),
		rec("kind", "valid", "error_rate", 0.8),
		rec("kind", "step", "error_rate", 0.5),
		rec("kind", "step", "error_rate", 0.4),
	)
	assertRecords(t, got,
		rec("kind", "step", "error_rate", 0.9, "step", 0, "accuracy", 0.1),
		rec("kind", "valid", "error_rate", 0.8, "step", 1, "accuracy", 0.2),
		rec("kind", "step", "error_rate", 0.5, "step", 1, "accuracy", 0.5),
		rec("kind", "step", "error_rate", 0.4, "step", 2, "accuracy", 0.6),
	)
}

func TestGroup_Empty(t *testing.T) {
	input := []record.Record{rec("kind", "header", "lr", 0.1), rec("kind", "step")}
	assertRecords(t, run(t, Group(), input...), input...)
}

func TestGroup_LaterWins(t *testing.T) {
	one := Must(Map(Named("x", func(record.Record) (any, error) { return 1, nil })))
	two := Must(Map(Named("x", func(record.Record) (any, error) { return 2, nil })))
	assertRecords(t, run(t, Group(one, two), rec("id", 0)), rec("id", 0, "x", 2))
	assertRecords(t, run(t, Group(two, one), rec("id", 0)), rec("id", 0, "x", 1))
}

func TestGroup_FilterDrops(t *testing.T) {
	got := run(t, Group(Must(Filter(Kind("step"))), Must(CountIf(Kind("valid")))),
		rec("kind", "valid"),
		rec("kind", "step"),
		rec("kind", "valid"),
		rec("kind", "step"),
	)
	assertRecords(t, got,
		rec("kind", "step", "valid", 1),
		rec("kind", "step", "valid", 2),
	)
}

func TestGroup_CommitsAllOrNothing(t *testing.T) {
	op := Must(Duck(Group(Must(Sum(Get("n", Required()))), Must(CountIf(Kind("step"))))))
	got := run(t, op,
		rec("kind", "step", "n", 10),
		rec("kind", "step"),
		rec("kind", "step", "n", 5),
	)
	assertRecords(t, got,
		rec("kind", "step", "n", 10, "sum_n", 0, "step", 0),
		rec("kind", "step", "sum_n", 10, "step", 1),
		rec("kind", "step", "n", 5, "sum_n", 10, "step", 1),
	)
}

func TestWhen(t *testing.T) {
	tag := Must(Map(Func(func(record.Record) (any, error) { return true, nil }), As("tag")))
	got := run(t, Must(When(Kind("valid"), tag)),
		rec("kind", "step", "id", 0),
		rec("kind", "valid", "id", 1),
	)
	assertRecords(t, got,
		rec("kind", "step", "id", 0),
		rec("kind", "valid", "id", 1, "tag", true),
	)
}

func TestWhen_StateSeesOnlyMatches(t *testing.T) {
	all := Where(func(record.Record) bool { return true })
	got := run(t, Must(When(Kind("valid"), Must(CountIf(all, As("n"))))),
		rec("kind", "step"),
		rec("kind", "valid"),
		rec("kind", "step"),
		rec("kind", "valid"),
	)
	assertRecords(t, got,
		rec("kind", "step"),
		rec("kind", "valid", "n", 0),
		rec("kind", "step"),
		rec("kind", "valid", "n", 1),
	)
}

func TestDuck_Map(t *testing.T) {
	got := run(t, Must(Duck(Must(Map(Named("accuracy", accuracy))))),
		rec("kind", "step", "loss", 10),
		rec("kind", "valid", "loss", 9, "error_rate", 0.8),
	)
	assertRecords(t, got,
		rec("kind", "step", "loss", 10),
		rec("kind", "valid", "loss", 9, "error_rate", 0.8, "accuracy", 0.2),
	)
}

func TestDuck_Sum(t *testing.T) {
	got := run(t, Must(Duck(Must(Sum(Get("n", Required()))))),
		rec("kind", "step", "n", 10),
		rec("kind", "valid"),
		rec("kind", "step", "n", 5),
		rec("kind", "valid"),
	)
	assertRecords(t, got,
		rec("kind", "step", "n", 10, "sum_n", 0),
		rec("kind", "valid", "sum_n", 10),
		rec("kind", "step", "n", 5, "sum_n", 10),
		rec("kind", "valid", "sum_n", 15),
	)
}

func TestDuck_Header(t *testing.T) {
	got := run(t, Must(Duck(Must(Header("time")))),
		rec("kind", "header"),
		rec("kind", "step"),
	)
	assertRecords(t, got, rec("kind", "header"), rec("kind", "step"))
}

func TestDuck_OtherErrorsPropagate(t *testing.T) {
	_, err := Run(context.Background(), Must(Duck(Must(Sum(Get("n"))))), rec("n", 1), rec("n", "two"))
	assertCode(t, err, errors.ErrCodeDecode)
}

func TestDuck_Nested(t *testing.T) {
	mean := Must(Window(Kind("step"), 2, ReduceMean("loss")))
	got := run(t, Must(Duck(Must(When(Kind("step"), mean)))),
		rec("kind", "step", "loss", 2),
		rec("kind", "step"),
		rec("kind", "step", "loss", 4),
	)
	// The record without loss still enters the window, so the mean for the
	// third record fails and that record is forwarded unannotated.
	assertRecords(t, got,
		rec("kind", "step", "loss", 2, "mean_loss", nil),
		rec("kind", "step", "mean_loss", 2),
		rec("kind", "step", "loss", 4),
	)
	_, err := Run(context.Background(), mean,
		rec("kind", "step", "loss", 2),
		rec("kind", "step"),
		rec("kind", "step", "loss", 4),
	)
	assertCode(t, err, errors.ErrCodeMissingField)
}

func TestSizePreserving(t *testing.T) {
	input := []record.Record{
		rec("kind", "header", "lr", 0.1),
		rec("kind", "step", "loss", 1, "n", 1),
		rec("kind", "valid", "loss", 2),
		rec("kind", "step", "loss", 3, "n", 2),
	}
	operations := []Operation{
		Must(Map(Get("loss"))),
		Must(Copy("valid", "loss", "valid_loss")),
		Must(Header("lr")),
		Must(Sum(Get("n"))),
		Must(CountIf(Kind("step"))),
		Must(Window(Kind("step"), 2, ReduceMean("loss"))),
		Group(Must(CountIf(Kind("valid"))), Must(Sum(Get("loss")))),
		Must(When(Kind("step"), Must(Sum(Get("loss"))))),
		Must(Duck(Must(Map(Get("n", Required()))))),
	}
	for _, op := range operations {
		got := run(t, op, input...)
		if len(got) != len(input) {
			t.Errorf("%s: %d records out, want %d", op, len(got), len(input))
			continue
		}
		for i := range input {
			input[i].Range(func(key string, value any) bool {
				if v, ok := got[i].Get(key); !ok || !record.ValuesEqual(v, value) {
					t.Errorf("%s: record %d lost field %q", op, i, key)
				}
				return true
			})
		}
	}
}

func TestApply_FreshStatePerTraversal(t *testing.T) {
	p := Apply(pipeline.FromSlice([]record.Record{rec("n", 1), rec("n", 2)}), Must(Sum(Get("n"))))
	for i := 0; i < 2; i++ {
		got, err := pipeline.Collect(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		assertRecords(t, got, rec("n", 1, "sum_n", 0), rec("n", 2, "sum_n", 1))
	}
}

func TestApply_Lazy(t *testing.T) {
	pulled := 0
	src := pipeline.Tap(pipeline.FromSlice([]record.Record{
		rec("kind", "header"),
		rec("kind", "step"),
		rec("kind", "valid"),
		rec("kind", "step"),
	}), func(context.Context, record.Record) error {
		pulled++
		return nil
	})

	first, ok, err := pipeline.First(context.Background(), Apply(src, Must(Filter(Kind("step"))), Must(CountIf(Kind("step")))))
	if err != nil || !ok {
		t.Fatalf("First: ok=%v err=%v", ok, err)
	}
	assertRecords(t, []record.Record{first}, rec("kind", "step", "step", 0))
	if pulled != 2 {
		t.Errorf("pulled %d records, want 2", pulled)
	}
}

func TestApply_GroupsOperations(t *testing.T) {
	p := Apply(pipeline.FromSlice([]record.Record{
		rec("kind", "header", "run", "a"),
		rec("kind", "step", "loss", 4),
		rec("kind", "valid", "loss", 3),
	}), Must(Header("run")), Must(CountIf(Kind("step"))))
	got, err := pipeline.Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	assertRecords(t, got,
		rec("kind", "header", "run", "a", "step", 0),
		rec("kind", "step", "loss", 4, "run", "a", "step", 0),
		rec("kind", "valid", "loss", 3, "run", "a", "step", 1),
	)
}

func TestMust_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Must(Window(Kind("step"), 0, ReduceMean("loss")))
}

func TestString(t *testing.T) {
	op := Must(Duck(Group(Must(Sum(Get("n", Required()))), Must(CountIf(Kind("step"))))))
	want := "duck(group(sum(get(n, required) as sum_n), count_if(kind(step) as step)))"
	if got := op.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
