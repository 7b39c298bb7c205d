// Package columns converts a stream of heterogeneous records into named
// columns for plotting or export.
package columns

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/record"
)

// Columns holds one value per record for each column. Records lacking a
// column hold nil in it.
type Columns struct {
	names   []string
	data    map[string][]any
	rows    int
	ordered bool
}

// FromRecords builds columns named names, in that order. With no names the
// columns are the union of all record keys in first-seen order, and can
// only be addressed by name.
func FromRecords(records []record.Record, names ...string) *Columns {
	c := &Columns{names: names, ordered: len(names) > 0, rows: len(records)}
	if !c.ordered {
		c.names = lo.Uniq(lo.FlatMap(records, func(r record.Record, _ int) []string {
			return r.Keys()
		}))
	}
	c.data = make(map[string][]any, len(c.names))
	for _, name := range c.names {
		col := make([]any, len(records))
		for i, r := range records {
			col[i], _ = r.Get(name)
		}
		c.data[name] = col
	}
	return c
}

// Names returns the column names.
func (c *Columns) Names() []string { return c.names }

// Len returns the number of columns.
func (c *Columns) Len() int { return len(c.names) }

// Rows returns the number of values in each column.
func (c *Columns) Rows() int { return c.rows }

// Column returns the values of the named column.
func (c *Columns) Column(name string) ([]any, error) {
	col, ok := c.data[name]
	if !ok {
		return nil, errors.Usage(fmt.Sprintf("no column %q in %s", name, c))
	}
	return col, nil
}

// At returns the i-th column. Only columns built from explicit names have
// positions.
func (c *Columns) At(i int) ([]any, error) {
	if !c.ordered {
		return nil, errors.Usage("columns built without names can only be indexed by name")
	}
	if i < 0 || i >= len(c.names) {
		return nil, errors.Usage(fmt.Sprintf("column index %d out of range [0, %d)", i, len(c.names)))
	}
	return c.data[c.names[i]], nil
}

// Float64s returns the named column as numbers, with NaN for missing
// values.
func (c *Columns) Float64s(name string) ([]float64, error) {
	col, err := c.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(col))
	for i, v := range col {
		switch v.(type) {
		case nil:
			out[i] = math.NaN()
			continue
		case string, bool:
			return nil, errors.Decode(fmt.Sprintf("column %q row %d", name, i),
				fmt.Errorf("%v (%T) is not a number", v, v))
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, errors.Decode(fmt.Sprintf("column %q row %d", name, i), err)
		}
		out[i] = f
	}
	return out, nil
}

// WriteCSV writes a header row of names followed by one row per record.
// Missing values are empty cells; nested values are written as JSON.
func (c *Columns) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(c.names); err != nil {
		return errors.IO("write", "csv", err)
	}
	row := make([]string, len(c.names))
	for i := 0; i < c.rows; i++ {
		for j, name := range c.names {
			cell, err := formatCell(c.data[name][i])
			if err != nil {
				return err
			}
			row[j] = cell
		}
		if err := cw.Write(row); err != nil {
			return errors.IO("write", "csv", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.IO("write", "csv", err)
	}
	return nil
}

func formatCell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case record.Record, map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return "", errors.Decode("csv cell", err)
		}
		return string(b), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v), nil
	}
	return s, nil
}

// String renders the column names, e.g. Columns('kind', 'loss').
func (c *Columns) String() string {
	quoted := lo.Map(c.names, func(name string, _ int) string { return "'" + name + "'" })
	return "Columns(" + strings.Join(quoted, ", ") + ")"
}
