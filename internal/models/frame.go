package models

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Frame is a table as returned by the warehouse: ordered column names and
// ordered rows. Cell values are normalised to nil, bool, int64, float64,
// string or time.Time by the loader.
type Frame struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool {
	return f.Len() == 0
}

// Index returns the position of a column, or -1 when absent.
func (f *Frame) Index(column string) int {
	if f == nil {
		return -1
	}
	for i, c := range f.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Record returns row i as an ordered list of fields.
func (f *Frame) Record(i int) Record {
	row := f.Rows[i]
	rec := make(Record, len(f.Columns))
	for j, c := range f.Columns {
		var v any
		if j < len(row) {
			v = row[j]
		}
		rec[j] = Field{Name: c, Value: v}
	}
	return rec
}

// Field is one named cell of a record.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Record is a full row with its column names, in warehouse order.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Float reads a numeric cell. NULL and unparsable values become NaN so
// aggregations can skip them.
func Float(v any) float64 {
	switch x := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case uint64:
		return float64(x)
	case uint32:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Int reads an integer cell. The second result is false for NULL or
// non-numeric values.
func Int(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case uint32:
		return int64(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int64(math.Round(x)), true
	case float32:
		return Int(float64(x))
	case string:
		if i, err := strconv.ParseInt(x, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return Int(f)
		}
	}
	return 0, false
}

// Text renders any cell as a string. NULL becomes the empty string.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
