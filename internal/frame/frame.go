// Package frame provides the column-oriented table that flows between
// pipeline stages.
//
// Text and float columns live in a gota DataFrame; a null float is NaN and
// non-finite values are stored as null.
// gota has no time series type, so nullable time columns are kept beside it.
// Stages derive new columns and add them to a clone, so a Frame handed to a
// stage is left untouched.
package frame

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/Veraticus/riskflow/internal/common"
)

// Kind identifies the storage type of a column.
type Kind int

// Column kinds.
const (
	KindText Kind = iota
	KindFloat
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Frame errors.
var (
	ErrLengthMismatch = errors.New("column length does not match frame")
	ErrKindMismatch   = errors.New("column has a different kind")
)

// NullFloatText and NullTimeText are the canonical renderings of null cells.
const (
	NullFloatText = "NaN"
	NullTimeText  = "NaT"
)

// Frame is an in-memory table with a fixed row count and ordered columns.
type Frame struct {
	df    dataframe.DataFrame
	times map[string][]sql.NullTime
	kinds map[string]Kind
	order []string
	rows  int
}

// New creates an empty frame with the given row count.
func New(rows int) *Frame {
	return &Frame{
		times: make(map[string][]sql.NullTime),
		kinds: make(map[string]Kind),
		rows:  rows,
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Has reports whether the column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.kinds[name]
	return ok
}

// Kind returns the kind of a column.
func (f *Frame) Kind(name string) (Kind, bool) {
	k, ok := f.kinds[name]
	return k, ok
}

// Require returns a *common.SchemaError naming every absent column.
func (f *Frame) Require(stage string, names ...string) error {
	var missing []string
	for _, name := range names {
		if !f.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return common.NewSchemaError(stage, missing...)
	}
	return nil
}

// Clone returns a frame sharing column data but with its own column set.
func (f *Frame) Clone() *Frame {
	out := New(f.rows)
	out.df = f.df
	out.order = append(out.order, f.order...)
	for name, k := range f.kinds {
		out.kinds[name] = k
	}
	for name, v := range f.times {
		out.times[name] = v
	}
	return out
}

// Take returns a new frame holding the given rows in the given order.
// Row indices must be in range.
func (f *Frame) Take(rows []int) *Frame {
	out := f.Clone()
	out.rows = len(rows)
	if f.df.Ncol() > 0 {
		out.df = f.df.Subset(rows)
	}
	for name, v := range f.times {
		taken := make([]sql.NullTime, len(rows))
		for i, r := range rows {
			taken[i] = v[r]
		}
		out.times[name] = taken
	}
	return out
}

// mutate adds or replaces a gota column.
func (f *Frame) mutate(s series.Series) error {
	var df dataframe.DataFrame
	if f.df.Ncol() == 0 {
		df = dataframe.New(s)
	} else {
		df = f.df.Mutate(s)
	}
	if df.Err != nil {
		return fmt.Errorf("column %q: %w", s.Name, df.Err)
	}
	f.df = df
	return nil
}

// drop removes a gota column that is being replaced by a time column.
func (f *Frame) drop(name string) error {
	if f.df.Ncol() == 1 {
		f.df = dataframe.DataFrame{}
		return nil
	}
	df := f.df.Drop(name)
	if df.Err != nil {
		return fmt.Errorf("column %q: %w", name, df.Err)
	}
	f.df = df
	return nil
}

func (f *Frame) checkLen(name string, n int) error {
	if n != f.rows {
		return fmt.Errorf("%w: column %q has %d rows, frame has %d", ErrLengthMismatch, name, n, f.rows)
	}
	return nil
}

func (f *Frame) record(name string, kind Kind) {
	if _, exists := f.kinds[name]; !exists {
		f.order = append(f.order, name)
	}
	f.kinds[name] = kind
}

// AddText adds or replaces a text column.
func (f *Frame) AddText(name string, values []string) error {
	if err := f.checkLen(name, len(values)); err != nil {
		return err
	}
	if err := f.mutate(series.New(values, series.String, name)); err != nil {
		return err
	}
	delete(f.times, name)
	f.record(name, KindText)
	return nil
}

// AddFloat adds or replaces a nullable float column.
func (f *Frame) AddFloat(name string, values []sql.NullFloat64) error {
	if err := f.checkLen(name, len(values)); err != nil {
		return err
	}
	floats := make([]float64, len(values))
	for i, v := range values {
		if v.Valid && !math.IsInf(v.Float64, 0) {
			floats[i] = v.Float64
		} else {
			floats[i] = math.NaN()
		}
	}
	if err := f.mutate(series.New(floats, series.Float, name)); err != nil {
		return err
	}
	delete(f.times, name)
	f.record(name, KindFloat)
	return nil
}

// AddTime adds or replaces a nullable time column.
func (f *Frame) AddTime(name string, values []sql.NullTime) error {
	if err := f.checkLen(name, len(values)); err != nil {
		return err
	}
	if k, ok := f.kinds[name]; ok && k != KindTime {
		if err := f.drop(name); err != nil {
			return err
		}
	}
	f.times[name] = values
	f.record(name, KindTime)
	return nil
}

func (f *Frame) check(name string, kind Kind) error {
	k, ok := f.kinds[name]
	if !ok {
		return common.NewSchemaError("", name)
	}
	if k != kind {
		return fmt.Errorf("%w: %q is %s, want %s", ErrKindMismatch, name, k, kind)
	}
	return nil
}

// Text returns a copy of a text column.
func (f *Frame) Text(name string) ([]string, error) {
	if err := f.check(name, KindText); err != nil {
		return nil, err
	}
	return f.df.Col(name).Records(), nil
}

// Float returns a copy of a float column.
func (f *Frame) Float(name string) ([]sql.NullFloat64, error) {
	if err := f.check(name, KindFloat); err != nil {
		return nil, err
	}
	floats := f.df.Col(name).Float()
	out := make([]sql.NullFloat64, len(floats))
	for i, v := range floats {
		if !math.IsNaN(v) {
			out[i] = sql.NullFloat64{Float64: v, Valid: true}
		}
	}
	return out, nil
}

// Time returns a time column. The slice must not be modified.
func (f *Frame) Time(name string) ([]sql.NullTime, error) {
	if err := f.check(name, KindTime); err != nil {
		return nil, err
	}
	return f.times[name], nil
}

// Strings renders any column in its canonical string form.
func (f *Frame) Strings(name string) ([]string, error) {
	k, ok := f.kinds[name]
	if !ok {
		return nil, common.NewSchemaError("", name)
	}

	switch k {
	case KindText:
		return f.Text(name)
	case KindFloat:
		values, err := f.Float(name)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = FormatFloat(v)
		}
		return out, nil
	default:
		values := f.times[name]
		out := make([]string, len(values))
		for i, v := range values {
			if v.Valid {
				out[i] = v.Time.UTC().Format(time.RFC3339Nano)
			} else {
				out[i] = NullTimeText
			}
		}
		return out, nil
	}
}

// FormatFloat renders a nullable float using the shortest exact decimal.
func FormatFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return NullFloatText
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}
