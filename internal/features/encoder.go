package features

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/frame"
)

// CategoryCodes is the fitted mapping of one categorical column.
// Classes are sorted; a value's code is its index in Classes.
type CategoryCodes struct {
	codes   map[string]int
	classes []string
}

// NewCategoryCodes builds a mapping from the distinct values given.
func NewCategoryCodes(values []string) *CategoryCodes {
	seen := make(map[string]bool, len(values))
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			classes = append(classes, v)
		}
	}
	sort.Strings(classes)

	codes := make(map[string]int, len(classes))
	for i, c := range classes {
		codes[c] = i
	}
	return &CategoryCodes{codes: codes, classes: classes}
}

// Code returns the code of a value and whether it was seen during fit.
func (c *CategoryCodes) Code(value string) (int, bool) {
	code, ok := c.codes[value]
	return code, ok
}

// Classes returns a copy of the known values in code order.
func (c *CategoryCodes) Classes() []string {
	out := make([]string, len(c.classes))
	copy(out, c.classes)
	return out
}

// CategoricalEncoder assigns a stable integer code to every category value,
// one mapping per column.
type CategoricalEncoder struct {
	mappings map[string]*CategoryCodes
	columns  []string
}

// NewCategoricalEncoder creates an encoder for the given columns.
func NewCategoricalEncoder(columns ...string) *CategoricalEncoder {
	return &CategoricalEncoder{columns: columns}
}

// Columns returns the encoded columns in output order.
func (e *CategoricalEncoder) Columns() []string {
	return e.columns
}

// Fitted reports whether Fit has completed.
func (e *CategoricalEncoder) Fitted() bool {
	return e.mappings != nil
}

// Mapping returns the fitted codes of a column.
func (e *CategoricalEncoder) Mapping(column string) (*CategoryCodes, bool) {
	m, ok := e.mappings[column]
	return m, ok
}

// Fit learns one mapping per column from the canonical string form of its
// values. On error the previous mappings are kept.
func (e *CategoricalEncoder) Fit(f *frame.Frame) error {
	if err := f.Require("categorical encoding", e.columns...); err != nil {
		return err
	}

	mappings := make(map[string]*CategoryCodes, len(e.columns))
	for _, col := range e.columns {
		values, err := f.Strings(col)
		if err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
		mappings[col] = NewCategoryCodes(values)
		slog.Debug("Fitted category codes", "column", col, "classes", len(mappings[col].classes))
	}

	e.mappings = mappings
	return nil
}

// Transform returns the encoded columns, column-major, in Columns order.
// A value absent at fit time aborts with *common.UnseenCategoryError.
func (e *CategoricalEncoder) Transform(f *frame.Frame) ([][]float64, error) {
	if !e.Fitted() {
		return nil, fmt.Errorf("categorical encoder: %w", common.ErrNotFitted)
	}
	if err := f.Require("categorical encoding", e.columns...); err != nil {
		return nil, err
	}

	out := make([][]float64, len(e.columns))
	for j, col := range e.columns {
		values, err := f.Strings(col)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		mapping := e.mappings[col]

		encoded := make([]float64, len(values))
		for i, v := range values {
			code, ok := mapping.Code(v)
			if !ok {
				return nil, &common.UnseenCategoryError{Column: col, Value: v}
			}
			encoded[i] = float64(code)
		}
		out[j] = encoded
	}
	return out, nil
}
