package features

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/frame"
)

// ScalerParams are the frozen normalization parameters of one column.
type ScalerParams struct {
	Median float64 `yaml:"median"`
	Mean   float64 `yaml:"mean"`
	Std    float64 `yaml:"std"`
}

// Apply imputes a null with the median and rescales to zero mean, unit variance.
func (p ScalerParams) Apply(v float64, valid bool) float64 {
	if !valid {
		v = p.Median
	}
	return (v - p.Mean) / p.Std
}

// NumericNormalizer imputes missing values and standardizes numeric columns.
type NumericNormalizer struct {
	params  map[string]ScalerParams
	columns []string
}

// NewNumericNormalizer creates a normalizer for the given columns.
func NewNumericNormalizer(columns ...string) *NumericNormalizer {
	return &NumericNormalizer{columns: columns}
}

// Columns returns the normalized columns in output order.
func (n *NumericNormalizer) Columns() []string {
	return n.columns
}

// Fitted reports whether Fit has completed.
func (n *NumericNormalizer) Fitted() bool {
	return n.params != nil
}

// Params returns the fitted parameters of a column.
func (n *NumericNormalizer) Params(column string) (ScalerParams, bool) {
	p, ok := n.params[column]
	return p, ok
}

// Fit computes the median of the non-null values, then the mean and
// population standard deviation of the imputed column. A constant column
// gets a std of 1. On error the previous parameters are kept.
func (n *NumericNormalizer) Fit(f *frame.Frame) error {
	if err := f.Require("numeric normalization", n.columns...); err != nil {
		return err
	}

	params := make(map[string]ScalerParams, len(n.columns))
	for _, col := range n.columns {
		values, err := f.Float(col)
		if err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}

		present := make([]float64, 0, len(values))
		for _, v := range values {
			if v.Valid {
				present = append(present, v.Float64)
			}
		}
		med := median(present)

		imputed := make([]float64, len(values))
		for i, v := range values {
			if v.Valid {
				imputed[i] = v.Float64
			} else {
				imputed[i] = med
			}
		}

		p := ScalerParams{Median: med, Std: 1}
		if len(imputed) > 0 {
			mean, variance := stat.PopMeanVariance(imputed, nil)
			p.Mean = mean
			if std := math.Sqrt(variance); std > 0 {
				p.Std = std
			}
		}
		params[col] = p

		slog.Debug("Fitted scaler", "column", col, "median", p.Median, "mean", p.Mean, "std", p.Std)
	}

	n.params = params
	return nil
}

// Transform returns the normalized columns, column-major, in Columns order.
func (n *NumericNormalizer) Transform(f *frame.Frame) ([][]float64, error) {
	if !n.Fitted() {
		return nil, fmt.Errorf("numeric normalizer: %w", common.ErrNotFitted)
	}
	if err := f.Require("numeric normalization", n.columns...); err != nil {
		return nil, err
	}

	out := make([][]float64, len(n.columns))
	for j, col := range n.columns {
		values, err := f.Float(col)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		p := n.params[col]

		scaled := make([]float64, len(values))
		for i, v := range values {
			scaled[i] = p.Apply(v.Float64, v.Valid)
		}
		out[j] = scaled
	}
	return out, nil
}

// median returns the middle value, averaging the two middle values for even
// lengths. An empty slice has median 0.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
