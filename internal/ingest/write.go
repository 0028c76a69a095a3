package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/Veraticus/riskflow/internal/model"
)

// WriteMatrix writes a feature matrix as CSV with a header of column names.
// When ids is non-nil it is written as a leading CustomerId column.
// Floats are written at full precision.
func WriteMatrix(w io.Writer, m *mat.Dense, names []string, ids []string) error {
	rows, cols := m.Dims()
	if len(names) != cols {
		return fmt.Errorf("matrix has %d columns but %d names", cols, len(names))
	}
	if ids != nil && len(ids) != rows {
		return fmt.Errorf("matrix has %d rows but %d ids", rows, len(ids))
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, cols+1)
	if ids != nil {
		header = append(header, model.ColCustomerID)
	}
	header = append(header, names...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for i := 0; i < rows; i++ {
		offset := 0
		if ids != nil {
			record[0] = ids[i]
			offset = 1
		}
		for j := 0; j < cols; j++ {
			record[offset+j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLabels writes one CustomerId,is_high_risk row per label.
func WriteLabels(w io.Writer, labels []model.RiskLabel) error {
	ids := make([]string, len(labels))
	flags := make([]int, len(labels))
	for i, l := range labels {
		ids[i] = l.CustomerID
		flags[i] = l.IsHighRisk
	}
	df := dataframe.New(
		series.New(ids, series.String, model.ColCustomerID),
		series.New(flags, series.Int, model.ColIsHighRisk),
	)
	if df.Err != nil {
		return fmt.Errorf("failed to build label table: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// WriteRFM writes the RFM table. Monetary is written with gota's fixed
// six-decimal float rendering.
func WriteRFM(w io.Writer, table *model.RFMTable) error {
	n := table.Len()
	ids := make([]string, n)
	recency := make([]int, n)
	frequency := make([]int, n)
	monetary := make([]float64, n)
	for i, r := range table.Records {
		ids[i] = r.CustomerID
		recency[i] = r.Recency
		frequency[i] = r.Frequency
		monetary[i] = r.Monetary
	}
	df := dataframe.New(
		series.New(ids, series.String, model.ColCustomerID),
		series.New(recency, series.Int, "Recency"),
		series.New(frequency, series.Int, "Frequency"),
		series.New(monetary, series.Float, "Monetary"),
	)
	if df.Err != nil {
		return fmt.Errorf("failed to build RFM table: %w", df.Err)
	}
	return df.WriteCSV(w)
}
