// Package ingest loads transaction tables from files and writes pipeline
// outputs back out.
package ingest

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/model"
)

// nullCells are numeric cell values read as null. Text cells are kept as
// written, so a category such as "NA" survives.
var nullCells = map[string]bool{
	"":     true,
	"NaN":  true,
	"nan":  true,
	"NA":   true,
	"null": true,
}

// ReadCSV loads a transaction table with a header row. Amount and Value are
// parsed as nullable floats; every other column is kept as trimmed text.
// Unknown columns are carried along. gota's own missing-value tokens are
// disabled so no cell is rewritten before it is classified here.
func ReadCSV(r io.Reader) (*frame.Frame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", df.Err)
	}

	f := frame.New(df.Nrow())
	for _, name := range df.Names() {
		records := df.Col(name).Records()

		if model.IsNumericColumn(name) {
			values, bad := parseFloats(records)
			if bad > 0 {
				slog.Warn("Unparseable numeric cells treated as null", "column", name, "count", bad)
			}
			if err := f.AddFloat(name, values); err != nil {
				return nil, err
			}
			continue
		}

		values := make([]string, len(records))
		for i, rec := range records {
			values[i] = strings.TrimSpace(rec)
		}
		if err := f.AddText(name, values); err != nil {
			return nil, err
		}
	}

	slog.Debug("Read CSV", "rows", f.Len(), "columns", len(f.Names()))
	return f, nil
}

// ReadTransactionsCSV loads a CSV and requires the full raw schema.
func ReadTransactionsCSV(r io.Reader) ([]model.Transaction, error) {
	f, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	if f.Len() == 0 {
		return nil, fmt.Errorf("csv: %w", common.ErrEmptyInput)
	}
	required := append([]string{}, model.TextColumns...)
	required = append(required, model.NumericColumns...)
	if err := f.Require("csv import", required...); err != nil {
		return nil, err
	}
	return f.Transactions()
}

func normalizeNumericCell(s string) string {
	s = strings.TrimSpace(s)
	if nullCells[s] {
		return ""
	}
	return s
}

// parseFloats converts cells to nullable floats and counts cells that were
// neither empty nor finite numbers.
func parseFloats(records []string) ([]sql.NullFloat64, int) {
	out := make([]sql.NullFloat64, len(records))
	bad := 0
	for i, rec := range records {
		cell := normalizeNumericCell(rec)
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			bad++
			continue
		}
		out[i] = sql.NullFloat64{Float64: v, Valid: true}
	}
	return out, bad
}
