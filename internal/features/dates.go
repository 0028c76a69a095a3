package features

import (
	"database/sql"
	"strings"
	"time"

	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/model"
)

// timestampLayouts are tried in order when parsing transaction timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a transaction timestamp and converts it to UTC.
// Unparseable input yields an invalid sql.NullTime.
func ParseTimestamp(s string) sql.NullTime {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullTime{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.NullTime{Time: t.UTC(), Valid: true}
		}
	}
	return sql.NullTime{}
}

// DateFeatureExtractor decomposes a timestamp column into calendar fields.
type DateFeatureExtractor struct {
	Column string
}

// NewDateFeatureExtractor creates an extractor for the standard timestamp column.
func NewDateFeatureExtractor() *DateFeatureExtractor {
	return &DateFeatureExtractor{Column: model.ColTransactionStart}
}

// Transform returns a copy of f with hour, day, month and year added.
// The timestamp column is kept; unparseable timestamps give null fields.
func (e *DateFeatureExtractor) Transform(f *frame.Frame) (*frame.Frame, error) {
	if err := f.Require("date features", e.Column); err != nil {
		return nil, err
	}

	stamps, err := e.timestamps(f)
	if err != nil {
		return nil, err
	}

	n := f.Len()
	hour := make([]sql.NullFloat64, n)
	day := make([]sql.NullFloat64, n)
	month := make([]sql.NullFloat64, n)
	year := make([]sql.NullFloat64, n)

	for i, ts := range stamps {
		if !ts.Valid {
			continue
		}
		hour[i] = sql.NullFloat64{Float64: float64(ts.Time.Hour()), Valid: true}
		day[i] = sql.NullFloat64{Float64: float64(ts.Time.Day()), Valid: true}
		month[i] = sql.NullFloat64{Float64: float64(ts.Time.Month()), Valid: true}
		year[i] = sql.NullFloat64{Float64: float64(ts.Time.Year()), Valid: true}
	}

	out := f.Clone()
	for _, c := range []struct {
		name   string
		values []sql.NullFloat64
	}{
		{model.ColHour, hour},
		{model.ColDay, day},
		{model.ColMonth, month},
		{model.ColYear, year},
	} {
		if err := out.AddFloat(c.name, c.values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// timestamps reads the column as times, parsing it when stored as text.
func (e *DateFeatureExtractor) timestamps(f *frame.Frame) ([]sql.NullTime, error) {
	kind, _ := f.Kind(e.Column)
	if kind == frame.KindTime {
		return f.Time(e.Column)
	}

	raw, err := f.Strings(e.Column)
	if err != nil {
		return nil, err
	}
	out := make([]sql.NullTime, len(raw))
	for i, s := range raw {
		out[i] = ParseTimestamp(s)
	}
	return out, nil
}
