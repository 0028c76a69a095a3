package features

import (
	"database/sql"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/model"
)

// CustomerAggregate holds the amount statistics of one customer.
// Std is null when fewer than two amounts are present.
type CustomerAggregate struct {
	Total sql.NullFloat64
	Mean  sql.NullFloat64
	Std   sql.NullFloat64
	Count int
}

// TransactionAggregator joins per-customer amount statistics onto every row.
// It aggregates whatever table it receives and keeps no state between calls.
type TransactionAggregator struct {
	CustomerColumn string
	AmountColumn   string
}

// NewTransactionAggregator creates an aggregator over the standard columns.
func NewTransactionAggregator() *TransactionAggregator {
	return &TransactionAggregator{
		CustomerColumn: model.ColCustomerID,
		AmountColumn:   model.ColAmount,
	}
}

// Aggregate computes statistics keyed by customer identifier.
// Null amounts are skipped.
func (a *TransactionAggregator) Aggregate(f *frame.Frame) (map[string]CustomerAggregate, error) {
	if err := f.Require("aggregation", a.CustomerColumn, a.AmountColumn); err != nil {
		return nil, err
	}

	customers, err := f.Strings(a.CustomerColumn)
	if err != nil {
		return nil, err
	}
	amounts, err := f.Float(a.AmountColumn)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]float64)
	for i, id := range customers {
		if _, ok := groups[id]; !ok {
			groups[id] = nil
		}
		if amounts[i].Valid {
			groups[id] = append(groups[id], amounts[i].Float64)
		}
	}

	out := make(map[string]CustomerAggregate, len(groups))
	for id, values := range groups {
		agg := CustomerAggregate{
			Total: sql.NullFloat64{Float64: floats.Sum(values), Valid: true},
			Count: len(values),
		}
		if len(values) > 0 {
			agg.Mean = sql.NullFloat64{Float64: stat.Mean(values, nil), Valid: true}
		}
		if len(values) > 1 {
			agg.Std = sql.NullFloat64{Float64: stat.StdDev(values, nil), Valid: true}
		}
		out[id] = agg
	}
	return out, nil
}

// Transform returns a copy of f with total_amount, avg_amount, std_amount
// and txn_count added. Row count and order are preserved.
func (a *TransactionAggregator) Transform(f *frame.Frame) (*frame.Frame, error) {
	aggs, err := a.Aggregate(f)
	if err != nil {
		return nil, err
	}

	customers, err := f.Strings(a.CustomerColumn)
	if err != nil {
		return nil, err
	}

	n := f.Len()
	total := make([]sql.NullFloat64, n)
	avg := make([]sql.NullFloat64, n)
	std := make([]sql.NullFloat64, n)
	count := make([]sql.NullFloat64, n)

	for i, id := range customers {
		agg := aggs[id]
		total[i] = agg.Total
		avg[i] = agg.Mean
		std[i] = agg.Std
		count[i] = sql.NullFloat64{Float64: float64(agg.Count), Valid: true}
	}

	out := f.Clone()
	for _, c := range []struct {
		name   string
		values []sql.NullFloat64
	}{
		{model.ColTotalAmount, total},
		{model.ColAvgAmount, avg},
		{model.ColStdAmount, std},
		{model.ColTxnCount, count},
	} {
		if err := out.AddFloat(c.name, c.values); err != nil {
			return nil, err
		}
	}
	return out, nil
}
