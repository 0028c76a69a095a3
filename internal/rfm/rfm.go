// Package rfm collapses a transaction history into one Recency, Frequency,
// Monetary record per customer.
package rfm

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/features"
	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/model"
)

const day = 24 * time.Hour

// RequiredColumns are the columns Summarize reads.
var RequiredColumns = []string{
	model.ColCustomerID,
	model.ColTransactionID,
	model.ColAmount,
	model.ColTransactionStart,
}

type accumulator struct {
	last      time.Time
	monetary  decimal.Decimal
	frequency int
	seen      bool
}

// Summarize computes the RFM table of f. The snapshot is the latest
// timestamp in f; every customer's whole history in f is used.
func Summarize(f *frame.Frame) (*model.RFMTable, error) {
	if err := f.Require("rfm", RequiredColumns...); err != nil {
		return nil, err
	}

	customers, err := f.Strings(model.ColCustomerID)
	if err != nil {
		return nil, err
	}
	txnIDs, err := f.Strings(model.ColTransactionID)
	if err != nil {
		return nil, err
	}
	amounts, err := f.Float(model.ColAmount)
	if err != nil {
		return nil, err
	}
	stamps, err := timestamps(f)
	if err != nil {
		return nil, err
	}

	var snapshot time.Time
	var haveSnapshot bool
	groups := make(map[string]*accumulator)
	for i, id := range customers {
		acc, ok := groups[id]
		if !ok {
			acc = &accumulator{monetary: decimal.Zero}
			groups[id] = acc
		}
		if txnIDs[i] != "" && txnIDs[i] != frame.NullFloatText {
			acc.frequency++
		}
		if amounts[i].Valid && !math.IsNaN(amounts[i].Float64) && !math.IsInf(amounts[i].Float64, 0) {
			acc.monetary = acc.monetary.Add(decimal.NewFromFloat(amounts[i].Float64))
		}
		if ts := stamps[i]; ts.Valid {
			if !acc.seen || ts.Time.After(acc.last) {
				acc.last = ts.Time
				acc.seen = true
			}
			if !haveSnapshot || ts.Time.After(snapshot) {
				snapshot = ts.Time
				haveSnapshot = true
			}
		}
	}

	if len(groups) == 0 {
		return &model.RFMTable{}, nil
	}
	if !haveSnapshot {
		return nil, fmt.Errorf("%w: %w", common.NewSchemaError("rfm", model.ColTransactionStart), common.ErrNoTimestamps)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := &model.RFMTable{
		Snapshot: snapshot,
		Records:  make([]model.RFM, 0, len(ids)),
	}
	for _, id := range ids {
		acc := groups[id]
		if !acc.seen {
			return nil, fmt.Errorf("customer %q: %w", id, common.ErrNoTimestamps)
		}
		if acc.frequency == 0 {
			return nil, fmt.Errorf("customer %q has no transaction ids: %w", id,
				common.NewSchemaError("rfm", model.ColTransactionID))
		}
		monetary, _ := acc.monetary.Float64()
		record := model.RFM{
			CustomerID: id,
			Recency:    int(snapshot.Sub(acc.last) / day),
			Frequency:  acc.frequency,
			Monetary:   monetary,
		}
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("customer %q: %w", id, err)
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}

func timestamps(f *frame.Frame) ([]sql.NullTime, error) {
	if kind, _ := f.Kind(model.ColTransactionStart); kind == frame.KindTime {
		return f.Time(model.ColTransactionStart)
	}
	raw, err := f.Strings(model.ColTransactionStart)
	if err != nil {
		return nil, err
	}
	out := make([]sql.NullTime, len(raw))
	for i, s := range raw {
		out[i] = features.ParseTimestamp(s)
	}
	return out, nil
}
