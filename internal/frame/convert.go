package frame

import (
	"database/sql"
	"fmt"

	"github.com/Veraticus/riskflow/internal/model"
)

// FromTransactions builds a frame in the raw transaction schema.
func FromTransactions(transactions []model.Transaction) *Frame {
	f := New(len(transactions))

	for _, col := range model.TextColumns {
		values := make([]string, len(transactions))
		for i := range transactions {
			values[i] = transactions[i].Text(col)
		}
		_ = f.AddText(col, values)
	}

	amount := make([]sql.NullFloat64, len(transactions))
	value := make([]sql.NullFloat64, len(transactions))
	for i := range transactions {
		amount[i] = transactions[i].Amount
		value[i] = transactions[i].Value
	}
	_ = f.AddFloat(model.ColAmount, amount)
	_ = f.AddFloat(model.ColValue, value)

	return f
}

// Transactions converts the raw columns of a frame back into records.
// Columns absent from the frame are left empty; present columns of the wrong
// kind are an error.
func (f *Frame) Transactions() ([]model.Transaction, error) {
	out := make([]model.Transaction, f.rows)

	for _, col := range model.TextColumns {
		if !f.Has(col) {
			continue
		}
		values, err := f.Strings(col)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		for i, v := range values {
			out[i].SetText(col, v)
		}
	}

	if f.Has(model.ColAmount) {
		amount, err := f.Float(model.ColAmount)
		if err != nil {
			return nil, err
		}
		for i := range amount {
			out[i].Amount = amount[i]
		}
	}
	if f.Has(model.ColValue) {
		value, err := f.Float(model.ColValue)
		if err != nil {
			return nil, err
		}
		for i := range value {
			out[i].Value = value[i]
		}
	}

	for i := range out {
		out[i].Hash = out[i].GenerateHash()
	}
	return out, nil
}
