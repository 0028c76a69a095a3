// Package transactions builds raw transaction fixtures for tests. Builders
// produce model.Transaction slices or write them as CSV files in the raw
// column layout the ingest layer reads.
//
// Example usage:
//
//	path := transactions.NewBuilder(t).
//		WithFixture(transactions.FixtureSegmented).
//		WriteCSV(t.TempDir())
package transactions

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Veraticus/riskflow/internal/model"
)

// Builder accumulates segments and individual transactions.
type Builder struct {
	t        *testing.T
	segments []Segment
	extra    []model.Transaction
}

// NewBuilder creates an empty builder bound to t.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithSegment adds a single segment.
func (b *Builder) WithSegment(s Segment) *Builder {
	if s.Customers <= 0 || s.LastDay < s.FirstDay {
		b.t.Fatalf("invalid segment %q: %d customers, days %d-%d", s.Prefix, s.Customers, s.FirstDay, s.LastDay)
	}
	b.segments = append(b.segments, s)
	return b
}

// WithFixture adds every segment of a fixture.
func (b *Builder) WithFixture(f Fixture) *Builder {
	for _, s := range f.Segments {
		b.WithSegment(s)
	}
	return b
}

// WithTransaction appends a hand-built transaction after the segments.
func (b *Builder) WithTransaction(txn model.Transaction) *Builder {
	b.extra = append(b.extra, txn)
	return b
}

// Build returns the transactions in segment order with hashes set.
func (b *Builder) Build() []model.Transaction {
	b.t.Helper()
	var txns []model.Transaction
	id := 0
	for _, s := range b.segments {
		for c := 0; c < s.Customers; c++ {
			customer := fmt.Sprintf("%s%d", s.Prefix, c)
			amount := s.Amount + float64(c)*s.AmountStep
			for d := s.FirstDay; d <= s.LastDay; d++ {
				id++
				day := d + c*s.Stagger
				txns = append(txns, Transaction(fmt.Sprintf("TransactionId_%d", id), customer, amount,
					time.Date(2019, time.January, day, 10, 0, 0, 0, time.UTC)))
			}
		}
	}
	for _, txn := range b.extra {
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		txns = append(txns, txn)
	}
	return txns
}

// WriteCSV writes the built transactions to dir/data.csv and returns the path.
func (b *Builder) WriteCSV(dir string) string {
	b.t.Helper()
	path := filepath.Join(dir, "data.csv")
	f, err := os.Create(path)
	if err != nil {
		b.t.Fatalf("failed to create fixture file: %v", err)
	}
	defer f.Close()

	if err := Write(f, b.Build()); err != nil {
		b.t.Fatalf("failed to write fixture file: %v", err)
	}
	return path
}

// Transaction returns a complete raw transaction for customer at the given time.
func Transaction(id, customer string, amount float64, at time.Time) model.Transaction {
	txn := model.Transaction{
		ID:              id,
		BatchID:         "BatchId_1",
		AccountID:       "AccountId_" + customer,
		SubscriptionID:  "SubscriptionId_1",
		CustomerID:      customer,
		CurrencyCode:    "UGX",
		CountryCode:     "256",
		ProviderID:      "ProviderId_6",
		ProductID:       "ProductId_10",
		ProductCategory: "airtime",
		ChannelID:       "ChannelId_3",
		PricingStrategy: "2",
		FraudResult:     "0",
		StartTime:       at.UTC().Format(time.RFC3339),
		Amount:          sql.NullFloat64{Float64: amount, Valid: true},
		Value:           sql.NullFloat64{Float64: amount, Valid: true},
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

// Write encodes transactions as a raw CSV table. Null amounts become empty cells.
func Write(w io.Writer, txns []model.Transaction) error {
	header := append(append([]string{}, model.TextColumns...), model.NumericColumns...)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range txns {
		record := make([]string, 0, len(header))
		for _, col := range model.TextColumns {
			record = append(record, txns[i].Text(col))
		}
		record = append(record, formatNull(txns[i].Amount), formatNull(txns[i].Value))
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatNull(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', 2, 64)
}
