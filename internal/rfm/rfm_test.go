package rfm

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/model"
)

func txn(id, customer string, amount float64, start string) model.Transaction {
	return model.Transaction{
		ID:         id,
		CustomerID: customer,
		StartTime:  start,
		Amount:     sql.NullFloat64{Float64: amount, Valid: true},
	}
}

func TestSummarize_Scenario(t *testing.T) {
	f := frame.FromTransactions([]model.Transaction{
		txn("1", "A", 1000, "2020-01-01"),
		txn("2", "A", 2000, "2020-01-02"),
		txn("3", "B", 500, "2020-01-03"),
	})

	table, err := Summarize(f)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), table.Snapshot)

	a := table.Find("A")
	require.NotNil(t, a)
	assert.Equal(t, 2, a.Frequency)
	assert.Equal(t, 3000.0, a.Monetary)
	assert.Equal(t, 1, a.Recency)

	b := table.Find("B")
	require.NotNil(t, b)
	assert.Equal(t, 1, b.Frequency)
	assert.Equal(t, 500.0, b.Monetary)
	assert.Equal(t, 0, b.Recency)

	for _, r := range table.Records {
		assert.NoError(t, r.Validate())
	}
}

func TestSummarize_SingleTransaction(t *testing.T) {
	table, err := Summarize(frame.FromTransactions([]model.Transaction{
		txn("1", "solo", 42, "2019-06-30T23:59:59Z"),
	}))
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, 0, table.Records[0].Recency)
	assert.Equal(t, 1, table.Records[0].Frequency)
}

func TestSummarize_RecencyFloorsToDays(t *testing.T) {
	table, err := Summarize(frame.FromTransactions([]model.Transaction{
		txn("1", "early", 1, "2020-01-01T12:00:00Z"),
		txn("2", "late", 1, "2020-01-03T11:00:00Z"),
	}))
	require.NoError(t, err)

	// 47 hours apart.
	assert.Equal(t, 1, table.Find("early").Recency)
	assert.Equal(t, 0, table.Find("late").Recency)
}

func TestSummarize_SortedByCustomer(t *testing.T) {
	table, err := Summarize(frame.FromTransactions([]model.Transaction{
		txn("1", "c", 1, "2020-01-01"),
		txn("2", "a", 1, "2020-01-01"),
		txn("3", "b", 1, "2020-01-01"),
	}))
	require.NoError(t, err)

	ids := make([]string, 0, table.Len())
	for _, r := range table.Records {
		ids = append(ids, r.CustomerID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestSummarize_NegativeMonetaryAndNullAmounts(t *testing.T) {
	refund := txn("2", "A", -250.10, "2020-01-02")
	missing := txn("3", "A", 0, "2020-01-02")
	missing.Amount = sql.NullFloat64{}

	table, err := Summarize(frame.FromTransactions([]model.Transaction{
		txn("1", "A", 100.05, "2020-01-01"),
		refund,
		missing,
	}))
	require.NoError(t, err)

	a := table.Find("A")
	require.NotNil(t, a)
	assert.Equal(t, 3, a.Frequency, "null amounts still count as transactions")
	assert.Equal(t, -150.05, a.Monetary)
}

func TestSummarize_NonFiniteAmountsSkipped(t *testing.T) {
	table, err := Summarize(frame.FromTransactions([]model.Transaction{
		txn("1", "C1", math.Inf(1), "2020-01-01"),
		txn("2", "C1", 40, "2020-01-02"),
		txn("3", "C2", math.NaN(), "2020-01-02"),
		txn("4", "C2", math.Inf(-1), "2020-01-03"),
	}))
	require.NoError(t, err)

	c1 := table.Find("C1")
	require.NotNil(t, c1)
	assert.Equal(t, 2, c1.Frequency)
	assert.Equal(t, 40.0, c1.Monetary)

	c2 := table.Find("C2")
	require.NotNil(t, c2)
	assert.Equal(t, 2, c2.Frequency)
	assert.Equal(t, 0.0, c2.Monetary)
}

func TestSummarize_UnparseableTimestampStillCounts(t *testing.T) {
	table, err := Summarize(frame.FromTransactions([]model.Transaction{
		txn("1", "A", 10, "2020-01-01"),
		txn("2", "A", 10, "garbage"),
		txn("3", "B", 10, "2020-01-11"),
	}))
	require.NoError(t, err)

	a := table.Find("A")
	assert.Equal(t, 2, a.Frequency)
	assert.Equal(t, 10, a.Recency)
}

func TestSummarize_Errors(t *testing.T) {
	t.Run("missing transaction id column", func(t *testing.T) {
		f := frame.New(1)
		require.NoError(t, f.AddText(model.ColCustomerID, []string{"A"}))
		require.NoError(t, f.AddFloat(model.ColAmount, []sql.NullFloat64{{Float64: 1, Valid: true}}))
		require.NoError(t, f.AddText(model.ColTransactionStart, []string{"2020-01-01"}))

		_, err := Summarize(f)
		var schemaErr *common.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{model.ColTransactionID}, schemaErr.Missing)
	})

	t.Run("no parseable timestamps", func(t *testing.T) {
		_, err := Summarize(frame.FromTransactions([]model.Transaction{
			txn("1", "A", 10, "never"),
		}))
		assert.ErrorIs(t, err, common.ErrNoTimestamps)
		assert.ErrorIs(t, err, common.ErrSchema)
	})

	t.Run("customer without parseable timestamp", func(t *testing.T) {
		_, err := Summarize(frame.FromTransactions([]model.Transaction{
			txn("1", "A", 10, "2020-01-01"),
			txn("2", "B", 10, "never"),
		}))
		assert.ErrorIs(t, err, common.ErrNoTimestamps)
	})

	t.Run("empty table", func(t *testing.T) {
		table, err := Summarize(frame.FromTransactions(nil))
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
	})
}
