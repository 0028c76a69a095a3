package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/riskflow/internal/model"
)

func TestSaveTransactions(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	txns := createTestTransactions(5)
	inserted, err := store.SaveTransactions(ctx, txns)
	require.NoError(t, err)
	assert.Equal(t, 5, inserted)

	count, err := store.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestSaveTransactions_SkipsDuplicates(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	txns := createTestTransactions(3)
	_, err := store.SaveTransactions(ctx, txns)
	require.NoError(t, err)

	more := append(createTestTransactions(4)[3:], txns...)
	inserted, err := store.SaveTransactions(ctx, more)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	count, err := store.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestSaveTransactions_KeepsSubCentDifferences(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	base := createTestTransactions(1)[0]
	finer := base
	finer.Amount = sql.NullFloat64{Float64: base.Amount.Float64 + 0.001, Valid: true}
	finer.Hash = finer.GenerateHash()
	otherValue := base
	otherValue.Value = sql.NullFloat64{Float64: 99, Valid: true}
	otherValue.Hash = otherValue.GenerateHash()

	inserted, err := store.SaveTransactions(ctx, []model.Transaction{base, finer, otherValue})
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)
}

func TestSaveTransactions_GeneratesHash(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	txns := createTestTransactions(1)
	txns[0].Hash = ""
	_, err := store.SaveTransactions(ctx, txns)
	require.NoError(t, err)

	got, err := store.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, txns[0].GenerateHash(), got[0].Hash)
}

func TestSaveTransactions_Invalid(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveTransactions(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)

	_, err = store.SaveTransactions(ctx, []model.Transaction{})
	assert.ErrorIs(t, err, ErrEmptySlice)

	txns := createTestTransactions(2)
	txns[1].CustomerID = ""
	_, err = store.SaveTransactions(ctx, txns)
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	count, err := store.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "nothing is written when validation fails")
}

func TestGetTransactions_RoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	txns := createTestTransactions(3)
	txns[1].Amount = sql.NullFloat64{}
	txns[2].CountryCode = ""
	for i := range txns {
		txns[i].Hash = txns[i].GenerateHash()
	}
	_, err := store.SaveTransactions(ctx, txns)
	require.NoError(t, err)

	got, err := store.GetTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, txns, got)
}

func TestLoadTransactions(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveTransactions(ctx, createTestTransactions(4))
	require.NoError(t, err)

	f, err := store.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())
	require.NoError(t, f.Require("test", model.ColCustomerID, model.ColAmount, model.ColTransactionStart))

	customers, err := f.Text(model.ColCustomerID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CustomerId_0", "CustomerId_1", "CustomerId_2", "CustomerId_0"}, customers)
}

func TestLoadTransactions_Empty(t *testing.T) {
	store := createTestStorage(t)

	f, err := store.LoadTransactions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
}
