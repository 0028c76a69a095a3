package frame

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_AddAndGet(t *testing.T) {
	f := New(2)
	require.NoError(t, f.AddText("name", []string{"a", "b"}))
	require.NoError(t, f.AddFloat("amount", []sql.NullFloat64{{Float64: 1.5, Valid: true}, {}}))

	assert.Equal(t, []string{"name", "amount"}, f.Names())
	assert.Equal(t, 2, f.Len())

	names, err := f.Text("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	_, err = f.Float("name")
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = f.Text("missing")
	assert.ErrorIs(t, err, common.ErrSchema)
}

func TestFrame_LengthMismatch(t *testing.T) {
	f := New(3)
	err := f.AddText("x", []string{"only one"})
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.False(t, f.Has("x"))
}

func TestFrame_ReplaceKeepsPosition(t *testing.T) {
	f := New(1)
	require.NoError(t, f.AddText("a", []string{"1"}))
	require.NoError(t, f.AddText("b", []string{"2"}))
	require.NoError(t, f.AddFloat("a", []sql.NullFloat64{{Float64: 1, Valid: true}}))

	assert.Equal(t, []string{"a", "b"}, f.Names())
	kind, ok := f.Kind("a")
	require.True(t, ok)
	assert.Equal(t, KindFloat, kind)
}

func TestFrame_CloneIsolation(t *testing.T) {
	f := New(1)
	require.NoError(t, f.AddText("a", []string{"1"}))

	c := f.Clone()
	require.NoError(t, c.AddText("b", []string{"2"}))

	assert.False(t, f.Has("b"))
	assert.True(t, c.Has("a"))
}

func TestFrame_Require(t *testing.T) {
	f := New(0)
	require.NoError(t, f.AddText("a", []string{}))

	assert.NoError(t, f.Require("stage", "a"))

	err := f.Require("stage", "a", "b", "c")
	var schemaErr *common.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "stage", schemaErr.Stage)
	assert.Equal(t, []string{"b", "c"}, schemaErr.Missing)
}

func TestFrame_Strings(t *testing.T) {
	f := New(3)
	require.NoError(t, f.AddFloat("x", []sql.NullFloat64{
		{Float64: 1, Valid: true},
		{Float64: 2.25, Valid: true},
		{},
	}))

	got, err := f.Strings("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2.25", NullFloatText}, got)
}

func TestFromTransactions_RoundTrip(t *testing.T) {
	txns := []model.Transaction{
		{ID: "t1", CustomerID: "c1", StartTime: "2020-01-01", Amount: sql.NullFloat64{Float64: 10, Valid: true}},
		{ID: "t2", CustomerID: "c2", StartTime: "2020-01-02"},
	}

	f := FromTransactions(txns)
	assert.Equal(t, 2, f.Len())
	require.NoError(t, f.Require("test", model.ColCustomerID, model.ColAmount, model.ColValue))

	back, err := f.Transactions()
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "t1", back[0].ID)
	assert.Equal(t, "c2", back[1].CustomerID)
	assert.True(t, back[0].Amount.Valid)
	assert.False(t, back[1].Amount.Valid)
	assert.NotEmpty(t, back[0].Hash)
}

func TestFrame_Take(t *testing.T) {
	f := New(3)
	require.NoError(t, f.AddText("id", []string{"a", "b", "c"}))
	require.NoError(t, f.AddFloat("x", []sql.NullFloat64{{Float64: 1, Valid: true}, {}, {Float64: 3, Valid: true}}))

	taken := f.Take([]int{2, 0})
	assert.Equal(t, 2, taken.Len())
	assert.Equal(t, []string{"id", "x"}, taken.Names())

	ids, err := taken.Text("id")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids)

	xs, err := taken.Float("x")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, xs[0].Float64, 1e-9)

	empty := f.Take(nil)
	assert.Equal(t, 0, empty.Len())
	assert.True(t, empty.Has("x"))
}

func TestFrame_NonFiniteFloatsAreNull(t *testing.T) {
	f := New(4)
	require.NoError(t, f.AddFloat("x", []sql.NullFloat64{
		{Float64: 1, Valid: true},
		{Float64: math.NaN(), Valid: true},
		{Float64: math.Inf(1), Valid: true},
		{Float64: math.Inf(-1), Valid: true},
	}))

	xs, err := f.Float("x")
	require.NoError(t, err)
	assert.True(t, xs[0].Valid)
	for _, v := range xs[1:] {
		assert.False(t, v.Valid)
	}
}

func TestFrame_TextKeepsNaNToken(t *testing.T) {
	f := New(3)
	require.NoError(t, f.AddText("code", []string{"NaN", "", "NA"}))

	got, err := f.Text("code")
	require.NoError(t, err)
	assert.Equal(t, []string{"NaN", "", "NA"}, got)
}

func TestFrame_TimeColumns(t *testing.T) {
	at := time.Date(2019, 1, 30, 10, 0, 0, 0, time.UTC)
	f := New(2)
	require.NoError(t, f.AddText("ts", []string{"a", "b"}))
	require.NoError(t, f.AddFloat("x", []sql.NullFloat64{{Float64: 1, Valid: true}, {}}))
	require.NoError(t, f.AddTime("ts", []sql.NullTime{{Time: at, Valid: true}, {}}))

	assert.Equal(t, []string{"ts", "x"}, f.Names())
	kind, ok := f.Kind("ts")
	require.True(t, ok)
	assert.Equal(t, KindTime, kind)

	rendered, err := f.Strings("ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"2019-01-30T10:00:00Z", NullTimeText}, rendered)

	taken := f.Take([]int{1, 0})
	stamps, err := taken.Time("ts")
	require.NoError(t, err)
	assert.False(t, stamps[0].Valid)
	assert.Equal(t, at, stamps[1].Time)

	xs, err := taken.Float("x")
	require.NoError(t, err)
	assert.False(t, xs[0].Valid)
	assert.InDelta(t, 1.0, xs[1].Float64, 1e-9)

	_, err = taken.Text("ts")
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestFrame_OnlyTimeColumn(t *testing.T) {
	f := New(1)
	require.NoError(t, f.AddText("ts", []string{"a"}))
	require.NoError(t, f.AddTime("ts", []sql.NullTime{{}}))

	taken := f.Take([]int{0, 0})
	assert.Equal(t, 2, taken.Len())
	stamps, err := taken.Time("ts")
	require.NoError(t, err)
	assert.Len(t, stamps, 2)
}
