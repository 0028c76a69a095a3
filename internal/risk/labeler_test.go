package risk

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/model"
	"github.com/Veraticus/riskflow/internal/rfm"
)

// segmentedTable has three obvious behavioral groups: loyal big spenders,
// occasional customers and lapsed one-off customers.
func segmentedTable() *model.RFMTable {
	var records []model.RFM
	for i := 0; i < 4; i++ {
		records = append(records, model.RFM{CustomerID: fmt.Sprintf("loyal-%d", i), Recency: i, Frequency: 50 + i, Monetary: 90000 + float64(i)*100})
	}
	for i := 0; i < 4; i++ {
		records = append(records, model.RFM{CustomerID: fmt.Sprintf("casual-%d", i), Recency: 20 + i, Frequency: 10 + i, Monetary: 20000 + float64(i)*100})
	}
	for i := 0; i < 4; i++ {
		records = append(records, model.RFM{CustomerID: fmt.Sprintf("lapsed-%d", i), Recency: 80 + i, Frequency: 1, Monetary: 500 + float64(i)*10})
	}
	return &model.RFMTable{Records: records}
}

func newLabeler(t *testing.T, cfg Config) *Labeler {
	t.Helper()
	l, err := NewLabeler(cfg)
	require.NoError(t, err)
	return l
}

func TestLabeler_LabelsLapsedCustomers(t *testing.T) {
	res, err := newLabeler(t, DefaultConfig()).Label(segmentedTable())
	require.NoError(t, err)

	assert.False(t, res.Degenerate)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Profiles, 3)
	require.NoError(t, res.Profiles.Validate())

	high := 0
	for _, p := range res.Profiles {
		if p.HighRisk {
			high++
		}
	}
	assert.Equal(t, 1, high, "exactly one cluster is high risk")

	require.Len(t, res.Labels, 12)
	for _, l := range res.Labels {
		want := 0
		if l.CustomerID[:6] == "lapsed" {
			want = 1
		}
		assert.Equal(t, want, l.IsHighRisk, l.CustomerID)
	}
	assert.Equal(t, 4, res.HighRiskCount())
	assert.Equal(t, 1.0, res.Profiles[0].MeanFreq)
}

func TestLabeler_Deterministic(t *testing.T) {
	l := newLabeler(t, DefaultConfig())

	first, err := l.Label(segmentedTable())
	require.NoError(t, err)
	second, err := l.Label(segmentedTable())
	require.NoError(t, err)

	assert.Equal(t, first.Labels, second.Labels)
	assert.Equal(t, first.Profiles, second.Profiles)
}

func TestLabeler_CustomRanker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ranker = func(a, b *model.ClusterProfile) bool {
		return a.MeanMonetary > b.MeanMonetary
	}

	res, err := newLabeler(t, cfg).Label(segmentedTable())
	require.NoError(t, err)

	for _, l := range res.Labels {
		if l.IsHighRisk == 1 {
			assert.Contains(t, l.CustomerID, "loyal")
		}
	}
	assert.Equal(t, 4, res.HighRiskCount())
}

func TestLabeler_FewerCustomersThanClusters(t *testing.T) {
	table := &model.RFMTable{Records: []model.RFM{
		{CustomerID: "A", Recency: 1, Frequency: 2, Monetary: 3000},
		{CustomerID: "B", Recency: 0, Frequency: 1, Monetary: 500},
	}}

	res, err := newLabeler(t, DefaultConfig()).Label(table)
	require.NoError(t, err)

	assert.True(t, res.Degenerate)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "only 2 customers for 3 clusters")
	require.Len(t, res.Labels, 2)
	require.Len(t, res.Profiles, 2)
	assert.Equal(t, 1, res.HighRiskCount())
	// B has the lower frequency.
	assert.Equal(t, model.RiskLabel{CustomerID: "B", IsHighRisk: 1}, res.Labels[1])
}

func TestLabeler_IdenticalCustomers(t *testing.T) {
	table := &model.RFMTable{Records: []model.RFM{
		{CustomerID: "A", Recency: 3, Frequency: 2, Monetary: 10},
		{CustomerID: "B", Recency: 3, Frequency: 2, Monetary: 10},
		{CustomerID: "C", Recency: 3, Frequency: 2, Monetary: 10},
		{CustomerID: "D", Recency: 3, Frequency: 2, Monetary: 10},
	}}

	res, err := newLabeler(t, DefaultConfig()).Label(table)
	require.NoError(t, err)
	assert.True(t, res.Degenerate)
	assert.Contains(t, res.Warnings[0], "distinct customers")
	assert.Equal(t, 4, res.HighRiskCount())
}

func TestLabeler_NoCustomers(t *testing.T) {
	res, err := newLabeler(t, DefaultConfig()).Label(&model.RFMTable{})
	require.NoError(t, err)
	assert.True(t, res.Degenerate)
	assert.Empty(t, res.Labels)
	assert.NotEmpty(t, res.Warnings)
}

func TestLabeler_FromTransactions(t *testing.T) {
	amount := func(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }
	f := frame.FromTransactions([]model.Transaction{
		{ID: "1", CustomerID: "A", StartTime: "2020-01-01", Amount: amount(1000)},
		{ID: "2", CustomerID: "A", StartTime: "2020-01-02", Amount: amount(2000)},
		{ID: "3", CustomerID: "B", StartTime: "2020-01-03", Amount: amount(500)},
	})

	table, err := rfm.Summarize(f)
	require.NoError(t, err)

	res, err := newLabeler(t, DefaultConfig()).Label(table)
	require.NoError(t, err)
	require.Len(t, res.Labels, 2)
	assert.Equal(t, "A", res.Labels[0].CustomerID)
	assert.Equal(t, "B", res.Labels[1].CustomerID)
	assert.Equal(t, 1, res.HighRiskCount())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero clusters", mutate: func(c *Config) { c.Clusters = 0 }},
		{name: "zero inits", mutate: func(c *Config) { c.NInit = 0 }},
		{name: "zero iterations", mutate: func(c *Config) { c.MaxIter = 0 }},
		{name: "negative tolerance", mutate: func(c *Config) { c.Tolerance = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewLabeler(cfg)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}

	l, err := NewLabeler(Config{Clusters: 3, NInit: 1, MaxIter: 10})
	require.NoError(t, err)
	assert.NotNil(t, l.Config().Ranker)
}

func TestScale(t *testing.T) {
	points := Scale([]model.RFM{
		{Recency: 0, Frequency: 1, Monetary: 10},
		{Recency: 10, Frequency: 1, Monetary: 30},
	})

	require.Len(t, points, 2)
	assert.Equal(t, []float64{-1, 0, -1}, points[0])
	assert.Equal(t, []float64{1, 0, 1}, points[1])
}

func TestResult_Run(t *testing.T) {
	table := &model.RFMTable{
		Snapshot: time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC),
		Records: []model.RFM{
			{CustomerID: "A", Recency: 1, Frequency: 5, Monetary: 100},
			{CustomerID: "B", Recency: 30, Frequency: 1, Monetary: 10},
		},
	}
	cfg := DefaultConfig()
	cfg.Clusters = 2

	l, err := NewLabeler(cfg)
	require.NoError(t, err)
	res, err := l.Label(table)
	require.NoError(t, err)

	run := res.Run(l.Config(), table)
	assert.Equal(t, table.Snapshot, run.Snapshot)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, 2, run.Clusters)
	assert.Equal(t, 2, run.Customers)
	assert.Equal(t, 1, run.HighRiskCount())
	require.NoError(t, run.Validate())
}
