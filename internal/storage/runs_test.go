package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/model"
)

func sampleRun() *model.LabelingRun {
	profiles := model.ClusterProfiles{
		{Index: 0, Size: 2, MeanRecency: 2, MeanFreq: 8, MeanMonetary: 900},
		{Index: 1, Size: 1, MeanRecency: 60, MeanFreq: 1, MeanMonetary: 20},
	}
	profiles.Rank(model.DefaultRiskLess)

	return &model.LabelingRun{
		Snapshot:  time.Date(2019, 2, 14, 10, 1, 28, 0, time.UTC),
		Seed:      42,
		Clusters:  2,
		Customers: 3,
		Warnings:  []string{"only 3 customers"},
		Profiles:  profiles,
		Labels: []model.RiskLabel{
			{CustomerID: "CustomerId_2", IsHighRisk: 0},
			{CustomerID: "CustomerId_1", IsHighRisk: 0},
			{CustomerID: "CustomerId_3", IsHighRisk: 1},
		},
	}
}

func TestSaveLabelingRun(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, store.SaveLabelingRun(ctx, run))

	_, err := uuid.Parse(run.ID)
	require.NoError(t, err, "saved runs get a UUID")
	assert.False(t, run.CreatedAt.IsZero())

	got, err := store.GetLabelingRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, int64(42), got.Seed)
	assert.Equal(t, 2, got.Clusters)
	assert.Equal(t, 3, got.Customers)
	assert.False(t, got.Degenerate)
	assert.True(t, run.Snapshot.Equal(got.Snapshot))
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Second)
	assert.Equal(t, []string{"only 3 customers"}, got.Warnings)

	require.Len(t, got.Profiles, 2)
	assert.Equal(t, 1, got.Profiles[0].Index, "profiles come back in rank order")
	assert.True(t, got.Profiles[0].HighRisk)
	assert.InDelta(t, 60.0, got.Profiles[0].MeanRecency, 1e-9)
	require.NoError(t, got.Profiles.Validate())

	assert.Equal(t, []model.RiskLabel{
		{CustomerID: "CustomerId_1", IsHighRisk: 0},
		{CustomerID: "CustomerId_2", IsHighRisk: 0},
		{CustomerID: "CustomerId_3", IsHighRisk: 1},
	}, got.Labels)
	assert.Equal(t, 1, got.HighRiskCount())
}

func TestSaveLabelingRun_KeepsGivenID(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := sampleRun()
	run.ID = "fixed-id"
	require.NoError(t, store.SaveLabelingRun(ctx, run))

	got, err := store.GetLabelingRun(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", got.ID)

	// Same id again violates the primary key and leaves nothing partial.
	dup := sampleRun()
	dup.ID = "fixed-id"
	assert.Error(t, store.SaveLabelingRun(ctx, dup))

	labels, err := store.GetRunLabels(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Len(t, labels, 3)
}

func TestSaveLabelingRun_Degenerate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := &model.LabelingRun{Seed: 7, Clusters: 3, Degenerate: true}
	require.NoError(t, store.SaveLabelingRun(ctx, run))

	got, err := store.GetLabelingRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, got.Degenerate)
	assert.True(t, got.Snapshot.IsZero())
	assert.Empty(t, got.Labels)
	assert.Empty(t, got.Profiles)
	assert.Empty(t, got.Warnings)
}

func TestSaveLabelingRun_Invalid(t *testing.T) {
	store := createTestStorage(t)

	run := sampleRun()
	run.Customers = 10
	assert.ErrorIs(t, store.SaveLabelingRun(context.Background(), run), ErrInvalidRun)
}

func TestGetLabelingRun_NotFound(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.GetLabelingRun(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetLabelingRun(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestListLabelingRuns(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	runs, err := store.ListLabelingRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		run := sampleRun()
		run.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.SaveLabelingRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err = store.ListLabelingRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID, "newest first")
	assert.Equal(t, ids[0], runs[2].ID)
	assert.Nil(t, runs[0].Labels)
	assert.Equal(t, 3, runs[0].Customers)
}

func TestDeleteLabelingRun(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, store.SaveLabelingRun(ctx, run))
	require.NoError(t, store.DeleteLabelingRun(ctx, run.ID))

	_, err := store.GetLabelingRun(ctx, run.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	labels, err := store.GetRunLabels(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, labels, "labels cascade with the run")

	assert.ErrorIs(t, store.DeleteLabelingRun(ctx, run.ID), common.ErrNotFound)
}
