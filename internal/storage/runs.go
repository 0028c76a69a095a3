package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/model"
)

// SaveLabelingRun stores a run with its profiles and labels in one
// transaction. An empty ID is replaced with a new UUID and a zero
// CreatedAt with the current time.
func (s *SQLiteStorage) SaveLabelingRun(ctx context.Context, run *model.LabelingRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	warnings, err := json.Marshal(nonNil(run.Warnings))
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var snapshot sql.NullTime
	if !run.Snapshot.IsZero() {
		snapshot = sql.NullTime{Time: run.Snapshot.UTC(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO labeling_runs (id, seed, clusters, customers, degenerate, snapshot, created_at, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Seed, run.Clusters, run.Customers, run.Degenerate, snapshot, run.CreatedAt.UTC(), string(warnings))
	if err != nil {
		return fmt.Errorf("failed to insert labeling run: %w", err)
	}

	profileStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cluster_profiles (
			run_id, cluster_index, rank, size, mean_recency, mean_frequency, mean_monetary, high_risk
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare profile statement: %w", err)
	}
	defer func() { _ = profileStmt.Close() }()

	for _, p := range run.Profiles {
		if _, err := profileStmt.ExecContext(ctx,
			run.ID, p.Index, p.Rank, p.Size, p.MeanRecency, p.MeanFreq, p.MeanMonetary, p.HighRisk,
		); err != nil {
			return fmt.Errorf("failed to insert cluster profile %d: %w", p.Index, err)
		}
	}

	labelStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO risk_labels (run_id, customer_id, is_high_risk) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare label statement: %w", err)
	}
	defer func() { _ = labelStmt.Close() }()

	for _, l := range run.Labels {
		if _, err := labelStmt.ExecContext(ctx, run.ID, l.CustomerID, l.IsHighRisk); err != nil {
			return fmt.Errorf("failed to insert label for %s: %w", l.CustomerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit labeling run: %w", err)
	}

	slog.Info("Saved labeling run",
		"id", run.ID,
		"customers", run.Customers,
		"high_risk", run.HighRiskCount())
	return nil
}

// GetLabelingRun returns a run with its profiles and labels.
func (s *SQLiteStorage) GetLabelingRun(ctx context.Context, id string) (*model.LabelingRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, seed, clusters, customers, degenerate, snapshot, created_at, warnings
		FROM labeling_runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("labeling run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	run.Profiles, err = s.getProfiles(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Labels, err = s.GetRunLabels(ctx, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListLabelingRuns returns run metadata, newest first. Profiles and labels
// are not loaded.
func (s *SQLiteStorage) ListLabelingRuns(ctx context.Context) ([]model.LabelingRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, clusters, customers, degenerate, snapshot, created_at, warnings
		FROM labeling_runs ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labeling runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.LabelingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labeling runs: %w", err)
	}
	return runs, nil
}

// GetRunLabels returns the labels of a run ordered by customer id.
func (s *SQLiteStorage) GetRunLabels(ctx context.Context, runID string) ([]model.RiskLabel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, is_high_risk FROM risk_labels
		WHERE run_id = ? ORDER BY customer_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var labels []model.RiskLabel
	for rows.Next() {
		var l model.RiskLabel
		if err := rows.Scan(&l.CustomerID, &l.IsHighRisk); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labels: %w", err)
	}
	return labels, nil
}

// DeleteLabelingRun removes a run and, through foreign keys, its profiles
// and labels.
func (s *SQLiteStorage) DeleteLabelingRun(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM labeling_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete labeling run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("labeling run %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) getProfiles(ctx context.Context, runID string) (model.ClusterProfiles, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cluster_index, rank, size, mean_recency, mean_frequency, mean_monetary, high_risk
		FROM cluster_profiles WHERE run_id = ? ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles model.ClusterProfiles
	for rows.Next() {
		var p model.ClusterProfile
		if err := rows.Scan(&p.Index, &p.Rank, &p.Size, &p.MeanRecency, &p.MeanFreq, &p.MeanMonetary, &p.HighRisk); err != nil {
			return nil, fmt.Errorf("failed to scan cluster profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cluster profiles: %w", err)
	}
	return profiles, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.LabelingRun, error) {
	var run model.LabelingRun
	var snapshot sql.NullTime
	var warnings string
	err := row.Scan(&run.ID, &run.Seed, &run.Clusters, &run.Customers, &run.Degenerate, &snapshot, &run.CreatedAt, &warnings)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan labeling run: %w", err)
	}
	if snapshot.Valid {
		run.Snapshot = snapshot.Time
	}
	if err := json.Unmarshal([]byte(warnings), &run.Warnings); err != nil {
		return nil, fmt.Errorf("failed to decode warnings for run %s: %w", run.ID, err)
	}
	return &run, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
