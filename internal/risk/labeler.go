// Package risk derives the binary high-risk proxy label from RFM records by
// clustering customers and designating the most disengaged cluster.
package risk

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/riskflow/internal/cluster"
	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/model"
)

// Config controls a labeling run. Seed is explicit so callers control
// reproducibility.
type Config struct {
	Ranker    model.RiskLess
	Clusters  int
	Seed      int64
	MaxIter   int
	NInit     int
	Tolerance float64
}

// DefaultConfig returns three clusters, seed 42 and the default risk order.
func DefaultConfig() Config {
	c := cluster.DefaultConfig()
	return Config{
		Ranker:    model.DefaultRiskLess,
		Clusters:  c.K,
		Seed:      c.Seed,
		MaxIter:   c.MaxIter,
		NInit:     c.NInit,
		Tolerance: c.Tolerance,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Clusters <= 0 {
		return fmt.Errorf("%w: clusters must be positive, got %d", common.ErrInvalidConfig, c.Clusters)
	}
	if c.NInit <= 0 {
		return fmt.Errorf("%w: n_init must be positive, got %d", common.ErrInvalidConfig, c.NInit)
	}
	if c.MaxIter <= 0 {
		return fmt.Errorf("%w: max_iter must be positive, got %d", common.ErrInvalidConfig, c.MaxIter)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must be non-negative, got %g", common.ErrInvalidConfig, c.Tolerance)
	}
	return nil
}

// Result is the outcome of one labeling run. Labels follow the order of
// the input RFM records. Profiles are ranked, the first is high risk.
type Result struct {
	Labels     []model.RiskLabel
	Profiles   model.ClusterProfiles
	Warnings   []string
	Degenerate bool
}

// HighRiskCount returns the number of customers labeled high risk.
func (r *Result) HighRiskCount() int {
	n := 0
	for _, l := range r.Labels {
		n += l.IsHighRisk
	}
	return n
}

// Run packages the result with the settings that produced it.
func (r *Result) Run(cfg Config, table *model.RFMTable) *model.LabelingRun {
	run := &model.LabelingRun{
		Seed:       cfg.Seed,
		Clusters:   cfg.Clusters,
		Customers:  len(r.Labels),
		Degenerate: r.Degenerate,
		Warnings:   r.Warnings,
		Profiles:   r.Profiles,
		Labels:     r.Labels,
	}
	if table != nil {
		run.Snapshot = table.Snapshot
	}
	return run
}

// Labeler is the risk clusterer. It keeps no state between runs.
type Labeler struct {
	cfg Config
}

// NewLabeler creates a labeler. A nil Ranker uses model.DefaultRiskLess.
func NewLabeler(cfg Config) (*Labeler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Ranker == nil {
		cfg.Ranker = model.DefaultRiskLess
	}
	return &Labeler{cfg: cfg}, nil
}

// Config returns the labeler configuration.
func (l *Labeler) Config() Config {
	return l.cfg
}

// Label scales the RFM columns, clusters the customers and emits 1 for
// members of the highest ranked cluster, 0 otherwise.
func (l *Labeler) Label(table *model.RFMTable) (*Result, error) {
	if table == nil || table.Len() == 0 {
		msg := "no customers to cluster; every label run needs at least one customer"
		slog.Warn("Degenerate clustering", "reason", msg)
		return &Result{Degenerate: true, Warnings: []string{msg}}, nil
	}

	points := Scale(table.Records)
	res, err := cluster.KMeans(points, cluster.Config{
		K:         l.cfg.Clusters,
		Seed:      l.cfg.Seed,
		MaxIter:   l.cfg.MaxIter,
		NInit:     l.cfg.NInit,
		Tolerance: l.cfg.Tolerance,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cluster customers: %w", err)
	}

	out := &Result{}
	if res.K < l.cfg.Clusters {
		msg := fmt.Sprintf("only %d distinct customers for %d clusters; labels are degenerate", res.K, l.cfg.Clusters)
		if table.Len() < l.cfg.Clusters {
			msg = fmt.Sprintf("only %d customers for %d clusters; labels are degenerate", table.Len(), l.cfg.Clusters)
		}
		out.Degenerate = true
		out.Warnings = append(out.Warnings, msg)
		slog.Warn("Degenerate clustering",
			"customers", table.Len(),
			"clusters", l.cfg.Clusters,
			"effective_clusters", res.K)
	}

	out.Profiles = profile(table.Records, res.Labels, res.K)
	out.Profiles.Rank(l.cfg.Ranker)
	high := out.Profiles.HighRisk().Index

	out.Labels = make([]model.RiskLabel, len(table.Records))
	for i, r := range table.Records {
		label := 0
		if res.Labels[i] == high {
			label = 1
		}
		out.Labels[i] = model.RiskLabel{CustomerID: r.CustomerID, IsHighRisk: label}
	}

	slog.Debug("Labeled customers",
		"customers", len(out.Labels),
		"high_risk", out.HighRiskCount(),
		"iterations", res.Iterations,
		"inertia", res.Inertia)
	return out, nil
}

// Scale z-scores recency, frequency and monetary across the records using
// the population standard deviation. Constant columns are centered only.
func Scale(records []model.RFM) [][]float64 {
	n := len(records)
	cols := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	for i, r := range records {
		cols[0][i] = float64(r.Recency)
		cols[1][i] = float64(r.Frequency)
		cols[2][i] = r.Monetary
	}

	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, 3)
	}
	for j, col := range cols {
		mean, variance := stat.PopMeanVariance(col, nil)
		std := math.Sqrt(variance)
		if std == 0 {
			std = 1
		}
		for i, v := range col {
			points[i][j] = (v - mean) / std
		}
	}
	return points
}

// profile computes size and mean raw RFM values per cluster.
func profile(records []model.RFM, labels []int, k int) model.ClusterProfiles {
	profiles := make(model.ClusterProfiles, k)
	for c := range profiles {
		profiles[c].Index = c
	}
	for i, r := range records {
		p := &profiles[labels[i]]
		p.Size++
		p.MeanRecency += float64(r.Recency)
		p.MeanFreq += float64(r.Frequency)
		p.MeanMonetary += r.Monetary
	}

	out := profiles[:0]
	for _, p := range profiles {
		if p.Size == 0 {
			continue
		}
		n := float64(p.Size)
		p.MeanRecency /= n
		p.MeanFreq /= n
		p.MeanMonetary /= n
		out = append(out, p)
	}
	return out
}
