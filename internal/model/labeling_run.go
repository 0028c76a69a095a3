package model

import (
	"fmt"
	"time"
)

// LabelingRun records one proxy-labeling pass: the clustering settings,
// the ranked cluster profiles and the per-customer labels it produced.
type LabelingRun struct {
	CreatedAt  time.Time
	Snapshot   time.Time
	ID         string
	Warnings   []string
	Profiles   ClusterProfiles
	Labels     []RiskLabel
	Seed       int64
	Clusters   int
	Customers  int
	Degenerate bool
}

// HighRiskCount returns the number of customers labeled high risk.
func (r *LabelingRun) HighRiskCount() int {
	n := 0
	for _, l := range r.Labels {
		n += l.IsHighRisk
	}
	return n
}

// Validate checks that the run is internally consistent.
func (r *LabelingRun) Validate() error {
	if r.Clusters <= 0 {
		return fmt.Errorf("labeling run: clusters must be positive, got %d", r.Clusters)
	}
	if r.Customers != len(r.Labels) {
		return fmt.Errorf("labeling run: %d customers but %d labels", r.Customers, len(r.Labels))
	}
	seen := make(map[string]bool, len(r.Labels))
	for _, l := range r.Labels {
		if l.CustomerID == "" {
			return fmt.Errorf("labeling run: label with empty customer id")
		}
		if seen[l.CustomerID] {
			return fmt.Errorf("labeling run: duplicate label for customer %q", l.CustomerID)
		}
		if l.IsHighRisk != 0 && l.IsHighRisk != 1 {
			return fmt.Errorf("labeling run: customer %q has label %d", l.CustomerID, l.IsHighRisk)
		}
		seen[l.CustomerID] = true
	}
	if len(r.Profiles) > 0 {
		if err := r.Profiles.Validate(); err != nil {
			return fmt.Errorf("labeling run: %w", err)
		}
	}
	return nil
}
