package model

import (
	"fmt"
	"sort"
)

// ClusterProfile summarizes one behavioral cluster of a labeling run.
// Index is the run-local cluster number and is not stable across runs.
type ClusterProfile struct {
	Index        int
	Rank         int
	Size         int
	MeanRecency  float64
	MeanFreq     float64
	MeanMonetary float64
	HighRisk     bool
}

// Validate ensures the ClusterProfile has valid data.
func (p *ClusterProfile) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("cluster %d is empty", p.Index)
	}
	if p.MeanRecency < 0 {
		return fmt.Errorf("mean recency must be non-negative, got %.2f", p.MeanRecency)
	}
	if p.MeanFreq < 1 {
		return fmt.Errorf("mean frequency must be at least 1, got %.2f", p.MeanFreq)
	}
	return nil
}

// RiskLess orders two clusters by descending risk: a sorts before b when a
// looks more disengaged.
type RiskLess func(a, b *ClusterProfile) bool

// DefaultRiskLess ranks by Frequency ascending, then Monetary ascending, then
// Recency descending. Remaining ties fall back to the cluster index so the
// order is total.
func DefaultRiskLess(a, b *ClusterProfile) bool {
	if a.MeanFreq != b.MeanFreq {
		return a.MeanFreq < b.MeanFreq
	}
	if a.MeanMonetary != b.MeanMonetary {
		return a.MeanMonetary < b.MeanMonetary
	}
	if a.MeanRecency != b.MeanRecency {
		return a.MeanRecency > b.MeanRecency
	}
	return a.Index < b.Index
}

// ClusterProfiles is a slice of ClusterProfile that supports risk ranking.
type ClusterProfiles []ClusterProfile

// Rank sorts the profiles with less (DefaultRiskLess when nil), assigns
// Rank in that order and marks exactly the first profile as high risk.
func (p ClusterProfiles) Rank(less RiskLess) {
	if less == nil {
		less = DefaultRiskLess
	}
	sort.SliceStable(p, func(i, j int) bool {
		return less(&p[i], &p[j])
	})
	for i := range p {
		p[i].Rank = i
		p[i].HighRisk = i == 0
	}
}

// HighRisk returns the designated high-risk cluster, or nil if empty.
func (p ClusterProfiles) HighRisk() *ClusterProfile {
	for i := range p {
		if p[i].HighRisk {
			return &p[i]
		}
	}
	return nil
}

// Validate ensures all profiles are valid and exactly one is high risk.
func (p ClusterProfiles) Validate() error {
	seen := make(map[int]bool)
	highRisk := 0

	for i, profile := range p {
		if err := profile.Validate(); err != nil {
			return fmt.Errorf("invalid profile at index %d: %w", i, err)
		}
		if seen[profile.Index] {
			return fmt.Errorf("duplicate cluster %d in profiles", profile.Index)
		}
		seen[profile.Index] = true
		if profile.HighRisk {
			highRisk++
		}
	}

	if len(p) > 0 && highRisk != 1 {
		return fmt.Errorf("expected exactly one high-risk cluster, got %d", highRisk)
	}
	return nil
}

// RiskLabel is the binary proxy label of one customer.
type RiskLabel struct {
	CustomerID string
	IsHighRisk int
}
