// Package cluster implements seeded k-means clustering over dense points.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Clustering errors.
var (
	ErrNoPoints     = errors.New("no points to cluster")
	ErrDimension    = errors.New("points have inconsistent dimensions")
	ErrInvalidK     = errors.New("cluster count must be positive")
	ErrInvalidInits = errors.New("init count must be positive")
)

// Config controls a k-means run.
type Config struct {
	K         int
	Seed      int64
	MaxIter   int
	NInit     int
	Tolerance float64
}

// DefaultConfig returns the settings used for risk labeling.
func DefaultConfig() Config {
	return Config{
		K:         3,
		Seed:      42,
		MaxIter:   300,
		NInit:     10,
		Tolerance: 1e-4,
	}
}

// Result is the best of the NInit runs. K may be lower than requested when
// the input has fewer distinct points than clusters.
type Result struct {
	Labels     []int
	Centroids  [][]float64
	Inertia    float64
	Iterations int
	K          int
}

// Sizes returns the number of points assigned to each cluster.
func (r *Result) Sizes() []int {
	sizes := make([]int, r.K)
	for _, l := range r.Labels {
		sizes[l]++
	}
	return sizes
}

// KMeans partitions points into cfg.K clusters minimizing within-cluster
// squared Euclidean distance. Centers are seeded with k-means++ from a
// generator seeded by cfg.Seed, so identical input and seed give identical
// labels.
func KMeans(points [][]float64, cfg Config) (*Result, error) {
	if cfg.K <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, cfg.K)
	}
	if cfg.NInit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInits, cfg.NInit)
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = DefaultConfig().MaxIter
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	dim := len(points[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: points have no values", ErrDimension)
	}
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: point %d has %d values, want %d", ErrDimension, i, len(p), dim)
		}
	}

	k := cfg.K
	if distinct := countDistinct(points); distinct < k {
		k = distinct
	}
	tol := cfg.Tolerance * meanVariance(points)

	rng := rand.New(rand.NewSource(cfg.Seed))

	var best *Result
	for run := 0; run < cfg.NInit; run++ {
		centers := seedPlusPlus(points, k, rng)
		res := lloyd(points, centers, cfg.MaxIter, tol)
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

// seedPlusPlus picks k initial centers: the first uniformly, each next one
// with probability proportional to its squared distance to the nearest
// chosen center.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	first := rng.Intn(len(points))
	centers = append(centers, clone(points[first]))

	nearest := make([]float64, len(points))
	for i, p := range points {
		nearest[i] = sqDist(p, centers[0])
	}

	for len(centers) < k {
		total := floats.Sum(nearest)
		pick := -1
		if total > 0 {
			r := rng.Float64() * total
			var cum float64
			for i, d := range nearest {
				if d == 0 {
					continue
				}
				cum += d
				pick = i
				if cum > r {
					break
				}
			}
		}
		if pick < 0 {
			break
		}

		c := clone(points[pick])
		centers = append(centers, c)
		for i, p := range points {
			if d := sqDist(p, c); d < nearest[i] {
				nearest[i] = d
			}
		}
	}
	return centers
}

// lloyd alternates assignment and centroid updates until the centers move
// less than tol or maxIter is reached.
func lloyd(points [][]float64, centers [][]float64, maxIter int, tol float64) *Result {
	k := len(centers)
	dim := len(points[0])
	labels := make([]int, len(points))

	iter := 0
	for iter < maxIter {
		iter++
		assign(points, centers, labels)

		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(next[labels[i]], p)
			counts[labels[i]]++
		}
		for c := range next {
			if counts[c] == 0 {
				relocate(points, centers, labels, next, c)
				continue
			}
			floats.Scale(1/float64(counts[c]), next[c])
		}

		var shift float64
		for c := range centers {
			shift += sqDist(centers[c], next[c])
		}
		centers = next
		if shift <= tol {
			break
		}
	}

	// Final assignment against the converged centers.
	inertia := assign(points, centers, labels)
	return &Result{
		Labels:     labels,
		Centroids:  centers,
		Inertia:    inertia,
		Iterations: iter,
		K:          k,
	}
}

// assign labels each point with its nearest center, lowest index on ties,
// and returns the total squared distance.
func assign(points [][]float64, centers [][]float64, labels []int) float64 {
	var inertia float64
	for i, p := range points {
		best := 0
		bestDist := math.Inf(1)
		for c, center := range centers {
			if d := sqDist(p, center); d < bestDist {
				bestDist = d
				best = c
			}
		}
		labels[i] = best
		inertia += bestDist
	}
	return inertia
}

// relocate moves an empty cluster onto the point farthest from its current
// center.
func relocate(points [][]float64, centers [][]float64, labels []int, next [][]float64, empty int) {
	far := 0
	farDist := -1.0
	for i, p := range points {
		if d := sqDist(p, centers[labels[i]]); d > farDist {
			farDist = d
			far = i
		}
	}
	copy(next[empty], points[far])
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}

func countDistinct(points [][]float64) int {
	seen := make(map[string]struct{}, len(points))
	for _, p := range points {
		seen[fmt.Sprint(p)] = struct{}{}
	}
	return len(seen)
}

// meanVariance is the mean of the per-dimension population variances.
func meanVariance(points [][]float64) float64 {
	dim := len(points[0])
	col := make([]float64, len(points))
	var sum float64
	for j := 0; j < dim; j++ {
		for i, p := range points {
			col[i] = p[j]
		}
		_, variance := stat.PopMeanVariance(col, nil)
		sum += variance
	}
	return sum / float64(dim)
}
