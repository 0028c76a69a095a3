// Package training joins engineered features with proxy risk labels to
// produce the table handed to the external model trainer.
package training

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/features"
	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/ingest"
	"github.com/Veraticus/riskflow/internal/model"
)

// Set is a row-aligned feature matrix with binary targets.
type Set struct {
	X            *mat.Dense
	CustomerIDs  []string
	FeatureNames []string
	Y            []int
}

// Len returns the number of rows.
func (s *Set) Len() int {
	return len(s.Y)
}

// Positives returns the number of high-risk rows.
func (s *Set) Positives() int {
	n := 0
	for _, y := range s.Y {
		n += y
	}
	return n
}

// Attach keeps the rows of f whose customer has a label and adds the label
// as an is_high_risk column. It returns the number of rows dropped.
func Attach(f *frame.Frame, labels []model.RiskLabel) (*frame.Frame, int, error) {
	if err := f.Require("training join", model.ColCustomerID); err != nil {
		return nil, 0, err
	}
	customers, err := f.Text(model.ColCustomerID)
	if err != nil {
		return nil, 0, err
	}

	byCustomer := make(map[string]int, len(labels))
	for _, l := range labels {
		byCustomer[l.CustomerID] = l.IsHighRisk
	}

	keep := make([]int, 0, len(customers))
	var targets []string
	for i, id := range customers {
		label, ok := byCustomer[id]
		if !ok {
			continue
		}
		keep = append(keep, i)
		targets = append(targets, fmt.Sprint(label))
	}

	out := f.Take(keep)
	if err := out.AddText(model.ColIsHighRisk, targets); err != nil {
		return nil, 0, err
	}
	return out, len(customers) - len(keep), nil
}

// Build fits the pipeline on the labeled rows of f and returns the
// resulting training set.
func Build(p *features.Pipeline, f *frame.Frame, labels []model.RiskLabel) (*Set, error) {
	labeled, dropped, err := Attach(f, labels)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		slog.Warn("Dropped rows without a risk label", "rows", dropped)
	}
	if labeled.Len() == 0 {
		return nil, fmt.Errorf("training join: %w", common.ErrEmptyInput)
	}

	x, err := p.FitTransform(labeled)
	if err != nil {
		return nil, err
	}

	ids, err := labeled.Text(model.ColCustomerID)
	if err != nil {
		return nil, err
	}
	raw, err := labeled.Text(model.ColIsHighRisk)
	if err != nil {
		return nil, err
	}
	y := make([]int, len(raw))
	for i, v := range raw {
		if v == "1" {
			y[i] = 1
		}
	}

	set := &Set{
		X:            x,
		CustomerIDs:  append([]string(nil), ids...),
		FeatureNames: p.FeatureNames(),
		Y:            y,
	}
	common.LogDebug("Built training set", common.Fields{"rows": set.Len(), "positives": set.Positives()})
	return set, nil
}

// Split shuffles rows with the given seed and holds out testFraction of
// them, rounded up, as the test set.
func (s *Set) Split(testFraction float64, seed int64) (*Set, *Set, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("%w: test fraction %v must be in (0, 1)", common.ErrInvalidConfig, testFraction)
	}
	n := s.Len()
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, fmt.Errorf("%w: %d rows cannot be split", common.ErrEmptyInput, n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return s.subset(perm[nTest:]), s.subset(perm[:nTest]), nil
}

func (s *Set) subset(rows []int) *Set {
	_, cols := s.X.Dims()
	out := &Set{
		X:            mat.NewDense(len(rows), cols, nil),
		CustomerIDs:  make([]string, len(rows)),
		FeatureNames: s.FeatureNames,
		Y:            make([]int, len(rows)),
	}
	for i, r := range rows {
		out.X.SetRow(i, s.X.RawRowView(r))
		out.CustomerIDs[i] = s.CustomerIDs[r]
		out.Y[i] = s.Y[r]
	}
	return out
}

// WriteCSV writes CustomerId, the features and is_high_risk.
func (s *Set) WriteCSV(w io.Writer) error {
	n := s.Len()
	if n == 0 {
		return fmt.Errorf("training set: %w", common.ErrEmptyInput)
	}
	target := mat.NewDense(n, 1, nil)
	for i, y := range s.Y {
		target.Set(i, 0, float64(y))
	}

	var table mat.Dense
	table.Augment(s.X, target)

	names := append(append([]string(nil), s.FeatureNames...), model.ColIsHighRisk)
	return ingest.WriteMatrix(w, &table, names, s.CustomerIDs)
}
