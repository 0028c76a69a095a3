package features

import (
	"fmt"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/model"
)

// Pipeline is the feature compositor. It owns the fitted encoder and
// normalizer state; Transform calls may run concurrently, Fit calls are
// serialized.
type Pipeline struct {
	dates      *DateFeatureExtractor
	aggregator *TransactionAggregator
	normalizer *NumericNormalizer
	encoder    *CategoricalEncoder
	mu         sync.RWMutex
}

// NewPipeline creates an unfitted pipeline over the standard column sets.
func NewPipeline() *Pipeline {
	return &Pipeline{
		dates:      NewDateFeatureExtractor(),
		aggregator: NewTransactionAggregator(),
		normalizer: NewNumericNormalizer(model.FeatureNumericColumns...),
		encoder:    NewCategoricalEncoder(model.FeatureCategoricalColumns...),
	}
}

// RequiredColumns returns the raw input columns the pipeline needs.
func (p *Pipeline) RequiredColumns() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cols := []string{p.dates.Column, p.aggregator.CustomerColumn, p.aggregator.AmountColumn}
	derived := map[string]bool{
		model.ColHour: true, model.ColDay: true, model.ColMonth: true, model.ColYear: true,
		model.ColTotalAmount: true, model.ColAvgAmount: true, model.ColStdAmount: true, model.ColTxnCount: true,
	}
	seen := map[string]bool{}
	for _, c := range cols {
		seen[c] = true
	}
	for _, c := range append(p.normalizer.Columns(), p.encoder.Columns()...) {
		if derived[c] || seen[c] {
			continue
		}
		seen[c] = true
		cols = append(cols, c)
	}
	return cols
}

// FeatureNames returns the output column order: numeric block, then
// categorical block.
func (p *Pipeline) FeatureNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.normalizer.Columns())+len(p.encoder.Columns()))
	names = append(names, p.normalizer.Columns()...)
	names = append(names, p.encoder.Columns()...)
	return names
}

// Fitted reports whether the pipeline holds fitted state.
func (p *Pipeline) Fitted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.normalizer.Fitted() && p.encoder.Fitted()
}

// Fit learns encoder and normalizer state from f.
func (p *Pipeline) Fit(f *frame.Frame) error {
	_, err := p.fit(f, false)
	return err
}

// FitTransform fits the pipeline on f and returns its feature matrix.
func (p *Pipeline) FitTransform(f *frame.Frame) (*mat.Dense, error) {
	return p.fit(f, true)
}

func (p *Pipeline) fit(f *frame.Frame, transform bool) (*mat.Dense, error) {
	prepared, err := p.prepare(f)
	if err != nil {
		return nil, err
	}

	normalizer := NewNumericNormalizer(p.normalizer.Columns()...)
	if err := normalizer.Fit(prepared); err != nil {
		return nil, fmt.Errorf("fit numeric features: %w", err)
	}
	encoder := NewCategoricalEncoder(p.encoder.Columns()...)
	if err := encoder.Fit(prepared); err != nil {
		return nil, fmt.Errorf("fit categorical features: %w", err)
	}

	var out *mat.Dense
	if transform {
		out, err = assemble(prepared, normalizer, encoder)
		if err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	p.normalizer = normalizer
	p.encoder = encoder
	p.mu.Unlock()

	slog.Debug("Fitted feature pipeline", "rows", f.Len(), "features", len(p.FeatureNames()))
	return out, nil
}

// Transform applies the fitted state to f. It never refits.
func (p *Pipeline) Transform(f *frame.Frame) (*mat.Dense, error) {
	p.mu.RLock()
	normalizer, encoder := p.normalizer, p.encoder
	p.mu.RUnlock()

	if !normalizer.Fitted() || !encoder.Fitted() {
		return nil, common.ErrNotFitted
	}

	prepared, err := p.prepare(f)
	if err != nil {
		return nil, err
	}
	return assemble(prepared, normalizer, encoder)
}

// prepare validates the schema and runs the stateless stages.
func (p *Pipeline) prepare(f *frame.Frame) (*frame.Frame, error) {
	if err := f.Require("feature pipeline", p.RequiredColumns()...); err != nil {
		return nil, err
	}
	if f.Len() == 0 {
		return nil, fmt.Errorf("feature pipeline: %w", common.ErrEmptyInput)
	}

	withDates, err := p.dates.Transform(f)
	if err != nil {
		return nil, fmt.Errorf("extract date features: %w", err)
	}
	withAggs, err := p.aggregator.Transform(withDates)
	if err != nil {
		return nil, fmt.Errorf("aggregate transactions: %w", err)
	}
	return withAggs, nil
}

func assemble(f *frame.Frame, normalizer *NumericNormalizer, encoder *CategoricalEncoder) (*mat.Dense, error) {
	numeric, err := normalizer.Transform(f)
	if err != nil {
		return nil, fmt.Errorf("transform numeric features: %w", err)
	}
	categorical, err := encoder.Transform(f)
	if err != nil {
		return nil, fmt.Errorf("transform categorical features: %w", err)
	}

	blocks := append(numeric, categorical...)
	out := mat.NewDense(f.Len(), len(blocks), nil)
	for j, col := range blocks {
		out.SetCol(j, col)
	}
	return out, nil
}
