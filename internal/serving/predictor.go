package serving

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/features"
)

// Threshold is the probability at or above which a customer is high risk.
const Threshold = 0.5

// ErrInvalidProbability is returned when a scorer yields a value outside [0, 1].
var ErrInvalidProbability = errors.New("risk probability outside [0, 1]")

// Scorer turns one engineered feature row into a risk probability.
type Scorer interface {
	Score(features []float64) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(features []float64) (float64, error)

// Score calls f.
func (f ScorerFunc) Score(features []float64) (float64, error) {
	return f(features)
}

// Prediction is the scoring response.
type Prediction struct {
	RiskProbability float64 `json:"risk_probability"`
	IsHighRisk      int     `json:"is_high_risk"`
}

// Predictor applies a fitted pipeline to a payload and delegates scoring.
type Predictor struct {
	pipeline *features.Pipeline
	scorer   Scorer
}

// NewPredictor requires a fitted pipeline.
func NewPredictor(pipeline *features.Pipeline, scorer Scorer) (*Predictor, error) {
	if pipeline == nil || !pipeline.Fitted() {
		return nil, fmt.Errorf("predictor: %w", common.ErrNotFitted)
	}
	if scorer == nil {
		return nil, fmt.Errorf("%w: predictor needs a scorer", common.ErrInvalidConfig)
	}
	return &Predictor{pipeline: pipeline, scorer: scorer}, nil
}

// NewPredictorFromState restores the pipeline from a YAML state snapshot.
func NewPredictorFromState(r io.Reader, scorer Scorer) (*Predictor, error) {
	state, err := features.ReadState(r)
	if err != nil {
		return nil, err
	}
	pipeline, err := features.NewPipelineFromState(state)
	if err != nil {
		return nil, err
	}
	return NewPredictor(pipeline, scorer)
}

// Predict validates the payload, engineers its single feature row and
// thresholds the scorer's probability.
func (p *Predictor) Predict(payload CustomerFeatures) (*Prediction, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	x, err := p.pipeline.Transform(payload.Frame())
	if err != nil {
		return nil, fmt.Errorf("failed to engineer features: %w", err)
	}

	prob, err := p.scorer.Score(x.RawRowView(0))
	if err != nil {
		return nil, fmt.Errorf("scorer failed: %w", err)
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProbability, prob)
	}

	pred := &Prediction{RiskProbability: prob}
	if prob >= Threshold {
		pred.IsHighRisk = 1
	}
	slog.Debug("Scored payload", "customer", payload.CustomerID, "probability", prob)
	return pred, nil
}

// LogisticScorer is a linear model with a sigmoid link.
type LogisticScorer struct {
	Weights   []float64 `yaml:"weights"`
	Intercept float64   `yaml:"intercept"`
}

// Score returns sigmoid(w·x + b).
func (s *LogisticScorer) Score(x []float64) (float64, error) {
	if len(x) != len(s.Weights) {
		return 0, fmt.Errorf("scorer has %d weights, row has %d features", len(s.Weights), len(x))
	}
	z := floats.Dot(s.Weights, x) + s.Intercept
	return 1 / (1 + math.Exp(-z)), nil
}

// ReadLogisticScorer loads weights from YAML.
func ReadLogisticScorer(r io.Reader) (*LogisticScorer, error) {
	var s LogisticScorer
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode scorer: %w", err)
	}
	if len(s.Weights) == 0 {
		return nil, fmt.Errorf("%w: scorer has no weights", common.ErrInvalidConfig)
	}
	return &s, nil
}
