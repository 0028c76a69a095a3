package features

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/riskflow/internal/common"
)

// StateVersion is the current layout of an exported State.
const StateVersion = 1

// NumericState is the exported normalizer state of one column.
type NumericState struct {
	Column string `yaml:"column"`
	ScalerParams `yaml:",inline"`
}

// CategoricalState is the exported encoder state of one column.
type CategoricalState struct {
	Column  string   `yaml:"column"`
	Classes []string `yaml:"classes"`
}

// State is a snapshot of a fitted pipeline, in output column order.
type State struct {
	Numeric     []NumericState     `yaml:"numeric"`
	Categorical []CategoricalState `yaml:"categorical"`
	Version     int                `yaml:"version"`
}

// State exports the fitted parameters.
func (p *Pipeline) State() (*State, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.normalizer.Fitted() || !p.encoder.Fitted() {
		return nil, common.ErrNotFitted
	}

	s := &State{Version: StateVersion}
	for _, col := range p.normalizer.Columns() {
		params, _ := p.normalizer.Params(col)
		s.Numeric = append(s.Numeric, NumericState{Column: col, ScalerParams: params})
	}
	for _, col := range p.encoder.Columns() {
		codes, _ := p.encoder.Mapping(col)
		s.Categorical = append(s.Categorical, CategoricalState{Column: col, Classes: codes.Classes()})
	}
	return s, nil
}

// NewPipelineFromState rebuilds a fitted pipeline from an exported snapshot.
// The snapshot must describe the same column sets as NewPipeline.
func NewPipelineFromState(s *State) (*Pipeline, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil pipeline state", common.ErrInvalidConfig)
	}
	if s.Version != StateVersion {
		return nil, fmt.Errorf("%w: unsupported pipeline state version %d", common.ErrInvalidConfig, s.Version)
	}

	p := NewPipeline()

	params := make(map[string]ScalerParams, len(s.Numeric))
	for _, n := range s.Numeric {
		if n.Std <= 0 {
			return nil, fmt.Errorf("%w: column %s has non-positive std", common.ErrInvalidConfig, n.Column)
		}
		params[n.Column] = n.ScalerParams
	}
	mappings := make(map[string]*CategoryCodes, len(s.Categorical))
	for _, c := range s.Categorical {
		mappings[c.Column] = NewCategoryCodes(c.Classes)
	}

	var missing []string
	for _, col := range p.normalizer.Columns() {
		if _, ok := params[col]; !ok {
			missing = append(missing, col)
		}
	}
	for _, col := range p.encoder.Columns() {
		if _, ok := mappings[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, common.NewSchemaError("pipeline state", missing...)
	}

	p.normalizer.params = params
	p.encoder.mappings = mappings
	return p, nil
}

// WriteState encodes a snapshot as YAML.
func WriteState(w io.Writer, s *State) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode pipeline state: %w", err)
	}
	return enc.Close()
}

// ReadState decodes a YAML snapshot.
func ReadState(r io.Reader) (*State, error) {
	var s State
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline state: %w", err)
	}
	return &s, nil
}
