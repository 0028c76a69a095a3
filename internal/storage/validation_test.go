package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/riskflow/internal/model"
)

func TestValidateContext(t *testing.T) {
	assert.NoError(t, validateContext(context.Background()))
	//nolint:staticcheck // testing nil context handling
	assert.ErrorIs(t, validateContext(nil), ErrNilContext)
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "abc", false},
		{"empty", "", true},
		{"whitespace", " \t\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.input, "param")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyString)
				assert.Contains(t, err.Error(), "param")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	tests := []struct {
		name    string
		txn     *model.Transaction
		wantErr error
	}{
		{"valid", &model.Transaction{ID: "t1", CustomerID: "c1"}, nil},
		{"nil", nil, ErrNilParameter},
		{"missing id", &model.Transaction{CustomerID: "c1"}, ErrInvalidTransaction},
		{"missing customer", &model.Transaction{ID: "t1"}, ErrInvalidTransaction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTransaction(tt.txn)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRun(t *testing.T) {
	assert.ErrorIs(t, validateRun(nil), ErrNilParameter)
	assert.ErrorIs(t, validateRun(&model.LabelingRun{Clusters: 0}), ErrInvalidRun)
	assert.ErrorIs(t, validateRun(&model.LabelingRun{
		Clusters:  3,
		Customers: 2,
		Labels:    []model.RiskLabel{{CustomerID: "a"}, {CustomerID: "a"}},
	}), ErrInvalidRun)
	assert.NoError(t, validateRun(&model.LabelingRun{
		Clusters:  3,
		Customers: 1,
		Labels:    []model.RiskLabel{{CustomerID: "a", IsHighRisk: 1}},
	}))
}
