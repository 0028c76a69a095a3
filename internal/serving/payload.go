// Package serving scores a single customer payload with a fitted feature
// pipeline and an external probability model.
package serving

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/model"
)

// Code is an identifier field that clients may send as a JSON string or
// number.
type Code string

// UnmarshalJSON accepts "123", 123 and null.
func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("code must be a string or number: %w", err)
	}
	*c = Code(n.String())
	return nil
}

// CustomerFeatures is one raw transaction as sent to the scoring endpoint.
type CustomerFeatures struct {
	TransactionStartTime string  `json:"TransactionStartTime"`
	CurrencyCode         Code    `json:"CurrencyCode"`
	CountryCode          Code    `json:"CountryCode"`
	ProviderID           Code    `json:"ProviderId"`
	ProductID            Code    `json:"ProductId"`
	ProductCategory      Code    `json:"ProductCategory"`
	ChannelID            Code    `json:"ChannelId"`
	PricingStrategy      Code    `json:"PricingStrategy"`
	CustomerID           Code    `json:"CustomerId"`
	Amount               float64 `json:"Amount"`
	Value                float64 `json:"Value"`
}

// DecodeCustomerFeatures reads one JSON payload and rejects unknown fields.
func DecodeCustomerFeatures(r io.Reader) (CustomerFeatures, error) {
	var payload CustomerFeatures
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return CustomerFeatures{}, common.NewUserError("invalid payload", err)
	}
	return payload, nil
}

// Validate returns a *common.SchemaError naming every empty required field.
func (c CustomerFeatures) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{model.ColTransactionStart, c.TransactionStartTime},
		{model.ColCustomerID, string(c.CustomerID)},
		{model.ColCurrencyCode, string(c.CurrencyCode)},
		{model.ColCountryCode, string(c.CountryCode)},
		{model.ColProviderID, string(c.ProviderID)},
		{model.ColProductID, string(c.ProductID)},
		{model.ColProductCategory, string(c.ProductCategory)},
		{model.ColChannelID, string(c.ChannelID)},
		{model.ColPricingStrategy, string(c.PricingStrategy)},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return common.NewSchemaError("serving payload", missing...)
	}
	return nil
}

// Transaction converts the payload into a raw transaction record.
func (c CustomerFeatures) Transaction() model.Transaction {
	return model.Transaction{
		CustomerID:      string(c.CustomerID),
		AccountID:       string(c.CustomerID),
		CurrencyCode:    string(c.CurrencyCode),
		CountryCode:     string(c.CountryCode),
		ProviderID:      string(c.ProviderID),
		ProductID:       string(c.ProductID),
		ProductCategory: string(c.ProductCategory),
		ChannelID:       string(c.ChannelID),
		PricingStrategy: string(c.PricingStrategy),
		StartTime:       strings.TrimSpace(c.TransactionStartTime),
		Amount:          sql.NullFloat64{Float64: c.Amount, Valid: true},
		Value:           sql.NullFloat64{Float64: c.Value, Valid: true},
	}
}

// Frame returns the payload as a one-row frame.
func (c CustomerFeatures) Frame() *frame.Frame {
	return frame.FromTransactions([]model.Transaction{c.Transaction()})
}
