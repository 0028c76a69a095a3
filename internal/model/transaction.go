package model

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"strconv"
)

// Transaction represents a single raw transaction record.
// Amount and Value are null when the source cell was empty or unparseable.
// StartTime is kept as the source text; parsing happens in the feature stage.
type Transaction struct {
	ID              string
	BatchID         string
	AccountID       string
	SubscriptionID  string
	CustomerID      string
	CurrencyCode    string
	CountryCode     string
	ProviderID      string
	ProductID       string
	ProductCategory string
	ChannelID       string
	PricingStrategy string
	FraudResult     string
	StartTime       string
	Hash            string
	Amount          sql.NullFloat64
	Value           sql.NullFloat64
}

// GenerateHash creates a unique hash for duplicate detection. Amounts are
// rendered at full precision so records differing in any digit stay distinct.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		t.ID,
		t.CustomerID,
		t.StartTime,
		hashFloat(t.Amount),
		hashFloat(t.Value),
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

func hashFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return "null"
	}
	return strconv.FormatFloat(v.Float64, 'g', -1, 64)
}

// Text returns the value of a raw text column.
func (t *Transaction) Text(column string) string {
	switch column {
	case ColTransactionID:
		return t.ID
	case ColBatchID:
		return t.BatchID
	case ColAccountID:
		return t.AccountID
	case ColSubscriptionID:
		return t.SubscriptionID
	case ColCustomerID:
		return t.CustomerID
	case ColCurrencyCode:
		return t.CurrencyCode
	case ColCountryCode:
		return t.CountryCode
	case ColProviderID:
		return t.ProviderID
	case ColProductID:
		return t.ProductID
	case ColProductCategory:
		return t.ProductCategory
	case ColChannelID:
		return t.ChannelID
	case ColTransactionStart:
		return t.StartTime
	case ColPricingStrategy:
		return t.PricingStrategy
	case ColFraudResult:
		return t.FraudResult
	default:
		return ""
	}
}

// SetText assigns a raw text column by name. Unknown columns are ignored.
func (t *Transaction) SetText(column, value string) {
	switch column {
	case ColTransactionID:
		t.ID = value
	case ColBatchID:
		t.BatchID = value
	case ColAccountID:
		t.AccountID = value
	case ColSubscriptionID:
		t.SubscriptionID = value
	case ColCustomerID:
		t.CustomerID = value
	case ColCurrencyCode:
		t.CurrencyCode = value
	case ColCountryCode:
		t.CountryCode = value
	case ColProviderID:
		t.ProviderID = value
	case ColProductID:
		t.ProductID = value
	case ColProductCategory:
		t.ProductCategory = value
	case ColChannelID:
		t.ChannelID = value
	case ColTransactionStart:
		t.StartTime = value
	case ColPricingStrategy:
		t.PricingStrategy = value
	case ColFraudResult:
		t.FraudResult = value
	}
}
