// Package model defines the core domain models used throughout the application.
package model

// Raw transaction table columns.
const (
	ColTransactionID    = "TransactionId"
	ColBatchID          = "BatchId"
	ColAccountID        = "AccountId"
	ColSubscriptionID   = "SubscriptionId"
	ColCustomerID       = "CustomerId"
	ColCurrencyCode     = "CurrencyCode"
	ColCountryCode      = "CountryCode"
	ColProviderID       = "ProviderId"
	ColProductID        = "ProductId"
	ColProductCategory  = "ProductCategory"
	ColChannelID        = "ChannelId"
	ColAmount           = "Amount"
	ColValue            = "Value"
	ColTransactionStart = "TransactionStartTime"
	ColPricingStrategy  = "PricingStrategy"
	ColFraudResult      = "FraudResult"
)

// Derived columns.
const (
	ColHour        = "hour"
	ColDay         = "day"
	ColMonth       = "month"
	ColYear        = "year"
	ColTotalAmount = "total_amount"
	ColAvgAmount   = "avg_amount"
	ColStdAmount   = "std_amount"
	ColTxnCount    = "txn_count"
	ColIsHighRisk  = "is_high_risk"
)

// NumericColumns are the raw float columns of the transaction table.
var NumericColumns = []string{ColAmount, ColValue}

// TextColumns are the raw text columns of the transaction table.
var TextColumns = []string{
	ColTransactionID,
	ColBatchID,
	ColAccountID,
	ColSubscriptionID,
	ColCustomerID,
	ColCurrencyCode,
	ColCountryCode,
	ColProviderID,
	ColProductID,
	ColProductCategory,
	ColChannelID,
	ColTransactionStart,
	ColPricingStrategy,
	ColFraudResult,
}

// FeatureNumericColumns are normalized by the feature pipeline, in output order.
var FeatureNumericColumns = []string{
	ColAmount,
	ColValue,
	ColHour,
	ColDay,
	ColMonth,
	ColYear,
	ColTotalAmount,
	ColAvgAmount,
	ColStdAmount,
	ColTxnCount,
}

// FeatureCategoricalColumns are label encoded by the feature pipeline, in output order.
var FeatureCategoricalColumns = []string{
	ColCurrencyCode,
	ColCountryCode,
	ColProviderID,
	ColProductID,
	ColProductCategory,
	ColChannelID,
	ColPricingStrategy,
}

// IsNumericColumn reports whether a raw column holds floats.
func IsNumericColumn(name string) bool {
	for _, c := range NumericColumns {
		if c == name {
			return true
		}
	}
	return false
}
