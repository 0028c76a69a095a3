package features

import (
	"database/sql"

	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/model"
)

func amount(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func sampleTransaction(id, customer, product string, amt float64, start string) model.Transaction {
	return model.Transaction{
		ID:              id,
		BatchID:         "1",
		AccountID:       "acc-" + customer,
		SubscriptionID:  "sub-" + customer,
		CustomerID:      customer,
		CurrencyCode:    "UGX",
		CountryCode:     "256",
		ProviderID:      "Provider-" + customer,
		ProductID:       product,
		ProductCategory: "airtime",
		ChannelID:       "Android",
		PricingStrategy: "1",
		FraudResult:     "0",
		StartTime:       start,
		Amount:          amount(amt),
		Value:           amount(amt),
	}
}

// scenarioTransactions is the two-customer, three-row dataset: customer A
// spends 1000 then 2000 on consecutive days, customer B spends 500 once.
func scenarioTransactions() []model.Transaction {
	return []model.Transaction{
		sampleTransaction("1", "A", "P1", 1000, "2020-01-01"),
		sampleTransaction("2", "A", "P2", 2000, "2020-01-02"),
		sampleTransaction("3", "B", "P3", 500, "2020-01-03"),
	}
}

func scenarioFrame() *frame.Frame {
	return frame.FromTransactions(scenarioTransactions())
}

// without returns a frame holding every column of f except the named ones.
func without(f *frame.Frame, drop ...string) *frame.Frame {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}

	out := frame.New(f.Len())
	for _, name := range f.Names() {
		if skip[name] {
			continue
		}
		kind, _ := f.Kind(name)
		switch kind {
		case frame.KindFloat:
			v, _ := f.Float(name)
			_ = out.AddFloat(name, v)
		case frame.KindTime:
			v, _ := f.Time(name)
			_ = out.AddTime(name, v)
		default:
			v, _ := f.Text(name)
			_ = out.AddText(name, v)
		}
	}
	return out
}
