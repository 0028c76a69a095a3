package model

import (
	"fmt"
	"time"
)

// RFM holds the Recency/Frequency/Monetary summary of one customer.
type RFM struct {
	CustomerID string
	Recency    int
	Frequency  int
	Monetary   float64
}

// Validate ensures the RFM record is well formed.
func (r *RFM) Validate() error {
	if r.Recency < 0 {
		return fmt.Errorf("recency must be non-negative, got %d", r.Recency)
	}
	if r.Frequency < 1 {
		return fmt.Errorf("frequency must be at least 1, got %d", r.Frequency)
	}
	return nil
}

// RFMTable is the per-customer RFM summary of one dataset.
type RFMTable struct {
	Snapshot time.Time
	Records  []RFM
}

// Len returns the number of customers in the table.
func (t *RFMTable) Len() int {
	return len(t.Records)
}

// Find returns the record for a customer, or nil.
func (t *RFMTable) Find(customerID string) *RFM {
	for i := range t.Records {
		if t.Records[i].CustomerID == customerID {
			return &t.Records[i]
		}
	}
	return nil
}
