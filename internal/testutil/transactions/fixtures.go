package transactions

// Segment describes a group of customers that share a purchase pattern.
// Customer c of the segment transacts once a day from FirstDay+c*Stagger to
// LastDay+c*Stagger of January 2019, spending Amount+c*AmountStep each time.
type Segment struct {
	Prefix     string
	Customers  int
	FirstDay   int
	LastDay    int
	Stagger    int
	Amount     float64
	AmountStep float64
}

// Fixture is a named, reusable set of customer segments.
type Fixture struct {
	Name     string
	Segments []Segment
}

// Predefined fixtures.
var (
	// FixtureSegmented has three clearly separated segments: frequent recent
	// spenders, occasional customers and one-off lapsed customers. It yields
	// 45 transactions for 9 customers with a snapshot of 2019-01-30.
	FixtureSegmented = Fixture{
		Name: "Segmented",
		Segments: []Segment{
			{Prefix: "CustomerId_L", Customers: 3, FirstDay: 20, LastDay: 30, Amount: 5000, AmountStep: 10},
			{Prefix: "CustomerId_O", Customers: 3, FirstDay: 12, LastDay: 14, Amount: 800},
			{Prefix: "CustomerId_X", Customers: 3, FirstDay: 1, LastDay: 1, Stagger: 1, Amount: 50},
		},
	}

	// FixtureSingleCustomer has one customer with a week of purchases.
	FixtureSingleCustomer = Fixture{
		Name: "SingleCustomer",
		Segments: []Segment{
			{Prefix: "CustomerId_S", Customers: 1, FirstDay: 1, LastDay: 7, Amount: 1000},
		},
	}
)
