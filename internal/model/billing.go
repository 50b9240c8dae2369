package model

import "time"

// Plan is a purchasable bundle of credits. The catalog is static.
type Plan struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Price    int      `json:"price"` // whole USD
	Credits  int      `json:"credits"`
	Features []string `json:"features"`
}

// PriceCents returns the plan price in the smallest currency unit.
func (p Plan) PriceCents() int64 {
	return int64(p.Price) * 100
}

// Plans is the credit catalog offered to every user.
var Plans = []Plan{
	{
		ID:      "basic",
		Name:    "Basic",
		Price:   10,
		Credits: 100,
		Features: []string{
			"100 text generations",
			"50 image generations",
			"Standard support",
			"Access to basic models",
		},
	},
	{
		ID:      "pro",
		Name:    "Pro",
		Price:   20,
		Credits: 500,
		Features: []string{
			"500 text generations",
			"200 image generations",
			"Priority support",
			"Access to pro models",
			"Faster response time",
		},
	},
	{
		ID:      "premium",
		Name:    "Premium",
		Price:   30,
		Credits: 1000,
		Features: []string{
			"1000 text generations",
			"500 image generations",
			"24/7 VIP support",
			"Access to premium models",
			"Dedicated account manager",
		},
	},
}

// FindPlan looks up a plan by ID.
func FindPlan(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Transaction records a credit purchase. It starts unpaid and flips to paid
// exactly once when the payment provider confirms the charge.
type Transaction struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	PlanID    string    `json:"planId"`
	Amount    int       `json:"amount"`
	Credits   int       `json:"credits"`
	IsPaid    bool      `json:"isPaid"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CheckoutRequest describes a hosted checkout page to open for a transaction.
type CheckoutRequest struct {
	TransactionID string
	AppID         string
	ProductName   string
	Currency      string
	UnitAmount    int64 // smallest currency unit
	SuccessURL    string
	CancelURL     string
	ExpiresAt     time.Time
}

// CheckoutSession is the provider-side view of a checkout page.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentIntent string
	Metadata      map[string]string
}

// Checkout session metadata keys.
const (
	MetadataTransactionID = "transactionId"
	MetadataAppID         = "appId"
)
