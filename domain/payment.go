package domain

import "time"

// PaymentIntent is the merchant-scoped logical transaction. It is created
// once at initiation and mutated by every flow's update stage; it is never
// deleted.
type PaymentIntent struct {
	ID                string
	MerchantID        string
	Status            IntentStatus
	Amount            int64
	Currency          string
	ProfileID         string
	ActiveAttemptID   string
	ShippingAddressID string
	BillingAddressID  string
	UpdatedBy         string
	CreatedAt         time.Time
	ModifiedAt        time.Time
}

// PaymentAttempt is one concrete connector-facing try belonging to an
// intent. Exactly one attempt per intent is active at any time.
type PaymentAttempt struct {
	ID                            string
	PaymentID                     string
	MerchantID                    string
	Status                        AttemptStatus
	Amount                        int64
	AmountToCapture               int64
	Currency                      string
	CancellationReason            string
	PaymentMethodBillingAddressID string
	ConnectorTransactionID        string
	UpdatedBy                     string
	CreatedAt                     time.Time
	ModifiedAt                    time.Time
}

// TotalAmount is the amount the attempt is trying to move, surcharge
// included once surcharge support lands on the attempt row.
func (a PaymentAttempt) TotalAmount() int64 {
	return a.Amount
}

// PaymentData is the ephemeral working aggregate a flow assembles per
// request. It is never persisted wholesale; update stages project specific
// fields back to storage.
type PaymentData struct {
	Intent   PaymentIntent
	Attempt  PaymentAttempt
	Currency string
	Amount   int64
	Address  PaymentAddress
	Profile  Profile

	// Optional ancillary context resolved by GetTrackers.
	CredsIdentifier string
	CustomerID      string
	MandateID       string
	SurchargeAmount int64
	TaxAmount       int64
}
