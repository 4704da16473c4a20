package domain

import (
	"fmt"
	"time"
)

// Payout is the merchant-scoped logical disbursement, the outbound analog
// of a payment intent. Attempts are keyed by an incrementing attempt count.
type Payout struct {
	ID                  string
	MerchantID          string
	Status              PayoutStatus
	Amount              int64
	DestinationCurrency string
	SourceCurrency      string
	PayoutType          PayoutType
	ProfileID           string
	CustomerID          string
	AttemptCount        int
	UpdatedBy           string
	CreatedAt           time.Time
	ModifiedAt          time.Time
}

// ActiveAttemptID derives the identifier of the payout's current attempt.
func (p Payout) ActiveAttemptID() string {
	return PayoutAttemptID(p.ID, p.AttemptCount)
}

// PayoutAttemptID builds the natural key of a payout attempt row.
func PayoutAttemptID(payoutID string, attemptCount int) string {
	return fmt.Sprintf("%s_%d", payoutID, attemptCount)
}

// PayoutAttempt is one connector-facing try to fulfill a payout. It carries
// the connector-assigned reference and the merchant-supplied order
// reference used for idempotent matching on the connector side.
type PayoutAttempt struct {
	ID                       string
	PayoutID                 string
	MerchantID               string
	Status                   PayoutStatus
	Connector                string
	ConnectorPayoutID        string
	MerchantOrderReferenceID string
	ErrorCode                string
	ErrorMessage             string
	BillingAddressID         string
	UpdatedBy                string
	CreatedAt                time.Time
	ModifiedAt               time.Time
}

// PayoutData is the working aggregate for payout flows.
type PayoutData struct {
	Payout         Payout
	Attempt        PayoutAttempt
	Profile        Profile
	BillingAddress *Address

	// Connector outcome fields populated by the flow's business logic
	// between the fetch and update stages. A nil NextStatus means the
	// connector reported nothing new.
	NextStatus        *PayoutStatus
	ConnectorPayoutID string
}
