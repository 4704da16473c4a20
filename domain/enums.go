package domain

// StorageScheme selects the persistence code path used for a merchant's
// reads and writes. It travels with every update so audit rows record which
// path produced them.
type StorageScheme string

const (
	StorageSchemePostgresOnly StorageScheme = "postgres_only"
	StorageSchemeRedisKV      StorageScheme = "redis_kv"
)

func (s StorageScheme) String() string {
	return string(s)
}

// IntentStatus is the merchant-facing status of a payment intent.
type IntentStatus string

const (
	IntentStatusRequiresPaymentMethod  IntentStatus = "requires_payment_method"
	IntentStatusRequiresConfirmation   IntentStatus = "requires_confirmation"
	IntentStatusRequiresCustomerAction IntentStatus = "requires_customer_action"
	IntentStatusRequiresMerchantAction IntentStatus = "requires_merchant_action"
	IntentStatusRequiresCapture        IntentStatus = "requires_capture"
	IntentStatusProcessing             IntentStatus = "processing"
	IntentStatusSucceeded              IntentStatus = "succeeded"
	IntentStatusPartiallyCaptured      IntentStatus = "partially_captured"
	IntentStatusFailed                 IntentStatus = "failed"
	IntentStatusCancelled              IntentStatus = "cancelled"
)

func (s IntentStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no flow may advance the intent further.
func (s IntentStatus) IsTerminal() bool {
	switch s {
	case IntentStatusSucceeded, IntentStatusFailed, IntentStatusCancelled:
		return true
	}
	return false
}

// AttemptStatus is the connector-facing status of a payment attempt. It
// evolves independently from the intent status; flows advance the two in
// lockstep according to their own transition rules.
type AttemptStatus string

const (
	AttemptStatusStarted               AttemptStatus = "started"
	AttemptStatusAuthenticationPending AttemptStatus = "authentication_pending"
	AttemptStatusAuthorizing           AttemptStatus = "authorizing"
	AttemptStatusAuthorized            AttemptStatus = "authorized"
	AttemptStatusCharged               AttemptStatus = "charged"
	AttemptStatusCaptureInitiated      AttemptStatus = "capture_initiated"
	AttemptStatusVoidInitiated         AttemptStatus = "void_initiated"
	AttemptStatusVoided                AttemptStatus = "voided"
	AttemptStatusVoidFailed            AttemptStatus = "void_failed"
	AttemptStatusPending               AttemptStatus = "pending"
	AttemptStatusFailure               AttemptStatus = "failure"
)

func (s AttemptStatus) String() string {
	return string(s)
}

func (s AttemptStatus) IsTerminal() bool {
	switch s {
	case AttemptStatusCharged, AttemptStatusVoided, AttemptStatusFailure:
		return true
	}
	return false
}

// PayoutStatus tracks both payouts and payout attempts.
type PayoutStatus string

const (
	PayoutStatusRequiresCreation    PayoutStatus = "requires_creation"
	PayoutStatusRequiresFulfillment PayoutStatus = "requires_fulfillment"
	PayoutStatusInitiated           PayoutStatus = "initiated"
	PayoutStatusPending             PayoutStatus = "pending"
	PayoutStatusSuccess             PayoutStatus = "success"
	PayoutStatusFailed              PayoutStatus = "failed"
	PayoutStatusCancelled           PayoutStatus = "cancelled"
	PayoutStatusExpired             PayoutStatus = "expired"
	PayoutStatusReversed            PayoutStatus = "reversed"
)

func (s PayoutStatus) String() string {
	return string(s)
}

func (s PayoutStatus) IsTerminal() bool {
	switch s {
	case PayoutStatusSuccess, PayoutStatusFailed, PayoutStatusCancelled,
		PayoutStatusExpired, PayoutStatusReversed:
		return true
	}
	return false
}

// PayoutType is the disbursement rail used by a payout.
type PayoutType string

const (
	PayoutTypeCard   PayoutType = "card"
	PayoutTypeBank   PayoutType = "bank"
	PayoutTypeWallet PayoutType = "wallet"
)

func (t PayoutType) String() string {
	return string(t)
}
