// Package storage declares the collaborator contracts the operation
// pipeline consumes. Implementations live in storage/memory and
// storage/postgres; the core never talks to a database directly.
package storage

import (
	"context"

	"github.com/goliatone/go-payments/domain"
)

// Predicate scopes a conditional write. MerchantID and EntityID are always
// required so a lost race against a concurrent writer manifests as not
// found or a no-op rather than corrupting another merchant's row. Status,
// when non-empty, folds an expected-status precondition into the write.
type Predicate struct {
	MerchantID string
	EntityID   string
	Status     string
}

// PaymentStore persists intents and attempts.
type PaymentStore interface {
	FindPaymentIntent(ctx context.Context, merchantID, paymentID string) (domain.PaymentIntent, error)
	UpdatePaymentIntent(ctx context.Context, pred Predicate, update domain.IntentUpdate) (domain.PaymentIntent, error)
	FindPaymentAttempt(ctx context.Context, merchantID, attemptID string) (domain.PaymentAttempt, error)
	UpdatePaymentAttempt(ctx context.Context, pred Predicate, update domain.AttemptUpdate) (domain.PaymentAttempt, error)
}

// PayoutFilters is the facet set backing the payout list filters.
type PayoutFilters struct {
	Connectors  []string
	Currencies  []string
	Statuses    []domain.PayoutStatus
	PayoutTypes []domain.PayoutType
}

// PayoutStore persists payouts and payout attempts.
type PayoutStore interface {
	FindPayout(ctx context.Context, merchantID, payoutID string) (domain.Payout, error)
	UpdatePayout(ctx context.Context, pred Predicate, update domain.PayoutUpdate) (domain.Payout, error)
	FindPayoutAttempt(ctx context.Context, merchantID, attemptID string) (domain.PayoutAttempt, error)
	UpdatePayoutAttempt(ctx context.Context, pred Predicate, update domain.PayoutAttemptUpdate) (domain.PayoutAttempt, error)
	ListPayouts(ctx context.Context, merchantID string, limit int) ([]domain.Payout, error)

	// GetPayoutFilters computes distinct connector, currency and payout
	// type facets restricted to each payout's current attempt. The status
	// facet is deduplicated from the already-loaded payouts instead of
	// issuing a further query.
	GetPayoutFilters(ctx context.Context, merchantID string, payouts []domain.Payout) (PayoutFilters, error)
}

// AddressStore resolves stored addresses, scoped by merchant and payment.
type AddressStore interface {
	FindAddress(ctx context.Context, merchantID, paymentID, addressID string) (domain.Address, error)
}

// ProfileStore resolves read-only merchant sub-configuration.
type ProfileStore interface {
	FindProfile(ctx context.Context, profileID string) (domain.Profile, error)
}

// ConfigStore persists caller supplied connector-credential overrides keyed
// by merchant and creds identifier.
type ConfigStore interface {
	UpsertConnectorCreds(ctx context.Context, merchantID, credsIdentifier string, creds []byte) error
}

// MerchantProvider resolves account and key material from a merchant id.
// The resolved context is constant for the duration of one pipeline
// invocation.
type MerchantProvider interface {
	MerchantContext(ctx context.Context, merchantID string) (*domain.MerchantContext, error)
}

// Backend aggregates every persistence contract a fully wired service
// needs. Individual components depend on the narrow interfaces above.
type Backend interface {
	PaymentStore
	PayoutStore
	AddressStore
	ProfileStore
	ConfigStore
	MerchantProvider
}
