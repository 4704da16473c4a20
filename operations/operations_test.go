package operations_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-payments/audit"
	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/operations"
	"github.com/goliatone/go-payments/storage/memory"
)

const (
	testMerchant = "merchant_1"
	testProfile  = "profile_1"
)

// recordingSink captures emitted audit events synchronously.
type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Emit(_ context.Context, event audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) all() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

type fixture struct {
	store *memory.Store
	sink  *recordingSink
	deps  operations.Deps
	mctx  *domain.MerchantContext
}

func newFixture() *fixture {
	store := memory.NewStore()
	sink := &recordingSink{}

	store.PutMerchant(domain.MerchantAccount{
		ID:            testMerchant,
		Name:          "Test Merchant",
		StorageScheme: domain.StorageSchemePostgresOnly,
	}, domain.MerchantKeyStore{MerchantID: testMerchant, Key: []byte("k")})
	store.PutProfile(domain.Profile{
		ID:         testProfile,
		MerchantID: testMerchant,
		Name:       "default",
	})

	return &fixture{
		store: store,
		sink:  sink,
		deps: operations.Deps{
			Payments:  store,
			Payouts:   store,
			Addresses: store,
			Profiles:  store,
			Config:    store,
			Audit:     sink,
		},
		mctx: &domain.MerchantContext{
			Account: domain.MerchantAccount{
				ID:            testMerchant,
				StorageScheme: domain.StorageSchemePostgresOnly,
			},
		},
	}
}

// seedPayment stores an intent with one active attempt in the given statuses.
func (f *fixture) seedPayment(paymentID string, intentStatus domain.IntentStatus, attemptStatus domain.AttemptStatus) {
	attemptID := paymentID + "_1"
	f.store.PutPaymentIntent(domain.PaymentIntent{
		ID:              paymentID,
		MerchantID:      testMerchant,
		Status:          intentStatus,
		Amount:          1000,
		Currency:        "USD",
		ProfileID:       testProfile,
		ActiveAttemptID: attemptID,
	})
	f.store.PutPaymentAttempt(domain.PaymentAttempt{
		ID:         attemptID,
		PaymentID:  paymentID,
		MerchantID: testMerchant,
		Status:     attemptStatus,
		Amount:     1000,
		Currency:   "USD",
	})
}

// seedPayout stores a payout with its current attempt.
func (f *fixture) seedPayout(payoutID string, status domain.PayoutStatus, connector string) {
	f.store.PutPayout(domain.Payout{
		ID:                  payoutID,
		MerchantID:          testMerchant,
		Status:              status,
		Amount:              5000,
		DestinationCurrency: "USD",
		SourceCurrency:      "USD",
		PayoutType:          domain.PayoutTypeBank,
		ProfileID:           testProfile,
		AttemptCount:        1,
	})
	f.store.PutPayoutAttempt(domain.PayoutAttempt{
		ID:         domain.PayoutAttemptID(payoutID, 1),
		PayoutID:   payoutID,
		MerchantID: testMerchant,
		Status:     status,
		Connector:  connector,
	})
}
