// Package memory is the in-memory storage backend used by tests and local
// development. It honors the same predicate and no-op semantics as the
// Postgres backend: every access is merchant scoped, updates are
// conditional, and an empty change set surfaces the no-fields-to-update
// signal.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	payments "github.com/goliatone/go-payments"
	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/scheduler"
	"github.com/goliatone/go-payments/storage"
)

// Store keeps every entity in merchant-scoped maps guarded by one mutex.
type Store struct {
	mu sync.RWMutex

	merchants map[string]domain.MerchantAccount
	keys      map[string]domain.MerchantKeyStore
	profiles  map[string]domain.Profile
	addresses map[string]domain.Address

	intents        map[string]domain.PaymentIntent
	attempts       map[string]domain.PaymentAttempt
	payouts        map[string]domain.Payout
	payoutAttempts map[string]domain.PayoutAttempt

	connectorCreds map[string][]byte
	jobs           map[string]scheduler.Job
}

// NewStore creates an empty in-memory backend.
func NewStore() *Store {
	return &Store{
		merchants:      make(map[string]domain.MerchantAccount),
		keys:           make(map[string]domain.MerchantKeyStore),
		profiles:       make(map[string]domain.Profile),
		addresses:      make(map[string]domain.Address),
		intents:        make(map[string]domain.PaymentIntent),
		attempts:       make(map[string]domain.PaymentAttempt),
		payouts:        make(map[string]domain.Payout),
		payoutAttempts: make(map[string]domain.PayoutAttempt),
		connectorCreds: make(map[string][]byte),
		jobs:           make(map[string]scheduler.Job),
	}
}

func scopedKey(merchantID, id string) string {
	return merchantID + "/" + id
}

// Seed helpers. Rows are stored under merchant-scoped keys so id collisions
// across merchants stay isolated.

func (s *Store) PutMerchant(account domain.MerchantAccount, keyStore domain.MerchantKeyStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merchants[account.ID] = account
	s.keys[account.ID] = keyStore
}

func (s *Store) PutProfile(profile domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
}

func (s *Store) PutAddress(address domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[scopedKey(address.MerchantID, address.ID)] = address
}

func (s *Store) PutPaymentIntent(intent domain.PaymentIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[scopedKey(intent.MerchantID, intent.ID)] = intent
}

func (s *Store) PutPaymentAttempt(attempt domain.PaymentAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[scopedKey(attempt.MerchantID, attempt.ID)] = attempt
}

func (s *Store) PutPayout(payout domain.Payout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payouts[scopedKey(payout.MerchantID, payout.ID)] = payout
}

func (s *Store) PutPayoutAttempt(attempt domain.PayoutAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payoutAttempts[scopedKey(attempt.MerchantID, attempt.ID)] = attempt
}

// MerchantProvider

func (s *Store) MerchantContext(_ context.Context, merchantID string) (*domain.MerchantContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.merchants[merchantID]
	if !ok {
		return nil, payments.ErrMerchantNotFound.Clone().WithMetadata(map[string]any{
			"merchant_id": merchantID,
		})
	}
	return &domain.MerchantContext{
		Account:  account,
		KeyStore: s.keys[merchantID],
	}, nil
}

// PaymentStore

func (s *Store) FindPaymentIntent(_ context.Context, merchantID, paymentID string) (domain.PaymentIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	intent, ok := s.intents[scopedKey(merchantID, paymentID)]
	if !ok {
		return domain.PaymentIntent{}, payments.ErrPaymentNotFound.Clone()
	}
	return intent, nil
}

func (s *Store) UpdatePaymentIntent(_ context.Context, pred storage.Predicate, update domain.IntentUpdate) (domain.PaymentIntent, error) {
	if len(update.Columns()) == 0 {
		return domain.PaymentIntent{}, payments.ErrNoFieldsToUpdate.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopedKey(pred.MerchantID, pred.EntityID)
	intent, ok := s.intents[key]
	if !ok || (pred.Status != "" && intent.Status.String() != pred.Status) {
		return domain.PaymentIntent{}, payments.ErrPaymentNotFound.Clone()
	}
	intent = update.Apply(intent)
	intent.ModifiedAt = time.Now().UTC()
	s.intents[key] = intent
	return intent, nil
}

func (s *Store) FindPaymentAttempt(_ context.Context, merchantID, attemptID string) (domain.PaymentAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[scopedKey(merchantID, attemptID)]
	if !ok {
		return domain.PaymentAttempt{}, payments.ErrPaymentNotFound.Clone()
	}
	return attempt, nil
}

func (s *Store) UpdatePaymentAttempt(_ context.Context, pred storage.Predicate, update domain.AttemptUpdate) (domain.PaymentAttempt, error) {
	if len(update.Columns()) == 0 {
		return domain.PaymentAttempt{}, payments.ErrNoFieldsToUpdate.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopedKey(pred.MerchantID, pred.EntityID)
	attempt, ok := s.attempts[key]
	if !ok || (pred.Status != "" && attempt.Status.String() != pred.Status) {
		return domain.PaymentAttempt{}, payments.ErrPaymentNotFound.Clone()
	}
	attempt = update.Apply(attempt)
	attempt.ModifiedAt = time.Now().UTC()
	s.attempts[key] = attempt
	return attempt, nil
}

// PayoutStore

func (s *Store) FindPayout(_ context.Context, merchantID, payoutID string) (domain.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payout, ok := s.payouts[scopedKey(merchantID, payoutID)]
	if !ok {
		return domain.Payout{}, payments.ErrPayoutNotFound.Clone()
	}
	return payout, nil
}

func (s *Store) UpdatePayout(_ context.Context, pred storage.Predicate, update domain.PayoutUpdate) (domain.Payout, error) {
	if len(update.Columns()) == 0 {
		return domain.Payout{}, payments.ErrNoFieldsToUpdate.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopedKey(pred.MerchantID, pred.EntityID)
	payout, ok := s.payouts[key]
	if !ok || (pred.Status != "" && payout.Status.String() != pred.Status) {
		return domain.Payout{}, payments.ErrPayoutNotFound.Clone()
	}
	payout = update.Apply(payout)
	payout.ModifiedAt = time.Now().UTC()
	s.payouts[key] = payout
	return payout, nil
}

func (s *Store) FindPayoutAttempt(_ context.Context, merchantID, attemptID string) (domain.PayoutAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.payoutAttempts[scopedKey(merchantID, attemptID)]
	if !ok {
		return domain.PayoutAttempt{}, payments.ErrPayoutNotFound.Clone()
	}
	return attempt, nil
}

func (s *Store) UpdatePayoutAttempt(_ context.Context, pred storage.Predicate, update domain.PayoutAttemptUpdate) (domain.PayoutAttempt, error) {
	if len(update.Columns()) == 0 {
		return domain.PayoutAttempt{}, payments.ErrNoFieldsToUpdate.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopedKey(pred.MerchantID, pred.EntityID)
	attempt, ok := s.payoutAttempts[key]
	if !ok || (pred.Status != "" && attempt.Status.String() != pred.Status) {
		return domain.PayoutAttempt{}, payments.ErrPayoutNotFound.Clone()
	}
	attempt = update.Apply(attempt)
	attempt.ModifiedAt = time.Now().UTC()
	s.payoutAttempts[key] = attempt
	return attempt, nil
}

func (s *Store) ListPayouts(_ context.Context, merchantID string, limit int) ([]domain.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Payout
	for _, payout := range s.payouts {
		if payout.MerchantID == merchantID {
			out = append(out, payout)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetPayoutFilters(_ context.Context, merchantID string, payouts []domain.Payout) (storage.PayoutFilters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	connectors := map[string]struct{}{}
	currencies := map[string]struct{}{}
	statuses := map[domain.PayoutStatus]struct{}{}
	payoutTypes := map[domain.PayoutType]struct{}{}

	for _, payout := range payouts {
		if payout.MerchantID != merchantID {
			continue
		}
		// connector facet comes from the current attempt row only
		attempt, ok := s.payoutAttempts[scopedKey(merchantID, payout.ActiveAttemptID())]
		if ok && attempt.Connector != "" {
			connectors[attempt.Connector] = struct{}{}
		}
		if payout.DestinationCurrency != "" {
			currencies[payout.DestinationCurrency] = struct{}{}
		}
		if payout.PayoutType != "" {
			payoutTypes[payout.PayoutType] = struct{}{}
		}
		statuses[payout.Status] = struct{}{}
	}

	filters := storage.PayoutFilters{}
	for c := range connectors {
		filters.Connectors = append(filters.Connectors, c)
	}
	for c := range currencies {
		filters.Currencies = append(filters.Currencies, c)
	}
	for st := range statuses {
		filters.Statuses = append(filters.Statuses, st)
	}
	for t := range payoutTypes {
		filters.PayoutTypes = append(filters.PayoutTypes, t)
	}
	sort.Strings(filters.Connectors)
	sort.Strings(filters.Currencies)
	sort.Slice(filters.Statuses, func(i, j int) bool { return filters.Statuses[i] < filters.Statuses[j] })
	sort.Slice(filters.PayoutTypes, func(i, j int) bool { return filters.PayoutTypes[i] < filters.PayoutTypes[j] })
	return filters, nil
}

// AddressStore

func (s *Store) FindAddress(_ context.Context, merchantID, paymentID, addressID string) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	address, ok := s.addresses[scopedKey(merchantID, addressID)]
	if !ok || (paymentID != "" && address.PaymentID != "" && address.PaymentID != paymentID) {
		return domain.Address{}, payments.ErrAddressNotFound.Clone()
	}
	return address, nil
}

// ProfileStore

func (s *Store) FindProfile(_ context.Context, profileID string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[profileID]
	if !ok {
		return domain.Profile{}, payments.ErrProfileNotFound.Clone()
	}
	return profile, nil
}

// ConfigStore

func (s *Store) UpsertConnectorCreds(_ context.Context, merchantID, credsIdentifier string, creds []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectorCreds[scopedKey(merchantID, credsIdentifier)] = creds
	return nil
}

// ConnectorCreds returns a stored override, used by tests.
func (s *Store) ConnectorCreds(merchantID, credsIdentifier string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.connectorCreds[scopedKey(merchantID, credsIdentifier)]
	return creds, ok
}

// JobStore

func (s *Store) Enqueue(_ context.Context, job scheduler.Job) (scheduler.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return job, nil
}

func (s *Store) FindDue(_ context.Context, now time.Time, limit int) ([]scheduler.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []scheduler.Job
	for _, job := range s.jobs {
		if job.Status == scheduler.JobStatusPending && !job.ScheduleTime.After(now) {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduleTime.Before(due[j].ScheduleTime) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, status scheduler.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return payments.NewStorageOther("job not found: " + id)
	}
	job.Status = status
	job.ModifiedAt = time.Now().UTC()
	s.jobs[id] = job
	return nil
}

func (s *Store) Requeue(_ context.Context, id string, at time.Time, retryCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return payments.NewStorageOther("job not found: " + id)
	}
	job.Status = scheduler.JobStatusPending
	job.ScheduleTime = at
	job.RetryCount = retryCount
	job.ModifiedAt = time.Now().UTC()
	s.jobs[id] = job
	return nil
}

// Job returns a job by id, used by tests.
func (s *Store) Job(id string) (scheduler.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}
