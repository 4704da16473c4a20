package workflows_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/operations"
	"github.com/goliatone/go-payments/scheduler"
	"github.com/goliatone/go-payments/storage/memory"
	"github.com/goliatone/go-payments/workflows"
)

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.PutMerchant(domain.MerchantAccount{
		ID:            "m1",
		Name:          "Test Merchant",
		StorageScheme: domain.StorageSchemePostgresOnly,
	}, domain.MerchantKeyStore{MerchantID: "m1", Key: []byte("k")})
	store.PutProfile(domain.Profile{ID: "profile_1", MerchantID: "m1"})
	return store
}

func testDeps(store *memory.Store) operations.Deps {
	return operations.Deps{
		Payments:  store,
		Payouts:   store,
		Addresses: store,
		Profiles:  store,
		Config:    store,
	}
}

func TestPayoutRetrieveWorkflowSyncsThroughThePipeline(t *testing.T) {
	store := seedStore(t)
	store.PutPayout(domain.Payout{
		ID:                  "po_1",
		MerchantID:          "m1",
		Status:              domain.PayoutStatusPending,
		DestinationCurrency: "USD",
		PayoutType:          domain.PayoutTypeBank,
		ProfileID:           "profile_1",
		AttemptCount:        1,
	})
	store.PutPayoutAttempt(domain.PayoutAttempt{
		ID:         domain.PayoutAttemptID("po_1", 1),
		PayoutID:   "po_1",
		MerchantID: "m1",
		Status:     domain.PayoutStatusPending,
		Connector:  "wise",
	})

	success := domain.PayoutStatusSuccess
	hook := func(_ context.Context, data *domain.PayoutData) (*domain.PayoutData, error) {
		data.NextStatus = &success
		data.ConnectorPayoutID = "conn_po_1"
		return data, nil
	}
	wf := workflows.NewPayoutRetrieveWorkflow(store, operations.NewPayoutRetrieve(testDeps(store)), hook, nil)

	now := time.Now().UTC()
	job, err := scheduler.EnqueuePayoutRetrieve(context.Background(), store, "m1", "po_1", now)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	consumer := scheduler.NewConsumer(store, scheduler.WithErrorHandler(func(error) {}))
	if err := consumer.Register(wf); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := consumer.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	stored, ok := store.Job(job.ID)
	if !ok || stored.Status != scheduler.JobStatusFinished {
		t.Fatalf("expected finished job, got %+v", stored)
	}
	payout, err := store.FindPayout(context.Background(), "m1", "po_1")
	if err != nil {
		t.Fatalf("find payout: %v", err)
	}
	if payout.Status != domain.PayoutStatusSuccess {
		t.Fatalf("expected synced status, got %s", payout.Status)
	}
	attempt, err := store.FindPayoutAttempt(context.Background(), "m1", payout.ActiveAttemptID())
	if err != nil {
		t.Fatalf("find attempt: %v", err)
	}
	if attempt.ConnectorPayoutID != "conn_po_1" {
		t.Fatalf("expected connector reference, got %q", attempt.ConnectorPayoutID)
	}
}

func TestPaymentCancelWorkflowVoidsThroughThePipeline(t *testing.T) {
	store := seedStore(t)
	store.PutPaymentIntent(domain.PaymentIntent{
		ID:              "pay_1",
		MerchantID:      "m1",
		Status:          domain.IntentStatusRequiresConfirmation,
		Amount:          1000,
		Currency:        "USD",
		ProfileID:       "profile_1",
		ActiveAttemptID: "pay_1_1",
	})
	store.PutPaymentAttempt(domain.PaymentAttempt{
		ID:         "pay_1_1",
		PaymentID:  "pay_1",
		MerchantID: "m1",
		Status:     domain.AttemptStatusAuthorized,
		Amount:     1000,
		Currency:   "USD",
	})

	wf := workflows.NewPaymentCancelWorkflow(store, operations.NewCancel(testDeps(store)), nil, nil)

	job, err := scheduler.EnqueuePaymentCancel(context.Background(), store,
		"m1", "pay_1", "authorization expired", time.Now().UTC())
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	consumer := scheduler.NewConsumer(store, scheduler.WithErrorHandler(func(error) {}))
	if err := consumer.Register(wf); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := consumer.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	stored, ok := store.Job(job.ID)
	if !ok || stored.Status != scheduler.JobStatusFinished {
		t.Fatalf("expected finished job, got %+v", stored)
	}
	intent, err := store.FindPaymentIntent(context.Background(), "m1", "pay_1")
	if err != nil {
		t.Fatalf("find intent: %v", err)
	}
	if intent.Status != domain.IntentStatusCancelled {
		t.Fatalf("expected cancelled intent, got %s", intent.Status)
	}
	attempt, err := store.FindPaymentAttempt(context.Background(), "m1", "pay_1_1")
	if err != nil {
		t.Fatalf("find attempt: %v", err)
	}
	if attempt.Status != domain.AttemptStatusVoided {
		t.Fatalf("expected voided attempt, got %s", attempt.Status)
	}
	if attempt.CancellationReason != "authorization expired" {
		t.Fatalf("expected reason carried through the job, got %q", attempt.CancellationReason)
	}
}

func TestWorkflowGuardRejectionConsumesRetryBudget(t *testing.T) {
	store := seedStore(t)
	store.PutPaymentIntent(domain.PaymentIntent{
		ID:              "pay_1",
		MerchantID:      "m1",
		Status:          domain.IntentStatusSucceeded,
		ProfileID:       "profile_1",
		ActiveAttemptID: "pay_1_1",
	})

	wf := workflows.NewPaymentCancelWorkflow(store, operations.NewCancel(testDeps(store)), nil, nil)

	job, err := scheduler.EnqueuePaymentCancel(context.Background(), store,
		"m1", "pay_1", "", time.Now().UTC())
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	consumer := scheduler.NewConsumer(store,
		scheduler.WithErrorHandler(func(error) {}),
		scheduler.WithDefaultRetryPolicy(scheduler.RetryPolicy{
			MaxRetries: 0,
			Strategy:   scheduler.NoDelayStrategy{},
		}),
	)
	if err := consumer.Register(wf); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := consumer.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	// a guard rejection is an ordinary failure; with a zero budget the job
	// fails permanently instead of spinning forever
	stored, _ := store.Job(job.ID)
	if stored.Status != scheduler.JobStatusFailed {
		t.Fatalf("expected failed job, got %s", stored.Status)
	}
	intent, _ := store.FindPaymentIntent(context.Background(), "m1", "pay_1")
	if intent.Status != domain.IntentStatusSucceeded {
		t.Fatalf("guard rejection must not write, got %s", intent.Status)
	}
}

func TestWorkflowUnknownMerchantFailsExecution(t *testing.T) {
	store := seedStore(t)
	wf := workflows.NewPayoutRetrieveWorkflow(store, operations.NewPayoutRetrieve(testDeps(store)), nil, nil)

	job, err := scheduler.NewJob(scheduler.JobKindPayoutRetrieve, scheduler.PayoutRetrieveTracking{
		MerchantID: "ghost",
		PayoutID:   "po_1",
	}, time.Now().UTC())
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := wf.Execute(context.Background(), job); err == nil {
		t.Fatal("expected merchant resolution failure")
	}
}
