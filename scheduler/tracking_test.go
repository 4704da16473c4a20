package scheduler

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeTrackingByKind(t *testing.T) {
	job, err := NewJob(JobKindPayoutRetrieve, PayoutRetrieveTracking{
		MerchantID: "m1",
		PayoutID:   "po_1",
	}, time.Now())
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	tracking, err := DecodeTracking(job)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tracking.PayoutRetrieve == nil {
		t.Fatal("expected payout retrieve variant")
	}
	if tracking.PaymentCancel != nil {
		t.Fatal("exactly one variant may be populated")
	}
	if tracking.MerchantID() != "m1" {
		t.Fatalf("expected merchant from variant, got %q", tracking.MerchantID())
	}
	if tracking.PayoutRetrieve.PayoutID != "po_1" {
		t.Fatalf("expected payout id round-tripped, got %q", tracking.PayoutRetrieve.PayoutID)
	}
}

func TestDecodeTrackingCancelVariant(t *testing.T) {
	job, err := NewJob(JobKindPaymentCancel, PaymentCancelTracking{
		MerchantID:         "m1",
		PaymentID:          "pay_1",
		CancellationReason: "authorization expired",
	}, time.Now())
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	tracking, err := DecodeTracking(job)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tracking.PaymentCancel == nil || tracking.PaymentCancel.CancellationReason != "authorization expired" {
		t.Fatalf("unexpected cancel tracking: %+v", tracking.PaymentCancel)
	}
}

func TestDecodeTrackingMalformedPayloadIsFatal(t *testing.T) {
	job := Job{
		ID:           "job_1",
		Kind:         JobKindPayoutRetrieve,
		TrackingData: json.RawMessage(`{broken`),
	}

	_, err := DecodeTracking(job)
	if err == nil {
		t.Fatal("expected decode failure")
	}
	if !IsFatal(err) {
		t.Fatalf("a decode failure must be fatal, got %v", err)
	}
}

func TestDecodeTrackingUnknownKindIsFatal(t *testing.T) {
	job := Job{
		ID:           "job_1",
		Kind:         JobKind("MYSTERY"),
		TrackingData: json.RawMessage(`{}`),
	}

	_, err := DecodeTracking(job)
	if err == nil {
		t.Fatal("expected unknown kind failure")
	}
	if !IsFatal(err) {
		t.Fatalf("an unknown kind must be fatal, got %v", err)
	}
}

func TestIsFatalIgnoresOrdinaryErrors(t *testing.T) {
	if IsFatal(errors.New("connector timeout")) {
		t.Fatal("ordinary errors must consume retry budget, not fail the job")
	}
}

func TestJobStatusTerminality(t *testing.T) {
	for status, terminal := range map[JobStatus]bool{
		JobStatusPending:  false,
		JobStatusRunning:  false,
		JobStatusFinished: true,
		JobStatusFailed:   true,
	} {
		if status.IsTerminal() != terminal {
			t.Fatalf("%s: expected terminal=%v", status, terminal)
		}
	}
}
