// Package scheduler drives asynchronous continuation of transaction flows.
// A background job records which flow to re-enter and the identifiers
// needed to rebuild its request; a polling consumer executes due jobs and
// applies each kind's retry policy on failure.
package scheduler

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// JobKind tags a background job with the workflow that consumes it.
type JobKind string

const (
	JobKindPayoutRetrieve JobKind = "PAYOUT_RETRIEVE"
	JobKindPaymentCancel  JobKind = "PAYMENT_CANCEL"
)

// JobStatus is the lifecycle status of a background job. Finished and
// Failed are terminal.
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusFinished JobStatus = "finished"
	JobStatusFailed   JobStatus = "failed"
)

// IsTerminal reports whether the scheduler will never pick the job again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusFinished || s == JobStatusFailed
}

// Job is a persisted background job record.
type Job struct {
	ID           string
	Kind         JobKind
	TrackingData json.RawMessage
	ScheduleTime time.Time
	RetryCount   int
	Status       JobStatus
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// NewJob builds a pending job with a serialized tracking payload.
func NewJob(kind JobKind, payload any, at time.Time) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, apperrors.Wrap(err, apperrors.CategoryBadInput, "serialize job tracking data").
			WithTextCode(ErrCodeTrackingInvalid)
	}
	now := time.Now().UTC()
	return Job{
		ID:           uuid.NewString(),
		Kind:         kind,
		TrackingData: raw,
		ScheduleTime: at,
		Status:       JobStatusPending,
		CreatedAt:    now,
		ModifiedAt:   now,
	}, nil
}

// JobStore is the persistence contract for background jobs.
type JobStore interface {
	Enqueue(ctx context.Context, job Job) (Job, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]Job, error)
	UpdateStatus(ctx context.Context, id string, status JobStatus) error
	Requeue(ctx context.Context, id string, at time.Time, retryCount int) error
}

// EnqueuePayoutRetrieve schedules a payout retrieve continuation.
func EnqueuePayoutRetrieve(ctx context.Context, store JobStore, merchantID, payoutID string, at time.Time) (Job, error) {
	job, err := NewJob(JobKindPayoutRetrieve, PayoutRetrieveTracking{
		MerchantID: merchantID,
		PayoutID:   payoutID,
	}, at)
	if err != nil {
		return Job{}, err
	}
	return store.Enqueue(ctx, job)
}

// EnqueuePaymentCancel schedules a deferred cancellation, used to auto-void
// authorizations that were never captured.
func EnqueuePaymentCancel(ctx context.Context, store JobStore, merchantID, paymentID, reason string, at time.Time) (Job, error) {
	job, err := NewJob(JobKindPaymentCancel, PaymentCancelTracking{
		MerchantID:         merchantID,
		PaymentID:          paymentID,
		CancellationReason: reason,
	}, at)
	if err != nil {
		return Job{}, err
	}
	return store.Enqueue(ctx, job)
}
