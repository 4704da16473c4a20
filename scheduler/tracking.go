package scheduler

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	apperrors "github.com/goliatone/go-errors"
)

const (
	// ErrCodeTrackingInvalid marks an undecodable or mismatched tracking
	// payload. Jobs failing with it are marked errored, never retried.
	ErrCodeTrackingInvalid = "JOB_TRACKING_INVALID"
	ErrCodeUnknownJobKind  = "JOB_KIND_UNKNOWN"
)

// PayoutRetrieveTracking reconstructs a payout retrieve request.
type PayoutRetrieveTracking struct {
	MerchantID string `json:"merchant_id"`
	PayoutID   string `json:"payout_id"`
}

// PaymentCancelTracking reconstructs a deferred cancel request.
type PaymentCancelTracking struct {
	MerchantID         string `json:"merchant_id"`
	PaymentID          string `json:"payment_id"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

// TrackingData is the tagged union of job payloads. Exactly one variant is
// populated, selected by the job kind.
type TrackingData struct {
	PayoutRetrieve *PayoutRetrieveTracking
	PaymentCancel  *PaymentCancelTracking
}

// MerchantID returns the merchant embedded in whichever variant is set.
func (t TrackingData) MerchantID() string {
	switch {
	case t.PayoutRetrieve != nil:
		return t.PayoutRetrieve.MerchantID
	case t.PaymentCancel != nil:
		return t.PaymentCancel.MerchantID
	}
	return ""
}

// DecodeTracking deserializes a job's payload through an exhaustive match
// on the job kind. Any failure here is fatal for the job.
func DecodeTracking(job Job) (TrackingData, error) {
	switch job.Kind {
	case JobKindPayoutRetrieve:
		var t PayoutRetrieveTracking
		if err := decodeTrackingPayload(job, &t); err != nil {
			return TrackingData{}, err
		}
		return TrackingData{PayoutRetrieve: &t}, nil
	case JobKindPaymentCancel:
		var t PaymentCancelTracking
		if err := decodeTrackingPayload(job, &t); err != nil {
			return TrackingData{}, err
		}
		return TrackingData{PaymentCancel: &t}, nil
	default:
		return TrackingData{}, apperrors.New(
			fmt.Sprintf("no tracking payload registered for job kind %q", job.Kind),
			apperrors.CategoryBadInput,
		).WithTextCode(ErrCodeUnknownJobKind)
	}
}

func decodeTrackingPayload(job Job, target any) error {
	if err := json.Unmarshal(job.TrackingData, target); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryBadInput,
			fmt.Sprintf("decode tracking data for job %s (%s)", job.ID, job.Kind)).
			WithTextCode(ErrCodeTrackingInvalid).
			WithMetadata(map[string]any{
				"job_id":   job.ID,
				"job_kind": string(job.Kind),
			})
	}
	return nil
}

// IsFatal reports whether an error must fail the job immediately instead of
// consuming retry budget.
func IsFatal(err error) bool {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode == ErrCodeTrackingInvalid || ge.TextCode == ErrCodeUnknownJobKind
	}
	return false
}
