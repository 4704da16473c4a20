package operations

import (
	"context"

	payments "github.com/goliatone/go-payments"
	"github.com/goliatone/go-payments/audit"
	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/storage"
)

// CaptureRequest asks for an authorized payment to be captured. A zero
// AmountToCapture captures the full authorized amount.
type CaptureRequest struct {
	PaymentID       string
	AmountToCapture int64
}

// captureDisallowedStatuses is the capture flow's guard set. It differs
// from the cancel guard on purpose: each flow declares its own rules.
var captureDisallowedStatuses = []domain.IntentStatus{
	domain.IntentStatusSucceeded,
	domain.IntentStatusFailed,
	domain.IntentStatusCancelled,
	domain.IntentStatusProcessing,
	domain.IntentStatusRequiresPaymentMethod,
	domain.IntentStatusRequiresConfirmation,
	domain.IntentStatusRequiresCustomerAction,
	domain.IntentStatusRequiresMerchantAction,
}

// Capture hands an authorized attempt to the connector for settlement. The
// attempt advances to capture_initiated; the intent stays at
// requires_capture until the connector's confirmation arrives through the
// sync path.
type Capture struct {
	deps Deps
}

// NewCapture constructs the capture flow.
func NewCapture(deps Deps) *Capture {
	return &Capture{deps: deps.normalize()}
}

func (c *Capture) Name() string { return "PaymentCapture" }

func (c *Capture) ValidateRequest(req CaptureRequest, mctx *domain.MerchantContext) (payments.ValidateResult, error) {
	if req.PaymentID == "" {
		return payments.ValidateResult{}, payments.NewInvalidRequest("payment_id", "is required")
	}
	if req.AmountToCapture < 0 {
		return payments.ValidateResult{}, payments.NewInvalidRequest("amount_to_capture", "must not be negative")
	}
	return payments.ValidateResult{
		MerchantID:    mctx.MerchantID(),
		EntityID:      req.PaymentID,
		StorageScheme: mctx.Scheme(),
		Requeue:       false,
	}, nil
}

func (c *Capture) GetTrackers(ctx context.Context, res payments.ValidateResult, req CaptureRequest, mctx *domain.MerchantContext) (*domain.PaymentData, error) {
	intent, err := c.deps.Payments.FindPaymentIntent(ctx, res.MerchantID, res.EntityID)
	if err != nil {
		return nil, err
	}

	if err := validateStatusAgainstDisallowed(intent.Status, captureDisallowedStatuses, "capture"); err != nil {
		return nil, err
	}

	attempt, err := c.deps.Payments.FindPaymentAttempt(ctx, res.MerchantID, intent.ActiveAttemptID)
	if err != nil {
		return nil, err
	}

	amountToCapture := req.AmountToCapture
	if amountToCapture == 0 {
		amountToCapture = attempt.TotalAmount()
	}
	if amountToCapture > attempt.TotalAmount() {
		return nil, payments.NewInvalidRequest("amount_to_capture", "exceeds the authorized amount")
	}
	attempt.AmountToCapture = amountToCapture

	profile, err := c.deps.Profiles.FindProfile(ctx, intent.ProfileID)
	if err != nil {
		return nil, err
	}

	return &domain.PaymentData{
		Intent:   intent,
		Attempt:  attempt,
		Currency: attempt.Currency,
		Amount:   attempt.TotalAmount(),
		Profile:  profile,
	}, nil
}

func (c *Capture) UpdateTrackers(ctx context.Context, data *domain.PaymentData, mctx *domain.MerchantContext) (*domain.PaymentData, error) {
	attempt, err := c.deps.Payments.UpdatePaymentAttempt(ctx, storage.Predicate{
		MerchantID: mctx.MerchantID(),
		EntityID:   data.Attempt.ID,
	}, domain.AttemptCaptureUpdate{
		Status:          domain.AttemptStatusCaptureInitiated,
		AmountToCapture: data.Attempt.AmountToCapture,
		UpdatedBy:       mctx.Scheme().String(),
	})
	if payments.IsNoFieldsToUpdate(err) {
		attempt, err = data.Attempt, nil
	}
	if err != nil {
		return nil, err
	}
	data.Attempt = attempt

	c.deps.Audit.Emit(ctx, audit.NewEvent(audit.EventPaymentCaptureInitiated, map[string]any{
		"merchant_id":       mctx.MerchantID(),
		"payment_id":        data.Intent.ID,
		"attempt_id":        data.Attempt.ID,
		"amount_to_capture": data.Attempt.AmountToCapture,
	}))

	return data, nil
}
