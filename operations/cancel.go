package operations

import (
	"context"

	payments "github.com/goliatone/go-payments"
	"github.com/goliatone/go-payments/audit"
	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/storage"
)

// CancelRequest asks for a payment to be voided before capture.
type CancelRequest struct {
	PaymentID                string
	CancellationReason       string
	MerchantConnectorDetails *ConnectorDetails
}

// cancelDisallowedStatuses is the cancel flow's guard set. An intent in any
// of these states rejects the cancel with no write.
var cancelDisallowedStatuses = []domain.IntentStatus{
	domain.IntentStatusFailed,
	domain.IntentStatusSucceeded,
	domain.IntentStatusCancelled,
	domain.IntentStatusProcessing,
	domain.IntentStatusRequiresMerchantAction,
}

// Cancel is the representative flow of the pipeline. When the intent has
// not reached requires_capture the void is synchronous and terminal:
// intent goes to cancelled, attempt to voided. At requires_capture the
// connector must confirm, so only the attempt advances, to void_initiated,
// and the intent stays put until the confirmation lands.
type Cancel struct {
	deps Deps
}

// NewCancel constructs the cancel flow.
func NewCancel(deps Deps) *Cancel {
	return &Cancel{deps: deps.normalize()}
}

func (c *Cancel) Name() string { return "PaymentCancel" }

// ValidateRequest produces the scoping keys. Pure, no I/O.
func (c *Cancel) ValidateRequest(req CancelRequest, mctx *domain.MerchantContext) (payments.ValidateResult, error) {
	if req.PaymentID == "" {
		return payments.ValidateResult{}, payments.NewInvalidRequest("payment_id", "is required")
	}
	return payments.ValidateResult{
		MerchantID:    mctx.MerchantID(),
		EntityID:      req.PaymentID,
		StorageScheme: mctx.Scheme(),
		Requeue:       false,
	}, nil
}

// GetTrackers loads current state, applies the guard, and assembles the
// working aggregate. The cancellation reason is copied onto the attempt
// here so the update stage persists it atomically with the transition.
func (c *Cancel) GetTrackers(ctx context.Context, res payments.ValidateResult, req CancelRequest, mctx *domain.MerchantContext) (*domain.PaymentData, error) {
	intent, err := c.deps.Payments.FindPaymentIntent(ctx, res.MerchantID, res.EntityID)
	if err != nil {
		return nil, err
	}

	if err := validateStatusAgainstDisallowed(intent.Status, cancelDisallowedStatuses, "cancel"); err != nil {
		return nil, err
	}

	attempt, err := c.deps.Payments.FindPaymentAttempt(ctx, res.MerchantID, intent.ActiveAttemptID)
	if err != nil {
		return nil, err
	}

	shipping, err := resolveAddress(ctx, c.deps.Addresses, res.MerchantID, intent.ID, intent.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	billing, err := resolveAddress(ctx, c.deps.Addresses, res.MerchantID, intent.ID, intent.BillingAddressID)
	if err != nil {
		return nil, err
	}
	paymentMethodBilling, err := resolveAddress(ctx, c.deps.Addresses, res.MerchantID, intent.ID, attempt.PaymentMethodBillingAddressID)
	if err != nil {
		return nil, err
	}

	attempt.CancellationReason = req.CancellationReason

	credsIdentifier := ""
	if req.MerchantConnectorDetails != nil {
		credsIdentifier = req.MerchantConnectorDetails.CredsIdentifier
	}
	if err := persistConnectorCreds(ctx, c.deps.Config, res.MerchantID, req.MerchantConnectorDetails); err != nil {
		return nil, err
	}

	profile, err := c.deps.Profiles.FindProfile(ctx, intent.ProfileID)
	if err != nil {
		return nil, err
	}

	return &domain.PaymentData{
		Intent:          intent,
		Attempt:         attempt,
		Currency:        attempt.Currency,
		Amount:          attempt.TotalAmount(),
		Address:         domain.NewPaymentAddress(shipping, billing, paymentMethodBilling, profile.UseBillingAsPaymentMethodBilling),
		Profile:         profile,
		CredsIdentifier: credsIdentifier,
	}, nil
}

// UpdateTrackers computes and persists the cancel transition, then emits
// the audit event. The intent and attempt writes are separate conditional
// updates; a failure between them is surfaced unchanged and resolved by
// retry, not rolled back.
func (c *Cancel) UpdateTrackers(ctx context.Context, data *domain.PaymentData, mctx *domain.MerchantContext) (*domain.PaymentData, error) {
	cancellationReason := data.Attempt.CancellationReason
	updatedBy := mctx.Scheme().String()

	attemptStatus := domain.AttemptStatusVoided
	var intentUpdate domain.IntentUpdate
	if data.Intent.Status != domain.IntentStatusRequiresCapture {
		intentUpdate = domain.IntentStatusUpdate{
			Status:    domain.IntentStatusCancelled,
			UpdatedBy: updatedBy,
		}
	} else {
		attemptStatus = domain.AttemptStatusVoidInitiated
	}

	if intentUpdate != nil {
		intent, err := c.deps.Payments.UpdatePaymentIntent(ctx, storage.Predicate{
			MerchantID: mctx.MerchantID(),
			EntityID:   data.Intent.ID,
		}, intentUpdate)
		if payments.IsNoFieldsToUpdate(err) {
			intent, err = data.Intent, nil
		}
		if err != nil {
			return nil, err
		}
		data.Intent = intent
	}

	attempt, err := c.deps.Payments.UpdatePaymentAttempt(ctx, storage.Predicate{
		MerchantID: mctx.MerchantID(),
		EntityID:   data.Attempt.ID,
	}, domain.AttemptVoidUpdate{
		Status:             attemptStatus,
		CancellationReason: cancellationReason,
		UpdatedBy:          updatedBy,
	})
	if payments.IsNoFieldsToUpdate(err) {
		attempt, err = data.Attempt, nil
	}
	if err != nil {
		return nil, err
	}
	data.Attempt = attempt

	c.deps.Audit.Emit(ctx, audit.NewEvent(audit.EventPaymentCancelled, map[string]any{
		"merchant_id":         mctx.MerchantID(),
		"payment_id":          data.Intent.ID,
		"attempt_id":          data.Attempt.ID,
		"intent_status":       data.Intent.Status.String(),
		"attempt_status":      data.Attempt.Status.String(),
		"cancellation_reason": cancellationReason,
	}))

	return data, nil
}
