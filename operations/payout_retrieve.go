package operations

import (
	"context"

	payments "github.com/goliatone/go-payments"
	"github.com/goliatone/go-payments/audit"
	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/storage"
)

// PayoutRetrieveRequest asks for a payout's status to be synced from the
// connector. The scheduler rebuilds this exact shape from a job's tracking
// data, so the async path re-enters the same pipeline as a live request.
type PayoutRetrieveRequest struct {
	PayoutID  string
	ForceSync bool
}

// PayoutRetrieve loads a payout and its current attempt and applies
// whatever the connector reported. Payouts in a terminal status are read
// back without a connector round trip unless ForceSync is set.
type PayoutRetrieve struct {
	deps Deps
}

// NewPayoutRetrieve constructs the payout retrieve flow.
func NewPayoutRetrieve(deps Deps) *PayoutRetrieve {
	return &PayoutRetrieve{deps: deps.normalize()}
}

func (p *PayoutRetrieve) Name() string { return "PayoutRetrieve" }

func (p *PayoutRetrieve) ValidateRequest(req PayoutRetrieveRequest, mctx *domain.MerchantContext) (payments.ValidateResult, error) {
	if req.PayoutID == "" {
		return payments.ValidateResult{}, payments.NewInvalidRequest("payout_id", "is required")
	}
	return payments.ValidateResult{
		MerchantID:    mctx.MerchantID(),
		EntityID:      req.PayoutID,
		StorageScheme: mctx.Scheme(),
		Requeue:       true,
	}, nil
}

func (p *PayoutRetrieve) GetTrackers(ctx context.Context, res payments.ValidateResult, req PayoutRetrieveRequest, mctx *domain.MerchantContext) (*domain.PayoutData, error) {
	payout, err := p.deps.Payouts.FindPayout(ctx, res.MerchantID, res.EntityID)
	if err != nil {
		return nil, err
	}

	attempt, err := p.deps.Payouts.FindPayoutAttempt(ctx, res.MerchantID, payout.ActiveAttemptID())
	if err != nil {
		return nil, err
	}

	profile, err := p.deps.Profiles.FindProfile(ctx, payout.ProfileID)
	if err != nil {
		return nil, err
	}

	billing, err := resolveAddress(ctx, p.deps.Addresses, res.MerchantID, payout.ID, attempt.BillingAddressID)
	if err != nil {
		return nil, err
	}

	return &domain.PayoutData{
		Payout:         payout,
		Attempt:        attempt,
		Profile:        profile,
		BillingAddress: billing,
	}, nil
}

// UpdateTrackers projects the connector outcome onto the payout and its
// current attempt. A sync reporting nothing new is a successful no-op.
func (p *PayoutRetrieve) UpdateTrackers(ctx context.Context, data *domain.PayoutData, mctx *domain.MerchantContext) (*domain.PayoutData, error) {
	updatedBy := mctx.Scheme().String()

	update := domain.PayoutAttemptSyncUpdate{
		Status:    data.NextStatus,
		UpdatedBy: updatedBy,
	}
	if data.ConnectorPayoutID != "" && data.ConnectorPayoutID != data.Attempt.ConnectorPayoutID {
		update.ConnectorPayoutID = &data.ConnectorPayoutID
	}

	attempt, err := p.deps.Payouts.UpdatePayoutAttempt(ctx, storage.Predicate{
		MerchantID: mctx.MerchantID(),
		EntityID:   data.Attempt.ID,
	}, update)
	if payments.IsNoFieldsToUpdate(err) {
		attempt, err = data.Attempt, nil
	}
	if err != nil {
		return nil, err
	}
	data.Attempt = attempt

	if data.NextStatus != nil && *data.NextStatus != data.Payout.Status {
		payout, err := p.deps.Payouts.UpdatePayout(ctx, storage.Predicate{
			MerchantID: mctx.MerchantID(),
			EntityID:   data.Payout.ID,
		}, domain.PayoutStatusUpdate{
			Status:    *data.NextStatus,
			UpdatedBy: updatedBy,
		})
		if payments.IsNoFieldsToUpdate(err) {
			payout, err = data.Payout, nil
		}
		if err != nil {
			return nil, err
		}
		data.Payout = payout
	}

	p.deps.Audit.Emit(ctx, audit.NewEvent(audit.EventPayoutSynced, map[string]any{
		"merchant_id":         mctx.MerchantID(),
		"payout_id":           data.Payout.ID,
		"attempt_id":          data.Attempt.ID,
		"status":              data.Payout.Status.String(),
		"connector_payout_id": data.Attempt.ConnectorPayoutID,
	}))

	return data, nil
}
