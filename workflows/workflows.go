// Package workflows binds scheduler job kinds to pipeline flows. A
// workflow rebuilds the same request value the synchronous entry point
// would receive and invokes the identical pipeline functions, so business
// logic is never duplicated between the sync and async paths.
package workflows

import (
	"context"

	payments "github.com/goliatone/go-payments"
	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/operations"
	"github.com/goliatone/go-payments/scheduler"
	"github.com/goliatone/go-payments/storage"
)

// PayoutRetrieveWorkflow re-enters the payout retrieve pipeline for
// scheduled status syncs.
type PayoutRetrieveWorkflow struct {
	merchants storage.MerchantProvider
	op        *operations.PayoutRetrieve
	hook      payments.ConnectorHook[*domain.PayoutData]
	logger    payments.Logger
}

// NewPayoutRetrieveWorkflow constructs the workflow. The hook is the
// opaque connector query capability invoked between fetch and update.
func NewPayoutRetrieveWorkflow(merchants storage.MerchantProvider, op *operations.PayoutRetrieve, hook payments.ConnectorHook[*domain.PayoutData], logger payments.Logger) *PayoutRetrieveWorkflow {
	return &PayoutRetrieveWorkflow{
		merchants: merchants,
		op:        op,
		hook:      hook,
		logger:    payments.NormalizeLogger(logger),
	}
}

func (w *PayoutRetrieveWorkflow) Kind() scheduler.JobKind {
	return scheduler.JobKindPayoutRetrieve
}

func (w *PayoutRetrieveWorkflow) Execute(ctx context.Context, job scheduler.Job) error {
	tracking, err := scheduler.DecodeTracking(job)
	if err != nil {
		return err
	}

	mctx, err := w.merchants.MerchantContext(ctx, tracking.PayoutRetrieve.MerchantID)
	if err != nil {
		return err
	}

	req := operations.PayoutRetrieveRequest{
		PayoutID:  tracking.PayoutRetrieve.PayoutID,
		ForceSync: true,
	}

	data, err := payments.Run(ctx, w.op, req, mctx, w.hook)
	if err != nil {
		return err
	}

	w.logger.Info("synced payout %s for merchant %s, status %s",
		data.Payout.ID, mctx.MerchantID(), data.Payout.Status)
	return nil
}

// PaymentCancelWorkflow re-enters the cancel pipeline for deferred
// cancellations, used to auto-void authorizations that were never
// captured.
type PaymentCancelWorkflow struct {
	merchants storage.MerchantProvider
	op        *operations.Cancel
	hook      payments.ConnectorHook[*domain.PaymentData]
	logger    payments.Logger
}

// NewPaymentCancelWorkflow constructs the workflow.
func NewPaymentCancelWorkflow(merchants storage.MerchantProvider, op *operations.Cancel, hook payments.ConnectorHook[*domain.PaymentData], logger payments.Logger) *PaymentCancelWorkflow {
	return &PaymentCancelWorkflow{
		merchants: merchants,
		op:        op,
		hook:      hook,
		logger:    payments.NormalizeLogger(logger),
	}
}

func (w *PaymentCancelWorkflow) Kind() scheduler.JobKind {
	return scheduler.JobKindPaymentCancel
}

func (w *PaymentCancelWorkflow) Execute(ctx context.Context, job scheduler.Job) error {
	tracking, err := scheduler.DecodeTracking(job)
	if err != nil {
		return err
	}

	mctx, err := w.merchants.MerchantContext(ctx, tracking.PaymentCancel.MerchantID)
	if err != nil {
		return err
	}

	req := operations.CancelRequest{
		PaymentID:          tracking.PaymentCancel.PaymentID,
		CancellationReason: tracking.PaymentCancel.CancellationReason,
	}

	data, err := payments.Run(ctx, w.op, req, mctx, w.hook)
	if err != nil {
		return err
	}

	w.logger.Info("cancelled payment %s for merchant %s, intent %s attempt %s",
		data.Intent.ID, mctx.MerchantID(), data.Intent.Status, data.Attempt.Status)
	return nil
}
