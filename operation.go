package payments

import (
	"context"

	"github.com/goliatone/go-payments/domain"
)

// ValidateResult carries the scoping keys produced by request validation.
// Every subsequent lookup and write is bound to MerchantID; EntityID is the
// resolved intent or payout identifier the flow operates on.
type ValidateResult struct {
	MerchantID    string
	EntityID      string
	StorageScheme domain.StorageScheme
	Requeue       bool
}

// Operation is the three stage contract every transaction-mutating flow
// implements. R is the flow's request shape, D the working aggregate its
// fetch stage assembles.
//
// The stages run strictly in order and none is skippable:
//
//   - ValidateRequest is pure: it checks identifiers and produces scoping
//     keys without touching storage.
//   - GetTrackers loads current entity state, enforces the flow's
//     disallowed-status guard, and assembles the aggregate. It may perform
//     side-effecting preparation such as persisting a caller supplied
//     connector-credential override.
//   - UpdateTrackers computes the flow's status transition, persists it,
//     and emits the audit event.
//
// Only the guard set and transition function differ between flows; the
// pipeline itself is generic.
type Operation[R any, D any] interface {
	Name() string
	ValidateRequest(req R, mctx *domain.MerchantContext) (ValidateResult, error)
	GetTrackers(ctx context.Context, res ValidateResult, req R, mctx *domain.MerchantContext) (D, error)
	UpdateTrackers(ctx context.Context, data D, mctx *domain.MerchantContext) (D, error)
}

// ConnectorHook runs the flow's business logic between the fetch and update
// stages, typically a connector submit or query. The core treats it as an
// opaque capability; a nil hook skips straight to the update stage.
type ConnectorHook[D any] func(ctx context.Context, data D) (D, error)

// Run drives one operation through the pipeline. Failures in the validate
// or fetch stage abort before any mutation; hook and update failures are
// returned unchanged for the caller's retry or reconciliation policy.
func Run[R any, D any](ctx context.Context, op Operation[R, D], req R, mctx *domain.MerchantContext, hook ConnectorHook[D]) (D, error) {
	var zero D

	res, err := op.ValidateRequest(req, mctx)
	if err != nil {
		return zero, err
	}

	data, err := op.GetTrackers(ctx, res, req, mctx)
	if err != nil {
		return zero, err
	}

	if hook != nil {
		data, err = hook(ctx, data)
		if err != nil {
			return zero, err
		}
	}

	return op.UpdateTrackers(ctx, data, mctx)
}
