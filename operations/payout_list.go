package operations

import (
	"context"

	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/storage"
)

// PayoutListResult bundles a page of payouts with the filter facets computed
// over exactly that page.
type PayoutListResult struct {
	Payouts []domain.Payout
	Filters storage.PayoutFilters
}

// ListPayoutsWithFilters loads a merchant's most recent payouts and derives
// the list filter facets from them. Read only; it never touches the pipeline.
func ListPayoutsWithFilters(ctx context.Context, payouts storage.PayoutStore, mctx *domain.MerchantContext, limit int) (PayoutListResult, error) {
	page, err := payouts.ListPayouts(ctx, mctx.MerchantID(), limit)
	if err != nil {
		return PayoutListResult{}, err
	}

	filters, err := payouts.GetPayoutFilters(ctx, mctx.MerchantID(), page)
	if err != nil {
		return PayoutListResult{}, err
	}

	return PayoutListResult{Payouts: page, Filters: filters}, nil
}
