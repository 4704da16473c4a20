// Package operations holds the flow implementations of the transaction
// pipeline. Each flow owns its disallowed-status guard and its transition
// function; there is deliberately no shared transition table across flows.
package operations

import (
	"context"

	payments "github.com/goliatone/go-payments"
	"github.com/goliatone/go-payments/audit"
	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/storage"
)

// Deps bundles the collaborators every flow needs. The zero value is not
// usable; construct flows through their New functions.
type Deps struct {
	Payments  storage.PaymentStore
	Payouts   storage.PayoutStore
	Addresses storage.AddressStore
	Profiles  storage.ProfileStore
	Config    storage.ConfigStore
	Audit     audit.Sink
	Logger    payments.Logger
}

func (d Deps) normalize() Deps {
	if d.Audit == nil {
		d.Audit = audit.NopSink{}
	}
	d.Logger = payments.NormalizeLogger(d.Logger)
	return d
}

// ConnectorDetails is a caller supplied connector-credential override,
// persisted during the fetch stage so the connector call picks it up.
type ConnectorDetails struct {
	CredsIdentifier string
	Creds           []byte
}

// validateStatusAgainstDisallowed enforces a flow's status guard. The
// returned error names the attempted operation and the disallowed set.
func validateStatusAgainstDisallowed(status domain.IntentStatus, disallowed []domain.IntentStatus, operation string) error {
	for _, s := range disallowed {
		if status == s {
			return payments.NewOperationNotAllowed(operation, status, disallowed)
		}
	}
	return nil
}

// resolveAddress looks up an optional address reference. An empty id
// resolves to nil, not an error.
func resolveAddress(ctx context.Context, store storage.AddressStore, merchantID, paymentID, addressID string) (*domain.Address, error) {
	if addressID == "" {
		return nil, nil
	}
	address, err := store.FindAddress(ctx, merchantID, paymentID, addressID)
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// persistConnectorCreds stores a connector-credential override when the
// request carries one.
func persistConnectorCreds(ctx context.Context, store storage.ConfigStore, merchantID string, details *ConnectorDetails) error {
	if details == nil || details.CredsIdentifier == "" {
		return nil
	}
	return store.UpsertConnectorCreds(ctx, merchantID, details.CredsIdentifier, details.Creds)
}
