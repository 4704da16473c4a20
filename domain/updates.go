package domain

// Typed update variants. Each variant names the columns it writes so the
// storage layer can compute a minimal change set instead of overwriting the
// whole row. An update whose Columns map is empty must surface the
// no-fields-to-update signal, which callers translate into success with the
// unmodified entity.

// IntentUpdate is a partial update against a payment intent.
type IntentUpdate interface {
	Apply(intent PaymentIntent) PaymentIntent
	Columns() map[string]any
}

// AttemptUpdate is a partial update against a payment attempt.
type AttemptUpdate interface {
	Apply(attempt PaymentAttempt) PaymentAttempt
	Columns() map[string]any
}

// PayoutUpdate is a partial update against a payout.
type PayoutUpdate interface {
	Apply(payout Payout) Payout
	Columns() map[string]any
}

// PayoutAttemptUpdate is a partial update against a payout attempt.
type PayoutAttemptUpdate interface {
	Apply(attempt PayoutAttempt) PayoutAttempt
	Columns() map[string]any
}

// IntentStatusUpdate moves an intent to a new status.
type IntentStatusUpdate struct {
	Status    IntentStatus
	UpdatedBy string
}

func (u IntentStatusUpdate) Apply(intent PaymentIntent) PaymentIntent {
	intent.Status = u.Status
	intent.UpdatedBy = u.UpdatedBy
	return intent
}

func (u IntentStatusUpdate) Columns() map[string]any {
	return map[string]any{
		"status":     u.Status.String(),
		"updated_by": u.UpdatedBy,
	}
}

// AttemptVoidUpdate records a void outcome together with the caller
// supplied cancellation reason, persisted atomically with the status.
type AttemptVoidUpdate struct {
	Status             AttemptStatus
	CancellationReason string
	UpdatedBy          string
}

func (u AttemptVoidUpdate) Apply(attempt PaymentAttempt) PaymentAttempt {
	attempt.Status = u.Status
	attempt.CancellationReason = u.CancellationReason
	attempt.UpdatedBy = u.UpdatedBy
	return attempt
}

func (u AttemptVoidUpdate) Columns() map[string]any {
	return map[string]any{
		"status":              u.Status.String(),
		"cancellation_reason": u.CancellationReason,
		"updated_by":          u.UpdatedBy,
	}
}

// AttemptCaptureUpdate marks a capture as handed to the connector.
type AttemptCaptureUpdate struct {
	Status          AttemptStatus
	AmountToCapture int64
	UpdatedBy       string
}

func (u AttemptCaptureUpdate) Apply(attempt PaymentAttempt) PaymentAttempt {
	attempt.Status = u.Status
	attempt.AmountToCapture = u.AmountToCapture
	attempt.UpdatedBy = u.UpdatedBy
	return attempt
}

func (u AttemptCaptureUpdate) Columns() map[string]any {
	return map[string]any{
		"status":            u.Status.String(),
		"amount_to_capture": u.AmountToCapture,
		"updated_by":        u.UpdatedBy,
	}
}

// PayoutStatusUpdate moves a payout to a new status.
type PayoutStatusUpdate struct {
	Status    PayoutStatus
	UpdatedBy string
}

func (u PayoutStatusUpdate) Apply(payout Payout) Payout {
	payout.Status = u.Status
	payout.UpdatedBy = u.UpdatedBy
	return payout
}

func (u PayoutStatusUpdate) Columns() map[string]any {
	return map[string]any{
		"status":     u.Status.String(),
		"updated_by": u.UpdatedBy,
	}
}

// PayoutAttemptSyncUpdate applies whatever the connector reported during a
// retrieve. All fields are optional; syncing an unchanged payout yields an
// empty column set and must be treated as success by callers.
type PayoutAttemptSyncUpdate struct {
	Status            *PayoutStatus
	ConnectorPayoutID *string
	ErrorCode         *string
	ErrorMessage      *string
	UpdatedBy         string
}

func (u PayoutAttemptSyncUpdate) Apply(attempt PayoutAttempt) PayoutAttempt {
	if u.Status != nil {
		attempt.Status = *u.Status
	}
	if u.ConnectorPayoutID != nil {
		attempt.ConnectorPayoutID = *u.ConnectorPayoutID
	}
	if u.ErrorCode != nil {
		attempt.ErrorCode = *u.ErrorCode
	}
	if u.ErrorMessage != nil {
		attempt.ErrorMessage = *u.ErrorMessage
	}
	if len(u.Columns()) > 0 {
		attempt.UpdatedBy = u.UpdatedBy
	}
	return attempt
}

func (u PayoutAttemptSyncUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.Status != nil {
		cols["status"] = u.Status.String()
	}
	if u.ConnectorPayoutID != nil {
		cols["connector_payout_id"] = *u.ConnectorPayoutID
	}
	if u.ErrorCode != nil {
		cols["error_code"] = *u.ErrorCode
	}
	if u.ErrorMessage != nil {
		cols["error_message"] = *u.ErrorMessage
	}
	if len(cols) > 0 {
		cols["updated_by"] = u.UpdatedBy
	}
	return cols
}
