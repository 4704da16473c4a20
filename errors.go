package payments

import (
	stderrors "errors"
	"fmt"

	apperrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payments/domain"
)

const (
	ErrCodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	ErrCodePayoutNotFound      = "PAYOUT_NOT_FOUND"
	ErrCodeProfileNotFound     = "PROFILE_NOT_FOUND"
	ErrCodeAddressNotFound     = "ADDRESS_NOT_FOUND"
	ErrCodeMerchantNotFound    = "MERCHANT_NOT_FOUND"
	ErrCodeOperationNotAllowed = "OPERATION_NOT_ALLOWED"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeStorageOther        = "STORAGE_OTHER"
	ErrCodeNoFieldsToUpdate    = "NO_FIELDS_TO_UPDATE"
)

var (
	ErrPaymentNotFound = apperrors.New("payment not found", apperrors.CategoryNotFound).
				WithTextCode(ErrCodePaymentNotFound)
	ErrPayoutNotFound = apperrors.New("payout not found", apperrors.CategoryNotFound).
				WithTextCode(ErrCodePayoutNotFound)
	ErrProfileNotFound = apperrors.New("business profile not found", apperrors.CategoryNotFound).
				WithTextCode(ErrCodeProfileNotFound)
	ErrAddressNotFound = apperrors.New("address not found", apperrors.CategoryNotFound).
				WithTextCode(ErrCodeAddressNotFound)
	ErrMerchantNotFound = apperrors.New("merchant account not found", apperrors.CategoryNotFound).
				WithTextCode(ErrCodeMerchantNotFound)
	ErrOperationNotAllowed = apperrors.New("operation not allowed for current status", apperrors.CategoryConflict).
				WithTextCode(ErrCodeOperationNotAllowed)
	ErrInvalidRequest = apperrors.New("invalid request", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidRequest)

	// ErrNoFieldsToUpdate is an internal storage signal. Callers translate
	// it into success with the unmodified entity; it never reaches the API
	// surface.
	ErrNoFieldsToUpdate = apperrors.New("no fields to update", apperrors.CategoryConflict).
				WithTextCode(ErrCodeNoFieldsToUpdate)
)

// NewOperationNotAllowed builds the guard rejection, naming the attempted
// operation and the disallowed status set.
func NewOperationNotAllowed(operation string, current domain.IntentStatus, disallowed []domain.IntentStatus) *apperrors.Error {
	set := make([]string, 0, len(disallowed))
	for _, s := range disallowed {
		set = append(set, s.String())
	}
	err := ErrOperationNotAllowed.Clone()
	err.Message = fmt.Sprintf("you cannot %s this payment because it has status %s", operation, current)
	return err.WithMetadata(map[string]any{
		"operation":           operation,
		"current_status":      current.String(),
		"disallowed_statuses": set,
	})
}

// NewInvalidRequest flags a missing or malformed request field.
func NewInvalidRequest(field, reason string) *apperrors.Error {
	err := ErrInvalidRequest.Clone()
	err.Message = fmt.Sprintf("invalid request: %s %s", field, reason)
	return err.WithMetadata(map[string]any{
		"field": field,
	})
}

// WrapStorage classifies an unexpected backend failure.
func WrapStorage(err error, msg string) *apperrors.Error {
	return apperrors.Wrap(err, apperrors.CategoryExternal, msg).
		WithTextCode(ErrCodeStorageOther)
}

// NewStorageOther classifies an unexpected backend state with no source error.
func NewStorageOther(msg string) *apperrors.Error {
	return apperrors.New(msg, apperrors.CategoryExternal).
		WithTextCode(ErrCodeStorageOther)
}

// ErrorCode extracts the taxonomy text code from an error chain.
func ErrorCode(err error) string {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

func IsNotFound(err error) bool {
	switch ErrorCode(err) {
	case ErrCodePaymentNotFound, ErrCodePayoutNotFound, ErrCodeProfileNotFound,
		ErrCodeAddressNotFound, ErrCodeMerchantNotFound:
		return true
	}
	return false
}

func IsOperationNotAllowed(err error) bool {
	return ErrorCode(err) == ErrCodeOperationNotAllowed
}

func IsInvalidRequest(err error) bool {
	return ErrorCode(err) == ErrCodeInvalidRequest
}

func IsNoFieldsToUpdate(err error) bool {
	return ErrorCode(err) == ErrCodeNoFieldsToUpdate
}
