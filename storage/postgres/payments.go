package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	payments "github.com/goliatone/go-payments"
	"github.com/goliatone/go-payments/domain"
	"github.com/goliatone/go-payments/storage"
)

const paymentIntentColumns = `payment_id, merchant_id, status, amount, currency,
	profile_id, active_attempt_id, shipping_address_id, billing_address_id,
	updated_by, created_at, modified_at`

const paymentAttemptColumns = `attempt_id, payment_id, merchant_id, status, amount,
	amount_to_capture, currency, cancellation_reason,
	payment_method_billing_address_id, connector_transaction_id,
	updated_by, created_at, modified_at`

func scanPaymentIntent(row *sql.Row) (domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	var status string
	err := row.Scan(
		&intent.ID, &intent.MerchantID, &status, &intent.Amount, &intent.Currency,
		&intent.ProfileID, &intent.ActiveAttemptID, &intent.ShippingAddressID,
		&intent.BillingAddressID, &intent.UpdatedBy, &intent.CreatedAt, &intent.ModifiedAt,
	)
	if err != nil {
		return domain.PaymentIntent{}, err
	}
	intent.Status = domain.IntentStatus(status)
	return intent, nil
}

func scanPaymentAttempt(row *sql.Row) (domain.PaymentAttempt, error) {
	var attempt domain.PaymentAttempt
	var status string
	err := row.Scan(
		&attempt.ID, &attempt.PaymentID, &attempt.MerchantID, &status, &attempt.Amount,
		&attempt.AmountToCapture, &attempt.Currency, &attempt.CancellationReason,
		&attempt.PaymentMethodBillingAddressID, &attempt.ConnectorTransactionID,
		&attempt.UpdatedBy, &attempt.CreatedAt, &attempt.ModifiedAt,
	)
	if err != nil {
		return domain.PaymentAttempt{}, err
	}
	attempt.Status = domain.AttemptStatus(status)
	return attempt, nil
}

func (s *Store) FindPaymentIntent(ctx context.Context, merchantID, paymentID string) (domain.PaymentIntent, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_intents
		WHERE merchant_id = $1 AND payment_id = $2`, paymentIntentColumns)
	intent, err := scanPaymentIntent(s.db.QueryRowContext(ctx, query, merchantID, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PaymentIntent{}, payments.ErrPaymentNotFound.Clone()
	}
	if err != nil {
		return domain.PaymentIntent{}, payments.WrapStorage(err, "find payment intent")
	}
	return intent, nil
}

func (s *Store) UpdatePaymentIntent(ctx context.Context, pred storage.Predicate, update domain.IntentUpdate) (domain.PaymentIntent, error) {
	columns := update.Columns()
	if len(columns) == 0 {
		return domain.PaymentIntent{}, payments.ErrNoFieldsToUpdate.Clone()
	}

	set, args := setClause(columns)
	query := fmt.Sprintf(`UPDATE payment_intents SET %s
		WHERE merchant_id = $%d AND payment_id = $%d`, set, len(args)+1, len(args)+2)
	args = append(args, pred.MerchantID, pred.EntityID)
	if pred.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, pred.Status)
	}
	query += fmt.Sprintf(" RETURNING %s", paymentIntentColumns)

	intent, err := scanPaymentIntent(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PaymentIntent{}, payments.ErrPaymentNotFound.Clone()
	}
	if err != nil {
		return domain.PaymentIntent{}, payments.WrapStorage(err, "update payment intent")
	}
	return intent, nil
}

func (s *Store) FindPaymentAttempt(ctx context.Context, merchantID, attemptID string) (domain.PaymentAttempt, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_attempts
		WHERE merchant_id = $1 AND attempt_id = $2`, paymentAttemptColumns)
	attempt, err := scanPaymentAttempt(s.db.QueryRowContext(ctx, query, merchantID, attemptID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PaymentAttempt{}, payments.ErrPaymentNotFound.Clone()
	}
	if err != nil {
		return domain.PaymentAttempt{}, payments.WrapStorage(err, "find payment attempt")
	}
	return attempt, nil
}

func (s *Store) UpdatePaymentAttempt(ctx context.Context, pred storage.Predicate, update domain.AttemptUpdate) (domain.PaymentAttempt, error) {
	columns := update.Columns()
	if len(columns) == 0 {
		return domain.PaymentAttempt{}, payments.ErrNoFieldsToUpdate.Clone()
	}

	set, args := setClause(columns)
	query := fmt.Sprintf(`UPDATE payment_attempts SET %s
		WHERE merchant_id = $%d AND attempt_id = $%d`, set, len(args)+1, len(args)+2)
	args = append(args, pred.MerchantID, pred.EntityID)
	if pred.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, pred.Status)
	}
	query += fmt.Sprintf(" RETURNING %s", paymentAttemptColumns)

	attempt, err := scanPaymentAttempt(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PaymentAttempt{}, payments.ErrPaymentNotFound.Clone()
	}
	if err != nil {
		return domain.PaymentAttempt{}, payments.WrapStorage(err, "update payment attempt")
	}
	return attempt, nil
}

func (s *Store) FindAddress(ctx context.Context, merchantID, paymentID, addressID string) (domain.Address, error) {
	var address domain.Address
	err := s.db.QueryRowContext(ctx, `SELECT address_id, merchant_id, payment_id, line1, city, country, zip
		FROM addresses WHERE merchant_id = $1 AND address_id = $2`, merchantID, addressID).
		Scan(&address.ID, &address.MerchantID, &address.PaymentID,
			&address.Line1, &address.City, &address.Country, &address.Zip)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, payments.ErrAddressNotFound.Clone()
	}
	if err != nil {
		return domain.Address{}, payments.WrapStorage(err, "find address")
	}
	if paymentID != "" && address.PaymentID != "" && address.PaymentID != paymentID {
		return domain.Address{}, payments.ErrAddressNotFound.Clone()
	}
	return address, nil
}

func (s *Store) FindProfile(ctx context.Context, profileID string) (domain.Profile, error) {
	var profile domain.Profile
	err := s.db.QueryRowContext(ctx, `SELECT profile_id, merchant_id, name, use_billing_as_payment_method_billing
		FROM business_profiles WHERE profile_id = $1`, profileID).
		Scan(&profile.ID, &profile.MerchantID, &profile.Name, &profile.UseBillingAsPaymentMethodBilling)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, payments.ErrProfileNotFound.Clone()
	}
	if err != nil {
		return domain.Profile{}, payments.WrapStorage(err, "find business profile")
	}
	return profile, nil
}

func (s *Store) MerchantContext(ctx context.Context, merchantID string) (*domain.MerchantContext, error) {
	var account domain.MerchantAccount
	var scheme string
	var key []byte
	err := s.db.QueryRowContext(ctx, `SELECT m.merchant_id, m.name, m.storage_scheme, k.key
		FROM merchant_accounts m JOIN merchant_key_stores k ON k.merchant_id = m.merchant_id
		WHERE m.merchant_id = $1`, merchantID).
		Scan(&account.ID, &account.Name, &scheme, &key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payments.ErrMerchantNotFound.Clone()
	}
	if err != nil {
		return nil, payments.WrapStorage(err, "find merchant account")
	}
	account.StorageScheme = domain.StorageScheme(scheme)
	return &domain.MerchantContext{
		Account:  account,
		KeyStore: domain.MerchantKeyStore{MerchantID: account.ID, Key: key},
	}, nil
}

func (s *Store) UpsertConnectorCreds(ctx context.Context, merchantID, credsIdentifier string, creds []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO merchant_configs (merchant_id, config_key, config_value, modified_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (merchant_id, config_key) DO UPDATE SET config_value = $3, modified_at = now()`,
		merchantID, "mcd_"+credsIdentifier, creds)
	if err != nil {
		return payments.WrapStorage(err, "upsert connector creds")
	}
	return nil
}
