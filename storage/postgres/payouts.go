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

const payoutColumns = `payout_id, merchant_id, status, amount, destination_currency,
	source_currency, payout_type, profile_id, customer_id, attempt_count,
	updated_by, created_at, modified_at`

const payoutAttemptColumns = `payout_attempt_id, payout_id, merchant_id, status,
	connector, connector_payout_id, merchant_order_reference_id,
	error_code, error_message, billing_address_id,
	updated_by, created_at, modified_at`

func scanPayout(scan func(dest ...any) error) (domain.Payout, error) {
	var payout domain.Payout
	var status, payoutType string
	err := scan(
		&payout.ID, &payout.MerchantID, &status, &payout.Amount,
		&payout.DestinationCurrency, &payout.SourceCurrency, &payoutType,
		&payout.ProfileID, &payout.CustomerID, &payout.AttemptCount,
		&payout.UpdatedBy, &payout.CreatedAt, &payout.ModifiedAt,
	)
	if err != nil {
		return domain.Payout{}, err
	}
	payout.Status = domain.PayoutStatus(status)
	payout.PayoutType = domain.PayoutType(payoutType)
	return payout, nil
}

func scanPayoutAttempt(row *sql.Row) (domain.PayoutAttempt, error) {
	var attempt domain.PayoutAttempt
	var status string
	err := row.Scan(
		&attempt.ID, &attempt.PayoutID, &attempt.MerchantID, &status,
		&attempt.Connector, &attempt.ConnectorPayoutID, &attempt.MerchantOrderReferenceID,
		&attempt.ErrorCode, &attempt.ErrorMessage, &attempt.BillingAddressID,
		&attempt.UpdatedBy, &attempt.CreatedAt, &attempt.ModifiedAt,
	)
	if err != nil {
		return domain.PayoutAttempt{}, err
	}
	attempt.Status = domain.PayoutStatus(status)
	return attempt, nil
}

func (s *Store) FindPayout(ctx context.Context, merchantID, payoutID string) (domain.Payout, error) {
	query := fmt.Sprintf(`SELECT %s FROM payouts
		WHERE merchant_id = $1 AND payout_id = $2`, payoutColumns)
	row := s.db.QueryRowContext(ctx, query, merchantID, payoutID)
	payout, err := scanPayout(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Payout{}, payments.ErrPayoutNotFound.Clone()
	}
	if err != nil {
		return domain.Payout{}, payments.WrapStorage(err, "find payout")
	}
	return payout, nil
}

func (s *Store) UpdatePayout(ctx context.Context, pred storage.Predicate, update domain.PayoutUpdate) (domain.Payout, error) {
	columns := update.Columns()
	if len(columns) == 0 {
		return domain.Payout{}, payments.ErrNoFieldsToUpdate.Clone()
	}

	set, args := setClause(columns)
	query := fmt.Sprintf(`UPDATE payouts SET %s
		WHERE merchant_id = $%d AND payout_id = $%d`, set, len(args)+1, len(args)+2)
	args = append(args, pred.MerchantID, pred.EntityID)
	if pred.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, pred.Status)
	}
	query += fmt.Sprintf(" RETURNING %s", payoutColumns)

	row := s.db.QueryRowContext(ctx, query, args...)
	payout, err := scanPayout(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Payout{}, payments.ErrPayoutNotFound.Clone()
	}
	if err != nil {
		return domain.Payout{}, payments.WrapStorage(err, "update payout")
	}
	return payout, nil
}

func (s *Store) FindPayoutAttempt(ctx context.Context, merchantID, attemptID string) (domain.PayoutAttempt, error) {
	query := fmt.Sprintf(`SELECT %s FROM payout_attempts
		WHERE merchant_id = $1 AND payout_attempt_id = $2`, payoutAttemptColumns)
	attempt, err := scanPayoutAttempt(s.db.QueryRowContext(ctx, query, merchantID, attemptID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PayoutAttempt{}, payments.ErrPayoutNotFound.Clone()
	}
	if err != nil {
		return domain.PayoutAttempt{}, payments.WrapStorage(err, "find payout attempt")
	}
	return attempt, nil
}

func (s *Store) UpdatePayoutAttempt(ctx context.Context, pred storage.Predicate, update domain.PayoutAttemptUpdate) (domain.PayoutAttempt, error) {
	columns := update.Columns()
	if len(columns) == 0 {
		return domain.PayoutAttempt{}, payments.ErrNoFieldsToUpdate.Clone()
	}

	set, args := setClause(columns)
	query := fmt.Sprintf(`UPDATE payout_attempts SET %s
		WHERE merchant_id = $%d AND payout_attempt_id = $%d`, set, len(args)+1, len(args)+2)
	args = append(args, pred.MerchantID, pred.EntityID)
	if pred.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, pred.Status)
	}
	query += fmt.Sprintf(" RETURNING %s", payoutAttemptColumns)

	attempt, err := scanPayoutAttempt(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PayoutAttempt{}, payments.ErrPayoutNotFound.Clone()
	}
	if err != nil {
		return domain.PayoutAttempt{}, payments.WrapStorage(err, "update payout attempt")
	}
	return attempt, nil
}

func (s *Store) ListPayouts(ctx context.Context, merchantID string, limit int) ([]domain.Payout, error) {
	query := fmt.Sprintf(`SELECT %s FROM payouts
		WHERE merchant_id = $1 ORDER BY created_at DESC`, payoutColumns)
	args := []any{merchantID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, payments.WrapStorage(err, "list payouts")
	}
	defer rows.Close()

	var out []domain.Payout
	for rows.Next() {
		payout, err := scanPayout(rows.Scan)
		if err != nil {
			return nil, payments.WrapStorage(err, "scan payout")
		}
		out = append(out, payout)
	}
	if err := rows.Err(); err != nil {
		return nil, payments.WrapStorage(err, "list payouts")
	}
	return out, nil
}

// GetPayoutFilters computes the list filter facets. Connector values come
// from a DISTINCT over current-attempt rows only; currency and payout type
// from a DISTINCT over the payout rows; the status facet is deduplicated
// from the payouts already in hand instead of another query.
func (s *Store) GetPayoutFilters(ctx context.Context, merchantID string, payouts []domain.Payout) (storage.PayoutFilters, error) {
	filters := storage.PayoutFilters{}
	if len(payouts) == 0 {
		return filters, nil
	}

	activeAttemptIDs := make([]any, 0, len(payouts))
	payoutIDs := make([]any, 0, len(payouts))
	statuses := map[domain.PayoutStatus]struct{}{}
	for _, payout := range payouts {
		activeAttemptIDs = append(activeAttemptIDs, payout.ActiveAttemptID())
		payoutIDs = append(payoutIDs, payout.ID)
		statuses[payout.Status] = struct{}{}
	}
	for st := range statuses {
		filters.Statuses = append(filters.Statuses, st)
	}

	connectorQuery := fmt.Sprintf(`SELECT DISTINCT connector FROM payout_attempts
		WHERE merchant_id = $1 AND payout_attempt_id IN (%s)`, placeholders(2, len(activeAttemptIDs)))
	connectors, err := s.distinctStrings(ctx, connectorQuery, append([]any{merchantID}, activeAttemptIDs...))
	if err != nil {
		return filters, payments.WrapStorage(err, "filter payouts by connector")
	}
	filters.Connectors = connectors

	currencyQuery := fmt.Sprintf(`SELECT DISTINCT destination_currency FROM payouts
		WHERE merchant_id = $1 AND payout_id IN (%s)`, placeholders(2, len(payoutIDs)))
	currencies, err := s.distinctStrings(ctx, currencyQuery, append([]any{merchantID}, payoutIDs...))
	if err != nil {
		return filters, payments.WrapStorage(err, "filter payouts by currency")
	}
	filters.Currencies = currencies

	typeQuery := fmt.Sprintf(`SELECT DISTINCT payout_type FROM payouts
		WHERE merchant_id = $1 AND payout_id IN (%s)`, placeholders(2, len(payoutIDs)))
	payoutTypes, err := s.distinctStrings(ctx, typeQuery, append([]any{merchantID}, payoutIDs...))
	if err != nil {
		return filters, payments.WrapStorage(err, "filter payouts by payout type")
	}
	for _, t := range payoutTypes {
		filters.PayoutTypes = append(filters.PayoutTypes, domain.PayoutType(t))
	}

	return filters, nil
}

func (s *Store) distinctStrings(ctx context.Context, query string, args []any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var value sql.NullString
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		if value.Valid && value.String != "" {
			out = append(out, value.String)
		}
	}
	return out, rows.Err()
}
