package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *PaymentRecord) error {
	if err := validateRecord(p); err != nil {
		return err
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payment_records
		  (id, reference_number, payment_request_id, amount, currency, name, email,
		   phone, purpose, status, checkout_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		p.ID, p.ReferenceNumber, nilIfEmpty(p.PaymentRequestID), p.Amount, p.Currency,
		p.Name, p.Email, nilIfEmpty(p.Phone), nilIfEmpty(p.Purpose), p.Status,
		nilIfEmpty(p.CheckoutURL)).Scan(&p.CreatedAt, &p.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == "payment_records_reference_number_key" {
		return ErrDuplicateReference
	}
	return err
}

func (r *postgresRepo) GetByReference(ctx context.Context, ref string) (*PaymentRecord, error) {
	return scanRecord(r.db.QueryRowContext(ctx, selectSQL+" WHERE reference_number=$1", ref))
}

func (r *postgresRepo) GetByRequestID(ctx context.Context, requestID string) (*PaymentRecord, error) {
	return scanRecord(r.db.QueryRowContext(ctx, selectSQL+" WHERE payment_request_id=$1", requestID))
}

func (r *postgresRepo) UpdateByReference(ctx context.Context, ref string, mutate MutateFunc) (*PaymentRecord, error) {
	return r.update(ctx, "reference_number", ref, mutate)
}

func (r *postgresRepo) UpdateByRequestID(ctx context.Context, requestID string, mutate MutateFunc) (*PaymentRecord, error) {
	return r.update(ctx, "payment_request_id", requestID, mutate)
}

// update locks the row with SELECT ... FOR UPDATE so concurrent webhook
// deliveries for the same record apply one after the other.
func (r *postgresRepo) update(ctx context.Context, column, key string, mutate MutateFunc) (*PaymentRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := scanRecord(tx.QueryRowContext(ctx, selectSQL+" WHERE "+column+"=$1 FOR UPDATE", key))
	if err != nil {
		return nil, err
	}
	before := *rec

	changed, err := mutate(rec)
	if err != nil {
		return nil, err
	}
	if !changed {
		return rec, tx.Commit()
	}
	if err := validateMutation(&before, rec); err != nil {
		return nil, err
	}

	rec.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE payment_records
		SET payment_request_id=$1, status=$2, checkout_url=$3, gateway_payment_id=$4,
		    gateway_status=$5, paid_at=$6, updated_at=$7
		WHERE id=$8`,
		nilIfEmpty(rec.PaymentRequestID), rec.Status, nilIfEmpty(rec.CheckoutURL),
		nilIfEmpty(rec.GatewayPaymentID), nilIfEmpty(rec.GatewayStatus),
		rec.PaidAt, rec.UpdatedAt, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("update payment record: %w", err)
	}
	return rec, tx.Commit()
}

func (r *postgresRepo) Delete(ctx context.Context, ref string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payment_records WHERE reference_number=$1`, ref)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CancelStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_records
		SET status='cancelled', updated_at=NOW()
		WHERE status='pending' AND checkout_url IS NULL AND created_at < $1`,
		cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ── Scanner ───────────────────────────────────────────────────────────────────

const selectSQL = `
	SELECT id, reference_number, payment_request_id, amount, currency, name, email,
	       phone, purpose, status, checkout_url, gateway_payment_id, gateway_status,
	       created_at, updated_at, paid_at
	FROM payment_records`

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanRecord(row rowScanner) (*PaymentRecord, error) {
	p := &PaymentRecord{}
	var requestID, phone, purpose, checkoutURL, gwPaymentID, gwStatus sql.NullString
	var paidAt sql.NullTime

	err := row.Scan(
		&p.ID, &p.ReferenceNumber, &requestID, &p.Amount, &p.Currency,
		&p.Name, &p.Email, &phone, &purpose, &p.Status, &checkoutURL,
		&gwPaymentID, &gwStatus, &p.CreatedAt, &p.UpdatedAt, &paidAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.PaymentRequestID = requestID.String
	p.Phone = phone.String
	p.Purpose = purpose.String
	p.CheckoutURL = checkoutURL.String
	p.GatewayPaymentID = gwPaymentID.String
	p.GatewayStatus = gwStatus.String
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	return p, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
