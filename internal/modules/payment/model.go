package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a PaymentRecord.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s ends the normal lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// PaymentRecord is one payment attempt against the hosted gateway.
type PaymentRecord struct {
	ID               uuid.UUID       `json:"id"`
	ReferenceNumber  string          `json:"reference_number"`
	PaymentRequestID string          `json:"payment_request_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone,omitempty"`
	Purpose          string          `json:"purpose,omitempty"`
	Status           Status          `json:"status"`
	CheckoutURL      string          `json:"checkout_url,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	GatewayStatus    string          `json:"gateway_status,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
}

// setStatus moves the record to s and keeps paid_at in step with it.
// An existing paid_at survives a completed -> completed move.
func (p *PaymentRecord) setStatus(s Status, now time.Time) {
	p.Status = s
	if s == StatusCompleted {
		if p.PaidAt == nil {
			t := now
			p.PaidAt = &t
		}
		return
	}
	p.PaidAt = nil
}

var (
	ErrNotFound           = errors.New("payment record not found")
	ErrDuplicateReference = errors.New("duplicate reference number")
	ErrInvariant          = errors.New("payment record invariant violated")
)

// validateMutation rejects any change that rewrites an immutable field or
// breaks the status/paid_at pairing. Every Repository implementation calls it
// before persisting an update.
func validateMutation(before, after *PaymentRecord) error {
	switch {
	case after.ID != before.ID:
		return fmt.Errorf("%w: id changed", ErrInvariant)
	case after.ReferenceNumber != before.ReferenceNumber:
		return fmt.Errorf("%w: reference_number changed", ErrInvariant)
	case !after.Amount.Equal(before.Amount) || after.Currency != before.Currency:
		return fmt.Errorf("%w: amount changed", ErrInvariant)
	case after.Name != before.Name || after.Email != before.Email ||
		after.Phone != before.Phone || after.Purpose != before.Purpose:
		return fmt.Errorf("%w: payer details changed", ErrInvariant)
	case !after.CreatedAt.Equal(before.CreatedAt):
		return fmt.Errorf("%w: created_at changed", ErrInvariant)
	case before.PaymentRequestID != "" && after.PaymentRequestID != before.PaymentRequestID:
		return fmt.Errorf("%w: payment_request_id already set", ErrInvariant)
	case before.CheckoutURL != "" && after.CheckoutURL != before.CheckoutURL:
		return fmt.Errorf("%w: checkout_url already set", ErrInvariant)
	}
	return validateRecord(after)
}

func validateRecord(p *PaymentRecord) error {
	if !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvariant, p.Status)
	}
	if (p.Status == StatusCompleted) != (p.PaidAt != nil) {
		return fmt.Errorf("%w: paid_at must be set iff status is completed", ErrInvariant)
	}
	return nil
}

// ── Request/Response DTOs ─────────────────────────────────────────────────────

// CreatePaymentRequest is the body of POST /payments/create.
type CreatePaymentRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Name     string           `json:"name" validate:"required,max=255"`
	Email    string           `json:"email" validate:"required,max=254"`
	Phone    string           `json:"phone,omitempty" validate:"max=32"`
	Currency string           `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Purpose  string           `json:"purpose,omitempty" validate:"max=255"`
}

type CreatePaymentResponse struct {
	CheckoutURL      string `json:"checkout_url"`
	PaymentRequestID string `json:"payment_request_id"`
	ReferenceNumber  string `json:"reference_number"`
	Status           Status `json:"status"`
}

// StatusResponse is the public view of a record.
type StatusResponse struct {
	ReferenceNumber string     `json:"reference_number"`
	Status          Status     `json:"status"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	CreatedAt       time.Time  `json:"created_at"`
	PaidAt          *time.Time `json:"paid_at"`
}

func newStatusResponse(p *PaymentRecord) *StatusResponse {
	return &StatusResponse{
		ReferenceNumber: p.ReferenceNumber,
		Status:          p.Status,
		Amount:          p.Amount.StringFixed(2),
		Currency:        p.Currency,
		CreatedAt:       p.CreatedAt,
		PaidAt:          p.PaidAt,
	}
}

// UpdateStatusRequest is the body of the administrative override.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateStatusResponse struct {
	Message         string `json:"message"`
	ReferenceNumber string `json:"reference_number"`
	Status          Status `json:"status"`
}
