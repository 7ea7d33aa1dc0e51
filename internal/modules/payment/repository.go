package payment

import (
	"context"
	"time"
)

// MutateFunc edits a locked record in place. Returning false leaves the
// stored row untouched.
type MutateFunc func(p *PaymentRecord) (changed bool, err error)

// Repository is the payment record store. Updates are read-modify-write under
// a per-record lock and are checked with validateMutation before they land.
type Repository interface {
	Create(ctx context.Context, p *PaymentRecord) error
	GetByReference(ctx context.Context, ref string) (*PaymentRecord, error)
	GetByRequestID(ctx context.Context, requestID string) (*PaymentRecord, error)
	UpdateByReference(ctx context.Context, ref string, mutate MutateFunc) (*PaymentRecord, error)
	UpdateByRequestID(ctx context.Context, requestID string, mutate MutateFunc) (*PaymentRecord, error)
	// Delete removes a record. Only the initiator's compensation path uses it.
	Delete(ctx context.Context, ref string) error
	// CancelStale cancels pending records created before cutoff that never
	// received a checkout URL, returning how many were cancelled.
	CancelStale(ctx context.Context, cutoff time.Time) (int64, error)
}
