package review

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for review data storage.
type Repository interface {
	Create(ctx context.Context, rv *Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)
	// List returns reviews newest first plus the total count.
	List(ctx context.Context, limit, offset int) ([]*Review, int, error)
	Update(ctx context.Context, rv *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}
