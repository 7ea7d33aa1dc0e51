package review

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PageSize is the number of reviews per list page.
const PageSize = 10

var ErrNotFound = errors.New("review not found")

// Review is a customer review shown on the storefront.
type Review struct {
	ID         uuid.UUID `json:"id"`
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewRequest is the body of create and full update.
type ReviewRequest struct {
	AuthorName string `json:"author_name" validate:"required,max=100"`
	Rating     int    `json:"rating" validate:"gte=1,lte=5"`
	Text       string `json:"text" validate:"required"`
}

// PatchRequest holds a partial update. Nil fields are left alone.
type PatchRequest struct {
	AuthorName *string `json:"author_name" validate:"omitnil,min=1,max=100"`
	Rating     *int    `json:"rating" validate:"omitnil,gte=1,lte=5"`
	Text       *string `json:"text" validate:"omitnil,min=1"`
}

// Page is one page of the newest-first review list.
type Page struct {
	Count   int       `json:"count"`
	Page    int       `json:"page"`
	Results []*Review `json:"results"`
}
