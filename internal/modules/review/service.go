package review

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
	"github.com/georgemunganga/hitpay-reviews/internal/validation"
)

// Service defines review business logic.
type Service interface {
	List(ctx context.Context, page int) (*Page, error)
	Create(ctx context.Context, req ReviewRequest) (*Review, error)
	Get(ctx context.Context, id string) (*Review, error)
	Update(ctx context.Context, id string, req ReviewRequest) (*Review, error)
	Patch(ctx context.Context, id string, req PatchRequest) (*Review, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo   Repository
	logger *slog.Logger
	newID  func() uuid.UUID
}

func NewService(repo Repository, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, logger: logger, newID: uuid.New}
}

func (s *service) List(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		return nil, apperr.NotFoundErr("Invalid page")
	}
	reviews, count, err := s.repo.List(ctx, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	// the first page always exists, even when empty
	if page > 1 && len(reviews) == 0 {
		return nil, apperr.NotFoundErr("Invalid page")
	}
	return &Page{Count: count, Page: page, Results: reviews}, nil
}

func (s *service) Create(ctx context.Context, req ReviewRequest) (*Review, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	rv := &Review{
		ID:         s.newID(),
		AuthorName: req.AuthorName,
		Rating:     req.Rating,
		Text:       req.Text,
	}
	if err := s.repo.Create(ctx, rv); err != nil {
		return nil, apperr.Wrap(err)
	}
	s.logger.InfoContext(ctx, "review created", "review_id", rv.ID, "rating", rv.Rating)
	return rv, nil
}

func (s *service) Get(ctx context.Context, id string) (*Review, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound()
	}
	rv, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, mapErr(err)
	}
	return rv, nil
}

func (s *service) Update(ctx context.Context, id string, req ReviewRequest) (*Review, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	rv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rv.AuthorName = req.AuthorName
	rv.Rating = req.Rating
	rv.Text = req.Text
	return s.save(ctx, rv)
}

func (s *service) Patch(ctx context.Context, id string, req PatchRequest) (*Review, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	rv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.AuthorName != nil {
		rv.AuthorName = *req.AuthorName
	}
	if req.Rating != nil {
		rv.Rating = *req.Rating
	}
	if req.Text != nil {
		rv.Text = *req.Text
	}
	return s.save(ctx, rv)
}

func (s *service) save(ctx context.Context, rv *Review) (*Review, error) {
	if err := s.repo.Update(ctx, rv); err != nil {
		return nil, mapErr(err)
	}
	s.logger.InfoContext(ctx, "review updated", "review_id", rv.ID)
	return rv, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return notFound()
	}
	if err := s.repo.Delete(ctx, uid); err != nil {
		return mapErr(err)
	}
	s.logger.InfoContext(ctx, "review deleted", "review_id", uid)
	return nil
}

func notFound() error { return apperr.NotFoundErr("Review not found") }

func mapErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return notFound()
	}
	return apperr.Wrap(err)
}
