package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, rv *Review) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (id, author_name, rating, text)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		rv.ID, rv.AuthorName, rv.Rating, rv.Text).Scan(&rv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func scanReview(scan func(...interface{}) error) (*Review, error) {
	rv := &Review{}
	if err := scan(&rv.ID, &rv.AuthorName, &rv.Rating, &rv.Text, &rv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rv, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, author_name, rating, text, created_at
		FROM reviews WHERE id=$1`, id)
	return scanReview(row.Scan)
}

func (r *postgresRepo) List(ctx context.Context, limit, offset int) ([]*Review, int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, author_name, rating, text, created_at
		FROM reviews
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*Review{}
	for rows.Next() {
		rv, err := scanReview(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, count, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, rv *Review) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reviews SET author_name=$1, rating=$2, text=$3
		WHERE id=$4`,
		rv.AuthorName, rv.Rating, rv.Text, rv.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return expectOneRow(res)
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
