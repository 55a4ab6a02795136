package repository

import (
	"context"
	"fmt"

	"github.com/remedyhub/remedy-api/internal/models"
)

// CreateReview вставляет отзыв и возвращает его ID.
func (s *Storage) CreateReview(ctx context.Context, review models.Review) (int, error) {
	const op = "storage.CreateReview"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO reviews (remedy_id, rating, text, created_by, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		review.RemedyID, review.Rating, review.Text, review.CreatedBy, review.IsActive).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadReview возвращает отзыв по ID.
func (s *Storage) ReadReview(ctx context.Context, id int) (*models.Review, error) {
	const op = "storage.ReadReview"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, remedy_id, rating, text, created_by, is_active, flag_count, created_at
			  FROM reviews WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var r models.Review
	if err := row.Scan(&r.ID, &r.RemedyID, &r.Rating, &r.Text, &r.CreatedBy,
		&r.IsActive, &r.FlagCount, &r.CreatedAt); err != nil {
		return nil, mapRowErr(op, err)
	}
	return &r, nil
}

// ListReviewsByRemedy возвращает активные отзывы средства с пагинацией.
func (s *Storage) ListReviewsByRemedy(ctx context.Context, remedyID, limit, offset int) ([]*models.Review, error) {
	const op = "storage.ListReviewsByRemedy"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, remedy_id, rating, text, created_by, is_active, flag_count, created_at
			  FROM reviews
			  WHERE remedy_id = $1 AND is_active = TRUE
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, remedyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.RemedyID, &r.Rating, &r.Text, &r.CreatedBy,
			&r.IsActive, &r.FlagCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateComment вставляет комментарий к статье и возвращает его ID.
func (s *Storage) CreateComment(ctx context.Context, comment models.Comment) (int, error) {
	const op = "storage.CreateComment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO comments (article_id, text, created_by, is_active)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		comment.ArticleID, comment.Text, comment.CreatedBy, comment.IsActive).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListCommentsByArticle возвращает активные комментарии статьи с пагинацией.
func (s *Storage) ListCommentsByArticle(ctx context.Context, articleID, limit, offset int) ([]*models.Comment, error) {
	const op = "storage.ListCommentsByArticle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, article_id, text, created_by, is_active, created_at
			  FROM comments
			  WHERE article_id = $1 AND is_active = TRUE
			  ORDER BY created_at
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, articleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.Text, &c.CreatedBy,
			&c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
