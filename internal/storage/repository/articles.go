package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/remedyhub/remedy-api/internal/models"
)

// CreateArticle вставляет статью и возвращает её ID.
func (s *Storage) CreateArticle(ctx context.Context, article models.Article) (int, error) {
	const op = "storage.CreateArticle"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tags, err := json.Marshal(article.Tags)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO articles (title, slug, summary, body, tags, image_url,
			      created_by, is_generated, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		article.Title, article.Slug, article.Summary, article.Body, tags,
		article.ImageURL, article.CreatedBy, article.IsGenerated, article.IsActive).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadArticle возвращает статью по ID.
func (s *Storage) ReadArticle(ctx context.Context, id int) (*models.Article, error) {
	const op = "storage.ReadArticle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, slug, summary, body, tags, image_url, created_by,
			      is_generated, is_active, created_at, updated_at
			  FROM articles WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var a models.Article
	var tags []byte
	if err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Summary, &a.Body, &tags,
		&a.ImageURL, &a.CreatedBy, &a.IsGenerated, &a.IsActive,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapRowErr(op, err)
	}
	if err := json.Unmarshal(tags, &a.Tags); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

// ListArticles возвращает активные статьи с пагинацией, без тела.
func (s *Storage) ListArticles(ctx context.Context, limit, offset int) ([]*models.Article, error) {
	const op = "storage.ListArticles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, slug, summary, tags, image_url, created_by,
			      is_generated, is_active, created_at, updated_at
			  FROM articles
			  WHERE is_active = TRUE
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Article
	for rows.Next() {
		var a models.Article
		var tags []byte
		if err := rows.Scan(&a.ID, &a.Title, &a.Slug, &a.Summary, &tags,
			&a.ImageURL, &a.CreatedBy, &a.IsGenerated, &a.IsActive,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(tags, &a.Tags); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ArticleSlugExists сообщает, занят ли слаг статьи.
func (s *Storage) ArticleSlugExists(ctx context.Context, slug string) (bool, error) {
	const op = "storage.ArticleSlugExists"
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}
