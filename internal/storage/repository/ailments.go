package repository

import (
	"context"
	"fmt"

	"github.com/remedyhub/remedy-api/internal/models"
)

// CreateAilment вставляет недуг и возвращает его ID.
func (s *Storage) CreateAilment(ctx context.Context, ailment models.Ailment) (int, error) {
	const op = "storage.CreateAilment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO ailments (name, slug, description)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		ailment.Name, ailment.Slug, ailment.Description).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListAilments возвращает все недуги.
func (s *Storage) ListAilments(ctx context.Context) ([]*models.Ailment, error) {
	const op = "storage.ListAilments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, slug, description, created_at FROM ailments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Ailment
	for rows.Next() {
		var a models.Ailment
		if err := rows.Scan(&a.ID, &a.Name, &a.Slug, &a.Description, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountAilmentsByIDs возвращает число существующих недугов среди переданных ID.
// Используется для проверки ссылок перед созданием средства.
func (s *Storage) CountAilmentsByIDs(ctx context.Context, ids []int) (int, error) {
	const op = "storage.CountAilmentsByIDs"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM ailments WHERE id = ANY($1::int[])`, intArray(ids)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
