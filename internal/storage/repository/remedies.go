package repository

import (
	"context"
	"fmt"

	"github.com/remedyhub/remedy-api/internal/models"
)

// CreateRemedy вставляет средство вместе со связями на недуги и возвращает его ID.
func (s *Storage) CreateRemedy(ctx context.Context, remedy models.Remedy) (int, error) {
	const op = "storage.CreateRemedy"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO remedies (name, slug, category, summary, content, image_url,
			      created_by, moderation_status, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var newID int
	err = tx.QueryRowContext(ctx, query,
		remedy.Name, remedy.Slug, remedy.Category, remedy.Summary, remedy.Content,
		remedy.ImageURL, remedy.CreatedBy, remedy.ModerationStatus, remedy.IsActive).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, ailmentID := range remedy.AilmentIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO remedy_ailments (remedy_id, ailment_id) VALUES ($1, $2)`,
			newID, ailmentID); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadRemedy возвращает средство по ID вместе со списком его недугов.
func (s *Storage) ReadRemedy(ctx context.Context, id int) (*models.Remedy, error) {
	const op = "storage.ReadRemedy"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, slug, category, summary, content, image_url, created_by,
			      moderation_status, is_active, flag_count, created_at, updated_at
			  FROM remedies WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var r models.Remedy
	if err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.Category, &r.Summary, &r.Content,
		&r.ImageURL, &r.CreatedBy, &r.ModerationStatus, &r.IsActive, &r.FlagCount,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, mapRowErr(op, err)
	}

	ailmentIDs, err := s.remedyAilmentIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r.AilmentIDs = ailmentIDs
	return &r, nil
}

func (s *Storage) remedyAilmentIDs(ctx context.Context, remedyID int) ([]int, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT ailment_id FROM remedy_ailments WHERE remedy_id = $1 ORDER BY ailment_id`, remedyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

// ListRemedies возвращает активные средства с пагинацией, без полного содержимого.
func (s *Storage) ListRemedies(ctx context.Context, limit, offset int) ([]*models.Remedy, error) {
	const op = "storage.ListRemedies"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, slug, category, summary, image_url, created_by,
			      moderation_status, is_active, flag_count, created_at, updated_at
			  FROM remedies
			  WHERE is_active = TRUE
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Remedy
	for rows.Next() {
		var r models.Remedy
		if err := rows.Scan(&r.ID, &r.Name, &r.Slug, &r.Category, &r.Summary,
			&r.ImageURL, &r.CreatedBy, &r.ModerationStatus, &r.IsActive, &r.FlagCount,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateRemedy обновляет редактируемые поля средства и возвращает число изменённых строк.
func (s *Storage) UpdateRemedy(ctx context.Context, remedy models.Remedy, id int) (int, error) {
	const op = "storage.UpdateRemedy"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `UPDATE remedies
			  SET name = $1, category = $2, summary = $3, content = $4,
			      moderation_status = $5, updated_at = now()
			  WHERE id = $6`
	result, err := tx.ExecContext(ctx, query,
		remedy.Name, remedy.Category, remedy.Summary, remedy.Content,
		remedy.ModerationStatus, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return 0, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM remedy_ailments WHERE remedy_id = $1`, id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	for _, ailmentID := range remedy.AilmentIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO remedy_ailments (remedy_id, ailment_id) VALUES ($1, $2)`, id, ailmentID)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveRemedy удаляет средство по ID и возвращает число удалённых строк.
func (s *Storage) RemoveRemedy(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveRemedy"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM remedies WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemedySlugExists сообщает, занят ли слаг.
func (s *Storage) RemedySlugExists(ctx context.Context, slug string) (bool, error) {
	const op = "storage.RemedySlugExists"
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM remedies WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}
