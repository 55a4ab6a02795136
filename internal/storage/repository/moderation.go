package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/remedyhub/remedy-api/internal/models"
)

// contentTable возвращает таблицу контента по его типу.
func contentTable(contentType string) (string, error) {
	switch contentType {
	case models.ContentTypeRemedy:
		return "remedies", nil
	case models.ContentTypeReview:
		return "reviews", nil
	default:
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}
}

// CreateFlag вставляет жалобу и возвращает её ID. Повторная жалоба того же
// пользователя на тот же контент возвращает ErrDuplicate.
func (s *Storage) CreateFlag(ctx context.Context, flag models.Flag) (int, error) {
	const op = "storage.CreateFlag"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO flags (content_type, content_id, flagged_by, reason, note, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		flag.ContentType, flag.ContentID, flag.FlaggedBy, flag.Reason, flag.Note, flag.Status).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetFlag возвращает жалобу по ID.
func (s *Storage) GetFlag(ctx context.Context, id int) (*models.Flag, error) {
	const op = "storage.GetFlag"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, content_type, content_id, flagged_by, reason, note, status, resolved_by, created_at
			  FROM flags WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var f models.Flag
	if err := row.Scan(&f.ID, &f.ContentType, &f.ContentID, &f.FlaggedBy,
		&f.Reason, &f.Note, &f.Status, &f.ResolvedBy, &f.CreatedAt); err != nil {
		return nil, mapRowErr(op, err)
	}
	return &f, nil
}

// SetFlagStatus переводит жалобу в resolved или dismissed.
func (s *Storage) SetFlagStatus(ctx context.Context, id int, status, resolvedBy string) (int, error) {
	const op = "storage.SetFlagStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE flags SET status = $1, resolved_by = $2 WHERE id = $3 AND status = 'open'`,
		status, resolvedBy, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// BumpFlagCount атомарно наращивает счётчик жалоб контента: создаёт или
// обновляет запись модерации, переводит её в under_review и увеличивает
// flag_count в таблице контента. Возвращает новое значение счётчика.
func (s *Storage) BumpFlagCount(ctx context.Context, contentType string, contentID int) (int, error) {
	const op = "storage.BumpFlagCount"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	table, err := contentTable(contentType)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO moderation_statuses (content_type, content_id, status, flag_count)
			  VALUES ($1, $2, 'under_review', 1)
			  ON CONFLICT (content_type, content_id) DO UPDATE
			  SET flag_count = moderation_statuses.flag_count + 1,
			      status = 'under_review',
			      updated_at = now()
			  RETURNING flag_count`
	var count int
	if err := tx.QueryRowContext(ctx, query, contentType, contentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET flag_count = flag_count + 1 WHERE id = $1`, table),
		contentID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if table == "remedies" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE remedies SET moderation_status = 'under_review' WHERE id = $1`,
			contentID); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// DeactivateContent деактивирует контент и записывает причину. Повторная
// деактивация не перезаписывает исходную причину (переход односторонний).
func (s *Storage) DeactivateContent(ctx context.Context, contentType string, contentID int, reason string) error {
	const op = "storage.DeactivateContent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	table, err := contentTable(contentType)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE moderation_statuses
		 SET deactivation_reason = COALESCE(deactivation_reason, $1),
		     deactivated_at = COALESCE(deactivated_at, now()),
		     updated_at = now()
		 WHERE content_type = $2 AND content_id = $3`,
		reason, contentType, contentID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET is_active = FALSE WHERE id = $1`, table),
		contentID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetContentModeration переводит запись модерации в новый статус и
// синхронизирует активность контента.
func (s *Storage) SetContentModeration(ctx context.Context, contentType string, contentID int, status string, active bool) error {
	const op = "storage.SetContentModeration"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	table, err := contentTable(contentType)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE moderation_statuses SET status = $1, updated_at = now()
		 WHERE content_type = $2 AND content_id = $3`,
		status, contentType, contentID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET is_active = $1 WHERE id = $2`, table),
		active, contentID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if table == "remedies" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE remedies SET moderation_status = $1 WHERE id = $2`,
			status, contentID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetModerationStatus возвращает запись модерации контента.
func (s *Storage) GetModerationStatus(ctx context.Context, contentType string, contentID int) (*models.ModerationStatus, error) {
	const op = "storage.GetModerationStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, content_type, content_id, status, flag_count,
			      deactivation_reason, updated_at, deactivated_at
			  FROM moderation_statuses
			  WHERE content_type = $1 AND content_id = $2`
	return scanModerationStatus(s.DB.QueryRowContext(ctx, query, contentType, contentID), op)
}

func scanModerationStatus(row *sql.Row, op string) (*models.ModerationStatus, error) {
	var m models.ModerationStatus
	if err := row.Scan(&m.ID, &m.ContentType, &m.ContentID, &m.Status, &m.FlagCount,
		&m.DeactivationReason, &m.UpdatedAt, &m.DeactivatedAt); err != nil {
		return nil, mapRowErr(op, err)
	}
	return &m, nil
}

// ListUnderReview возвращает контент в статусе under_review для очереди модератора.
func (s *Storage) ListUnderReview(ctx context.Context, limit, offset int) ([]*models.ModerationStatus, error) {
	const op = "storage.ListUnderReview"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, content_type, content_id, status, flag_count,
			      deactivation_reason, updated_at, deactivated_at
			  FROM moderation_statuses
			  WHERE status = 'under_review'
			  ORDER BY updated_at
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.ModerationStatus
	for rows.Next() {
		var m models.ModerationStatus
		if err := rows.Scan(&m.ID, &m.ContentType, &m.ContentID, &m.Status, &m.FlagCount,
			&m.DeactivationReason, &m.UpdatedAt, &m.DeactivatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
