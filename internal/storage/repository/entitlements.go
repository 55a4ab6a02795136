package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/remedyhub/remedy-api/internal/models"
)

// grantEntitlementQuery добавляет средство в слоты недуга только если текущее
// число занятых слотов меньше лимита. Проверка и вставка выполняются одним
// оператором, поэтому параллельные запросы не могут превысить лимит.
const grantEntitlementQuery = `
	INSERT INTO subscription_entitlements (subscription_id, ailment_id, remedy_id)
	SELECT $1, $2, $3
	WHERE (SELECT count(*) FROM subscription_entitlements
	       WHERE subscription_id = $1 AND ailment_id = $2) < $4
	ON CONFLICT DO NOTHING`

const grantEntitlementUncappedQuery = `
	INSERT INTO subscription_entitlements (subscription_id, ailment_id, remedy_id)
	VALUES ($1, $2, $3)
	ON CONFLICT DO NOTHING`

// HasEntitlement сообщает, записано ли средство в слоты недуга внутри подписки.
func (s *Storage) HasEntitlement(ctx context.Context, subscriptionID, ailmentID, remedyID int) (bool, error) {
	const op = "storage.HasEntitlement"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS(SELECT 1 FROM subscription_entitlements
			  WHERE subscription_id = $1 AND ailment_id = $2 AND remedy_id = $3)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, subscriptionID, ailmentID, remedyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// GrantRemedyUnlimited записывает средство во все переданные недуги без лимита
// и открывает его для пользователя. Используется для безлимитных планов.
func (s *Storage) GrantRemedyUnlimited(ctx context.Context, subscriptionID int, userUID string, remedyID int, ailmentIDs []int) error {
	const op = "storage.GrantRemedyUnlimited"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ailmentID := range ailmentIDs {
		if _, err := tx.ExecContext(ctx, grantEntitlementUncappedQuery,
			subscriptionID, ailmentID, remedyID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := unlockRemedyTx(ctx, tx, userUID, remedyID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GrantRemedyCapped пытается записать средство во все переданные недуги с
// учётом лимита плана и открыть его для пользователя. Возвращает false, если
// хотя бы один недуг уже занял все слоты; в этом случае транзакция
// откатывается целиком и никаких частичных изменений не остаётся.
func (s *Storage) GrantRemedyCapped(ctx context.Context, subscriptionID int, userUID string, remedyID int, ailmentIDs []int, cap int) (bool, error) {
	const op = "storage.GrantRemedyCapped"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ailmentID := range ailmentIDs {
		granted, err := grantCappedTx(ctx, tx, subscriptionID, ailmentID, remedyID, cap)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		if !granted {
			return false, nil
		}
	}
	if err := unlockRemedyTx(ctx, tx, userUID, remedyID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// grantCappedTx выполняет условную вставку одного слота. Уже записанная пара
// (недуг, средство) считается успехом без изменений.
func grantCappedTx(ctx context.Context, tx *sql.Tx, subscriptionID, ailmentID, remedyID, cap int) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM subscription_entitlements
		 WHERE subscription_id = $1 AND ailment_id = $2 AND remedy_id = $3)`,
		subscriptionID, ailmentID, remedyID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	result, err := tx.ExecContext(ctx, grantEntitlementQuery, subscriptionID, ailmentID, remedyID, cap)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func unlockRemedyTx(ctx context.Context, tx *sql.Tx, userUID string, remedyID int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO user_unlocked_remedies (user_uid, remedy_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userUID, remedyID)
	return err
}

// ListEntitlements возвращает занятые слоты подписки, сгруппированные по недугам.
func (s *Storage) ListEntitlements(ctx context.Context, subscriptionID int) ([]models.AilmentEntitlement, error) {
	const op = "storage.ListEntitlements"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ailment_id, remedy_id FROM subscription_entitlements
			  WHERE subscription_id = $1
			  ORDER BY ailment_id, created_at`
	rows, err := s.DB.QueryContext(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.AilmentEntitlement
	for rows.Next() {
		var ailmentID, remedyID int
		if err := rows.Scan(&ailmentID, &remedyID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if n := len(result); n > 0 && result[n-1].AilmentID == ailmentID {
			result[n-1].RemedyIDs = append(result[n-1].RemedyIDs, remedyID)
			continue
		}
		result = append(result, models.AilmentEntitlement{
			AilmentID: ailmentID,
			RemedyIDs: []int{remedyID},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountAilmentEntitlements возвращает число занятых слотов недуга внутри подписки.
func (s *Storage) CountAilmentEntitlements(ctx context.Context, subscriptionID, ailmentID int) (int, error) {
	const op = "storage.CountAilmentEntitlements"
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM subscription_entitlements WHERE subscription_id = $1 AND ailment_id = $2`,
		subscriptionID, ailmentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
