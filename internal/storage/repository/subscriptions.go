package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/remedyhub/remedy-api/internal/models"
)

// CreateSubscription вставляет подписку пользователя и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.UserSubscription) (int, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_subscriptions (user_uid, plan_id, payment_status, start_date, end_date)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sub.UserUID, sub.PlanID, sub.PaymentStatus, sub.StartDate, sub.EndDate).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetActiveSubscription возвращает оплаченную неотменённую подписку
// пользователя, действующую на момент now.
func (s *Storage) GetActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.UserSubscription, error) {
	const op = "storage.GetActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_id, payment_status, start_date, end_date, canceled_at, created_at
			  FROM user_subscriptions
			  WHERE user_uid = $1
			    AND payment_status = 'paid'
			    AND canceled_at IS NULL
			    AND start_date <= $2
			    AND end_date > $2
			  ORDER BY end_date DESC
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, userUID, now)

	var sub models.UserSubscription
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.PlanID, &sub.PaymentStatus,
		&sub.StartDate, &sub.EndDate, &sub.CanceledAt, &sub.CreatedAt); err != nil {
		return nil, mapRowErr(op, err)
	}
	return &sub, nil
}

// GetSubscription возвращает подписку по ID.
func (s *Storage) GetSubscription(ctx context.Context, id int) (*models.UserSubscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_id, payment_status, start_date, end_date, canceled_at, created_at
			  FROM user_subscriptions WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var sub models.UserSubscription
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.PlanID, &sub.PaymentStatus,
		&sub.StartDate, &sub.EndDate, &sub.CanceledAt, &sub.CreatedAt); err != nil {
		return nil, mapRowErr(op, err)
	}
	return &sub, nil
}

// UpdatePaymentStatus меняет статус оплаты подписки и возвращает число изменённых строк.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, id int, status string) (int, error) {
	const op = "storage.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE user_subscriptions SET payment_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// CancelSubscription мягко отменяет подписку, проставляя canceled_at.
func (s *Storage) CancelSubscription(ctx context.Context, id int, canceledAt time.Time) (int, error) {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE user_subscriptions SET canceled_at = $1 WHERE id = $2 AND canceled_at IS NULL`,
		canceledAt, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
