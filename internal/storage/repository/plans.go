package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/remedyhub/remedy-api/internal/models"
)

// CreatePlan вставляет тарифный план и возвращает его ID.
func (s *Storage) CreatePlan(ctx context.Context, plan models.PricingPlan) (int, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features, err := json.Marshal(plan.Features)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO pricing_plans (name, price, currency, is_unlimited_remedies,
			      remedies_per_ailment, duration_months, features, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.Price, plan.Currency, plan.IsUnlimitedRemedies,
		plan.RemediesPerAilment, plan.DurationMonths, features, plan.IsActive).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadPlan возвращает тарифный план по ID.
func (s *Storage) ReadPlan(ctx context.Context, id int) (*models.PricingPlan, error) {
	const op = "storage.ReadPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, currency, is_unlimited_remedies,
			      remedies_per_ailment, duration_months, features, is_active, created_at
			  FROM pricing_plans WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var plan models.PricingPlan
	var features []byte
	if err := row.Scan(&plan.ID, &plan.Name, &plan.Price, &plan.Currency,
		&plan.IsUnlimitedRemedies, &plan.RemediesPerAilment, &plan.DurationMonths,
		&features, &plan.IsActive, &plan.CreatedAt); err != nil {
		return nil, mapRowErr(op, err)
	}
	if err := json.Unmarshal(features, &plan.Features); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &plan, nil
}

// ListPlans возвращает активные тарифные планы.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.PricingPlan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, currency, is_unlimited_remedies,
			      remedies_per_ailment, duration_months, features, is_active, created_at
			  FROM pricing_plans
			  WHERE is_active = TRUE
			  ORDER BY price`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.PricingPlan
	for rows.Next() {
		var plan models.PricingPlan
		var features []byte
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.Price, &plan.Currency,
			&plan.IsUnlimitedRemedies, &plan.RemediesPerAilment, &plan.DurationMonths,
			&features, &plan.IsActive, &plan.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(features, &plan.Features); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
