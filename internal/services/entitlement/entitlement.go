// Package entitlement реализует разрешение доступа к полному содержимому
// средств: проверку уже открытых слотов, лимитов тарифного плана и
// атомарное занятие слотов по недугам.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/remedyhub/remedy-api/internal/metrics"
	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// Ошибки бизнес-уровня доступа к средствам.
var (
	// ErrRemedyNotFound средство не существует или деактивировано.
	ErrRemedyNotFound = errors.New("remedy not found")
	// ErrPlanNotFound подписка ссылается на несуществующий план.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrAilmentNotLinked запрошенный недуг не связан со средством.
	ErrAilmentNotLinked = errors.New("ailment is not linked to the remedy")
)

// Причины отказа в доступе.
const (
	ReasonNoSubscription = "active subscription required"
	ReasonPlanLimit      = "plan limit reached for this ailment"
)

// Repository описывает методы хранилища, нужные для разрешения доступа.
type Repository interface {
	ReadRemedy(ctx context.Context, id int) (*models.Remedy, error)
	HasUnlockedRemedy(ctx context.Context, userUID string, remedyID int) (bool, error)
	GetActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.UserSubscription, error)
	ReadPlan(ctx context.Context, id int) (*models.PricingPlan, error)
	GrantRemedyUnlimited(ctx context.Context, subscriptionID int, userUID string, remedyID int, ailmentIDs []int) error
	GrantRemedyCapped(ctx context.Context, subscriptionID int, userUID string, remedyID int, ailmentIDs []int, cap int) (bool, error)
	ListEntitlements(ctx context.Context, subscriptionID int) ([]models.AilmentEntitlement, error)
	ListUnlockedRemedies(ctx context.Context, userUID string) ([]int, error)
}

// Decision результат разрешения доступа к средству.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Remedy  *models.Remedy
}

// Service реализует бизнес-логику доступа к средствам.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Resolve решает, может ли пользователь читать полное содержимое средства.
// Порядок проверок: уже открытое средство доступно без подписки и без
// расхода слотов; затем требуется активная оплаченная подписка; безлимитный
// план открывает средство сразу; лимитированный план занимает слот по
// каждому недугу средства атомарно, всё или ничего. Если передан ailmentID,
// лимитированный план занимает слот только по этому недугу.
func (s *Service) Resolve(ctx context.Context, userUID string, remedyID int, ailmentID *int) (*Decision, error) {
	const op = "services.entitlement.Resolve"

	remedy, err := s.repo.ReadRemedy(ctx, remedyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRemedyNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !remedy.IsActive {
		return nil, ErrRemedyNotFound
	}

	ailments := remedy.AilmentIDs
	if ailmentID != nil {
		linked := false
		for _, id := range remedy.AilmentIDs {
			if id == *ailmentID {
				linked = true
				break
			}
		}
		if !linked {
			return nil, ErrAilmentNotLinked
		}
		ailments = []int{*ailmentID}
	}

	unlocked, err := s.repo.HasUnlockedRemedy(ctx, userUID, remedyID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if unlocked {
		return &Decision{Allowed: true, Remedy: remedy}, nil
	}

	sub, err := s.repo.GetActiveSubscription(ctx, userUID, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.EntitlementDenials.WithLabelValues("no_subscription").Inc()
			return &Decision{Allowed: false, Reason: ReasonNoSubscription}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plan, err := s.repo.ReadPlan(ctx, sub.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if plan.IsUnlimitedRemedies {
		if err := s.repo.GrantRemedyUnlimited(ctx, sub.ID, userUID, remedyID, remedy.AilmentIDs); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("remedy unlocked on unlimited plan",
			slog.String("user_uid", userUID), slog.Int("remedy_id", remedyID))
		return &Decision{Allowed: true, Remedy: remedy}, nil
	}

	granted, err := s.repo.GrantRemedyCapped(ctx, sub.ID, userUID, remedyID, ailments, plan.RemediesPerAilment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !granted {
		metrics.EntitlementDenials.WithLabelValues("plan_limit").Inc()
		return &Decision{Allowed: false, Reason: ReasonPlanLimit}, nil
	}

	s.log.Info("remedy unlocked",
		slog.String("user_uid", userUID), slog.Int("remedy_id", remedyID),
		slog.Int("subscription_id", sub.ID))
	return &Decision{Allowed: true, Remedy: remedy}, nil
}

// ListSlots возвращает занятые слоты активной подписки, сгруппированные
// по недугам, либо repository.ErrNotFound, если активной подписки нет.
func (s *Service) ListSlots(ctx context.Context, userUID string) ([]models.AilmentEntitlement, error) {
	const op = "services.entitlement.ListSlots"

	sub, err := s.repo.GetActiveSubscription(ctx, userUID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slots, err := s.repo.ListEntitlements(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return slots, nil
}

// ListUnlocked возвращает идентификаторы всех средств, когда-либо открытых
// пользователем. Открытые средства остаются доступными после смены плана.
func (s *Service) ListUnlocked(ctx context.Context, userUID string) ([]int, error) {
	const op = "services.entitlement.ListUnlocked"

	ids, err := s.repo.ListUnlockedRemedies(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}
