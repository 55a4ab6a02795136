package models

import "time"

// Статусы оплаты подписки.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusCanceled = "canceled"
)

// UserSubscription представляет одну подписку пользователя на тарифный план.
// Активной считается не более одной подписки на пользователя в окне действия.
type UserSubscription struct {
	ID            int        // Идентификатор подписки
	UserUID       string     // Владелец подписки
	PlanID        int        // Тарифный план
	PaymentStatus string     // pending, paid, failed или canceled
	StartDate     time.Time  // Начало окна действия
	EndDate       time.Time  // Конец окна действия
	CanceledAt    *time.Time // Дата мягкой отмены, nil если не отменена
	CreatedAt     time.Time  // Дата создания записи
}

// IsActive сообщает, действует ли подписка на момент now.
func (s *UserSubscription) IsActive(now time.Time) bool {
	if s.CanceledAt != nil {
		return false
	}
	if s.PaymentStatus != PaymentStatusPaid {
		return false
	}
	return !now.Before(s.StartDate) && now.Before(s.EndDate)
}

// AilmentEntitlement представляет занятые слоты открытых средств по одному
// недугу в рамках подписки.
type AilmentEntitlement struct {
	AilmentID int   // Недуг
	RemedyIDs []int // Средства, открытые по этому недугу
}

// DummySubscribe используется для приёма запроса на оформление подписки.
type DummySubscribe struct {
	PlanID int `json:"plan_id" validate:"required,gt=0"`
}
