package models

import "time"

// PricingPlan представляет тарифный план из каталога.
// Записи читаются часто и меняются редко, управляются администратором.
type PricingPlan struct {
	ID                  int       // Идентификатор плана
	Name                string    // Название плана
	Price               int       // Цена за период в минимальных единицах валюты
	Currency            string    // Код валюты, например "usd"
	IsUnlimitedRemedies bool      // Снимает ли план лимит на открытие средств
	RemediesPerAilment  int       // Максимум средств, открываемых по одному недугу
	DurationMonths      int       // Длительность оплаченного периода в месяцах
	Features            []string  // Маркетинговый список возможностей
	IsActive            bool      // Доступен ли план для новых подписок
	CreatedAt           time.Time // Дата создания
}

// DummyPlan используется для приёма данных плана из JSON-запроса администратора.
type DummyPlan struct {
	Name                string   `json:"name" validate:"required"`
	Price               int      `json:"price" validate:"required,gt=0"`
	Currency            string   `json:"currency" validate:"required,len=3"`
	IsUnlimitedRemedies bool     `json:"is_unlimited_remedies"`
	RemediesPerAilment  int      `json:"remedies_per_ailment" validate:"gte=0"`
	DurationMonths      int      `json:"duration_months" validate:"required,gt=0"`
	Features            []string `json:"features"`
}
