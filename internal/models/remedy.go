package models

import "time"

// Remedy представляет народное средство, опубликованное пользователем.
// Полное содержимое доступно только после открытия средства подпиской.
type Remedy struct {
	ID               int       // Идентификатор средства
	Name             string    // Название
	Slug             string    // Уникальный слаг для URL
	Category         string    // Категория средства
	Summary          string    // Короткое описание, видимое всем
	Content          string    // Полное содержимое, закрытое entitlement-ом
	ImageURL         string    // Изображение средства
	AilmentIDs       []int     // Недуги, к которым относится средство
	CreatedBy        string    // UID автора
	ModerationStatus string    // Текущий статус модерации
	IsActive         bool      // Активно ли средство (false после деактивации)
	FlagCount        int       // Число жалоб
	CreatedAt        time.Time // Дата создания
	UpdatedAt        time.Time // Дата последнего изменения
}

// DummyRemedy используется для приёма данных средства из JSON-запроса.
type DummyRemedy struct {
	Name       string `json:"name" validate:"required,min=3,max=200"`
	Category   string `json:"category" validate:"required"`
	Summary    string `json:"summary" validate:"required,max=500"`
	Content    string `json:"content" validate:"required"`
	AilmentIDs []int  `json:"ailment_ids" validate:"required,min=1,dive,gt=0"`
}

// Ailment представляет недуг — именованное состояние, к которому привязываются средства.
type Ailment struct {
	ID          int       // Идентификатор недуга
	Name        string    // Название (уникальное)
	Slug        string    // Слаг для URL
	Description string    // Описание
	CreatedAt   time.Time // Дата создания
}

// DummyAilment используется для приёма данных недуга из JSON-запроса.
type DummyAilment struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=2000"`
}
