// Package models содержит доменные структуры платформы: пользователей,
// тарифные планы, подписки, средства, статьи, отзывы и записи модерации,
// а также вспомогательные Dummy-типы для приёма данных из JSON-запросов.
package models

import "time"

// Роли пользователей.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleWriter    = "writer"
)

// Статусы учётной записи.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusWarning   = "warning"
)

// User представляет зарегистрированного пользователя платформы.
type User struct {
	UID           string     // Уникальный идентификатор пользователя
	Email         string     // Электронная почта (уникальная)
	Username      string     // Имя пользователя (уникальное)
	PasswordHash  string     // Хэш пароля пользователя
	Role          string     // Роль: user, admin, moderator или writer
	Status        string     // Статус: active, suspended или warning
	EmailVerified bool       // Подтверждена ли почта
	CreatedAt     time.Time  // Дата регистрации
	DeletedAt     *time.Time // Дата удаления учётной записи администратором
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// DummyResetRequest используется для запроса ссылки на сброс пароля.
type DummyResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// DummyResetConfirm используется для установки нового пароля по токену сброса.
type DummyResetConfirm struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// DummyUserStatus используется администратором для смены статуса пользователя.
type DummyUserStatus struct {
	Status string `json:"status" validate:"required,oneof=active suspended warning"`
}
