package models

import "time"

// Типы контента, на который принимаются жалобы.
const (
	ContentTypeRemedy = "remedy"
	ContentTypeReview = "review"
)

// Статусы модерации контента. Переходы между ними описаны в moderationTransitions.
const (
	ModerationPending     = "pending"
	ModerationUnderReview = "under_review"
	ModerationApproved    = "approved"
	ModerationRejected    = "rejected"
)

// Статусы отдельной жалобы.
const (
	FlagOpen      = "open"
	FlagResolved  = "resolved"
	FlagDismissed = "dismissed"
)

// moderationTransitions задаёт допустимые переходы статуса модерации.
// Из approved и rejected обратно в pending контент возвращает только
// явное решение модератора.
var moderationTransitions = map[string][]string{
	ModerationPending:     {ModerationUnderReview, ModerationApproved, ModerationRejected},
	ModerationUnderReview: {ModerationApproved, ModerationRejected},
	ModerationApproved:    {ModerationUnderReview},
	ModerationRejected:    {ModerationUnderReview},
}

// CanTransitionModeration сообщает, допустим ли переход статуса модерации from -> to.
// Переход в тот же статус считается допустимым (идемпотентность повторных жалоб).
func CanTransitionModeration(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range moderationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Flag представляет одну жалобу пользователя на контент.
// Пара (тип контента, контент, пользователь) уникальна.
type Flag struct {
	ID          int       // Идентификатор жалобы
	ContentType string    // remedy или review
	ContentID   int       // Идентификатор контента
	FlaggedBy   string    // UID подавшего жалобу
	Reason      string    // Причина жалобы
	Note        string    // Свободный комментарий
	Status      string    // open, resolved или dismissed
	ResolvedBy  *string   // UID модератора, принявшего решение
	CreatedAt   time.Time // Дата подачи
}

// ModerationStatus представляет агрегированное состояние модерации одного
// элемента контента. Жалобы накапливаются в FlagCount.
type ModerationStatus struct {
	ID                 int        // Идентификатор записи
	ContentType        string     // Тип контента
	ContentID          int        // Идентификатор контента
	Status             string     // Текущий статус модерации
	FlagCount          int        // Число накопленных жалоб
	DeactivationReason *string    // Причина деактивации, если порог превышен
	UpdatedAt          time.Time  // Дата последнего изменения
	DeactivatedAt      *time.Time // Дата деактивации
}

// DummyFlag используется для приёма жалобы из JSON-запроса.
type DummyFlag struct {
	Reason string `json:"reason" validate:"required,oneof=spam misleading harmful offensive other"`
	Note   string `json:"note" validate:"max=1000"`
}

// DummyResolveFlag используется модератором для принятия решения по жалобе.
type DummyResolveFlag struct {
	Resolution string `json:"resolution" validate:"required,oneof=resolved dismissed"`
}
