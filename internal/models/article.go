package models

import "time"

// Article представляет редакционную статью, написанную автором
// или сгенерированную через AI-клиент.
type Article struct {
	ID          int       // Идентификатор статьи
	Title       string    // Заголовок
	Slug        string    // Уникальный слаг для URL
	Summary     string    // Короткое описание
	Body        string    // Текст статьи
	Tags        []string  // Теги
	ImageURL    string    // Обложка
	CreatedBy   string    // UID автора
	IsGenerated bool      // Создана ли статья AI-клиентом
	IsActive    bool      // Опубликована ли статья
	CreatedAt   time.Time // Дата создания
	UpdatedAt   time.Time // Дата последнего изменения
}

// DummyArticle используется для приёма данных статьи из JSON-запроса.
type DummyArticle struct {
	Title   string   `json:"title" validate:"required,min=3,max=250"`
	Summary string   `json:"summary" validate:"required,max=500"`
	Body    string   `json:"body" validate:"required"`
	Tags    []string `json:"tags"`
}

// DummyGenerateArticle используется для запроса AI-генерации статьи по теме.
type DummyGenerateArticle struct {
	Topic string `json:"topic" validate:"required,min=3,max=200"`
}

// GeneratedArticle описывает JSON-ответ, который AI-клиент обязан вернуть
// при генерации статьи.
type GeneratedArticle struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Body    string   `json:"body"`
	Tags    []string `json:"tags"`
}

// Review представляет отзыв пользователя о средстве.
type Review struct {
	ID        int       // Идентификатор отзыва
	RemedyID  int       // Средство, к которому относится отзыв
	Rating    int       // Оценка от 1 до 5
	Text      string    // Текст отзыва
	CreatedBy string    // UID автора
	IsActive  bool      // Активен ли отзыв (false после деактивации)
	FlagCount int       // Число жалоб
	CreatedAt time.Time // Дата создания
}

// DummyReview используется для приёма данных отзыва из JSON-запроса.
type DummyReview struct {
	RemedyID int    `json:"remedy_id" validate:"required,gt=0"`
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Text     string `json:"text" validate:"required,max=4000"`
}

// Comment представляет комментарий пользователя к статье.
type Comment struct {
	ID        int       // Идентификатор комментария
	ArticleID int       // Статья, к которой относится комментарий
	Text      string    // Текст комментария
	CreatedBy string    // UID автора
	IsActive  bool      // Активен ли комментарий
	CreatedAt time.Time // Дата создания
}

// DummyComment используется для приёма данных комментария из JSON-запроса.
type DummyComment struct {
	ArticleID int    `json:"article_id" validate:"required,gt=0"`
	Text      string `json:"text" validate:"required,max=2000"`
}
