// Package article содержит бизнес-логику статей и комментариев к ним,
// включая генерацию статей AI-клиентом.
package article

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/remedyhub/remedy-api/internal/imagesearch"
	"github.com/remedyhub/remedy-api/internal/lib/slug"
	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// Ошибки бизнес-уровня статей.
var (
	ErrGenerationFailed = errors.New("article generation failed")
	ErrArticleNotFound  = errors.New("article not found")
)

// Системный промпт генерации: модель обязана вернуть чистый JSON.
const generateSystemPrompt = `You are a health content writer for a folk remedies platform.
Write an informative, cautious article about the given topic.
Always remind readers to consult a medical professional.
Respond with a single JSON object and nothing else, using exactly these keys:
{"title": string, "summary": string (max 2 sentences), "body": string (markdown), "tags": [string]}`

// Repository описывает методы хранилища для работы со статьями и комментариями.
type Repository interface {
	CreateArticle(ctx context.Context, article models.Article) (int, error)
	ReadArticle(ctx context.Context, id int) (*models.Article, error)
	ListArticles(ctx context.Context, limit, offset int) ([]*models.Article, error)
	ArticleSlugExists(ctx context.Context, slug string) (bool, error)
	CreateComment(ctx context.Context, comment models.Comment) (int, error)
	ListCommentsByArticle(ctx context.Context, articleID, limit, offset int) ([]*models.Comment, error)
}

// Generator описывает генерацию структурированного контента AI-клиентом.
type Generator interface {
	CompleteJSON(ctx context.Context, system, user string, dst any) error
}

// ImageSearcher подбирает обложку для статьи.
type ImageSearcher interface {
	Query(ctx context.Context, query string) imagesearch.Image
}

// Service реализует бизнес-логику статей.
type Service struct {
	repo   Repository
	ai     Generator
	images ImageSearcher
	log    *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, ai Generator, images ImageSearcher, log *slog.Logger) *Service {
	return &Service{repo: repo, ai: ai, images: images, log: log}
}

// Create сохраняет статью, написанную автором вручную.
func (s *Service) Create(ctx context.Context, userUID string, req models.DummyArticle) (int, error) {
	const op = "services.article.Create"

	articleSlug, err := s.uniqueSlug(ctx, req.Title)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	image := s.images.Query(ctx, req.Title)

	id, err := s.repo.CreateArticle(ctx, models.Article{
		Title:     req.Title,
		Slug:      articleSlug,
		Summary:   req.Summary,
		Body:      req.Body,
		Tags:      req.Tags,
		ImageURL:  image.URL,
		CreatedBy: userUID,
		IsActive:  true,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new article", slog.Int("id", id), slog.String("slug", articleSlug))
	return id, nil
}

// Generate создает статью по теме с помощью AI-клиента. Ответ модели
// обязан быть JSON-объектом; непарсимый ответ не сохраняется.
func (s *Service) Generate(ctx context.Context, userUID string, req models.DummyGenerateArticle) (int, error) {
	const op = "services.article.Generate"

	var generated models.GeneratedArticle
	userPrompt := "Topic: " + req.Topic
	if err := s.ai.CompleteJSON(ctx, generateSystemPrompt, userPrompt, &generated); err != nil {
		s.log.Error("ai generation failed", slog.String("topic", req.Topic), slog.Any("err", err))
		return 0, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if generated.Title == "" || generated.Body == "" {
		return 0, fmt.Errorf("%w: empty title or body", ErrGenerationFailed)
	}

	articleSlug, err := s.uniqueSlug(ctx, generated.Title)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	image := s.images.Query(ctx, req.Topic)

	id, err := s.repo.CreateArticle(ctx, models.Article{
		Title:       generated.Title,
		Slug:        articleSlug,
		Summary:     generated.Summary,
		Body:        generated.Body,
		Tags:        generated.Tags,
		ImageURL:    image.URL,
		CreatedBy:   userUID,
		IsGenerated: true,
		IsActive:    true,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("generated new article",
		slog.Int("id", id), slog.String("topic", req.Topic), slog.String("slug", articleSlug))
	return id, nil
}

// Read возвращает статью по ID.
func (s *Service) Read(ctx context.Context, id int) (*models.Article, error) {
	article, err := s.repo.ReadArticle(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return article, nil
}

// List возвращает опубликованные статьи с пагинацией.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Article, error) {
	return s.repo.ListArticles(ctx, limit, offset)
}

// AddComment сохраняет комментарий к статье.
func (s *Service) AddComment(ctx context.Context, userUID string, req models.DummyComment) (int, error) {
	const op = "services.article.AddComment"

	if _, err := s.Read(ctx, req.ArticleID); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateComment(ctx, models.Comment{
		ArticleID: req.ArticleID,
		Text:      req.Text,
		CreatedBy: userUID,
		IsActive:  true,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListComments возвращает комментарии статьи с пагинацией.
func (s *Service) ListComments(ctx context.Context, articleID, limit, offset int) ([]*models.Comment, error) {
	return s.repo.ListCommentsByArticle(ctx, articleID, limit, offset)
}

// uniqueSlug строит слаг из заголовка и разрешает коллизии числовым суффиксом.
func (s *Service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	candidate := base
	for attempt := 1; ; attempt++ {
		exists, err := s.repo.ArticleSlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = slug.MakeUnique(base, attempt)
	}
}
