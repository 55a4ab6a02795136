// Package create реализует HTTP-обработчик подачи жалобы на контент.
//
// Один Handler обслуживает жалобы на разные типы контента: тип задаётся
// при создании и определяет, к какой сущности относится {id} маршрута.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/remedyhub/remedy-api/internal/http/middlewarectx"
	"github.com/remedyhub/remedy-api/internal/http/response"
	"github.com/remedyhub/remedy-api/internal/lib/sl"
	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/services/moderation"
)

// Handler управляет HTTP-запросами на подачу жалоб.
type Handler struct {
	log         *slog.Logger
	service     Service
	validate    *validator.Validate
	contentType string
}

// Service описывает интерфейс бизнес-логики подачи жалобы.
type Service interface {
	FileFlag(ctx context.Context, contentType string, contentID int, userUID string, req models.DummyFlag) (int, error)
}

// New создает новый Handler для жалоб на контент заданного типа.
func New(log *slog.Logger, service Service, contentType string) *Handler {
	return &Handler{
		log:         log,
		service:     service,
		validate:    validator.New(),
		contentType: contentType,
	}
}

// ServeHTTP godoc
// @Summary Пожаловаться на контент
// @Description Регистрирует жалобу на средство или отзыв. Повторная жалоба одного пользователя отклоняется. При накоплении порога жалоб контент автоматически скрывается.
// @Tags Moderation
// @Accept  json
// @Produce  json
// @Param id path int true "ID контента"
// @Param request body models.DummyFlag true "Причина жалобы"
// @Success 200 {object} map[string]any "ID зарегистрированной жалобы"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Контент не найден"
// @Failure 409 {object} response.ErrorResponse "Жалоба уже подана"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /remedies/{id}/flag [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.flag.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("content_type", h.contentType),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		log.Error("invalid id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	var req models.DummyFlag
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	uid, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || uid == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	flagID, err := h.service.FileFlag(r.Context(), h.contentType, id, uid, req)
	if err != nil {
		switch {
		case errors.Is(err, moderation.ErrContentNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("content not found"))
		case errors.Is(err, moderation.ErrAlreadyFlagged):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("you have already flagged this content"))
		default:
			log.Error("failed to file flag", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not file flag"))
		}
		return
	}

	log.Info("flag filed", slog.Int("flag_id", flagID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"flag_id": flagID,
	}))
}
