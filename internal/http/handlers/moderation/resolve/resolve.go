// Package resolve реализует HTTP-обработчик решения модератора по жалобе.
package resolve

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
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// Handler управляет HTTP-запросами на решения по жалобам.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики решений модератора.
type Service interface {
	ResolveFlag(ctx context.Context, flagID int, moderatorUID string, req models.DummyResolveFlag) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Решить жалобу
// @Description Фиксирует решение модератора: resolved скрывает контент, dismissed возвращает его в каталог.
// @Tags Moderation
// @Accept  json
// @Produce  json
// @Param id path int true "ID жалобы"
// @Param request body models.DummyResolveFlag true "Решение"
// @Success 200 {object} response.Response "Решение принято"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Жалоба не найдена"
// @Failure 409 {object} response.ErrorResponse "Жалоба уже решена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /moderation/flags/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.moderation.resolve"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	flagID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || flagID <= 0 {
		log.Error("invalid id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	var req models.DummyResolveFlag
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

	if err := h.service.ResolveFlag(r.Context(), flagID, uid, req); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("flag not found"))
		case errors.Is(err, moderation.ErrFlagNotOpen):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("flag is already resolved"))
		default:
			log.Error("failed to resolve flag", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not resolve flag"))
		}
		return
	}

	log.Info("flag resolved", slog.Int("flag_id", flagID))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
