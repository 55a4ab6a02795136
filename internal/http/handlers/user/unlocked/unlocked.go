// Package unlocked реализует HTTP-обработчик списка открытых пользователем средств.
package unlocked

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/remedyhub/remedy-api/internal/http/middlewarectx"
	"github.com/remedyhub/remedy-api/internal/http/response"
	"github.com/remedyhub/remedy-api/internal/lib/sl"
)

// Handler управляет HTTP-запросами на список открытых средств.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики открытых средств.
type Service interface {
	ListUnlocked(ctx context.Context, userUID string) ([]int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Открытые средства пользователя
// @Description Возвращает идентификаторы всех средств, открытых пользователем. Открытые средства не закрываются при смене плана.
// @Tags Users
// @Produce  json
// @Success 200 {object} response.Response "Идентификаторы средств"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /users/me/unlocked [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.unlocked"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || uid == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	ids, err := h.service.ListUnlocked(r.Context(), uid)
	if err != nil {
		log.Error("failed to list unlocked remedies", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list unlocked remedies"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"remedy_ids": ids,
	}))
}
