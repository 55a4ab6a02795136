// Package current реализует HTTP-обработчик просмотра активной подписки
// с занятыми слотами по недугам.
package current

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/remedyhub/remedy-api/internal/http/middlewarectx"
	"github.com/remedyhub/remedy-api/internal/http/response"
	"github.com/remedyhub/remedy-api/internal/lib/sl"
	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/services/subscription"
)

// Handler управляет HTTP-запросами на просмотр активной подписки.
type Handler struct {
	log          *slog.Logger
	service      Service
	entitlements Entitlements
}

// Service описывает интерфейс бизнес-логики активной подписки.
type Service interface {
	Current(ctx context.Context, userUID string) (*models.UserSubscription, error)
}

// Entitlements описывает получение занятых слотов активной подписки.
type Entitlements interface {
	ListSlots(ctx context.Context, userUID string) ([]models.AilmentEntitlement, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, entitlements Entitlements) *Handler {
	return &Handler{log: log, service: service, entitlements: entitlements}
}

// ServeHTTP godoc
// @Summary Активная подписка
// @Description Возвращает активную подписку пользователя и занятые слоты по недугам.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} response.Response "Подписка и слоты"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Активной подписки нет"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions/current [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.current"
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

	sub, err := h.service.Current(r.Context(), uid)
	if err != nil {
		if errors.Is(err, subscription.ErrNoSubscription) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no active subscription"))
			return
		}
		log.Error("failed to get current subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get subscription"))
		return
	}

	slots, err := h.entitlements.ListSlots(r.Context(), uid)
	if err != nil {
		log.Error("failed to list entitlement slots", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get subscription"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": sub,
		"slots":        slots,
	}))
}
