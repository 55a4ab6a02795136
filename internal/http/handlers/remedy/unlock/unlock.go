// Package unlock реализует HTTP-обработчик открытия полного содержимого
// средства.
//
// Открытие проходит через разрешение доступа: уже открытые средства
// возвращаются сразу, иначе требуется активная подписка, и лимитированный
// план занимает слот по каждому недугу средства.
package unlock

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/remedyhub/remedy-api/internal/http/middlewarectx"
	"github.com/remedyhub/remedy-api/internal/http/response"
	"github.com/remedyhub/remedy-api/internal/lib/sl"
	"github.com/remedyhub/remedy-api/internal/services/entitlement"
)

// Handler управляет HTTP-запросами на открытие средств.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс разрешения доступа к средству.
type Service interface {
	Resolve(ctx context.Context, userUID string, remedyID int, ailmentID *int) (*entitlement.Decision, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Открыть средство
// @Description Открывает полное содержимое средства в рамках подписки. При отказе возвращает причину.
// @Tags Remedies
// @Produce  json
// @Param id path int true "ID средства"
// @Param ailment_id query int false "Ограничить занятие слота одним недугом"
// @Success 200 {object} response.Response "Средство с полным содержимым"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Требуется активная подписка"
// @Failure 403 {object} response.ErrorResponse "Достигнут лимит плана по недугу"
// @Failure 404 {object} response.ErrorResponse "Средство не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /remedies/{id}/unlock [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.remedy.unlock"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		log.Error("invalid id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	uid, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || uid == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var ailmentID *int
	if raw := r.URL.Query().Get("ailment_id"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			log.Error("invalid ailment_id")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid ailment_id"))
			return
		}
		ailmentID = &v
	}

	decision, err := h.service.Resolve(r.Context(), uid, id, ailmentID)
	if err != nil {
		if errors.Is(err, entitlement.ErrRemedyNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("remedy not found"))
			return
		}
		if errors.Is(err, entitlement.ErrPlanNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
			return
		}
		if errors.Is(err, entitlement.ErrAilmentNotLinked) {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("ailment is not linked to the remedy"))
			return
		}
		log.Error("failed to resolve remedy access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not resolve remedy access"))
		return
	}

	if !decision.Allowed {
		log.Info("remedy access denied", slog.String("reason", decision.Reason))
		status := http.StatusForbidden
		if decision.Reason == entitlement.ReasonNoSubscription {
			status = http.StatusPaymentRequired
		}
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(decision.Reason))
		return
	}

	log.Info("remedy unlocked", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(decision.Remedy))
}
