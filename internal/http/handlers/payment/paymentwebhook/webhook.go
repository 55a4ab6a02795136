// Package paymentwebhook реализует HTTP-обработчик вебхуков платёжного
// провайдера.
//
// Подпись проверяется по заголовку Webhook-Signature; запросы с неверной
// подписью отклоняются без обработки.
package paymentwebhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/remedyhub/remedy-api/internal/http/response"
	"github.com/remedyhub/remedy-api/internal/lib/sl"
	"github.com/remedyhub/remedy-api/internal/services/payment"
)

// Handler управляет HTTP-запросами вебхуков платёжного провайдера.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс обработки платёжного события.
type Service interface {
	HandleWebhook(ctx context.Context, body []byte, signatureHeader string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Вебхук платёжного провайдера
// @Description Принимает событие оплаты, проверяет подпись и обновляет статус подписки.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response "Событие обработано"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), body, r.Header.Get("Webhook-Signature")); err != nil {
		switch {
		case errors.Is(err, payment.ErrBadSignature):
			log.Warn("webhook signature mismatch")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid signature"))
		case errors.Is(err, payment.ErrBadMetadata):
			log.Warn("webhook metadata is incomplete")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid webhook payload"))
		default:
			log.Error("failed to handle webhook", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not handle webhook"))
		}
		return
	}

	log.Info("webhook processed")
	render.JSON(w, r, response.StatusOKWithData(nil))
}
