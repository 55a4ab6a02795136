// Package list реализует HTTP-обработчик списка недугов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/remedyhub/remedy-api/internal/http/response"
	"github.com/remedyhub/remedy-api/internal/lib/sl"
	"github.com/remedyhub/remedy-api/internal/models"
)

// Handler управляет HTTP-запросами на список недугов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики справочника недугов.
type Service interface {
	List(ctx context.Context) ([]*models.Ailment, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список недугов
// @Description Возвращает весь справочник недугов. Доступно без авторизации.
// @Tags Ailments
// @Produce  json
// @Success 200 {object} response.Response "Справочник недугов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /ailments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ailment.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ailments, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list ailments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list ailments"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(ailments))
}
