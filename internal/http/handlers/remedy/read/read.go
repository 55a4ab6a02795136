// Package read реализует HTTP-обработчик публичного просмотра средства.
//
// Полное содержимое закрыто: в ответе поле Content пусто, пока средство
// не открыто через /remedies/{id}/unlock.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/remedyhub/remedy-api/internal/http/response"
	"github.com/remedyhub/remedy-api/internal/lib/sl"
	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// Handler управляет HTTP-запросами на просмотр средства.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения средства.
type Service interface {
	Read(ctx context.Context, id int) (*models.Remedy, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Просмотреть средство
// @Description Возвращает средство без полного содержимого. Деактивированные средства не возвращаются.
// @Tags Remedies
// @Produce  json
// @Param id path int true "ID средства"
// @Success 200 {object} response.Response "Средство"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Средство не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /remedies/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.remedy.read"
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

	remedy, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("remedy not found"))
			return
		}
		log.Error("failed to read remedy", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read remedy"))
		return
	}
	if !remedy.IsActive {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("remedy not found"))
		return
	}

	// публичный просмотр не раскрывает полное содержимое
	view := *remedy
	view.Content = ""
	render.JSON(w, r, response.StatusOKWithData(view))
}
