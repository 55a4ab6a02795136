// Package create реализует HTTP-обработчик добавления недуга в справочник.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/remedyhub/remedy-api/internal/http/response"
	"github.com/remedyhub/remedy-api/internal/lib/sl"
	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/services/ailment"
)

// Handler управляет HTTP-запросами на добавление недугов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики справочника недугов.
type Service interface {
	Create(ctx context.Context, req models.DummyAilment) (int, error)
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
// @Summary Добавить недуг
// @Description Добавляет недуг в справочник. Доступно администратору.
// @Tags Ailments
// @Accept  json
// @Produce  json
// @Param request body models.DummyAilment true "Данные недуга"
// @Success 200 {object} map[string]any "ID созданного недуга"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Недуг уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /ailments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ailment.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAilment
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

	id, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ailment.ErrAilmentExists) {
			log.Warn("ailment already exists")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("ailment already exists"))
			return
		}
		log.Error("failed to create ailment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create ailment"))
		return
	}

	log.Info("ailment created", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}
