package agenda

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/teccampos/incubadora/internal/http/middleware"
	"github.com/teccampos/incubadora/internal/http/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/agenda", func(r chi.Router) {
		r.Post("/agendamento", h.handleCreate)
		r.Get("/visualizacao", h.handleList)
		r.Put("/participar/{id}", h.handleParticipate)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}

	var in Input
	if err := respond.Decode(r, &in); err != nil {
		respond.Validation(w, err)
		return
	}

	out, err := h.service.Create(r.Context(), user, in)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Validation(w, err)
			return
		}
		respond.Internal(w, err, "POST /agenda/agendamento")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), user)
	if err != nil {
		respond.Internal(w, err, "GET /agenda/visualizacao")
		return
	}
	respond.JSON(w, http.StatusOK, items)
}

func (h *Handler) handleParticipate(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, http.StatusUnprocessableEntity, "VALIDATION", "id inválido", nil)
		return
	}

	update, err := respond.DecodeObject(r)
	if err != nil {
		respond.Validation(w, err)
		return
	}

	res, err := h.service.Participate(r.Context(), user, id, update)
	if err != nil {
		respond.Internal(w, err, "PUT /agenda/participar")
		return
	}
	if payload, found := res.Get(); found {
		respond.JSON(w, http.StatusOK, payload)
		return
	}
	respond.JSON(w, http.StatusOK, nil)
}
