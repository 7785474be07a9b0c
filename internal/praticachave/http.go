package praticachave

import (
	"errors"
	"net/http"

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
	r.Route("/pratica-chave", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
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
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Validation(w, err)
	case err != nil:
		respond.Internal(w, err, "POST /pratica-chave")
	default:
		respond.JSON(w, http.StatusOK, out)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), user)
	if err != nil {
		respond.Internal(w, err, "GET /pratica-chave")
		return
	}
	respond.JSON(w, http.StatusOK, items)
}
