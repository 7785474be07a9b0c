package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/teccampos/incubadora/internal/http/middleware"
	"github.com/teccampos/incubadora/internal/http/respond"
	"github.com/teccampos/incubadora/internal/repo"
	"github.com/teccampos/incubadora/internal/service"
)

func (h *Handler) mountUsers(r chi.Router) {
	r.Get("/me", h.Me)
	r.Patch("/me", h.UpdateMe)
	r.Get("/{id}", h.GetUser)
	r.Patch("/{id}", h.UpdateUser)
}

// AuthenticatedRoute confirma a sessão do usuário.
func (h *Handler) AuthenticatedRoute(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Hello %s!", user.Email)})
}

// Me retorna o usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, user.Read())
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}

	var upd service.UserUpdate
	if err := respond.Decode(r, &upd); err != nil {
		respond.Validation(w, err)
		return
	}

	updated, err := h.auth.UpdateMe(r.Context(), user, upd)
	if err != nil {
		writeUpdateError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated.Read())
}

// GetUser lê qualquer usuário (superusuário).
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
		return
	}

	res, err := h.auth.GetUserAsAdmin(r.Context(), user, id)
	if err != nil {
		writeUpdateError(w, err)
		return
	}
	writeLookupUser(w, res)
}

// UpdateUser altera qualquer usuário, inclusive papéis (superusuário).
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}
	if err := service.Authorize(user, service.CapManageUsers); err != nil {
		respond.Forbidden(w)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
		return
	}

	var upd service.UserUpdate
	if err := respond.Decode(r, &upd); err != nil {
		respond.Validation(w, err)
		return
	}

	res, err := h.auth.UpdateUserAsAdmin(r.Context(), user, id, upd)
	if err != nil {
		writeUpdateError(w, err)
		return
	}
	writeLookupUser(w, res)
}

func writeLookupUser(w http.ResponseWriter, res repo.Lookup[repo.User]) {
	u, found := res.Get()
	if !found {
		respond.Error(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
		return
	}
	respond.JSON(w, http.StatusOK, u.Read())
}

func writeUpdateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		respond.Forbidden(w)
	case errors.Is(err, service.ErrUserExists):
		respond.Error(w, http.StatusBadRequest, "UPDATE_USER_EMAIL_ALREADY_EXISTS", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidPassword):
		respond.Error(w, http.StatusBadRequest, "UPDATE_USER_INVALID_PASSWORD", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidEmail):
		respond.Error(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
	default:
		respond.Internal(w, err, "users")
	}
}
