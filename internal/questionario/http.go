package questionario

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/teccampos/incubadora/internal/http/middleware"
	"github.com/teccampos/incubadora/internal/http/respond"
	"github.com/teccampos/incubadora/internal/repo"
	"github.com/teccampos/incubadora/internal/service"
)

// Handler expõe questionário, aprovação e verificações.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/questionario", func(r chi.Router) {
		r.Post("/", h.handleSave)
		r.Put("/questionario/{user_id}", h.handleReview)
	})

	r.Route("/plano", func(r chi.Router) {
		r.Get("/aprovar", h.handleListPending)
		r.Get("/aprovados", h.handleListApproved)
		r.Get("/rejeitados", h.handleListRejected)
	})

	r.Route("/verification", func(r chi.Router) {
		r.Get("/questionario-preenchido", h.handlePreenchido)
		r.Get("/verify-login", h.handleVerifyLogin)
	})
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}

	finalizado := false
	if raw := r.URL.Query().Get("finalizado"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(w, http.StatusUnprocessableEntity, "VALIDATION", "finalizado inválido", nil)
			return
		}
		finalizado = v
	}

	answers, err := respond.DecodeObject(r)
	if err != nil {
		respond.Validation(w, err)
		return
	}

	if _, err := h.service.Save(ctx, user, answers, finalizado); err != nil {
		respond.Internal(w, err, "POST /questionario")
		return
	}

	logRequest(ctx, "POST /questionario", user.ID, start)
	respond.JSON(w, http.StatusOK, nil)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}

	// permissão antes de validar o corpo
	if err := service.Authorize(user, service.CapReviewQuestionnaire); err != nil {
		respond.Forbidden(w)
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "VALIDATION", "user_id inválido", nil)
		return
	}

	update, err := respond.DecodeObject(r)
	if err != nil {
		respond.Validation(w, err)
		return
	}

	res, err := h.service.Review(ctx, user, targetID, update)
	if err != nil {
		handleDomainError(w, err, "PUT /questionario/questionario")
		return
	}

	logRequest(ctx, "PUT /questionario/questionario", user.ID, start)
	if reviewed, found := res.Get(); found {
		respond.JSON(w, http.StatusOK, RecordOf(reviewed))
		return
	}
	respond.JSON(w, http.StatusOK, nil)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	h.servePlans(w, r, "GET /plano/aprovar", h.service.ListPending)
}

func (h *Handler) handleListApproved(w http.ResponseWriter, r *http.Request) {
	h.servePlans(w, r, "GET /plano/aprovados", h.service.ListApproved)
}

func (h *Handler) handleListRejected(w http.ResponseWriter, r *http.Request) {
	h.servePlans(w, r, "GET /plano/rejeitados", h.service.ListRejected)
}

func (h *Handler) servePlans(w http.ResponseWriter, r *http.Request, label string, list func(context.Context, *repo.User) ([]PlanSummary, error)) {
	ctx := r.Context()
	start := time.Now()
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}

	plans, err := list(ctx, user)
	if err != nil {
		handleDomainError(w, err, label)
		return
	}

	logRequest(ctx, label, user.ID, start)
	respond.JSON(w, http.StatusOK, plans)
}

func (h *Handler) handlePreenchido(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}

	res, err := h.service.Preenchido(ctx, user)
	if err != nil {
		respond.Internal(w, err, "GET /verification/questionario-preenchido")
		return
	}

	logRequest(ctx, "GET /verification/questionario-preenchido", user.ID, start)
	if raw, found := res.Get(); found {
		respond.JSON(w, http.StatusOK, raw)
		return
	}
	respond.JSON(w, http.StatusOK, nil)
}

func (h *Handler) handleVerifyLogin(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.RequireUser(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, VerifyLogin(user))
}

func handleDomainError(w http.ResponseWriter, err error, label string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		respond.Forbidden(w)
	case errors.Is(err, ErrNotSubmitted), errors.Is(err, ErrAlreadyDecided):
		respond.Error(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		respond.Internal(w, err, label)
	}
}

func logRequest(ctx context.Context, label string, userID uuid.UUID, start time.Time) {
	reqID := chimiddleware.GetReqID(ctx)
	log.Ctx(ctx).Info().Str("request_id", reqID).Str("user_id", userID.String()).Str("label", label).Dur("duration", time.Since(start)).Msg("questionario_request")
}
