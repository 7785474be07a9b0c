package questionario

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/teccampos/incubadora/internal/repo"
	"github.com/teccampos/incubadora/internal/service"
)

// Store é o acesso a dados usado pelo fluxo de aprovação.
type Store interface {
	SaveByEmail(ctx context.Context, email string, payload json.RawMessage, finalizado bool) (bool, error)
	Review(ctx context.Context, userID uuid.UUID, payload json.RawMessage, decision Decision) (repo.Lookup[repo.User], error)
	GetByEmail(ctx context.Context, email string) (repo.Lookup[json.RawMessage], error)
	ListPending(ctx context.Context) ([]PlanSummary, error)
	ListApproved(ctx context.Context) ([]PlanSummary, error)
	ListRejected(ctx context.Context) ([]PlanSummary, error)
}

// Service aplica as regras do questionário e da aprovação.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Save grava as respostas do próprio usuário. Conta inativa ou usuário
// inexistente resultam em no-op (false), não em erro.
func (s *Service) Save(ctx context.Context, user *repo.User, answers map[string]json.RawMessage, finalizado bool) (bool, error) {
	if user == nil || !user.IsActive {
		return false, nil
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return false, fmt.Errorf("serializar questionário: %w", err)
	}

	log.Ctx(ctx).Info().Str("email", user.Email).Bool("finalizado", finalizado).Msg("usuário está atualizando o questionário")
	saved, err := s.store.SaveByEmail(ctx, user.Email, payload, finalizado)
	if err != nil {
		return false, err
	}
	if !saved {
		log.Ctx(ctx).Info().Str("email", user.Email).Msg("nenhum update foi realizado")
	}
	return saved, nil
}

// Review registra a revisão de um consultor sobre o questionário de outro usuário.
func (s *Service) Review(ctx context.Context, actor *repo.User, userID uuid.UUID, update map[string]json.RawMessage) (repo.Lookup[repo.User], error) {
	if err := service.Authorize(actor, service.CapReviewQuestionnaire); err != nil {
		return repo.NotFound[repo.User](), err
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return repo.NotFound[repo.User](), fmt.Errorf("serializar revisão: %w", err)
	}

	decision := DecideReview(update)
	res, err := s.store.Review(ctx, userID, payload, decision)
	if err != nil {
		return res, err
	}

	event := log.Ctx(ctx).Info().Str("consultor", actor.Email).Str("user_id", userID.String()).Str("decisao", decision.String())
	if u, ok := res.Get(); ok {
		event.Str("estado", StateOf(u).String()).Msg("questionário revisado")
	} else {
		event.Msg("revisão sem usuário correspondente")
	}
	return res, nil
}

// ListPending lista planos aguardando aprovação.
func (s *Service) ListPending(ctx context.Context, actor *repo.User) ([]PlanSummary, error) {
	return s.list(ctx, actor, "pendentes", s.store.ListPending)
}

// ListApproved lista planos aprovados.
func (s *Service) ListApproved(ctx context.Context, actor *repo.User) ([]PlanSummary, error) {
	return s.list(ctx, actor, "aprovados", s.store.ListApproved)
}

// ListRejected lista planos reprovados.
func (s *Service) ListRejected(ctx context.Context, actor *repo.User) ([]PlanSummary, error) {
	return s.list(ctx, actor, "rejeitados", s.store.ListRejected)
}

func (s *Service) list(ctx context.Context, actor *repo.User, label string, fetch func(context.Context) ([]PlanSummary, error)) ([]PlanSummary, error) {
	if err := service.Authorize(actor, service.CapListPlans); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("email", actor.Email).Str("lista", label).Msg("usuário está listando questionários")
	return fetch(ctx)
}

// Preenchido devolve o questionário gravado do usuário.
func (s *Service) Preenchido(ctx context.Context, user *repo.User) (repo.Lookup[json.RawMessage], error) {
	if user == nil || user.QuestionarioJSON == nil {
		return repo.NotFound[json.RawMessage](), nil
	}
	log.Ctx(ctx).Info().Str("email", user.Email).Msg("usuário está pesquisando pelo questionário preenchido")
	return s.store.GetByEmail(ctx, user.Email)
}

// VerifyLogin informa se o usuário já finalizou o questionário.
func VerifyLogin(user *repo.User) bool {
	return user != nil && user.QuestionarioFinalizado
}
