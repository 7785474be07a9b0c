package agenda

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/teccampos/incubadora/internal/repo"
)

// Store é o acesso a dados da agenda.
type Store interface {
	Create(ctx context.Context, payload json.RawMessage) (int64, error)
	List(ctx context.Context) ([]Agenda, error)
	Update(ctx context.Context, id int64, payload json.RawMessage) (repo.Lookup[json.RawMessage], error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create grava o compromisso e devolve a própria entrada; o id gerado não
// faz parte da resposta.
func (s *Service) Create(ctx context.Context, user *repo.User, in Input) (Input, error) {
	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return Input{}, fmt.Errorf("serializar agenda: %w", err)
	}

	id, err := s.store.Create(ctx, payload)
	if err != nil {
		return Input{}, err
	}
	log.Ctx(ctx).Info().Str("email", user.Email).Int64("agenda_id", id).Msg("usuário está agendando um compromisso")
	return in, nil
}

func (s *Service) List(ctx context.Context, user *repo.User) ([]Agenda, error) {
	log.Ctx(ctx).Info().Str("email", user.Email).Msg("usuário está visualizando a agenda")
	return s.store.List(ctx)
}

// Participate substitui o conteúdo do compromisso pelo objeto enviado.
func (s *Service) Participate(ctx context.Context, user *repo.User, id int64, update map[string]json.RawMessage) (repo.Lookup[json.RawMessage], error) {
	payload, err := json.Marshal(update)
	if err != nil {
		return repo.NotFound[json.RawMessage](), fmt.Errorf("serializar agenda: %w", err)
	}

	res, err := s.store.Update(ctx, id, payload)
	if err != nil {
		return res, err
	}
	log.Ctx(ctx).Info().Str("email", user.Email).Int64("agenda_id", id).Bool("encontrado", res.Found()).Msg("usuário está participando de um compromisso")
	return res, nil
}
