package praticachave

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/teccampos/incubadora/internal/repo"
)

type Store interface {
	Create(ctx context.Context, payload json.RawMessage, createdBy string) (int64, error)
	List(ctx context.Context) ([]PraticaChave, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create registra a prática em nome do usuário e devolve a entrada.
func (s *Service) Create(ctx context.Context, user *repo.User, in Input) (Input, error) {
	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return Input{}, fmt.Errorf("serializar prática-chave: %w", err)
	}

	id, err := s.store.Create(ctx, payload, user.Email)
	if err != nil {
		return Input{}, err
	}
	log.Ctx(ctx).Info().Str("email", user.Email).Int64("pratica_id", id).Msg("usuário está criando uma prática-chave")
	return in, nil
}

func (s *Service) List(ctx context.Context, user *repo.User) ([]PraticaChave, error) {
	log.Ctx(ctx).Info().Str("email", user.Email).Msg("usuário está visualizando as práticas")
	return s.store.List(ctx)
}
