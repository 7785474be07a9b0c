package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/teccampos/incubadora/internal/auth"
	"github.com/teccampos/incubadora/internal/repo"
	"github.com/teccampos/incubadora/internal/util"
)

// UserUpdate descreve alterações pedidas via /users; campos nil não mudam.
type UserUpdate struct {
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	IsActive       *bool   `json:"is_active"`
	IsSuperuser    *bool   `json:"is_superuser"`
	IsVerified     *bool   `json:"is_verified"`
	IsConsultor    *bool   `json:"is_consultor"`
	IsVisualizador *bool   `json:"is_visualizador"`
}

// UpdateMe aplica alterações do próprio usuário. Apenas e-mail e senha são
// considerados; flags de papel exigem um superusuário.
func (s *AuthService) UpdateMe(ctx context.Context, user *repo.User, upd UserUpdate) (repo.User, error) {
	safe := UserUpdate{Email: upd.Email, Password: upd.Password}
	return s.applyUpdate(ctx, *user, safe)
}

// GetUserAsAdmin lê qualquer usuário.
func (s *AuthService) GetUserAsAdmin(ctx context.Context, actor *repo.User, id uuid.UUID) (repo.Lookup[repo.User], error) {
	if err := Authorize(actor, CapManageUsers); err != nil {
		return repo.NotFound[repo.User](), err
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.NotFound[repo.User](), nil
		}
		return repo.NotFound[repo.User](), err
	}
	return repo.Found(user), nil
}

// UpdateUserAsAdmin altera qualquer campo de qualquer usuário.
func (s *AuthService) UpdateUserAsAdmin(ctx context.Context, actor *repo.User, id uuid.UUID, upd UserUpdate) (repo.Lookup[repo.User], error) {
	target, err := s.GetUserAsAdmin(ctx, actor, id)
	if err != nil {
		return target, err
	}
	current, ok := target.Get()
	if !ok {
		return target, nil
	}

	updated, err := s.applyUpdate(ctx, current, upd)
	if err != nil {
		return repo.NotFound[repo.User](), err
	}
	log.Info().Str("actor", actor.Email).Str("user_id", id.String()).Msg("usuário alterado por superusuário")
	return repo.Found(updated), nil
}

func (s *AuthService) applyUpdate(ctx context.Context, current repo.User, upd UserUpdate) (repo.User, error) {
	params := repo.UpdateUserParams{
		IsActive:       upd.IsActive,
		IsSuperuser:    upd.IsSuperuser,
		IsVerified:     upd.IsVerified,
		IsConsultor:    upd.IsConsultor,
		IsVisualizador: upd.IsVisualizador,
	}

	email := current.Email
	if upd.Email != nil {
		normalized := util.NormalizeEmail(*upd.Email)
		if err := util.ValidateEmail(normalized); err != nil {
			return repo.User{}, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
		}
		if normalized != current.Email {
			email = normalized
			params.Email = &normalized
			if params.IsVerified == nil {
				unverified := false
				params.IsVerified = &unverified
			}
		}
	}

	if upd.Password != nil {
		if err := util.ValidatePassword(*upd.Password, email); err != nil {
			return repo.User{}, fmt.Errorf("%w: %v", ErrInvalidPassword, err)
		}
		hash, err := auth.Hash(*upd.Password)
		if err != nil {
			return repo.User{}, err
		}
		params.HashedPassword = &hash
	}

	updated, err := s.repo.UpdateUser(ctx, current.ID, params)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return repo.User{}, ErrUserExists
		}
		return repo.User{}, err
	}

	if params.HashedPassword != nil || (params.IsActive != nil && !*params.IsActive) {
		if err := s.revokeSessions(ctx, current.ID); err != nil {
			return repo.User{}, err
		}
	}
	return updated, nil
}
