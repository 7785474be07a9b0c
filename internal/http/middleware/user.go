package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/teccampos/incubadora/internal/http/respond"
	"github.com/teccampos/incubadora/internal/repo"
)

// UserLoader carrega o usuário dono do token.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
}

// ActiveUser carrega o usuário do subject e rejeita contas inativas.
// Deve rodar depois de Auth.
func ActiveUser(loader UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, err := uuid.Parse(GetSubject(ctx))
			if err != nil {
				respond.Unauthorized(w, "identificação inválida")
				return
			}

			user, err := loader.GetUserByID(ctx, id)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					respond.Unauthorized(w, "usuário não encontrado")
					return
				}
				respond.Internal(w, err, "load user")
				return
			}
			if !user.IsActive {
				log.Ctx(ctx).Debug().Str("email", user.Email).Msg("acesso negado: conta inativa")
				respond.Unauthorized(w, "conta inativa")
				return
			}

			// flags e e-mail valem do banco; claims antigas só ficam no log
			logger := log.Ctx(ctx).With().Str("user_id", user.ID.String()).Str("email", user.Email).Logger()
			if tokenEmail := GetEmail(ctx); tokenEmail != "" && tokenEmail != user.Email {
				logger.Info().Str("token_email", tokenEmail).Strs("token_roles", GetRoles(ctx)).Msg("token emitido antes da alteração do usuário")
			}
			ctx = logger.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// WithUser injeta o usuário autenticado no contexto.
func WithUser(ctx context.Context, user repo.User) context.Context {
	return context.WithValue(ctx, ContextKeyUser, &user)
}

// CurrentUser devolve o usuário carregado por ActiveUser.
func CurrentUser(ctx context.Context) (*repo.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*repo.User)
	return user, ok && user != nil
}

// RequireUser responde 401 quando não há usuário no contexto. Handlers
// usam o retorno ok para encerrar cedo.
func RequireUser(w http.ResponseWriter, r *http.Request) (*repo.User, bool) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		respond.Unauthorized(w, "não autenticado")
		return nil, false
	}
	return user, true
}
