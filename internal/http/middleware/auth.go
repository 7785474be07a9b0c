package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/teccampos/incubadora/internal/auth"
	"github.com/teccampos/incubadora/internal/http/respond"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyEmail   contextKey = "email"
	ContextKeyRoles   contextKey = "roles"
	ContextKeyUser    contextKey = "user"
)

// Auth valida JWT de acesso e injeta claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respond.Unauthorized(w, "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(token)
			if err != nil {
				respond.Unauthorized(w, "token inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyEmail, claims.Email)
			ctx = context.WithValue(ctx, ContextKeyRoles, claims.Roles)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetEmail recupera o e-mail do token.
func GetEmail(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyEmail).(string)
	return val
}

// GetRoles recupera roles do contexto.
func GetRoles(ctx context.Context) []string {
	val, _ := ctx.Value(ContextKeyRoles).([]string)
	return val
}
