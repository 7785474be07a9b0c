package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/teccampos/incubadora/internal/http/respond"
	"github.com/teccampos/incubadora/internal/service"
)

const refreshCookieName = "incubadora_refresh"

func (h *Handler) mountAuth(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/jwt/login", h.Login)
	r.Post("/jwt/logout", h.Logout)
	r.Post("/jwt/refresh", h.Refresh)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)
	r.Post("/request-verify-token", h.RequestVerifyToken)
	r.Post("/verify", h.Verify)
}

// Register cadastra um novo usuário.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := respond.Decode(r, &payload); err != nil {
		respond.Validation(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:    payload.Email,
		Password: payload.Password,
	})
	switch {
	case errors.Is(err, service.ErrUserExists):
		respond.Error(w, http.StatusBadRequest, "REGISTER_USER_ALREADY_EXISTS", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidPassword):
		respond.Error(w, http.StatusBadRequest, "REGISTER_INVALID_PASSWORD", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidEmail):
		respond.Error(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
	case err != nil:
		respond.Internal(w, err, "POST /auth/register")
	default:
		respond.JSON(w, http.StatusCreated, user.Read())
	}
}

// Login autentica por formulário OAuth2 (username/password) ou JSON.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email, password, err := readCredentials(r)
	if err != nil {
		respond.Validation(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respond.Error(w, http.StatusBadRequest, "LOGIN_BAD_CREDENTIALS", err.Error(), nil)
			return
		}
		respond.Internal(w, err, "POST /auth/jwt/login")
		return
	}

	h.writeLoginSuccess(w, result)
}

// Refresh rotaciona a sessão a partir do cookie de refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := refreshFromRequest(r)
	if !ok {
		respond.Unauthorized(w, "refresh ausente")
		return
	}

	result, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			h.clearRefreshCookie(w)
			respond.Unauthorized(w, "refresh inválido")
			return
		}
		respond.Internal(w, err, "POST /auth/jwt/refresh")
		return
	}

	h.writeLoginSuccess(w, result)
}

// Logout revoga refresh token atual.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := refreshFromRequest(r); ok {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("logout: falha ao revogar refresh")
		}
	}
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword responde 202 sempre, exista ou não o e-mail.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := respond.Decode(r, &payload); err != nil {
		respond.Validation(w, err)
		return
	}
	if _, err := h.auth.ForgotPassword(r.Context(), payload.Email); err != nil {
		respond.Internal(w, err, "POST /auth/forgot-password")
		return
	}
	respond.JSON(w, http.StatusAccepted, nil)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := respond.Decode(r, &payload); err != nil {
		respond.Validation(w, err)
		return
	}

	err := h.auth.ResetPassword(r.Context(), payload.Token, payload.Password)
	switch {
	case errors.Is(err, service.ErrBadToken):
		respond.Error(w, http.StatusBadRequest, "RESET_PASSWORD_BAD_TOKEN", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidPassword):
		respond.Error(w, http.StatusBadRequest, "RESET_PASSWORD_INVALID_PASSWORD", err.Error(), nil)
	case err != nil:
		respond.Internal(w, err, "POST /auth/reset-password")
	default:
		respond.JSON(w, http.StatusOK, nil)
	}
}

func (h *Handler) RequestVerifyToken(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := respond.Decode(r, &payload); err != nil {
		respond.Validation(w, err)
		return
	}
	if _, err := h.auth.RequestVerifyToken(r.Context(), payload.Email); err != nil {
		respond.Internal(w, err, "POST /auth/request-verify-token")
		return
	}
	respond.JSON(w, http.StatusAccepted, nil)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := respond.Decode(r, &payload); err != nil {
		respond.Validation(w, err)
		return
	}

	user, err := h.auth.Verify(r.Context(), payload.Token)
	switch {
	case errors.Is(err, service.ErrBadToken):
		respond.Error(w, http.StatusBadRequest, "VERIFY_USER_BAD_TOKEN", err.Error(), nil)
	case errors.Is(err, service.ErrAlreadyVerified):
		respond.Error(w, http.StatusBadRequest, "VERIFY_USER_ALREADY_VERIFIED", err.Error(), nil)
	case err != nil:
		respond.Internal(w, err, "POST /auth/verify")
	default:
		respond.JSON(w, http.StatusOK, user.Read())
	}
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)

	respond.JSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"token_type":   "bearer",
	})
}

var errMissingCredentials = errors.New("username e password são obrigatórios")

func readCredentials(r *http.Request) (string, string, error) {
	var username, password string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var payload struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := respond.Decode(r, &payload); err != nil {
			return "", "", err
		}
		username, password = payload.Username, payload.Password
		if username == "" {
			username = payload.Email
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return "", "", err
		}
		username, password = r.PostForm.Get("username"), r.PostForm.Get("password")
	}

	if strings.TrimSpace(username) == "" || password == "" {
		return "", "", errMissingCredentials
	}
	return username, password, nil
}

func refreshFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(refreshCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, h.refreshCookie(token, expires, 0))
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, h.refreshCookie("", time.Time{}, -1))
}

func (h *Handler) refreshCookie(value string, expires time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/auth",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !h.devCookies,
		SameSite: sameSite,
	}
}
