package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/teccampos/incubadora/internal/auth"
	"github.com/teccampos/incubadora/internal/repo"
	"github.com/teccampos/incubadora/internal/util"
)

var (
	// ErrInvalidCredentials indica falha na autenticação (senha errada ou conta inativa).
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrUserExists indica e-mail já cadastrado.
	ErrUserExists = errors.New("usuário já cadastrado")
	// ErrInvalidPassword embrulha as regras de senha.
	ErrInvalidPassword = errors.New("senha inválida")
	// ErrInvalidEmail embrulha as regras de e-mail.
	ErrInvalidEmail = errors.New("e-mail inválido")
	// ErrBadToken indica token de reset/verificação inválido ou expirado.
	ErrBadToken = errors.New("token inválido ou expirado")
	// ErrAlreadyVerified indica que o e-mail já foi confirmado.
	ErrAlreadyVerified = errors.New("usuário já verificado")
)

type authRepository interface {
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
	CreateUser(ctx context.Context, arg repo.CreateUserParams) (repo.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, arg repo.UpdateUserParams) (repo.User, error)
	InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.RefreshToken, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeRefreshTokensBySubject(ctx context.Context, subject uuid.UUID) ([]string, error)
	InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra cadastro, autenticação e sessões.
type AuthService struct {
	repo       authRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
	tokenTTL   time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(r *repo.Queries, redisClient *redis.Client, jwtMgr *auth.JWTManager, refreshTTL, tokenTTL time.Duration) *AuthService {
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL, tokenTTL: tokenTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	RefreshExpiry time.Time
	User          repo.User
}

// RegisterInput agrupa os campos aceitos no cadastro. Papéis não entram
// aqui: consultor e visualizador são concedidos pelo superusuário ou pela CLI.
type RegisterInput struct {
	Email    string
	Password string
}

// Register cadastra um novo usuário ativo, não verificado e sem papéis.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (repo.User, error) {
	email := util.NormalizeEmail(in.Email)
	if err := util.ValidateEmail(email); err != nil {
		return repo.User{}, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	if err := util.ValidatePassword(in.Password, email); err != nil {
		return repo.User{}, fmt.Errorf("%w: %v", ErrInvalidPassword, err)
	}

	hash, err := auth.Hash(in.Password)
	if err != nil {
		return repo.User{}, err
	}

	user, err := s.repo.CreateUser(ctx, repo.CreateUserParams{
		Email:          email,
		HashedPassword: hash,
		IsActive:       true,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return repo.User{}, ErrUserExists
		}
		return repo.User{}, err
	}

	log.Info().Str("email", user.Email).Str("user_id", user.ID.String()).Msg("usuário cadastrado")
	return user, nil
}

// Login autentica por e-mail e senha e abre uma sessão.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			auth.VerifyDummy(password)
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, user.HashedPassword)
	if err != nil {
		log.Warn().Err(err).Msg("login: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Str("email", user.Email).Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		log.Warn().Str("email", user.Email).Msg("login: conta inativa")
		return nil, ErrInvalidCredentials
	}
	s.rehashIfNeeded(ctx, user, password)

	return s.openSession(ctx, user)
}

// rehashIfNeeded regrava hashes com parâmetros antigos. Falhas não bloqueiam o login.
func (s *AuthService) rehashIfNeeded(ctx context.Context, user repo.User, password string) {
	if !auth.NeedsRehash(user.HashedPassword) {
		return
	}
	hash, err := auth.Hash(password)
	if err == nil {
		_, err = s.repo.UpdateUser(ctx, user.ID, repo.UpdateUserParams{HashedPassword: &hash})
	}
	if err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("login: falha ao atualizar hash")
		return
	}
	log.Info().Str("email", user.Email).Msg("hash de senha atualizado")
}

// Refresh troca refresh token por novos tokens.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashToken(rawToken)
	record, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if record.Revoked || util.Now().After(record.ExpiresAt) {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.RedisKey(auth.PurposeRefresh, hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.GetUserByID(ctx, record.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrRefreshInvalid
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	// Revoga token anterior (DB + Redis)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	return result, nil
}

// Logout revoga refresh token atual.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashToken(rawToken)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if err := s.redis.Del(ctx, auth.RedisKey(auth.PurposeRefresh, hash)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// ForgotPassword emite um token de redefinição. E-mails desconhecidos ou
// contas inativas não geram token, mas também não geram erro.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if !user.IsActive {
		return "", nil
	}

	raw, err := s.issueToken(ctx, auth.PurposeReset, user)
	if err != nil {
		return "", err
	}
	logIssuedToken(ctx, auth.PurposeReset, user.Email, raw)
	return raw, nil
}

// ResetPassword consome o token e grava a nova senha. Sessões abertas são revogadas.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	user, err := s.consumeToken(ctx, auth.PurposeReset, token)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return ErrBadToken
	}
	if err := util.ValidatePassword(password, user.Email); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPassword, err)
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return err
	}
	if _, err := s.repo.UpdateUser(ctx, user.ID, repo.UpdateUserParams{HashedPassword: &hash}); err != nil {
		return err
	}

	if err := s.revokeSessions(ctx, user.ID); err != nil {
		return err
	}
	log.Info().Str("email", user.Email).Msg("senha redefinida")
	return nil
}

// RequestVerifyToken emite token de confirmação de e-mail.
func (s *AuthService) RequestVerifyToken(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if !user.IsActive || user.IsVerified {
		return "", nil
	}

	raw, err := s.issueToken(ctx, auth.PurposeVerify, user)
	if err != nil {
		return "", err
	}
	logIssuedToken(ctx, auth.PurposeVerify, user.Email, raw)
	return raw, nil
}

// Verify consome o token de confirmação e marca o usuário como verificado.
func (s *AuthService) Verify(ctx context.Context, token string) (repo.User, error) {
	user, err := s.consumeToken(ctx, auth.PurposeVerify, token)
	if err != nil {
		return repo.User{}, err
	}
	if user.IsVerified {
		return repo.User{}, ErrAlreadyVerified
	}

	verified := true
	return s.repo.UpdateUser(ctx, user.ID, repo.UpdateUserParams{IsVerified: &verified})
}

// GetUserByID carrega o usuário da sessão.
func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *AuthService) openSession(ctx context.Context, user repo.User) (*LoginResult, error) {
	token, _, err := s.jwt.GenerateAccessToken(user.ID.String(), user.Email, RolesOf(user))
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	expires := util.Now().Add(s.refreshTTL)
	if err := s.persistRefresh(ctx, user.ID, refreshHash, expires); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		RefreshExpiry: expires,
		User:          user,
	}, nil
}

func (s *AuthService) persistRefresh(ctx context.Context, subject uuid.UUID, hash string, expires time.Time) error {
	_, err := s.repo.InsertRefreshToken(ctx, repo.InsertRefreshTokenParams{
		ID:        uuid.New(),
		Subject:   subject,
		TokenHash: hash,
		ExpiresAt: expires,
		CreatedAt: util.Now(),
	})
	if err != nil {
		return err
	}

	if err := s.repo.InvalidateOtherRefreshTokens(ctx, subject, hash); err != nil {
		return err
	}

	return s.redis.Set(ctx, auth.RedisKey(auth.PurposeRefresh, hash), "active", time.Until(expires)).Err()
}

func (s *AuthService) revokeSessions(ctx context.Context, subject uuid.UUID) error {
	hashes, err := s.repo.RevokeRefreshTokensBySubject(ctx, subject)
	if err != nil {
		return err
	}
	if len(hashes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(hashes))
	for _, h := range hashes {
		keys = append(keys, auth.RedisKey(auth.PurposeRefresh, h))
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// issueToken guarda "id|email" para que uma troca de e-mail invalide o token.
func (s *AuthService) issueToken(ctx context.Context, purpose string, user repo.User) (string, error) {
	raw, hash, err := auth.GenerateOpaqueToken()
	if err != nil {
		return "", err
	}
	value := user.ID.String() + "|" + user.Email
	if err := s.redis.Set(ctx, auth.RedisKey(purpose, hash), value, s.tokenTTL).Err(); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *AuthService) consumeToken(ctx context.Context, purpose, raw string) (repo.User, error) {
	if strings.TrimSpace(raw) == "" {
		return repo.User{}, ErrBadToken
	}

	key := auth.RedisKey(purpose, auth.HashToken(raw))
	value, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return repo.User{}, ErrBadToken
	}
	if err != nil {
		return repo.User{}, err
	}
	if err := s.redis.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return repo.User{}, err
	}

	idPart, email, ok := strings.Cut(value, "|")
	if !ok {
		return repo.User{}, ErrBadToken
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return repo.User{}, ErrBadToken
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.User{}, ErrBadToken
		}
		return repo.User{}, err
	}
	if user.Email != email {
		return repo.User{}, ErrBadToken
	}
	return user, nil
}

// logIssuedToken registra a emissão; o valor do token só aparece em debug.
func logIssuedToken(ctx context.Context, purpose, email, raw string) {
	logger := log.Ctx(ctx)
	logger.Info().Str("email", email).Str("finalidade", purpose).Msg("token emitido")
	logger.Debug().Str("email", email).Str("finalidade", purpose).Str("token", raw).Msg("token emitido (valor)")
}
