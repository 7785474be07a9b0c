package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/teccampos/incubadora/internal/auth"
	"github.com/teccampos/incubadora/internal/repo"
)

type stubAuthRepo struct {
	users  map[uuid.UUID]repo.User
	tokens map[string]repo.RefreshToken
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: map[uuid.UUID]repo.User{}, tokens: map[string]repo.RefreshToken{}}
}

func (s *stubAuthRepo) GetUserByEmail(ctx context.Context, email string) (repo.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return repo.User{}, repo.ErrNotFound
}

func (s *stubAuthRepo) GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return repo.User{}, repo.ErrNotFound
}

func (s *stubAuthRepo) CreateUser(ctx context.Context, arg repo.CreateUserParams) (repo.User, error) {
	if _, err := s.GetUserByEmail(ctx, arg.Email); err == nil {
		return repo.User{}, repo.ErrDuplicate
	}
	u := repo.User{
		ID:             uuid.New(),
		Email:          arg.Email,
		HashedPassword: arg.HashedPassword,
		IsActive:       arg.IsActive,
		IsSuperuser:    arg.IsSuperuser,
		IsVerified:     arg.IsVerified,
		IsConsultor:    arg.IsConsultor,
		IsVisualizador: arg.IsVisualizador,
		CreatedAt:      time.Now(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubAuthRepo) UpdateUser(ctx context.Context, id uuid.UUID, arg repo.UpdateUserParams) (repo.User, error) {
	u, ok := s.users[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	if arg.Email != nil {
		u.Email = *arg.Email
	}
	if arg.HashedPassword != nil {
		u.HashedPassword = *arg.HashedPassword
	}
	if arg.IsActive != nil {
		u.IsActive = *arg.IsActive
	}
	if arg.IsVerified != nil {
		u.IsVerified = *arg.IsVerified
	}
	if arg.IsConsultor != nil {
		u.IsConsultor = *arg.IsConsultor
	}
	if arg.IsSuperuser != nil {
		u.IsSuperuser = *arg.IsSuperuser
	}
	if arg.IsVisualizador != nil {
		u.IsVisualizador = *arg.IsVisualizador
	}
	s.users[id] = u
	return u, nil
}

func (s *stubAuthRepo) InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.RefreshToken, error) {
	t := repo.RefreshToken{ID: arg.ID, Subject: arg.Subject, TokenHash: arg.TokenHash, ExpiresAt: arg.ExpiresAt, CreatedAt: arg.CreatedAt}
	s.tokens[arg.TokenHash] = t
	return t, nil
}

func (s *stubAuthRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.RefreshToken, error) {
	if t, ok := s.tokens[tokenHash]; ok {
		return t, nil
	}
	return repo.RefreshToken{}, repo.ErrNotFound
}

func (s *stubAuthRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	t, ok := s.tokens[tokenHash]
	if !ok {
		return repo.ErrNotFound
	}
	t.Revoked = true
	s.tokens[tokenHash] = t
	return nil
}

func (s *stubAuthRepo) RevokeRefreshTokensBySubject(ctx context.Context, subject uuid.UUID) ([]string, error) {
	var hashes []string
	for h, t := range s.tokens {
		if t.Subject == subject && !t.Revoked {
			t.Revoked = true
			s.tokens[h] = t
			hashes = append(hashes, h)
		}
	}
	return hashes, nil
}

func (s *stubAuthRepo) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error {
	for h, t := range s.tokens {
		if t.Subject == subject && h != keepHash {
			t.Revoked = true
			s.tokens[h] = t
		}
	}
	return nil
}

type stubRedis struct {
	store map[string]string
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]string)
	}
	s.store[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func newTestAuthService() (*AuthService, *stubAuthRepo, *stubRedis) {
	r := newStubAuthRepo()
	rd := &stubRedis{}
	svc := &AuthService{
		repo:       r,
		redis:      rd,
		jwt:        auth.NewJWTManager(strings.Repeat("a", 32), time.Minute),
		refreshTTL: time.Hour,
		tokenTTL:   time.Hour,
	}
	return svc, r, rd
}

const senha = "SenhaForte123!"

func TestRegisterAndLogin(t *testing.T) {
	svc, _, rd := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: " Ana@TecCampos.org ", Password: senha})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ana@teccampos.org" || !user.IsActive || user.IsVerified || user.IsConsultor || user.IsVisualizador {
		t.Fatalf("unexpected user %+v", user)
	}

	result, err := svc.Login(ctx, "ana@teccampos.org", senha)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := svc.JWT().ParseAndValidate(result.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != user.ID.String() || claims.Email != user.Email {
		t.Fatalf("unexpected claims %+v", claims)
	}

	key := auth.RedisKey(auth.PurposeRefresh, auth.HashToken(result.RefreshToken))
	if rd.store[key] != "active" {
		t.Fatalf("expected active refresh in redis, got %q", rd.store[key])
	}
}

func TestRegisterRejectsDuplicateAndWeakPassword(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "ana@x.org", Password: senha}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "ANA@x.org", Password: senha}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "bia@x.org", Password: "123"}); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "bia", Password: senha}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestLoginRejectsWrongPasswordAndInactive(t *testing.T) {
	svc, r, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "ana@x.org", Password: senha})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "ana@x.org", "errada123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ninguem@x.org", senha); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	user.IsActive = false
	r.users[user.ID] = user
	if _, err := svc.Login(ctx, "ana@x.org", senha); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for inactive user, got %v", err)
	}
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "ana@x.org", Password: senha}); err != nil {
		t.Fatalf("register: %v", err)
	}
	first, err := svc.Login(ctx, "ana@x.org", senha)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected rotated refresh token")
	}
	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected old token to be invalid, got %v", err)
	}

	if err := svc.Logout(ctx, second.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, second.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected logged out token to be invalid, got %v", err)
	}
	if _, err := svc.Refresh(ctx, ""); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected empty token to be invalid, got %v", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "ana@x.org", Password: senha}); err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := svc.Login(ctx, "ana@x.org", senha)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	token, err := svc.ForgotPassword(ctx, "ana@x.org")
	if err != nil || token == "" {
		t.Fatalf("forgot: token=%q err=%v", token, err)
	}
	if unknown, err := svc.ForgotPassword(ctx, "ninguem@x.org"); err != nil || unknown != "" {
		t.Fatalf("unknown e-mail should be silent: token=%q err=%v", unknown, err)
	}

	if err := svc.ResetPassword(ctx, token, "NovaSenha456!"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := svc.ResetPassword(ctx, token, "OutraSenha789!"); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected token to be single use, got %v", err)
	}

	if _, err := svc.Login(ctx, "ana@x.org", senha); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should fail, got %v", err)
	}
	if _, err := svc.Login(ctx, "ana@x.org", "NovaSenha456!"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("sessions should be revoked after reset, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "ana@x.org", Password: senha}); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := svc.RequestVerifyToken(ctx, "ana@x.org")
	if err != nil || token == "" {
		t.Fatalf("request verify: token=%q err=%v", token, err)
	}

	user, err := svc.Verify(ctx, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !user.IsVerified {
		t.Fatal("expected verified user")
	}
	if _, err := svc.Verify(ctx, "token-qualquer"); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken, got %v", err)
	}
}

func TestUpdateMeIgnoresRoleFlags(t *testing.T) {
	svc, r, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "ana@x.org", Password: senha})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	user.IsVerified = true
	r.users[user.ID] = user

	yes := true
	email := "ana.nova@x.org"
	updated, err := svc.UpdateMe(ctx, &user, UserUpdate{Email: &email, IsConsultor: &yes, IsSuperuser: &yes})
	if err != nil {
		t.Fatalf("update me: %v", err)
	}
	if updated.Email != email || updated.IsConsultor || updated.IsSuperuser {
		t.Fatalf("unexpected update %+v", updated)
	}
	if updated.IsVerified {
		t.Fatal("changing e-mail should reset verification")
	}
}

func TestUpdateUserAsAdmin(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	target, err := svc.Register(ctx, RegisterInput{Email: "ana@x.org", Password: senha})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	yes := true

	participante := &repo.User{IsActive: true, Email: "bia@x.org"}
	if _, err := svc.UpdateUserAsAdmin(ctx, participante, target.ID, UserUpdate{IsConsultor: &yes}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	admin := &repo.User{IsActive: true, IsSuperuser: true, Email: "root@x.org"}
	res, err := svc.UpdateUserAsAdmin(ctx, admin, target.ID, UserUpdate{IsConsultor: &yes})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	updated, ok := res.Get()
	if !ok || !updated.IsConsultor {
		t.Fatalf("expected consultor flag, got %+v found=%v", updated, ok)
	}

	missing, err := svc.UpdateUserAsAdmin(ctx, admin, uuid.New(), UserUpdate{IsConsultor: &yes})
	if err != nil || missing.Found() {
		t.Fatalf("expected not found, got found=%v err=%v", missing.Found(), err)
	}
}

func TestUpdateUserAsAdminCannotSetIncubado(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	target, err := svc.Register(ctx, RegisterInput{Email: "ana@x.org", Password: senha})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	var upd UserUpdate
	if err := json.Unmarshal([]byte(`{"is_incubado":true,"is_visualizador":true}`), &upd); err != nil {
		t.Fatalf("decode: %v", err)
	}

	admin := &repo.User{IsActive: true, IsSuperuser: true, Email: "root@x.org"}
	res, err := svc.UpdateUserAsAdmin(ctx, admin, target.ID, upd)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	updated, ok := res.Get()
	if !ok || updated.IsIncubado || !updated.IsVisualizador {
		t.Fatalf("is_incubado must only change through review, got %+v", updated)
	}
}

func TestIssuedTokensStayOutOfInfoLogs(t *testing.T) {
	svc, _, _ := newTestAuthService()
	if _, err := svc.Register(context.Background(), RegisterInput{Email: "ana@x.org", Password: senha}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var info bytes.Buffer
	ctx := zerolog.New(&info).Level(zerolog.InfoLevel).WithContext(context.Background())
	reset, err := svc.ForgotPassword(ctx, "ana@x.org")
	if err != nil || reset == "" {
		t.Fatalf("forgot: token=%q err=%v", reset, err)
	}
	verify, err := svc.RequestVerifyToken(ctx, "ana@x.org")
	if err != nil || verify == "" {
		t.Fatalf("request verify: token=%q err=%v", verify, err)
	}
	if out := info.String(); strings.Contains(out, reset) || strings.Contains(out, verify) || !strings.Contains(out, "ana@x.org") {
		t.Fatalf("info log must name the user without the token, got %s", out)
	}

	var debug bytes.Buffer
	ctx = zerolog.New(&debug).Level(zerolog.DebugLevel).WithContext(context.Background())
	reset, err = svc.ForgotPassword(ctx, "ana@x.org")
	if err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if !strings.Contains(debug.String(), reset) {
		t.Fatalf("debug log should carry the token, got %s", debug.String())
	}
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	svc, r, _ := newTestAuthService()
	ctx := context.Background()

	legacy, err := argon2id.CreateHash(senha, &argon2id.Params{Memory: 16 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("legacy hash: %v", err)
	}
	user := repo.User{ID: uuid.New(), Email: "ana@x.org", HashedPassword: legacy, IsActive: true}
	r.users[user.ID] = user

	if _, err := svc.Login(ctx, "ana@x.org", senha); err != nil {
		t.Fatalf("login: %v", err)
	}
	stored := r.users[user.ID].HashedPassword
	if stored == legacy || auth.NeedsRehash(stored) {
		t.Fatalf("expected upgraded hash, got %q", stored)
	}
	if _, err := svc.Login(ctx, "ana@x.org", senha); err != nil {
		t.Fatalf("login with upgraded hash: %v", err)
	}
}
