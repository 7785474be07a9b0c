package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/teccampos/incubadora/internal/agenda"
	"github.com/teccampos/incubadora/internal/config"
	httpmiddleware "github.com/teccampos/incubadora/internal/http/middleware"
	"github.com/teccampos/incubadora/internal/http/respond"
	"github.com/teccampos/incubadora/internal/praticachave"
	"github.com/teccampos/incubadora/internal/questionario"
	"github.com/teccampos/incubadora/internal/repo"
	"github.com/teccampos/incubadora/internal/service"
)

// authAPI é o subconjunto do AuthService usado pelos handlers.
type authAPI interface {
	Register(ctx context.Context, in service.RegisterInput) (repo.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, rawToken string) (*service.LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) error
	RequestVerifyToken(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, token string) (repo.User, error)
	UpdateMe(ctx context.Context, user *repo.User, upd service.UserUpdate) (repo.User, error)
	GetUserAsAdmin(ctx context.Context, actor *repo.User, id uuid.UUID) (repo.Lookup[repo.User], error)
	UpdateUserAsAdmin(ctx context.Context, actor *repo.User, id uuid.UUID, upd service.UserUpdate) (repo.Lookup[repo.User], error)
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type Handler struct {
	cfg           *config.Config
	db            dbPinger
	redis         redisPinger
	auth          authAPI
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

func newHandler(cfg *config.Config, db dbPinger, redisClient redisPinger, auth authAPI) *Handler {
	devCookies := cfg.IsDevelopment()
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	public := cfg.RateLimitPublic()
	private := cfg.RateLimitAuth()
	return &Handler{
		cfg:           cfg,
		db:            db,
		redis:         redisClient,
		auth:          auth,
		publicLimiter: httpmiddleware.NewRateLimiter(public.RequestsPerSecond, public.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(private.RequestsPerSecond, private.Burst),
		devCookies:    devCookies,
	}
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) (http.Handler, error) {
	if cfg == nil || pool == nil || redisClient == nil || authService == nil {
		return nil, errors.New("router: dependências ausentes")
	}
	h := newHandler(cfg, pool, redisClient, authService)

	questionarioHandler := questionario.NewHandler(questionario.NewService(questionario.NewRepository(pool)))
	agendaHandler := agenda.NewHandler(agenda.NewService(agenda.NewRepository(pool)))
	praticaHandler := praticachave.NewHandler(praticachave.NewService(praticachave.NewRepository(pool)))

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Route("/auth", h.mountAuth)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.ActiveUser(authService))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/authenticated-route", h.AuthenticatedRoute)
		private.Route("/users", h.mountUsers)

		questionario.Mount(private, questionarioHandler)
		agenda.Mount(private, agendaHandler)
		praticachave.Mount(private, praticaHandler)
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.db.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		respond.Error(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
