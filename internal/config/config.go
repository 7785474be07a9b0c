package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DefaultDatabaseURL é o banco local usado quando DATABASE_URL não é informado.
const DefaultDatabaseURL = "postgresql+asyncpg://postgres:@localhost/postgres"

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	Port            int           `env:"PORT" envDefault:"8888"`
	DatabaseURL     string        `env:"DATABASE_URL" envDefault:"postgresql+asyncpg://postgres:@localhost/postgres"`
	RedisURL        string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	JWTSecret       string        `env:"JWT_SECRET,required"`
	JWTAccessTTL    time.Duration `env:"JWT_ACCESS_TTL" envDefault:"1h"`
	JWTRefreshTTL   time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	AllowOrigins    []string      `env:"ALLOW_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	RateLimitPublicRPS   float64 `env:"RATE_LIMIT_PUBLIC_RPS" envDefault:"10"`
	RateLimitPublicBurst int     `env:"RATE_LIMIT_PUBLIC_BURST" envDefault:"20"`
	RateLimitAuthRPS     float64 `env:"RATE_LIMIT_AUTH_RPS" envDefault:"10"`
	RateLimitAuthBurst   int     `env:"RATE_LIMIT_AUTH_BURST" envDefault:"40"`
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente (e .env, se existir) e valida o resultado.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ambiente: %w", err)
	}

	if cfg.Port <= 0 {
		return nil, errors.New("PORT inválida")
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		cfg.DatabaseURL = DefaultDatabaseURL
	}
	cfg.DatabaseURL = NormalizeDatabaseURL(cfg.DatabaseURL)

	origins := cfg.AllowOrigins[:0]
	for _, origin := range cfg.AllowOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	cfg.AllowOrigins = origins

	return cfg, nil
}

// NormalizeDatabaseURL remove o sufixo de driver estilo SQLAlchemy
// ("postgresql+asyncpg://") para que o pgx aceite a URL.
func NormalizeDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	if base, _, found := strings.Cut(scheme, "+"); found {
		scheme = base
	}
	return scheme + "://" + rest
}

// IsDevelopment indica ambiente de desenvolvimento.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// RateLimitPublic devolve o limite aplicado às rotas públicas (por IP).
func (c *Config) RateLimitPublic() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: c.RateLimitPublicRPS, Burst: c.RateLimitPublicBurst}
}

// RateLimitAuth devolve o limite aplicado às rotas autenticadas (por usuário).
func (c *Config) RateLimitAuth() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: c.RateLimitAuthRPS, Burst: c.RateLimitAuthBurst}
}
