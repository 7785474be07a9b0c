package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/teccampos/incubadora/internal/auth"
	"github.com/teccampos/incubadora/internal/config"
	"github.com/teccampos/incubadora/internal/db"
	internalhttp "github.com/teccampos/incubadora/internal/http"
	"github.com/teccampos/incubadora/internal/repo"
	"github.com/teccampos/incubadora/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg)

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	repository := repo.New(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(repository, redisClient, jwtManager, cfg.JWTRefreshTTL, cfg.TokenTTL)

	handler, err := internalhttp.NewRouter(cfg, pool, redisClient, authService)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("env", cfg.AppEnv).Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &log.Logger
}
