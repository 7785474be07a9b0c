package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/teccampos/incubadora/internal/auth"
	"github.com/teccampos/incubadora/internal/config"
	"github.com/teccampos/incubadora/internal/db"
	"github.com/teccampos/incubadora/internal/repo"
	"github.com/teccampos/incubadora/internal/util"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		dsn = config.DefaultDatabaseURL
	}

	pool, err := db.NewPool(ctx, config.NormalizeDatabaseURL(dsn))
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("falha ao migrar")
	}

	queries := repo.New(pool)

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "create":
		err = runCreate(ctx, queries, args)
	case "grant":
		err = runRole(ctx, queries, args, true)
	case "revoke":
		err = runRole(ctx, queries, args, false)
	case "list":
		err = runList(ctx, queries)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("falha ao executar comando")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usuarios CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  usuarios create --email ana@teccampos.org --password 'Senha@Forte1' [--consultor] [--visualizador] [--superuser]")
	fmt.Fprintln(os.Stderr, "  usuarios grant --email ana@teccampos.org --role consultor|visualizador|superuser")
	fmt.Fprintln(os.Stderr, "  usuarios revoke --email ana@teccampos.org --role consultor|visualizador|superuser")
	fmt.Fprintln(os.Stderr, "  usuarios list")
}

func runCreate(ctx context.Context, queries *repo.Queries, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		email        = fs.String("email", "", "e-mail do usuário")
		password     = fs.String("password", "", "senha inicial")
		consultor    = fs.Bool("consultor", false, "marca o usuário como consultor")
		visualizador = fs.Bool("visualizador", false, "marca o usuário como visualizador")
		superuser    = fs.Bool("superuser", false, "marca o usuário como superusuário")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	normalized := util.NormalizeEmail(*email)
	if err := util.ValidateEmail(normalized); err != nil {
		return err
	}
	if err := util.ValidatePassword(*password, normalized); err != nil {
		return err
	}

	hash, err := auth.Hash(*password)
	if err != nil {
		return err
	}

	user, err := queries.CreateUser(ctx, repo.CreateUserParams{
		Email:          normalized,
		HashedPassword: hash,
		IsActive:       true,
		IsSuperuser:    *superuser,
		IsVerified:     true,
		IsConsultor:    *consultor,
		IsVisualizador: *visualizador,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return fmt.Errorf("e-mail %s já cadastrado", normalized)
		}
		return err
	}

	return printJSON(user.Read())
}

func runRole(ctx context.Context, queries *repo.Queries, args []string, value bool) error {
	fs := flag.NewFlagSet("role", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		email = fs.String("email", "", "e-mail do usuário")
		role  = fs.String("role", "", "consultor, visualizador ou superuser")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := queries.GetUserByEmail(ctx, util.NormalizeEmail(*email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("usuário %s não encontrado", *email)
		}
		return err
	}

	params := repo.UpdateUserParams{}
	switch *role {
	case "consultor":
		params.IsConsultor = &value
	case "visualizador":
		params.IsVisualizador = &value
	case "superuser":
		params.IsSuperuser = &value
	default:
		return fmt.Errorf("papel desconhecido: %q", *role)
	}

	updated, err := queries.UpdateUser(ctx, user.ID, params)
	if err != nil {
		return err
	}
	return printJSON(updated.Read())
}

func runList(ctx context.Context, queries *repo.Queries) error {
	users, err := queries.ListUsers(ctx)
	if err != nil {
		return err
	}

	if len(users) == 0 {
		fmt.Println("nenhum usuário cadastrado")
		return nil
	}

	out := make([]repo.UserRead, 0, len(users))
	for _, u := range users {
		out = append(out, u.Read())
	}
	return printJSON(out)
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
