package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate cria as tabelas que ainda não existem. Os scripts são idempotentes
// e rodam em ordem lexical dentro de uma única transação.
func Migrate(ctx context.Context, db TxBeginner) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	return WithTx(ctx, db, func(ctx context.Context, tx pgx.Tx) error {
		for _, name := range names {
			script, err := migrationsFS.ReadFile(name)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, string(script)); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			log.Debug().Str("migration", name).Msg("migração aplicada")
		}
		return nil
	})
}
