package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxBeginner é satisfeita por *pgxpool.Pool e por *pgx.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTx executa uma função dentro de uma transação explícita.
// Qualquer erro devolvido por fn desfaz a transação.
func WithTx(ctx context.Context, db TxBeginner, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
