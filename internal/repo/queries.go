package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX é satisfeita tanto pelo pool quanto por uma transação.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries reúne as consultas de identidade (usuários e refresh tokens).
type Queries struct {
	db DBTX
}

// New cria Queries sobre um pool ou transação.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx devolve Queries ligadas à transação informada.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}
