package repo

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrDuplicate indica violação de unicidade (e-mail já cadastrado).
	ErrDuplicate = errors.New("registro duplicado")
)

const uniqueViolation = "23505"

// IsUniqueViolation reconhece o código de erro de unicidade do Postgres.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
