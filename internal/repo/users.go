package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserColumns lista as colunas na ordem esperada por ScanUser.
const UserColumns = `id, email, hashed_password, is_active, is_superuser, is_verified,
        is_consultor, is_visualizador, is_incubado, questionario_json, questionario_finalizado, created_at`

// GetUserByEmail busca usuário pelo e-mail (comparação sem caixa).
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + UserColumns + ` FROM users WHERE email = lower($1)`
	return ScanUser(q.db.QueryRow(ctx, query, strings.TrimSpace(email)))
}

// GetUserByID busca usuário pelo id.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := `SELECT ` + UserColumns + ` FROM users WHERE id = $1`
	return ScanUser(q.db.QueryRow(ctx, query, id))
}

// ListUsers lista todos os usuários em ordem de cadastro.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	query := `SELECT ` + UserColumns + ` FROM users ORDER BY created_at, id`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := ScanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser insere um novo usuário.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	query := `
        INSERT INTO users (email, hashed_password, is_active, is_superuser, is_verified, is_consultor, is_visualizador)
        VALUES (lower($1), $2, $3, $4, $5, $6, $7)
        RETURNING ` + UserColumns

	u, err := ScanUser(q.db.QueryRow(ctx, query,
		strings.TrimSpace(arg.Email),
		arg.HashedPassword,
		arg.IsActive,
		arg.IsSuperuser,
		arg.IsVerified,
		arg.IsConsultor,
		arg.IsVisualizador,
	))
	if err != nil {
		if IsUniqueViolation(err) {
			return User{}, ErrDuplicate
		}
		return User{}, err
	}
	return u, nil
}

// UpdateUser aplica atualização parcial e devolve o usuário resultante.
func (q *Queries) UpdateUser(ctx context.Context, id uuid.UUID, arg UpdateUserParams) (User, error) {
	if arg.Empty() {
		return q.GetUserByID(ctx, id)
	}

	var (
		setParts []string
		args     []any
		idx      = 1
	)
	add := func(column string, value any) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if arg.Email != nil {
		setParts = append(setParts, fmt.Sprintf("email = lower($%d)", idx))
		args = append(args, strings.TrimSpace(*arg.Email))
		idx++
	}
	if arg.HashedPassword != nil {
		add("hashed_password", *arg.HashedPassword)
	}
	if arg.IsActive != nil {
		add("is_active", *arg.IsActive)
	}
	if arg.IsSuperuser != nil {
		add("is_superuser", *arg.IsSuperuser)
	}
	if arg.IsVerified != nil {
		add("is_verified", *arg.IsVerified)
	}
	if arg.IsConsultor != nil {
		add("is_consultor", *arg.IsConsultor)
	}
	if arg.IsVisualizador != nil {
		add("is_visualizador", *arg.IsVisualizador)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
        UPDATE users
        SET %s
        WHERE id = $%d
        RETURNING %s
    `, strings.Join(setParts, ", "), idx, UserColumns)

	u, err := ScanUser(q.db.QueryRow(ctx, query, args...))
	if err != nil {
		if IsUniqueViolation(err) {
			return User{}, ErrDuplicate
		}
		return User{}, err
	}
	return u, nil
}

// ScanUser lê uma linha com UserColumns; sem linhas vira ErrNotFound.
func ScanUser(row pgx.Row) (User, error) {
	var (
		u         User
		questJSON []byte
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.IsActive,
		&u.IsSuperuser,
		&u.IsVerified,
		&u.IsConsultor,
		&u.IsVisualizador,
		&u.IsIncubado,
		&questJSON,
		&u.QuestionarioFinalizado,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.QuestionarioJSON = questJSON
	return u, nil
}
