package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertRefreshToken persiste o hash de um novo refresh token.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (RefreshToken, error) {
	const query = `
        INSERT INTO refresh_tokens (id, subject, token_hash, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, subject, token_hash, expires_at, created_at, revoked
    `
	return scanRefreshToken(q.db.QueryRow(ctx, query, arg.ID, arg.Subject, arg.TokenHash, arg.ExpiresAt, arg.CreatedAt))
}

// GetRefreshTokenByHash busca token pelo hash.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	const query = `
        SELECT id, subject, token_hash, expires_at, created_at, revoked
        FROM refresh_tokens
        WHERE token_hash = $1
    `
	return scanRefreshToken(q.db.QueryRow(ctx, query, tokenHash))
}

// RevokeRefreshToken marca um token como revogado.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	cmd, err := q.db.Exec(ctx, `UPDATE refresh_tokens SET revoked = true WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeRefreshTokensBySubject revoga todos os tokens ativos do usuário e devolve os hashes afetados.
func (q *Queries) RevokeRefreshTokensBySubject(ctx context.Context, subject uuid.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, `
        UPDATE refresh_tokens SET revoked = true
        WHERE subject = $1 AND revoked = false
        RETURNING token_hash
    `, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// InvalidateOtherRefreshTokens mantém apenas o token informado como ativo.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error {
	_, err := q.db.Exec(ctx, `
        UPDATE refresh_tokens SET revoked = true
        WHERE subject = $1 AND token_hash <> $2 AND revoked = false
    `, subject, keepHash)
	return err
}

func scanRefreshToken(row pgx.Row) (RefreshToken, error) {
	var t RefreshToken
	if err := row.Scan(&t.ID, &t.Subject, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.Revoked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RefreshToken{}, ErrNotFound
		}
		return RefreshToken{}, err
	}
	return t, nil
}
