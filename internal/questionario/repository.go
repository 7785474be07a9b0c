package questionario

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teccampos/incubadora/internal/db"
	"github.com/teccampos/incubadora/internal/repo"
)

const dbTimeout = 3 * time.Second

var (
	// ErrNotSubmitted indica decisão sobre um questionário ainda não finalizado.
	ErrNotSubmitted = errors.New("questionário ainda não finalizado")
	// ErrAlreadyDecided indica decisão sobre usuário já aprovado ou reprovado.
	ErrAlreadyDecided = errors.New("questionário já aprovado ou reprovado")
)

// Repository persiste o questionário nas colunas do próprio usuário.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// SaveByEmail grava as respostas do usuário. finalizado só liga a flag,
// nunca a desliga. Devolve false quando nenhum usuário casa com o e-mail.
func (r *Repository) SaveByEmail(ctx context.Context, email string, payload json.RawMessage, finalizado bool) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `
        UPDATE users
        SET questionario_json = $2::jsonb,
            questionario_finalizado = questionario_finalizado OR $3
        WHERE email = lower($1)
    `, email, []byte(payload), finalizado)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// Review substitui o questionário do usuário e aplica a decisão. A linha fica
// bloqueada durante a transação para serializar revisões concorrentes.
// Decisões fora da etapa enviada devolvem ErrNotSubmitted ou ErrAlreadyDecided
// sem alterar nada.
func (r *Repository) Review(ctx context.Context, userID uuid.UUID, payload json.RawMessage, decision Decision) (repo.Lookup[repo.User], error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var updated repo.User
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var current repo.User
		err := tx.QueryRow(ctx, `
            SELECT questionario_finalizado, is_incubado, is_active
            FROM users WHERE id = $1 FOR UPDATE
        `, userID).Scan(&current.QuestionarioFinalizado, &current.IsIncubado, &current.IsActive)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return repo.ErrNotFound
			}
			return err
		}
		if err := CheckDecision(StateOf(current), decision); err != nil {
			return err
		}

		u, err := repo.ScanUser(tx.QueryRow(ctx, `
            UPDATE users
            SET questionario_json = $2::jsonb,
                is_incubado = is_incubado OR $3,
                is_active = is_active AND NOT $4
            WHERE id = $1
            RETURNING `+repo.UserColumns,
			userID, []byte(payload), decision == DecisionApprove, decision == DecisionReject))
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.NotFound[repo.User](), nil
		}
		return repo.NotFound[repo.User](), err
	}
	return repo.Found(updated), nil
}

// GetByEmail lê o questionário gravado. NULL vira NotFound.
func (r *Repository) GetByEmail(ctx context.Context, email string) (repo.Lookup[json.RawMessage], error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT questionario_json FROM users WHERE email = lower($1)`, email).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.NotFound[json.RawMessage](), nil
		}
		return repo.NotFound[json.RawMessage](), err
	}
	if raw == nil {
		return repo.NotFound[json.RawMessage](), nil
	}
	return repo.Found(json.RawMessage(raw)), nil
}

const planColumns = `id, email, questionario_json, is_incubado`

// ListPending lista questionários finalizados aguardando revisão.
func (r *Repository) ListPending(ctx context.Context) ([]PlanSummary, error) {
	return r.listPlans(ctx, `
        SELECT `+planColumns+` FROM users
        WHERE questionario_finalizado AND NOT is_incubado AND is_active AND NOT is_consultor
        ORDER BY created_at, id
    `)
}

// ListApproved lista usuários incubados.
func (r *Repository) ListApproved(ctx context.Context) ([]PlanSummary, error) {
	return r.listPlans(ctx, `SELECT `+planColumns+` FROM users WHERE is_incubado ORDER BY created_at, id`)
}

// ListRejected lista usuários reprovados (inativos).
func (r *Repository) ListRejected(ctx context.Context) ([]PlanSummary, error) {
	return r.listPlans(ctx, `SELECT `+planColumns+` FROM users WHERE NOT is_active ORDER BY created_at, id`)
}

func (r *Repository) listPlans(ctx context.Context, query string) ([]PlanSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]PlanSummary, 0)
	for rows.Next() {
		var (
			p   PlanSummary
			raw []byte
		)
		if err := rows.Scan(&p.ID, &p.Email, &raw, &p.IsIncubado); err != nil {
			return nil, err
		}
		p.QuestionarioID = p.ID
		p.Questionario = nullable(raw)
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}
