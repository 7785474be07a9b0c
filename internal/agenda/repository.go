package agenda

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teccampos/incubadora/internal/repo"
)

const dbTimeout = 3 * time.Second

// Repository persiste a tabela agenda.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create insere um compromisso e devolve o id gerado.
func (r *Repository) Create(ctx context.Context, payload json.RawMessage) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO agenda (agenda_json) VALUES ($1::jsonb) RETURNING id`, []byte(payload)).Scan(&id)
	return id, err
}

// List devolve todos os compromissos.
func (r *Repository) List(ctx context.Context) ([]Agenda, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, agenda_json, created_at FROM agenda ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Agenda, 0)
	for rows.Next() {
		var (
			a   Agenda
			raw []byte
		)
		if err := rows.Scan(&a.ID, &raw, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.AgendaJSON = raw
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update troca agenda_json do registro. Id inexistente devolve NotFound.
func (r *Repository) Update(ctx context.Context, id int64, payload json.RawMessage) (repo.Lookup[json.RawMessage], error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var raw []byte
	err := r.db.QueryRow(ctx, `
        UPDATE agenda SET agenda_json = $2::jsonb
        WHERE id = $1
        RETURNING agenda_json
    `, id, []byte(payload)).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.NotFound[json.RawMessage](), nil
		}
		return repo.NotFound[json.RawMessage](), err
	}
	return repo.Found(json.RawMessage(raw)), nil
}
