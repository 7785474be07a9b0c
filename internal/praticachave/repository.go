package praticachave

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create insere a prática com o e-mail de quem a criou.
func (r *Repository) Create(ctx context.Context, payload json.RawMessage, createdBy string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRow(ctx, `
        INSERT INTO praticachave (pratica_chave, created_by)
        VALUES ($1::jsonb, $2)
        RETURNING id
    `, []byte(payload), createdBy).Scan(&id)
	return id, err
}

func (r *Repository) List(ctx context.Context) ([]PraticaChave, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, pratica_chave, created_at, created_by FROM praticachave ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]PraticaChave, 0)
	for rows.Next() {
		var (
			p   PraticaChave
			raw []byte
		)
		if err := rows.Scan(&p.ID, &raw, &p.CreatedAt, &p.CreatedBy); err != nil {
			return nil, err
		}
		p.PraticaChave = raw
		items = append(items, p)
	}
	return items, rows.Err()
}
