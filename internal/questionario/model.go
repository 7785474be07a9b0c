package questionario

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/teccampos/incubadora/internal/repo"
)

// PlanSummary é uma linha das listagens de /plano.
type PlanSummary struct {
	ID             uuid.UUID       `json:"id"`
	QuestionarioID uuid.UUID       `json:"questionario_id"`
	Email          string          `json:"email"`
	Questionario   json.RawMessage `json:"questionario"`
	IsIncubado     bool            `json:"is_incubado"`
}

// Record é o usuário devolvido após a revisão do consultor.
type Record struct {
	repo.UserRead
	QuestionarioJSON json.RawMessage `json:"questionario_json"`
}

// RecordOf monta a visão de revisão a partir do usuário persistido.
func RecordOf(u repo.User) Record {
	return Record{UserRead: u.Read(), QuestionarioJSON: nullable(u.QuestionarioJSON)}
}

// nullable garante que JSON ausente seja serializado como null.
func nullable(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
