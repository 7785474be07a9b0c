package agenda

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidInput indica corpo sem o objeto agenda_json.
var ErrInvalidInput = errors.New("agenda_json deve ser um objeto")

// Agenda é um compromisso gravado.
type Agenda struct {
	ID         int64           `json:"id"`
	AgendaJSON json.RawMessage `json:"agenda_json"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Input é o corpo aceito em POST /agenda/agendamento. O registro guarda o
// próprio Input serializado.
type Input struct {
	AgendaJSON map[string]json.RawMessage `json:"agenda_json"`
}

// Validate exige agenda_json presente e objeto.
func (in Input) Validate() error {
	if in.AgendaJSON == nil {
		return ErrInvalidInput
	}
	return nil
}
