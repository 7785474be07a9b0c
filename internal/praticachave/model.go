package praticachave

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidInput indica corpo sem o objeto pratica_chave.
var ErrInvalidInput = errors.New("pratica_chave deve ser um objeto")

// PraticaChave é uma boa prática registrada; imutável depois de criada.
type PraticaChave struct {
	ID           int64           `json:"id"`
	PraticaChave json.RawMessage `json:"pratica_chave"`
	CreatedAt    time.Time       `json:"created_at"`
	CreatedBy    string          `json:"created_by"`
}

// Input é o corpo de POST /pratica-chave.
type Input struct {
	PraticaChave map[string]json.RawMessage `json:"pratica_chave"`
}

func (in Input) Validate() error {
	if in.PraticaChave == nil {
		return ErrInvalidInput
	}
	return nil
}
