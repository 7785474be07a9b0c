package questionario

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/teccampos/incubadora/internal/repo"
)

// State é a etapa do usuário no fluxo de incubação.
type State int

const (
	StateDraft State = iota
	StateSubmitted
	StateApproved
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateDraft:
		return "rascunho"
	case StateSubmitted:
		return "enviado"
	case StateApproved:
		return "aprovado"
	case StateRejected:
		return "reprovado"
	default:
		return "desconhecido"
	}
}

// StateOf deriva a etapa a partir das flags persistidas. Reprovação
// prevalece porque is_active=false é terminal.
func StateOf(u repo.User) State {
	switch {
	case !u.IsActive:
		return StateRejected
	case u.IsIncubado:
		return StateApproved
	case u.QuestionarioFinalizado:
		return StateSubmitted
	default:
		return StateDraft
	}
}

// Decision é o efeito de uma revisão do consultor.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionApprove
	DecisionReject
)

func (d Decision) String() string {
	switch d {
	case DecisionApprove:
		return "aprovar"
	case DecisionReject:
		return "reprovar"
	default:
		return "nenhuma"
	}
}

// CheckDecision valida se a decisão pode ser aplicada a partir da etapa atual.
// Aprovar ou reprovar exige questionário enviado e ainda não decidido;
// revisões sem decisão valem em qualquer etapa.
func CheckDecision(from State, d Decision) error {
	if d == DecisionNone {
		return nil
	}
	switch from {
	case StateSubmitted:
		return nil
	case StateDraft:
		return ErrNotSubmitted
	default:
		return ErrAlreadyDecided
	}
}

const (
	keyAprovadoPor  = "aprovado_por"
	keyReprovadoPor = "reprovado_por"
)

// DecideReview lê as chaves de decisão do payload. aprovado_por tem
// precedência; reprovado_por só é consultado quando não há aprovação.
func DecideReview(payload map[string]json.RawMessage) Decision {
	if Truthy(payload[keyAprovadoPor]) {
		return DecisionApprove
	}
	if Truthy(payload[keyReprovadoPor]) {
		return DecisionReject
	}
	return DecisionNone
}

// Truthy aplica a noção de verdade usada pelo frontend: ausente, null,
// false, zero, string vazia, lista vazia e objeto vazio são falsos.
func Truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch v[0] {
	case 'n':
		return false
	case 't':
		return true
	case 'f':
		return false
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return false
		}
		return s != ""
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(v, &arr); err != nil {
			return false
		}
		return len(arr) > 0
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err != nil {
			return false
		}
		return len(obj) > 0
	default:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			// estouro de float64 vira ±Inf, que é verdadeiro
			var numErr *strconv.NumError
			return errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange)
		}
		return f != 0
	}
}

