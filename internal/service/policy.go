package service

import (
	"errors"

	"github.com/teccampos/incubadora/internal/repo"
)

var (
	// ErrForbidden indica ausência de permissão.
	ErrForbidden = errors.New("sem permissão")
)

// Capability nomeia uma ação protegida.
type Capability string

const (
	// CapReviewQuestionnaire permite aprovar ou reprovar questionários.
	CapReviewQuestionnaire Capability = "questionario:revisar"
	// CapListPlans permite listar planos pendentes, aprovados e rejeitados.
	CapListPlans Capability = "plano:listar"
	// CapManageUsers permite ler e alterar qualquer usuário.
	CapManageUsers Capability = "usuarios:gerenciar"
)

// Authorize é o único ponto de checagem de papéis; devolve ErrForbidden
// quando o usuário não possui a capacidade pedida.
func Authorize(user *repo.User, capability Capability) error {
	if user == nil || !user.IsActive {
		return ErrForbidden
	}

	var allowed bool
	switch capability {
	case CapReviewQuestionnaire, CapListPlans:
		allowed = user.IsConsultor
	case CapManageUsers:
		allowed = user.IsSuperuser
	}

	if !allowed {
		return ErrForbidden
	}
	return nil
}

// RolesOf traduz as flags do usuário em papéis para o JWT.
func RolesOf(user repo.User) []string {
	roles := make([]string, 0, 4)
	if user.IsConsultor {
		roles = append(roles, "CONSULTOR")
	}
	if user.IsVisualizador {
		roles = append(roles, "VISUALIZADOR")
	}
	if user.IsIncubado {
		roles = append(roles, "INCUBADO")
	}
	if user.IsSuperuser {
		roles = append(roles, "SUPERUSER")
	}
	return roles
}
