package repo

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User representa a conta de um participante, consultor ou administrador.
type User struct {
	ID                     uuid.UUID
	Email                  string
	HashedPassword         string
	IsActive               bool
	IsSuperuser            bool
	IsVerified             bool
	IsConsultor            bool
	IsVisualizador         bool
	IsIncubado             bool
	QuestionarioJSON       json.RawMessage
	QuestionarioFinalizado bool
	CreatedAt              time.Time
}

// UserRead é a visão pública do usuário devolvida pela API.
type UserRead struct {
	ID                     uuid.UUID `json:"id"`
	Email                  string    `json:"email"`
	IsActive               bool      `json:"is_active"`
	IsSuperuser            bool      `json:"is_superuser"`
	IsVerified             bool      `json:"is_verified"`
	IsConsultor            bool      `json:"is_consultor"`
	IsVisualizador         bool      `json:"is_visualizador"`
	IsIncubado             bool      `json:"is_incubado"`
	QuestionarioFinalizado bool      `json:"questionario_finalizado"`
}

// Read converte o usuário na visão pública, sem hash de senha.
func (u User) Read() UserRead {
	return UserRead{
		ID:                     u.ID,
		Email:                  u.Email,
		IsActive:               u.IsActive,
		IsSuperuser:            u.IsSuperuser,
		IsVerified:             u.IsVerified,
		IsConsultor:            u.IsConsultor,
		IsVisualizador:         u.IsVisualizador,
		IsIncubado:             u.IsIncubado,
		QuestionarioFinalizado: u.QuestionarioFinalizado,
	}
}

// CreateUserParams agrupa os campos de cadastro.
type CreateUserParams struct {
	Email          string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
	IsVerified     bool
	IsConsultor    bool
	IsVisualizador bool
}

// UpdateUserParams descreve uma atualização parcial; campos nil não mudam.
// is_incubado fica de fora: só a revisão do questionário o altera.
type UpdateUserParams struct {
	Email          *string
	HashedPassword *string
	IsActive       *bool
	IsSuperuser    *bool
	IsVerified     *bool
	IsConsultor    *bool
	IsVisualizador *bool
}

// Empty indica que nenhum campo foi informado.
func (p UpdateUserParams) Empty() bool {
	return p.Email == nil && p.HashedPassword == nil && p.IsActive == nil &&
		p.IsSuperuser == nil && p.IsVerified == nil && p.IsConsultor == nil &&
		p.IsVisualizador == nil
}

// RefreshToken modela tabela de refresh tokens.
type RefreshToken struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// InsertRefreshTokenParams agrupa os campos de um novo refresh token.
type InsertRefreshTokenParams struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
