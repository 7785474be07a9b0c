package service

import (
	"errors"
	"testing"

	"github.com/teccampos/incubadora/internal/repo"
)

func TestAuthorize(t *testing.T) {
	consultor := &repo.User{IsActive: true, IsConsultor: true}
	participante := &repo.User{IsActive: true}
	admin := &repo.User{IsActive: true, IsSuperuser: true}
	inativo := &repo.User{IsActive: false, IsConsultor: true}

	tests := []struct {
		name string
		user *repo.User
		cap  Capability
		ok   bool
	}{
		{"consultor revisa", consultor, CapReviewQuestionnaire, true},
		{"consultor lista", consultor, CapListPlans, true},
		{"consultor não gerencia", consultor, CapManageUsers, false},
		{"participante não revisa", participante, CapReviewQuestionnaire, false},
		{"participante não lista", participante, CapListPlans, false},
		{"superuser gerencia", admin, CapManageUsers, true},
		{"superuser não revisa", admin, CapReviewQuestionnaire, false},
		{"inativo", inativo, CapReviewQuestionnaire, false},
		{"nil", nil, CapListPlans, false},
		{"capacidade desconhecida", consultor, Capability("x"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.user, tc.cap)
			if tc.ok && err != nil {
				t.Fatalf("expected allowed, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestRolesOf(t *testing.T) {
	roles := RolesOf(repo.User{IsConsultor: true, IsSuperuser: true})
	if len(roles) != 2 || roles[0] != "CONSULTOR" || roles[1] != "SUPERUSER" {
		t.Fatalf("unexpected roles %v", roles)
	}
}
