package util

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailRequired   = errors.New("email obrigatório")
	ErrEmailInvalid    = errors.New("email inválido")
	ErrPasswordTooWeak = errors.New("senha deve ter pelo menos 8 caracteres")
	ErrPasswordEmail   = errors.New("senha não pode conter o e-mail")
)

// NormalizeEmail remove espaços e padroniza caixa baixa.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password, email string) error {
	if len(password) < 8 {
		return ErrPasswordTooWeak
	}
	if email = NormalizeEmail(email); email != "" && strings.Contains(strings.ToLower(password), email) {
		return ErrPasswordEmail
	}
	return nil
}
