package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

var (
	// ErrInvalidRefresh é retornado quando o token de refresh é inválido ou expirado.
	ErrInvalidRefresh = errors.New("refresh token inválido")
)

// Propósitos dos tokens opacos guardados no Redis.
const (
	PurposeRefresh = "refresh"
	PurposeReset   = "reset"
	PurposeVerify  = "verify"
)

// GenerateOpaqueToken cria token aleatório seguro e seu hash persistível.
func GenerateOpaqueToken() (raw string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	hashed = HashToken(raw)
	return raw, hashed, nil
}

// HashToken produz hash SHA-256 base64.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RedisKey monta chave única para guardar estado de um token.
func RedisKey(purpose, hash string) string {
	return purpose + ":" + hash
}
