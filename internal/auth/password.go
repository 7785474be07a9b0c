package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/alexedwards/argon2id"
)

// hashParams vale para hashes novos. Hashes antigos carregam os próprios
// parâmetros e continuam verificáveis; NeedsRehash aponta quais atualizar.
var hashParams = argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// ErrMalformedHash indica hash gravado que não é Argon2id válido.
var ErrMalformedHash = errors.New("hash de senha inválido")

var (
	dummyOnce sync.Once
	dummyHash string
)

// Hash gera o hash Argon2id de uma senha de usuário do portal.
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, &hashParams)
}

// Verify compara a senha com o hash gravado em users.hashed_password.
func Verify(password, encodedHash string) (bool, error) {
	if encodedHash == "" {
		return false, ErrMalformedHash
	}
	ok, err := argon2id.ComparePasswordAndHash(password, encodedHash)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return ok, nil
}

// VerifyDummy gasta o mesmo trabalho de Verify contra um hash fixo. Usado
// no login de e-mails inexistentes.
func VerifyDummy(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = Hash("incubadora-dummy")
	})
	if dummyHash != "" {
		_, _ = argon2id.ComparePasswordAndHash(password, dummyHash)
	}
}

// NeedsRehash indica hash gerado com parâmetros diferentes dos atuais.
func NeedsRehash(encodedHash string) bool {
	p, _, _, err := argon2id.DecodeHash(encodedHash)
	if err != nil {
		return true
	}
	return p.Memory != hashParams.Memory ||
		p.Iterations != hashParams.Iterations ||
		p.Parallelism != hashParams.Parallelism ||
		p.KeyLength != hashParams.KeyLength
}
