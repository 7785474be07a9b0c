package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID gera um identificador ordenável por tempo (usado como jti dos JWTs).
func NewULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Now devolve o instante atual em UTC.
func Now() time.Time {
	return time.Now().UTC()
}
