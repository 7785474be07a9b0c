package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/teccampos/incubadora/internal/util"
)

// Audience identifica tokens emitidos por esta API.
const Audience = "incubadora:auth"

// Claims representa as informações presentes em um JWT de acesso.
type Claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTManager encapsula geração e validação de tokens.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewJWTManager cria o gerenciador com segredo e TTL configurados.
func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL}
}

// AccessTTL expõe a validade do token de acesso.
func (m *JWTManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// GenerateAccessToken cria um JWT HS256 com claims padrão.
func (m *JWTManager) GenerateAccessToken(subject, email string, roles []string) (string, string, error) {
	now := time.Now().UTC()
	jti := util.NewULID()

	claims := Claims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", "", err
	}

	return signed, jti, nil
}

// ParseAndValidate verifica assinatura, audience e expiração.
func (m *JWTManager) ParseAndValidate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(Audience),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("token inválido")
	}

	return claims, nil
}
