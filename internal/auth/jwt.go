package auth

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gestaozabele/painelpregao/internal/util"
)

var (
	ErrResetTokenInvalid = errors.New("token de recuperação inválido")
	ErrResetTokenExpired = errors.New("token de recuperação expirado")
	ErrResetCodeMismatch = errors.New("código de recuperação não confere")
)

const resetAudience = "password-reset"

// ResetClaims representa o ticket assinado de recuperação de senha.
type ResetClaims struct {
	CodeHash string `json:"ch"`
	jwt.RegisteredClaims
}

// ResetTokenManager assina e valida tickets de recuperação.
type ResetTokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewResetTokenManager cria o gerenciador com segredo e validade configurados.
func NewResetTokenManager(secret string, ttl time.Duration) *ResetTokenManager {
	return &ResetTokenManager{secret: []byte(secret), ttl: ttl, now: util.Now}
}

// WithClock troca o relógio usado em emissão e validação.
func (m *ResetTokenManager) WithClock(now func() time.Time) *ResetTokenManager {
	m.now = now
	return m
}

// TTL devolve a validade dos tickets emitidos.
func (m *ResetTokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue assina um JWT HS256 com o hash do código, nunca o código em si.
func (m *ResetTokenManager) Issue(email, code string) (string, *ResetClaims, error) {
	now := m.now()

	claims := &ResetClaims{
		CodeHash: HashResetCode(m.secret, email, code),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Audience:  jwt.ClaimStrings{resetAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        util.NewULID(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify confere assinatura, expiração e o código informado. Em ErrResetCodeMismatch as claims
// também são devolvidas, para que o chamador conte as tentativas do ticket.
func (m *ResetTokenManager) Verify(tokenString, code string) (*ResetClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithAudience(resetAudience),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenString, &ResetClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrResetTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrResetTokenInvalid, err)
	}

	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid {
		return nil, ErrResetTokenInvalid
	}

	expected := HashResetCode(m.secret, claims.Subject, code)
	if !hmac.Equal([]byte(expected), []byte(claims.CodeHash)) {
		return claims, ErrResetCodeMismatch
	}
	return claims, nil
}
