package auth

import (
	"errors"

	"github.com/alexedwards/argon2id"
)

// ErrEmptyPassword impede hash de senha vazia.
var ErrEmptyPassword = errors.New("senha obrigatória")

// Parâmetros atuais; hashes gravados com outros valores são refeitos no login.
var params = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera um hash Argon2id no formato PHC.
func Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	return argon2id.CreateHash(password, params)
}

// Verify compara a senha com o hash. Hash vazio nunca confere.
func Verify(password, encodedHash string) (bool, error) {
	if encodedHash == "" {
		return false, nil
	}
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}

// NeedsRehash indica hash ilegível ou gerado com parâmetros diferentes dos atuais.
func NeedsRehash(encodedHash string) bool {
	p, _, _, err := argon2id.DecodeHash(encodedHash)
	if err != nil {
		return true
	}
	return p.Memory != params.Memory ||
		p.Iterations != params.Iterations ||
		p.Parallelism != params.Parallelism ||
		p.KeyLength != params.KeyLength
}
