package auth

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength é o tamanho mínimo aceito na redefinição de senha.
const MinPasswordLength = 8

// Violation identifica uma regra de força de senha não atendida.
type Violation string

const (
	ViolationLength    Violation = "length"
	ViolationUppercase Violation = "uppercase"
	ViolationLowercase Violation = "lowercase"
	ViolationDigit     Violation = "digit"
)

var violationMessages = map[Violation]string{
	ViolationLength:    "Mínimo de 8 caracteres",
	ViolationUppercase: "Uma letra maiúscula",
	ViolationLowercase: "Uma letra minúscula",
	ViolationDigit:     "Um número",
}

// Message devolve o texto exibido ao usuário.
func (v Violation) Message() string {
	if msg, ok := violationMessages[v]; ok {
		return msg
	}
	return string(v)
}

// ErrPasswordTooWeak casa com qualquer WeakPasswordError via errors.Is.
var ErrPasswordTooWeak = errors.New("senha fraca")

// WeakPasswordError carrega todas as regras violadas, na ordem de checagem.
type WeakPasswordError struct {
	Violations []Violation
}

func (e *WeakPasswordError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message())
	}
	return "A senha deve conter: " + strings.Join(msgs, ", ")
}

func (e *WeakPasswordError) Is(target error) bool {
	return target == ErrPasswordTooWeak
}

// Messages lista os textos das violações.
func (e *WeakPasswordError) Messages() []string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message())
	}
	return msgs
}

// ValidatePassword acumula todas as violações; lista vazia significa senha aceita.
func ValidatePassword(password string) []Violation {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	var out []Violation
	if utf8.RuneCountInString(password) < MinPasswordLength {
		out = append(out, ViolationLength)
	}
	if !hasUpper {
		out = append(out, ViolationUppercase)
	}
	if !hasLower {
		out = append(out, ViolationLowercase)
	}
	if !hasDigit {
		out = append(out, ViolationDigit)
	}
	return out
}

// CheckPassword retorna *WeakPasswordError quando alguma regra falha.
func CheckPassword(password string) error {
	if violations := ValidatePassword(password); len(violations) > 0 {
		return &WeakPasswordError{Violations: violations}
	}
	return nil
}
