package util

import (
	"strings"
	"unicode"
)

// LooksLikeEmail aplica a checagem leve usada na recuperação de senha.
func LooksLikeEmail(email string) bool {
	email = strings.TrimSpace(email)
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

// OnlyDigits remove pontuação de documentos como CNPJ.
func OnlyDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
