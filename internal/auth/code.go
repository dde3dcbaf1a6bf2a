package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"math/big"
	"strconv"
)

const (
	resetCodeMin = 100000
	resetCodeMax = 999999
)

// GenerateResetCode sorteia um código de 6 dígitos em [100000, 999999].
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeMax-resetCodeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+resetCodeMin, 10), nil
}

// HashResetCode produz HMAC-SHA256 base64 do par e-mail/código.
func HashResetCode(secret []byte, email, code string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(email))
	mac.Write([]byte{'|'})
	mac.Write([]byte(code))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
