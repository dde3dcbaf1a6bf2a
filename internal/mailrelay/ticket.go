// Package mailrelay emite, envia e valida códigos de recuperação de senha.
package mailrelay

import (
	"errors"
	"time"
)

const (
	// CodeTTL é a validade de um código enviado.
	CodeTTL = 120 * time.Second
	// DefaultTimeout limita cada chamada ao relay.
	DefaultTimeout = 10 * time.Second

	MsgEmailRequired = "E-mail é obrigatório"
	MsgCodeSent      = "Código enviado com sucesso!"
	MsgSendFailed    = "Erro ao enviar e-mail."
	MsgCodeExpired   = "Código expirado."
	MsgCodeInvalid   = "Código inválido."
	MsgFieldsMissing = "Token e código são obrigatórios"

	mailSubject = "Seu código de recuperação de senha"
)

var (
	ErrCodeExpired  = errors.New("o código de verificação expirou")
	ErrCodeMismatch = errors.New("o código digitado não confere")
	// ErrMailDelivery casa com qualquer MailDeliveryError via errors.Is.
	ErrMailDelivery = errors.New("falha no envio de e-mail")
)

// Ticket é o comprovante devolvido ao cliente; o código em si nunca sai do relay.
type Ticket struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	Message   string    `json:"message"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MailDeliveryError carrega a mensagem do relay quando disponível.
type MailDeliveryError struct {
	Message string
	Err     error
}

func (e *MailDeliveryError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = MsgSendFailed
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *MailDeliveryError) Unwrap() error {
	return e.Err
}

func (e *MailDeliveryError) Is(target error) bool {
	return target == ErrMailDelivery
}
