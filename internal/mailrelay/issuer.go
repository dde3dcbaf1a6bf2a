package mailrelay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/auth"
	"github.com/gestaozabele/painelpregao/internal/obs"
)

// Issuer gera o código, envia por e-mail e valida depois a partir do ticket assinado.
type Issuer struct {
	tokens *auth.ResetTokenManager
	mailer Mailer
	used   UsedTokens
	now    func() time.Time
	logger zerolog.Logger
}

func NewIssuer(tokens *auth.ResetTokenManager, mailer Mailer, used UsedTokens, logger zerolog.Logger) *Issuer {
	if used == nil {
		used = NewMemoryUsedTokens()
	}
	return &Issuer{
		tokens: tokens,
		mailer: mailer,
		used:   used,
		now:    time.Now,
		logger: logger.With().Str("component", "mailrelay").Logger(),
	}
}

// WithClock alinha o relógio usado nos tickets.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	i.tokens.WithClock(now)
	return i
}

// SendResetCode envia um código novo a cada chamada.
func (i *Issuer) SendResetCode(ctx context.Context, email string) (*Ticket, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &MailDeliveryError{Message: MsgEmailRequired}
	}

	code, err := auth.GenerateResetCode()
	if err != nil {
		return nil, fmt.Errorf("gerar código: %w", err)
	}
	token, claims, err := i.tokens.Issue(email, code)
	if err != nil {
		return nil, fmt.Errorf("assinar ticket: %w", err)
	}

	msg := Message{
		To:      email,
		Subject: mailSubject,
		Body:    fmt.Sprintf("Seu código de recuperação é: %s", code),
	}
	if err := i.mailer.Send(ctx, msg); err != nil {
		obs.ResetCodes.WithLabelValues("send", "error").Inc()
		i.logger.Error().Err(err).Msg("envio do código falhou")
		return nil, &MailDeliveryError{Message: MsgSendFailed, Err: err}
	}

	obs.ResetCodes.WithLabelValues("send", "ok").Inc()
	i.logger.Info().Str("jti", claims.ID).Msg("código de recuperação enviado")

	return &Ticket{
		Email:     email,
		Token:     token,
		Message:   MsgCodeSent,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyResetCode aceita cada ticket uma única vez. Depois de MaxCodeAttempts códigos errados
// o ticket é descartado e passa a responder como expirado.
func (i *Issuer) VerifyResetCode(ctx context.Context, token, code string) error {
	claims, err := i.tokens.Verify(token, strings.TrimSpace(code))
	switch {
	case errors.Is(err, auth.ErrResetTokenExpired):
		obs.ResetCodes.WithLabelValues("verify", "expired").Inc()
		return ErrCodeExpired
	case errors.Is(err, auth.ErrResetCodeMismatch):
		return i.recordFailure(ctx, claims)
	case errors.Is(err, auth.ErrResetTokenInvalid):
		obs.ResetCodes.WithLabelValues("verify", "mismatch").Inc()
		return ErrCodeMismatch
	case err != nil:
		return err
	}

	ttl := claims.ExpiresAt.Time.Sub(i.now())
	fresh, err := i.used.MarkUsed(ctx, claims.ID, ttl)
	if err != nil {
		return fmt.Errorf("marcar ticket: %w", err)
	}
	if !fresh {
		obs.ResetCodes.WithLabelValues("verify", "reused").Inc()
		return ErrCodeExpired
	}

	obs.ResetCodes.WithLabelValues("verify", "ok").Inc()
	return nil
}

func (i *Issuer) recordFailure(ctx context.Context, claims *auth.ResetClaims) error {
	ttl := claims.ExpiresAt.Time.Sub(i.now())
	failures, err := i.used.CountFailure(ctx, claims.ID, ttl)
	if err != nil {
		return fmt.Errorf("contar tentativa: %w", err)
	}
	if failures < MaxCodeAttempts {
		obs.ResetCodes.WithLabelValues("verify", "mismatch").Inc()
		return ErrCodeMismatch
	}

	if _, err := i.used.MarkUsed(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("descartar ticket: %w", err)
	}
	obs.ResetCodes.WithLabelValues("verify", "locked").Inc()
	i.logger.Warn().Str("jti", claims.ID).Int64("failures", failures).Msg("ticket descartado após tentativas erradas")
	return ErrCodeExpired
}
