// Package reset implementa o fluxo de recuperação de senha por código enviado por e-mail.
package reset

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/auth"
	"github.com/gestaozabele/painelpregao/internal/mailrelay"
	"github.com/gestaozabele/painelpregao/internal/util"
)

type State string

const (
	StateIdle          State = "idle"
	StateAwaitingEmail State = "awaiting_email"
	StateCodeSent      State = "code_sent"
	StateVerified      State = "verified"
	StatePasswordReset State = "password_reset"
)

var (
	ErrInvalidEmail     = errors.New("por favor, insira um e-mail válido")
	ErrInvalidState     = errors.New("operação não permitida nesta etapa")
	ErrPasswordMismatch = errors.New("as senhas digitadas não são iguais")
	ErrCodeExpired      = mailrelay.ErrCodeExpired
	ErrCodeMismatch     = mailrelay.ErrCodeMismatch
)

// Relay entrega e valida códigos.
type Relay interface {
	SendResetCode(ctx context.Context, email string) (*mailrelay.Ticket, error)
	VerifyResetCode(ctx context.Context, token, code string) error
}

// Users é o recorte do cadastro usado pelo fluxo.
type Users interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePasswordByEmail(ctx context.Context, email, newPassword string) error
}

// Status é a visão pública do fluxo; o token nunca é exposto.
type Status struct {
	State            State      `json:"state"`
	Email            string     `json:"email,omitempty"`
	Message          string     `json:"message,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RemainingSeconds int        `json:"remaining_seconds"`
	Expired          bool       `json:"expired"`
}

type Option func(*Flow)

func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

func WithTickInterval(d time.Duration) Option {
	return func(f *Flow) {
		if d > 0 {
			f.tick = d
		}
	}
}

func WithRelayTimeout(d time.Duration) Option {
	return func(f *Flow) {
		if d > 0 {
			f.relayTimeout = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(f *Flow) { f.logger = logger.With().Str("component", "reset").Logger() }
}

// WithDecoyDelay define a espera aleatória aplicada a e-mails sem cadastro.
func WithDecoyDelay(lo, hi time.Duration) Option {
	return func(f *Flow) {
		if lo < 0 {
			lo = 0
		}
		if hi < lo {
			hi = lo
		}
		f.decoyMin, f.decoyMax = lo, hi
	}
}

// OnTick recebe o tempo restante a cada intervalo, na goroutine da contagem.
// O callback não deve chamar métodos do Flow.
func OnTick(fn func(remaining time.Duration)) Option {
	return func(f *Flow) { f.onTick = fn }
}

// OnExpire é chamado uma vez quando a contagem zera.
func OnExpire(fn func()) Option {
	return func(f *Flow) { f.onExpire = fn }
}

// Flow conduz Idle -> AwaitingEmail -> CodeSent -> Verified -> PasswordReset.
type Flow struct {
	relay        Relay
	users        Users
	now          func() time.Time
	tick         time.Duration
	relayTimeout time.Duration
	logger       zerolog.Logger
	onTick       func(time.Duration)
	onExpire     func()
	decoyMin     time.Duration
	decoyMax     time.Duration
	sleep        func(context.Context, time.Duration) error

	mu        sync.Mutex
	state     State
	ticket    *mailrelay.Ticket
	decoy     bool
	failures  int
	expired   bool
	gen       uint64
	countdown *Countdown
	touched   time.Time
}

func New(relay Relay, users Users, opts ...Option) *Flow {
	f := &Flow{
		relay:        relay,
		users:        users,
		now:          time.Now,
		tick:         time.Second,
		relayTimeout: mailrelay.DefaultTimeout,
		logger:       zerolog.Nop(),
		decoyMin:     400 * time.Millisecond,
		decoyMax:     1500 * time.Millisecond,
		sleep:        sleepCtx,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.touched = f.now()
	return f
}

// Open abre o formulário de e-mail.
func (f *Flow) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateIdle {
		f.state = StateAwaitingEmail
	}
	f.touched = f.now()
}

// SubmitEmail pede um código novo. Substitui qualquer código anterior e sua contagem.
func (f *Flow) SubmitEmail(ctx context.Context, email string) (Status, error) {
	email = strings.TrimSpace(email)
	if !util.LooksLikeEmail(email) {
		return f.Status(), ErrInvalidEmail
	}

	f.mu.Lock()
	switch f.state {
	case StateIdle, StateAwaitingEmail, StateCodeSent:
	default:
		f.mu.Unlock()
		return f.Status(), ErrInvalidState
	}
	f.gen++
	gen := f.gen
	previous := f.countdown
	f.countdown = nil
	f.ticket = nil
	f.decoy = false
	f.failures = 0
	f.expired = false
	f.state = StateAwaitingEmail
	f.touched = f.now()
	f.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}

	exists, err := f.users.EmailExists(ctx, email)
	if err != nil {
		return f.Status(), err
	}

	var ticket *mailrelay.Ticket
	if exists {
		callCtx, cancel := context.WithTimeout(ctx, f.relayTimeout)
		ticket, err = f.relay.SendResetCode(callCtx, email)
		cancel()
		if err != nil {
			f.logger.Warn().Err(err).Msg("relay recusou envio do código")
			return f.Status(), asDeliveryError(err)
		}
	} else {
		if err := f.sleep(ctx, f.decoyDelay()); err != nil {
			return f.Status(), err
		}
		ticket = f.decoyTicket(email)
		f.logger.Info().Msg("código solicitado para e-mail sem cadastro")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen {
		return f.statusLocked(), ErrInvalidState
	}
	f.ticket = ticket
	f.decoy = !exists
	f.state = StateCodeSent
	f.touched = f.now()

	total := ticket.ExpiresAt.Sub(f.now())
	f.countdown = startCountdown(total, f.tick, f.onTick, func() { f.handleExpire(gen) })
	return f.statusLocked(), nil
}

// SubmitCode confere o código digitado.
func (f *Flow) SubmitCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	f.mu.Lock()
	f.touched = f.now()
	if f.state == StateAwaitingEmail && f.expired {
		f.mu.Unlock()
		return ErrCodeExpired
	}
	if f.state != StateCodeSent {
		f.mu.Unlock()
		return ErrInvalidState
	}
	if !f.now().Before(f.ticket.ExpiresAt) {
		cd := f.expireLocked()
		f.mu.Unlock()
		if cd != nil {
			cd.Stop()
		}
		return ErrCodeExpired
	}
	ticket := *f.ticket
	decoy := f.decoy
	gen := f.gen
	f.mu.Unlock()

	if code == "" {
		return ErrCodeMismatch
	}

	var err error
	if decoy {
		err = ErrCodeMismatch
	} else {
		callCtx, cancel := context.WithTimeout(ctx, f.relayTimeout)
		err = f.relay.VerifyResetCode(callCtx, ticket.Token, code)
		cancel()
	}

	f.mu.Lock()
	if f.gen != gen || f.state != StateCodeSent {
		f.mu.Unlock()
		return ErrInvalidState
	}
	switch {
	case errors.Is(err, ErrCodeMismatch):
		f.failures++
		if f.failures < mailrelay.MaxCodeAttempts {
			f.mu.Unlock()
			return ErrCodeMismatch
		}
		f.logger.Warn().Int("failures", f.failures).Msg("código descartado após tentativas erradas")
		fallthrough
	case errors.Is(err, ErrCodeExpired):
		cd := f.expireLocked()
		f.mu.Unlock()
		if cd != nil {
			cd.Stop()
		}
		return ErrCodeExpired
	case err != nil:
		f.mu.Unlock()
		return asDeliveryError(err)
	}

	f.state = StateVerified
	cd := f.countdown
	f.countdown = nil
	f.mu.Unlock()
	if cd != nil {
		cd.Stop()
	}
	return nil
}

// SubmitPassword grava a nova senha do e-mail verificado.
func (f *Flow) SubmitPassword(ctx context.Context, newPassword, confirmPassword string) error {
	f.mu.Lock()
	f.touched = f.now()
	if f.state != StateVerified {
		f.mu.Unlock()
		return ErrInvalidState
	}
	email := f.ticket.Email
	gen := f.gen
	f.mu.Unlock()

	if err := auth.CheckPassword(newPassword); err != nil {
		return err
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	if err := f.users.UpdatePasswordByEmail(ctx, email, newPassword); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen == gen {
		f.state = StatePasswordReset
		f.ticket = nil
	}
	f.logger.Info().Msg("senha redefinida via código")
	return nil
}

// Close descarta o ticket e volta para Idle; nenhum tick é entregue depois do retorno.
func (f *Flow) Close() {
	f.mu.Lock()
	f.gen++
	cd := f.countdown
	f.countdown = nil
	f.ticket = nil
	f.decoy = false
	f.failures = 0
	f.expired = false
	f.state = StateIdle
	f.touched = f.now()
	f.mu.Unlock()

	if cd != nil {
		cd.Stop()
	}
}

// State devolve o estado atual.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Remaining devolve o tempo restante do código enviado.
func (f *Flow) Remaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countdown == nil {
		return 0
	}
	return f.countdown.Remaining()
}

// Expired informa se o último código expirou sem ser usado.
func (f *Flow) Expired() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expired
}

// LastActivity devolve o horário da última interação.
func (f *Flow) LastActivity() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusLocked()
}

func (f *Flow) statusLocked() Status {
	st := Status{State: f.state, Expired: f.expired}
	if f.ticket != nil {
		st.Email = f.ticket.Email
		st.Message = f.ticket.Message
		exp := f.ticket.ExpiresAt
		st.ExpiresAt = &exp
	}
	if f.countdown != nil {
		st.RemainingSeconds = int(f.countdown.Remaining().Round(time.Second) / time.Second)
	}
	return st
}

// expireLocked volta para AwaitingEmail e devolve a contagem que o chamador deve parar fora do lock.
func (f *Flow) expireLocked() *Countdown {
	cd := f.countdown
	f.countdown = nil
	f.ticket = nil
	f.decoy = false
	f.failures = 0
	f.expired = true
	f.state = StateAwaitingEmail
	return cd
}

func (f *Flow) handleExpire(gen uint64) {
	f.mu.Lock()
	if f.gen != gen || f.state != StateCodeSent {
		f.mu.Unlock()
		return
	}
	f.expireLocked()
	cb := f.onExpire
	f.mu.Unlock()

	f.logger.Info().Msg("código de recuperação expirou")
	if cb != nil {
		cb()
	}
}

func (f *Flow) decoyTicket(email string) *mailrelay.Ticket {
	now := f.now()
	return &mailrelay.Ticket{
		Email:     email,
		Token:     uuid.NewString(),
		Message:   mailrelay.MsgCodeSent,
		IssuedAt:  now,
		ExpiresAt: now.Add(mailrelay.CodeTTL),
	}
}

// decoyDelay sorteia um valor em [decoyMin, decoyMax].
func (f *Flow) decoyDelay() time.Duration {
	if f.decoyMax <= f.decoyMin {
		return f.decoyMin
	}
	return f.decoyMin + rand.N(f.decoyMax-f.decoyMin+1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func asDeliveryError(err error) error {
	if errors.Is(err, mailrelay.ErrMailDelivery) {
		return err
	}
	return &mailrelay.MailDeliveryError{Message: mailrelay.MsgSendFailed, Err: err}
}
