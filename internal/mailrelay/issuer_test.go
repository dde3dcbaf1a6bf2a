package mailrelay

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/painelpregao/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type captureMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *captureMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var testCodePattern = regexp.MustCompile(`\d{6}`)

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	code := testCodePattern.FindString(m.sent[len(m.sent)-1].Body)
	require.NotEmpty(t, code)
	return code
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestIssuer(mailer Mailer, clock *testClock) *Issuer {
	tokens := auth.NewResetTokenManager(testSecret, CodeTTL)
	return NewIssuer(tokens, mailer, NewMemoryUsedTokens(), zerolog.Nop()).WithClock(clock.Now)
}

func TestIssuerSendAndVerify(t *testing.T) {
	mailer := &captureMailer{}
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer(mailer, clock)
	ctx := context.Background()

	ticket, err := issuer.SendResetCode(ctx, " ana@acme.com ")
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.com", ticket.Email)
	assert.Equal(t, MsgCodeSent, ticket.Message)
	assert.Equal(t, CodeTTL, ticket.ExpiresAt.Sub(ticket.IssuedAt))
	assert.Equal(t, "Seu código de recuperação de senha", mailer.sent[0].Subject)
	assert.NotContains(t, ticket.Token, mailer.lastCode(t))

	clock.Advance(119 * time.Second)
	require.NoError(t, issuer.VerifyResetCode(ctx, ticket.Token, mailer.lastCode(t)))

	assert.ErrorIs(t, issuer.VerifyResetCode(ctx, ticket.Token, mailer.lastCode(t)), ErrCodeExpired, "codes are single use")
}

func TestIssuerExpiryAndMismatch(t *testing.T) {
	mailer := &captureMailer{}
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer(mailer, clock)
	ctx := context.Background()

	ticket, err := issuer.SendResetCode(ctx, "ana@acme.com")
	require.NoError(t, err)
	code := mailer.lastCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, issuer.VerifyResetCode(ctx, ticket.Token, wrong), ErrCodeMismatch)
	assert.ErrorIs(t, issuer.VerifyResetCode(ctx, "lixo", code), ErrCodeMismatch)

	clock.Advance(121 * time.Second)
	assert.ErrorIs(t, issuer.VerifyResetCode(ctx, ticket.Token, code), ErrCodeExpired)
}

func TestIssuerMailerFailure(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp fora do ar")}
	clock := &testClock{t: time.Now()}
	issuer := newTestIssuer(mailer, clock)

	_, err := issuer.SendResetCode(context.Background(), "ana@acme.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMailDelivery)

	var mde *MailDeliveryError
	require.True(t, errors.As(err, &mde))
	assert.Equal(t, MsgSendFailed, mde.Message)
}

func TestMemoryUsedTokensExpire(t *testing.T) {
	used := NewMemoryUsedTokens()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	used.now = func() time.Time { return now }

	fresh, _ := used.MarkUsed(context.Background(), "a", time.Minute)
	assert.True(t, fresh)
	fresh, _ = used.MarkUsed(context.Background(), "a", time.Minute)
	assert.False(t, fresh)

	now = now.Add(2 * time.Minute)
	fresh, _ = used.MarkUsed(context.Background(), "a", time.Minute)
	assert.True(t, fresh)
}

func TestIssuerBurnsTicketAfterTooManyWrongCodes(t *testing.T) {
	mailer := &captureMailer{}
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer(mailer, clock)
	ctx := context.Background()

	ticket, err := issuer.SendResetCode(ctx, "ana@acme.com")
	require.NoError(t, err)
	code := mailer.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 1; i < MaxCodeAttempts; i++ {
		assert.ErrorIs(t, issuer.VerifyResetCode(ctx, ticket.Token, wrong), ErrCodeMismatch, "attempt %d", i)
	}
	assert.ErrorIs(t, issuer.VerifyResetCode(ctx, ticket.Token, wrong), ErrCodeExpired, "last allowed attempt burns the ticket")
	assert.ErrorIs(t, issuer.VerifyResetCode(ctx, ticket.Token, code), ErrCodeExpired, "correct code after lockout")

	fresh, err := issuer.SendResetCode(ctx, "ana@acme.com")
	require.NoError(t, err)
	require.NoError(t, issuer.VerifyResetCode(ctx, fresh.Token, mailer.lastCode(t)), "a new ticket starts a new count")
}

func TestMemoryUsedTokensCountFailures(t *testing.T) {
	used := NewMemoryUsedTokens()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	used.now = func() time.Time { return now }

	for want := int64(1); want <= 3; want++ {
		n, err := used.CountFailure(context.Background(), "a", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	now = now.Add(2 * time.Minute)
	n, _ := used.CountFailure(context.Background(), "a", time.Minute)
	assert.Equal(t, int64(1), n, "count restarts once the ticket lifetime has passed")
}
