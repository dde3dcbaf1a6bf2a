package mailrelay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAgainstServer(t *testing.T) {
	mailer := &captureMailer{}
	issuer := newTestIssuer(mailer, &testClock{t: time.Now()})
	srv := httptest.NewServer(NewServer(issuer).Router(nil, nil))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	ticket, err := client.SendResetCode(ctx, "ana@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.com", ticket.Email)
	assert.Equal(t, CodeTTL, ticket.ExpiresAt.Sub(ticket.IssuedAt))

	code := mailer.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, client.VerifyResetCode(ctx, ticket.Token, wrong), ErrCodeMismatch)
	require.NoError(t, client.VerifyResetCode(ctx, ticket.Token, code))
	assert.ErrorIs(t, client.VerifyResetCode(ctx, ticket.Token, code), ErrCodeExpired)

	_, err = client.SendResetCode(ctx, "")
	var mde *MailDeliveryError
	require.True(t, errors.As(err, &mde))
	assert.Equal(t, MsgEmailRequired, mde.Message)
}

func TestClientTimeoutIsMailDeliveryError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, 50*time.Millisecond)
	_, err := client.SendResetCode(context.Background(), "ana@acme.com")
	assert.ErrorIs(t, err, ErrMailDelivery)
}

func TestClientServerErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusInternalServerError, map[string]any{"message": MsgSendFailed})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).SendResetCode(context.Background(), "ana@acme.com")
	var mde *MailDeliveryError
	require.True(t, errors.As(err, &mde))
	assert.Equal(t, MsgSendFailed, mde.Message)
}
