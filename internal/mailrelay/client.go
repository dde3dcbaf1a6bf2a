package mailrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Client chama um relay remoto com timeout limitado.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type relayResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, relayResponse, error) {
	var out relayResponse

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return 0, out, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, out, err
	}
	defer resp.Body.Close()

	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out, nil
}

// SendResetCode faz exatamente uma chamada ao relay.
func (c *Client) SendResetCode(ctx context.Context, email string) (*Ticket, error) {
	status, resp, err := c.post(ctx, "/api/send-reset-code", map[string]string{"email": email})
	if err != nil {
		return nil, &MailDeliveryError{Message: MsgSendFailed, Err: err}
	}
	if status != http.StatusOK || resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = MsgSendFailed
		}
		return nil, &MailDeliveryError{Message: msg}
	}

	issued := resp.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	expires := resp.ExpiresAt
	if expires.IsZero() {
		expires = issued.Add(CodeTTL)
	}
	return &Ticket{
		Email:     email,
		Token:     resp.Token,
		Message:   resp.Message,
		IssuedAt:  issued,
		ExpiresAt: expires,
	}, nil
}

// VerifyResetCode traduz os status do relay para os erros do domínio.
func (c *Client) VerifyResetCode(ctx context.Context, token, code string) error {
	status, resp, err := c.post(ctx, "/api/verify-reset-code", map[string]string{"token": token, "code": code})
	if err != nil {
		return &MailDeliveryError{Message: "Erro ao verificar código.", Err: err}
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusGone:
		return ErrCodeExpired
	case http.StatusUnprocessableEntity:
		return ErrCodeMismatch
	default:
		return &MailDeliveryError{Message: resp.Message}
	}
}
