package mailrelay

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gestaozabele/painelpregao/internal/http/middleware"
	"github.com/gestaozabele/painelpregao/internal/obs"
)

// Server expõe o contrato HTTP do relay.
type Server struct {
	issuer *Issuer
}

func NewServer(issuer *Issuer) *Server {
	return &Server{issuer: issuer}
}

// Router monta as rotas com os middlewares padrão.
func (s *Server) Router(allowOrigins []string, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover)
	r.Use(obs.Instrument)
	r.Use(middleware.CORS(allowOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Handle("/metrics", obs.Handler())

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(middleware.IPRateLimit(limiter))
		}
		r.Post("/api/send-reset-code", s.SendResetCode)
		r.Post("/api/verify-reset-code", s.VerifyResetCode)
	})
	return r
}

type sendResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SendResetCode atende POST /api/send-reset-code.
func (s *Server) SendResetCode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Email) == "" {
		writeMessage(w, http.StatusBadRequest, map[string]any{"message": MsgEmailRequired})
		return
	}

	ticket, err := s.issuer.SendResetCode(r.Context(), payload.Email)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, map[string]any{"message": MsgSendFailed})
		return
	}

	writeMessage(w, http.StatusOK, sendResponse{
		Message:   MsgCodeSent,
		Token:     ticket.Token,
		IssuedAt:  ticket.IssuedAt,
		ExpiresAt: ticket.ExpiresAt,
	})
}

// VerifyResetCode atende POST /api/verify-reset-code.
func (s *Server) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Token == "" || strings.TrimSpace(payload.Code) == "" {
		writeMessage(w, http.StatusBadRequest, map[string]any{"message": MsgFieldsMissing})
		return
	}

	err := s.issuer.VerifyResetCode(r.Context(), payload.Token, payload.Code)
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, map[string]any{"message": "Código verificado."})
	case errors.Is(err, ErrCodeExpired):
		writeMessage(w, http.StatusGone, map[string]any{"message": MsgCodeExpired})
	case errors.Is(err, ErrCodeMismatch):
		writeMessage(w, http.StatusUnprocessableEntity, map[string]any{"message": MsgCodeInvalid})
	default:
		writeMessage(w, http.StatusInternalServerError, map[string]any{"message": "Erro ao verificar código."})
	}
}

func writeMessage(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
