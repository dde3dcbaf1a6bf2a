package support

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyDescription  = errors.New("por favor, descreva o problema antes de enviar")
	ErrNotFound          = errors.New("chamado não encontrado")
	ErrInvalidStatus     = errors.New("status de chamado inválido")
	ErrInvalidTransition = errors.New("transição de status não permitida")
)

const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusResolved = "resolved"
)

// rank ordena os status; um chamado só avança.
var rank = map[string]int{
	StatusPending:  0,
	StatusSent:     1,
	StatusResolved: 2,
}

// Ticket representa um chamado aberto por um usuário.
type Ticket struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	ProblemDescription string    `json:"problemDescription"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
}

// TicketFilter permite filtrar listagem de chamados.
type TicketFilter struct {
	UserID string
	Status []string
}

// NormalizeStatus garante padrão em letras minúsculas.
func NormalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return StatusPending
	}
	return status
}

// IsValidStatus indica se o status é aceito.
func IsValidStatus(status string) bool {
	_, ok := rank[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// CanTransition indica se from pode avançar para to.
func CanTransition(from, to string) bool {
	a, okA := rank[from]
	b, okB := rank[to]
	return okA && okB && b > a
}
