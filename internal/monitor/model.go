package monitor

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound  = errors.New("pregão não encontrado")
	ErrInvalidStatus = errors.New("status de pregão inválido")
	ErrInvalidAlert  = errors.New("alerta sem título ou conteúdo")
)

// Status de um pregão monitorado.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed"
)

var statusLabels = map[Status]string{
	StatusActive:    "em andamento",
	StatusSuspended: "suspenso",
	StatusClosed:    "encerrado",
}

// ParseStatus normaliza e valida o status informado.
func ParseStatus(value string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusLabels[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Label devolve o rótulo exibido no painel.
func (s Status) Label() string {
	return statusLabels[s]
}

// Item é um pregão acompanhado pela empresa.
type Item struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Source  string          `json:"source"`
	Portal  string          `json:"portal"`
	UASG    string          `json:"uasg"`
	Company string          `json:"company"`
	Number  string          `json:"number"`
	Date    string          `json:"date"`
	Status  Status          `json:"status"`
	Message string          `json:"message"`
	Value   decimal.Decimal `json:"value"`
}

// NewItem reúne os campos de cadastro manual.
type NewItem struct {
	Title   string
	Source  string
	Portal  string
	UASG    string
	Company string
	Number  string
	Date    string
	Status  Status
	Message string
	Value   decimal.Decimal
}

// ItemPatch altera apenas campos não nulos.
type ItemPatch struct {
	Title   *string
	Source  *string
	Portal  *string
	UASG    *string
	Company *string
	Number  *string
	Date    *string
	Status  *Status
	Message *string
	Value   *decimal.Decimal
}

type AlertType string

const (
	AlertUrgent AlertType = "urgent"
	AlertNormal AlertType = "normal"
)

// Alert é uma entrada do feed de notificações.
type Alert struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      AlertType `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}
