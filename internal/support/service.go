// Package support registra os chamados de suporte abertos pelos usuários.
package support

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/util"
)

// Service reúne regras de negócio para chamados de suporte.
type Service struct {
	repo   *Repository
	logger zerolog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewService cria uma nova instância do serviço.
func NewService(repo *Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "support").Logger(),
		now:    util.Now,
	}
}

// AddTicket abre um chamado pendente.
func (s *Service) AddTicket(ctx context.Context, userID, description string) (*Ticket, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.repo.Tickets(ctx)
	if err != nil {
		return nil, err
	}
	t := Ticket{
		ID:                 util.NewULID(),
		UserID:             strings.TrimSpace(userID),
		ProblemDescription: description,
		Status:             StatusPending,
		CreatedAt:          s.now(),
	}
	if err := s.repo.SaveTickets(ctx, append(tickets, t)); err != nil {
		return nil, err
	}
	s.logger.Info().Str("ticket_id", t.ID).Str("user_id", t.UserID).Msg("chamado aberto")
	return &t, nil
}

// ListTickets lista chamados dentro do filtro informado, na ordem de abertura.
func (s *Service) ListTickets(ctx context.Context, filter TicketFilter) ([]Ticket, error) {
	tickets, err := s.repo.Tickets(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]struct{}, len(filter.Status))
	for _, st := range filter.Status {
		st = NormalizeStatus(st)
		if IsValidStatus(st) {
			statuses[st] = struct{}{}
		}
	}
	userID := strings.TrimSpace(filter.UserID)

	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if userID != "" && t.UserID != userID {
			continue
		}
		if len(filter.Status) > 0 {
			if _, ok := statuses[t.Status]; !ok {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// GetTicket recupera um chamado.
func (s *Service) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	tickets, err := s.repo.Tickets(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateStatus avança o chamado; retrocessos e repetições são recusados.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Ticket, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.repo.Tickets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID != id {
			continue
		}
		if !CanTransition(tickets[i].Status, status) {
			return nil, ErrInvalidTransition
		}
		tickets[i].Status = status
		if err := s.repo.SaveTickets(ctx, tickets); err != nil {
			return nil, err
		}
		t := tickets[i]
		return &t, nil
	}
	return nil, ErrNotFound
}
