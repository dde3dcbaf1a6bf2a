package support

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/kv"
)

func newTestService() *Service {
	adapter := kv.New(kv.NewMemoryBackend(), "p", zerolog.Nop())
	return NewService(NewRepository(adapter), zerolog.Nop())
}

func TestAddTicketRejectsBlankDescription(t *testing.T) {
	s := newTestService()
	for _, desc := range []string{"", "   ", "\n\t"} {
		if _, err := s.AddTicket(context.Background(), "u1", desc); !errors.Is(err, ErrEmptyDescription) {
			t.Fatalf("description %q: expected ErrEmptyDescription, got %v", desc, err)
		}
	}
	tickets, _ := s.ListTickets(context.Background(), TicketFilter{})
	if len(tickets) != 0 {
		t.Fatalf("no ticket should be stored, got %d", len(tickets))
	}
}

func TestAddAndListTickets(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	first, err := s.AddTicket(ctx, "u1", "  Não consigo exportar o relatório ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.Status != StatusPending || first.ProblemDescription != "Não consigo exportar o relatório" {
		t.Fatalf("unexpected ticket %+v", first)
	}
	if _, err := s.AddTicket(ctx, "u2", "Alerta duplicado"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTicket(ctx, "u1", "Senha temporária não chegou"); err != nil {
		t.Fatal(err)
	}

	mine, _ := s.ListTickets(ctx, TicketFilter{UserID: "u1"})
	if len(mine) != 2 || mine[0].ID != first.ID {
		t.Fatalf("unexpected filter by user %+v", mine)
	}

	if _, err := s.UpdateStatus(ctx, first.ID, StatusSent); err != nil {
		t.Fatalf("advance: %v", err)
	}
	sent, _ := s.ListTickets(ctx, TicketFilter{Status: []string{"SENT"}})
	if len(sent) != 1 || sent[0].ID != first.ID {
		t.Fatalf("unexpected filter by status %+v", sent)
	}
}

func TestUpdateStatusOnlyMovesForward(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	ticket, err := s.AddTicket(ctx, "u1", "Erro ao salvar pregão")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.UpdateStatus(ctx, ticket.ID, StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> pending must fail, got %v", err)
	}
	if _, err := s.UpdateStatus(ctx, ticket.ID, "closed"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	got, err := s.UpdateStatus(ctx, ticket.ID, StatusResolved)
	if err != nil || got.Status != StatusResolved {
		t.Fatalf("pending -> resolved: %+v %v", got, err)
	}
	if _, err := s.UpdateStatus(ctx, ticket.ID, StatusSent); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resolved -> sent must fail, got %v", err)
	}
	if _, err := s.UpdateStatus(ctx, "missing", StatusSent); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	stored, err := s.GetTicket(ctx, ticket.ID)
	if err != nil || stored.Status != StatusResolved {
		t.Fatalf("status not persisted: %+v %v", stored, err)
	}
}
