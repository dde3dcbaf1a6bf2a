package support

import (
	"context"

	"github.com/gestaozabele/painelpregao/internal/kv"
)

// Repository persiste chamados na chave supportTickets.
type Repository struct {
	kv *kv.Adapter
}

func NewRepository(adapter *kv.Adapter) *Repository {
	return &Repository{kv: adapter}
}

func (r *Repository) Tickets(ctx context.Context) ([]Ticket, error) {
	var tickets []Ticket
	if _, err := r.kv.Load(ctx, kv.KeySupportTickets, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []Ticket{}
	}
	return tickets, nil
}

func (r *Repository) SaveTickets(ctx context.Context, tickets []Ticket) error {
	if tickets == nil {
		tickets = []Ticket{}
	}
	return r.kv.Save(ctx, kv.KeySupportTickets, tickets)
}
