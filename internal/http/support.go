package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/gestaozabele/painelpregao/internal/http/middleware"
	"github.com/gestaozabele/painelpregao/internal/support"
)

// ListSupportTickets lista chamados. Funcionários veem apenas os próprios.
func (h *Handler) ListSupportTickets(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	user := httpmiddleware.GetUser(r.Context())

	var filter support.TicketFilter
	if user.IsAdmin {
		filter.UserID = strings.TrimSpace(r.URL.Query().Get("user_id"))
	} else {
		filter.UserID = user.ID
	}

	if statusParam := strings.TrimSpace(r.URL.Query().Get("status")); statusParam != "" {
		parts := strings.Split(statusParam, ",")
		filter.Status = make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part != "" {
				filter.Status = append(filter.Status, part)
			}
		}
	}

	tickets, err := ws.Support.ListTickets(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
}

// CreateSupportTicket abre novo chamado para o usuário logado.
func (h *Handler) CreateSupportTicket(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Description string `json:"description"`
	}
	if !bind(w, r, &payload) {
		return
	}

	ws := httpmiddleware.GetWorkspace(r.Context())
	user := httpmiddleware.GetUser(r.Context())
	ticket, err := ws.Support.AddTicket(r.Context(), user.ID, payload.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ticket)
}

func (h *Handler) GetSupportTicket(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	user := httpmiddleware.GetUser(r.Context())

	ticket, err := ws.Support.GetTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !user.IsAdmin && ticket.UserID != user.ID {
		writeDomainError(w, support.ErrNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, ticket)
}

// UpdateSupportTicket avança o status do chamado.
func (h *Handler) UpdateSupportTicket(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status" validate:"required"`
	}
	if !bind(w, r, &payload) {
		return
	}

	ws := httpmiddleware.GetWorkspace(r.Context())
	ticket, err := ws.Support.UpdateStatus(r.Context(), chi.URLParam(r, "ticketID"), payload.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ticket)
}
