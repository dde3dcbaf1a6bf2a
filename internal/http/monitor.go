package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	httpmiddleware "github.com/gestaozabele/painelpregao/internal/http/middleware"
	"github.com/gestaozabele/painelpregao/internal/monitor"
)

// ListItems lista pregões; ?status= filtra.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())

	var (
		items []monitor.Item
		err   error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, perr := monitor.ParseStatus(raw)
		if perr != nil {
			writeDomainError(w, perr)
			return
		}
		items, err = ws.Monitor.ItemsByStatus(r.Context(), status)
	} else {
		items, err = ws.Monitor.Items(r.Context())
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	item, err := ws.Monitor.Item(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

type itemPayload struct {
	Title   *string          `json:"title"`
	Source  *string          `json:"source"`
	Portal  *string          `json:"portal"`
	UASG    *string          `json:"uasg"`
	Company *string          `json:"company"`
	Number  *string          `json:"number"`
	Date    *string          `json:"date" validate:"omitempty,datetime=02/01/2006"`
	Status  *string          `json:"status"`
	Message *string          `json:"message"`
	Value   *decimal.Decimal `json:"value"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateItem cadastra pregão; título é obrigatório.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if !bind(w, r, &payload) {
		return
	}
	if strings.TrimSpace(deref(payload.Title)) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "Título obrigatório", nil)
		return
	}

	input := monitor.NewItem{
		Title:   deref(payload.Title),
		Source:  deref(payload.Source),
		Portal:  deref(payload.Portal),
		UASG:    deref(payload.UASG),
		Company: deref(payload.Company),
		Number:  deref(payload.Number),
		Date:    deref(payload.Date),
		Message: deref(payload.Message),
	}
	if payload.Status != nil {
		status, err := monitor.ParseStatus(*payload.Status)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		input.Status = status
	}
	if payload.Value != nil {
		input.Value = *payload.Value
	}

	ws := httpmiddleware.GetWorkspace(r.Context())
	item, err := ws.Monitor.AddItem(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}

// UpdateItem aplica alteração parcial; mudança de status gera alerta.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if !bind(w, r, &payload) {
		return
	}

	patch := monitor.ItemPatch{
		Title:   payload.Title,
		Source:  payload.Source,
		Portal:  payload.Portal,
		UASG:    payload.UASG,
		Company: payload.Company,
		Number:  payload.Number,
		Date:    payload.Date,
		Message: payload.Message,
		Value:   payload.Value,
	}
	if payload.Status != nil {
		status, err := monitor.ParseStatus(*payload.Status)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		patch.Status = &status
	}

	ws := httpmiddleware.GetWorkspace(r.Context())
	item, err := ws.Monitor.UpdateItem(r.Context(), chi.URLParam(r, "itemID"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	if err := ws.Monitor.RemoveItem(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	alerts, err := ws.Monitor.Alerts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

type alertPayload struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Type    string `json:"type" validate:"omitempty,oneof=urgent normal"`
}

func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var payload alertPayload
	if !bind(w, r, &payload) {
		return
	}
	ws := httpmiddleware.GetWorkspace(r.Context())
	alert, err := ws.Monitor.AddAlert(r.Context(), payload.Title, payload.Content, monitor.AlertType(payload.Type))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, alert)
}
