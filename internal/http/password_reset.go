package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/gestaozabele/painelpregao/internal/http/middleware"
	"github.com/gestaozabele/painelpregao/internal/reset"
)

type flowResponse struct {
	ID string `json:"id"`
	reset.Status
}

// OpenPasswordReset abre um fluxo aguardando e-mail.
func (h *Handler) OpenPasswordReset(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, flow := h.flows.Create(ws.Profile, ws.Identity)
	WriteJSON(w, http.StatusCreated, flowResponse{ID: id, Status: flow.Status()})
}

func (h *Handler) GetPasswordReset(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, flowResponse{ID: id, Status: flow.Status()})
}

// SubmitResetEmail envia o código; e-mails sem cadastro recebem a mesma resposta.
func (h *Handler) SubmitResetEmail(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if !bind(w, r, &payload) {
		return
	}
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	st, err := flow.SubmitEmail(r.Context(), payload.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, flowResponse{ID: id, Status: st})
}

func (h *Handler) SubmitResetCode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	if !bind(w, r, &payload) {
		return
	}
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := flow.SubmitCode(r.Context(), payload.Code); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, flowResponse{ID: id, Status: flow.Status()})
}

func (h *Handler) SubmitResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if !bind(w, r, &payload) {
		return
	}
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := flow.SubmitPassword(r.Context(), payload.NewPassword, payload.ConfirmPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, flowResponse{ID: id, Status: flow.Status()})
}

// ClosePasswordReset abandona o fluxo sem efeitos colaterais.
func (h *Handler) ClosePasswordReset(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	if err := h.flows.Close(ws.Profile, chi.URLParam(r, "flowID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) flow(w http.ResponseWriter, r *http.Request) (string, *reset.Flow, bool) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id := chi.URLParam(r, "flowID")
	flow, err := h.flows.Get(ws.Profile, id)
	if err != nil {
		writeDomainError(w, err)
		return "", nil, false
	}
	return id, flow, true
}
