package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/gestaozabele/painelpregao/internal/http/middleware"
	"github.com/gestaozabele/painelpregao/internal/identity"
	"github.com/gestaozabele/painelpregao/internal/workspace"
)

func publicUsers(users []identity.User) []identity.User {
	out := make([]identity.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// ListEmployees lista usuários da empresa do gerente.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	admin := httpmiddleware.GetUser(r.Context())

	users, err := ws.Identity.GetUsersByCompany(r.Context(), admin.CompanyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"employees": publicUsers(users)})
}

type createEmployeePayload struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Whatsapp string `json:"whatsapp"`
	Password string `json:"password" validate:"required"`
}

// CreateEmployee cadastra funcionário com senha temporária.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload createEmployeePayload
	if !bind(w, r, &payload) {
		return
	}

	ws := httpmiddleware.GetWorkspace(r.Context())
	admin := httpmiddleware.GetUser(r.Context())
	user, err := ws.Identity.RegisterEmployee(r.Context(), identity.RegisterEmployeeInput{
		CompanyID: admin.CompanyID,
		FullName:  payload.FullName,
		Email:     payload.Email,
		Whatsapp:  payload.Whatsapp,
		Password:  payload.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user.Public())
}

type updateEmployeePayload struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Whatsapp *string `json:"whatsapp"`
	IsAdmin  *bool   `json:"is_admin"`
	Password *string `json:"password"`
}

// UpdateEmployee altera dados de funcionário da mesma empresa.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload updateEmployeePayload
	if !bind(w, r, &payload) {
		return
	}

	ws := httpmiddleware.GetWorkspace(r.Context())
	target, ok := h.companyUser(w, r, ws)
	if !ok {
		return
	}

	patch := identity.UserPatch{
		FullName: payload.FullName,
		Email:    payload.Email,
		Whatsapp: payload.Whatsapp,
		IsAdmin:  payload.IsAdmin,
		Password: payload.Password,
	}
	// Senha definida pelo gerente volta a ser temporária.
	if payload.Password != nil {
		temporary := true
		patch.TemporaryPassword = &temporary
	}

	user, err := ws.Identity.UpdateUser(r.Context(), target.ID, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user.Public())
}

// DeleteEmployee remove o usuário sem apagar chamados ou pregões associados.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	target, ok := h.companyUser(w, r, ws)
	if !ok {
		return
	}
	if err := ws.Identity.DeleteUser(r.Context(), target.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// companyUser carrega o usuário da rota e esconde usuários de outras empresas.
func (h *Handler) companyUser(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) (*identity.User, bool) {
	admin := httpmiddleware.GetUser(r.Context())
	target, err := ws.Identity.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	if target.CompanyID != admin.CompanyID {
		writeDomainError(w, identity.ErrUserNotFound)
		return nil, false
	}
	return target, true
}

// GetCompanyByCNPJ aceita CNPJ com ou sem pontuação.
func (h *Handler) GetCompanyByCNPJ(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	company, err := ws.Identity.GetCompanyByCNPJ(r.Context(), chi.URLParam(r, "cnpj"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, company)
}
