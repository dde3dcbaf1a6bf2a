package http

import (
	"net/http"
	"time"

	"github.com/gestaozabele/painelpregao/internal/auth"
	httpmiddleware "github.com/gestaozabele/painelpregao/internal/http/middleware"
	"github.com/gestaozabele/painelpregao/internal/identity"
	"github.com/gestaozabele/painelpregao/internal/reset"
)

type registerCompanyPayload struct {
	CompanyName string `json:"company_name" validate:"required"`
	CNPJ        string `json:"cnpj" validate:"required"`
	FullName    string `json:"full_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Whatsapp    string `json:"whatsapp"`
	Password    string `json:"password" validate:"required"`
}

// RegisterCompany cadastra empresa e gerente. Não inicia sessão.
func (h *Handler) RegisterCompany(w http.ResponseWriter, r *http.Request) {
	var payload registerCompanyPayload
	if !bind(w, r, &payload) {
		return
	}

	ws := httpmiddleware.GetWorkspace(r.Context())
	user, err := ws.Identity.RegisterCompanyAndAdmin(r.Context(), identity.RegisterCompanyInput{
		CompanyName: payload.CompanyName,
		CNPJ:        payload.CNPJ,
		FullName:    payload.FullName,
		Email:       payload.Email,
		Whatsapp:    payload.Whatsapp,
		Password:    payload.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user.Public())
}

type loginPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login confere as credenciais e emite um token de acesso preso ao perfil.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if !bind(w, r, &payload) {
		return
	}

	ws := httpmiddleware.GetWorkspace(r.Context())
	res, err := ws.Identity.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, claims, err := h.tokens.GenerateAccessToken(res.User.ID, ws.Profile, []string{string(res.User.Role)})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":                    res.User.Public(),
		"require_password_change": res.RequirePasswordChange,
		"access_token":            token,
		"token_type":              "Bearer",
		"expires_at":              claims.ExpiresAt.Time,
	})
}

// Logout revoga o token informado. Sem token válido também responde 204.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	raw, ok := httpmiddleware.BearerToken(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	claims, err := h.tokens.ParseAndValidate(raw, ws.Profile)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.revoked.Revoke(r.Context(), claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, httpmiddleware.GetUser(r.Context()))
}

type changePasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ChangePassword troca a senha do usuário logado, inclusive a temporária.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload changePasswordPayload
	if !bind(w, r, &payload) {
		return
	}
	if payload.NewPassword != payload.ConfirmPassword {
		writeDomainError(w, reset.ErrPasswordMismatch)
		return
	}
	if err := auth.CheckPassword(payload.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}

	ws := httpmiddleware.GetWorkspace(r.Context())
	user := httpmiddleware.GetUser(r.Context())
	if err := ws.Identity.ChangePassword(r.Context(), user.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	updated, err := ws.Identity.GetUser(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated.Public())
}
