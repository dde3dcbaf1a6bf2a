package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/painelpregao/internal/workspace"
)

// HeaderProfile identifica o perfil (dispositivo) cujo estado será usado.
const HeaderProfile = "X-Profile"

// Workspaces abstrai o registro de perfis.
type Workspaces interface {
	Get(ctx context.Context, profile string) (*workspace.Workspace, error)
}

// Profile resolve o workspace do perfil informado e o injeta no contexto.
func Profile(reg Workspaces) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := r.Header.Get(HeaderProfile)
			if profile == "" {
				profile = r.URL.Query().Get("profile")
			}
			if profile == "" {
				writeScopeError(w, http.StatusBadRequest, "VALIDATION", "Perfil não informado")
				return
			}

			ws, err := reg.Get(r.Context(), profile)
			if err != nil {
				if errors.Is(err, workspace.ErrInvalidProfile) {
					writeScopeError(w, http.StatusBadRequest, "VALIDATION", "Perfil inválido")
					return
				}
				log.Error().Err(err).Str("profile", profile).Msg("falha ao abrir perfil")
				writeScopeError(w, http.StatusServiceUnavailable, "STORAGE", "armazenamento indisponível")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyWorkspace, ws)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetWorkspace recupera o workspace do contexto.
func GetWorkspace(ctx context.Context) *workspace.Workspace {
	val, _ := ctx.Value(ContextKeyWorkspace).(*workspace.Workspace)
	return val
}

// GetProfile recupera o perfil ativo.
func GetProfile(ctx context.Context) string {
	if ws := GetWorkspace(ctx); ws != nil {
		return ws.Profile
	}
	return ""
}

func writeScopeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
