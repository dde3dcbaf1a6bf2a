package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/painelpregao/internal/auth"
	"github.com/gestaozabele/painelpregao/internal/identity"
)

type contextKey string

const (
	ContextKeyWorkspace contextKey = "workspace"
	ContextKeyUser      contextKey = "user"
	ContextKeyClaims    contextKey = "claims"
)

// RequireSession valida o Bearer token do perfil e injeta o usuário atual, relido do cadastro.
func RequireSession(tokens *auth.JWTManager, revoked auth.Revocations) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws := GetWorkspace(r.Context())
			if ws == nil {
				writeError(w, http.StatusBadRequest, "VALIDATION", "Perfil não informado")
				return
			}

			raw, ok := BearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão não iniciada")
				return
			}
			claims, err := tokens.ParseAndValidate(raw, ws.Profile)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}
			if revoked != nil {
				isRevoked, err := revoked.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					log.Error().Err(err).Msg("falha ao consultar revogação de token")
					writeError(w, http.StatusServiceUnavailable, "STORAGE", "armazenamento indisponível")
					return
				}
				if isRevoked {
					writeError(w, http.StatusUnauthorized, "AUTH", "sessão encerrada")
					return
				}
			}

			user, err := ws.Identity.GetUser(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, identity.ErrUserNotFound) {
					writeError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado")
					return
				}
				log.Error().Err(err).Str("profile", ws.Profile).Msg("falha ao carregar usuário da sessão")
				writeError(w, http.StatusServiceUnavailable, "STORAGE", "armazenamento indisponível")
				return
			}
			public := user.Public()

			ctx := context.WithValue(r.Context(), ContextKeyUser, &public)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extrai o token do cabeçalho Authorization.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequirePasswordChanged bloqueia usuários com senha temporária.
func RequirePasswordChanged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user != nil && user.TemporaryPassword {
			writeError(w, http.StatusForbidden, "PASSWORD_CHANGE_REQUIRED", "altere a senha temporária para continuar")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin restringe a gerentes da empresa.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil || !user.IsAdmin {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito ao gerente")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser recupera o usuário da sessão.
func GetUser(ctx context.Context) *identity.User {
	val, _ := ctx.Value(ContextKeyUser).(*identity.User)
	return val
}

// GetClaims recupera as claims do token validado.
func GetClaims(ctx context.Context) *auth.Claims {
	val, _ := ctx.Value(ContextKeyClaims).(*auth.Claims)
	return val
}

func writeError(w http.ResponseWriter, status int, code, message string) {
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
