// Package session guarda o usuário atual de um perfil.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/identity"
	"github.com/gestaozabele/painelpregao/internal/kv"
)

// Holder mantém uma cópia do usuário logado, persistida em currentUser.
type Holder struct {
	kv       *kv.Adapter
	identity *identity.Store
	logger   zerolog.Logger

	mu      sync.RWMutex
	current *identity.User
}

// New carrega a sessão persistida e passa a acompanhar alterações do usuário atual.
func New(ctx context.Context, adapter *kv.Adapter, store *identity.Store, logger zerolog.Logger) (*Holder, error) {
	h := &Holder{
		kv:       adapter,
		identity: store,
		logger:   logger.With().Str("component", "session").Logger(),
	}

	var snapshot identity.User
	found, err := adapter.Load(ctx, kv.KeyCurrentUser, &snapshot)
	if err != nil {
		return nil, err
	}
	if found && snapshot.ID != "" {
		snapshot = snapshot.Public()
		h.current = &snapshot
	}

	store.Observe(h.onChange)
	return h, nil
}

// Login autentica e guarda a cópia do usuário. Em falha a sessão anterior é mantida.
func (h *Holder) Login(ctx context.Context, email, password string) (*identity.LoginResult, error) {
	res, err := h.identity.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	res.User = res.User.Public()
	if err := h.set(ctx, res.User); err != nil {
		return nil, err
	}
	h.logger.Info().Str("user_id", res.User.ID).Msg("login efetuado")
	return res, nil
}

// Logout limpa a sessão; chamadas repetidas não falham.
func (h *Holder) Logout(ctx context.Context) error {
	h.mu.Lock()
	h.current = nil
	h.mu.Unlock()
	return h.kv.Remove(ctx, kv.KeyCurrentUser)
}

// CurrentUser devolve cópia do usuário atual ou nil.
func (h *Holder) CurrentUser() *identity.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return nil
	}
	u := *h.current
	return &u
}

func (h *Holder) IsAuthenticated() bool {
	return h.CurrentUser() != nil
}

func (h *Holder) set(ctx context.Context, user identity.User) error {
	h.mu.Lock()
	h.current = &user
	h.mu.Unlock()
	return h.kv.Save(ctx, kv.KeyCurrentUser, user)
}

func (h *Holder) onChange(ctx context.Context, change identity.Change) {
	current := h.CurrentUser()
	if current == nil || current.ID != change.User.ID {
		return
	}

	switch change.Kind {
	case identity.ChangeUpdated:
		if err := h.set(ctx, change.User.Public()); err != nil {
			h.logger.Warn().Err(err).Str("user_id", current.ID).Msg("sessão atualizada apenas em memória")
		}
	case identity.ChangeDeleted:
		if err := h.Logout(ctx); err != nil {
			h.logger.Warn().Err(err).Str("user_id", current.ID).Msg("falha ao limpar sessão de usuário removido")
		}
	}
}
