// Package workspace compõe os stores de um perfil (o "dispositivo" do painel).
package workspace

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/identity"
	"github.com/gestaozabele/painelpregao/internal/kv"
	"github.com/gestaozabele/painelpregao/internal/monitor"
	"github.com/gestaozabele/painelpregao/internal/session"
	"github.com/gestaozabele/painelpregao/internal/support"
)

var ErrInvalidProfile = errors.New("perfil inválido")

var profilePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Workspace agrupa o estado persistido de um perfil.
type Workspace struct {
	Profile  string
	Store    *kv.Adapter
	Identity *identity.Store
	Session  *session.Holder
	Monitor  *monitor.Service
	Support  *support.Service
}

// NormalizeProfile valida o identificador do perfil.
func NormalizeProfile(profile string) (string, error) {
	profile = strings.TrimSpace(profile)
	if !profilePattern.MatchString(profile) {
		return "", ErrInvalidProfile
	}
	return profile, nil
}

// Open monta o workspace e semeia os dados de exemplo na primeira carga.
func Open(ctx context.Context, backend kv.Backend, profile string, notifier monitor.Notifier, logger zerolog.Logger) (*Workspace, error) {
	profile, err := NormalizeProfile(profile)
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str("profile", profile).Logger()

	adapter := kv.New(backend, profile, logger)
	ids := identity.NewStore(adapter, logger)

	holder, err := session.New(ctx, adapter, ids, logger)
	if err != nil {
		return nil, fmt.Errorf("sessão: %w", err)
	}

	mon := monitor.NewService(monitor.NewRepository(adapter), logger, notifier)
	if err := mon.InitializeExampleData(ctx); err != nil {
		return nil, fmt.Errorf("dados de exemplo: %w", err)
	}

	return &Workspace{
		Profile:  profile,
		Store:    adapter,
		Identity: ids,
		Session:  holder,
		Monitor:  mon,
		Support:  support.NewService(support.NewRepository(adapter), logger),
	}, nil
}

// Registry abre cada perfil uma vez e reaproveita a instância.
type Registry struct {
	backend  kv.Backend
	notifier monitor.Notifier
	logger   zerolog.Logger

	mu    sync.Mutex
	items map[string]*Workspace
}

func NewRegistry(backend kv.Backend, notifier monitor.Notifier, logger zerolog.Logger) *Registry {
	return &Registry{
		backend:  backend,
		notifier: notifier,
		logger:   logger,
		items:    make(map[string]*Workspace),
	}
}

// Get devolve o workspace do perfil, abrindo-o na primeira chamada.
func (r *Registry) Get(ctx context.Context, profile string) (*Workspace, error) {
	profile, err := NormalizeProfile(profile)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.items[profile]; ok {
		return ws, nil
	}
	ws, err := Open(ctx, r.backend, profile, r.notifier, r.logger)
	if err != nil {
		return nil, err
	}
	r.items[profile] = ws
	return ws, nil
}

// Profiles lista os perfis abertos neste processo.
func (r *Registry) Profiles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.items))
	for p := range r.items {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
