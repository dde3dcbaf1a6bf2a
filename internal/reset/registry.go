package reset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/obs"
)

var ErrFlowNotFound = errors.New("recuperação de senha não encontrada")

type flowEntry struct {
	profile string
	flow    *Flow
}

// Registry guarda os fluxos abertos pela API e descarta os abandonados.
type Registry struct {
	relay   Relay
	opts    []Option
	idleTTL time.Duration
	now     func() time.Time
	logger  zerolog.Logger

	mu    sync.Mutex
	flows map[string]flowEntry

	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRegistry(relay Relay, idleTTL time.Duration, logger zerolog.Logger, opts ...Option) *Registry {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	logger = logger.With().Str("component", "reset").Logger()
	return &Registry{
		relay:   relay,
		opts:    append([]Option{WithLogger(logger)}, opts...),
		idleTTL: idleTTL,
		now:     time.Now,
		logger:  logger,
		flows:   make(map[string]flowEntry),
	}
}

// WithClock troca o relógio do registro e dos fluxos criados depois.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	r.opts = append(r.opts, WithClock(now))
	return r
}

// Create abre um fluxo novo para o perfil.
func (r *Registry) Create(profile string, users Users) (string, *Flow) {
	f := New(r.relay, users, r.opts...)
	f.Open()
	id := uuid.NewString()

	r.mu.Lock()
	r.flows[id] = flowEntry{profile: profile, flow: f}
	n := len(r.flows)
	r.mu.Unlock()

	obs.ResetFlows.Set(float64(n))
	return id, f
}

// Get busca o fluxo; fluxos de outro perfil não são visíveis.
func (r *Registry) Get(profile, id string) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.flows[id]
	if !ok || e.profile != profile {
		return nil, ErrFlowNotFound
	}
	return e.flow, nil
}

// Close abandona o fluxo e descarta o ticket.
func (r *Registry) Close(profile, id string) error {
	r.mu.Lock()
	e, ok := r.flows[id]
	if !ok || e.profile != profile {
		r.mu.Unlock()
		return ErrFlowNotFound
	}
	delete(r.flows, id)
	n := len(r.flows)
	r.mu.Unlock()

	e.flow.Close()
	obs.ResetFlows.Set(float64(n))
	return nil
}

// Len informa quantos fluxos estão abertos.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// Sweep fecha fluxos concluídos ou parados há mais de idleTTL.
func (r *Registry) Sweep() int {
	now := r.now()
	var stale []*Flow

	r.mu.Lock()
	for id, e := range r.flows {
		if e.flow.State() == StatePasswordReset || now.Sub(e.flow.LastActivity()) > r.idleTTL {
			stale = append(stale, e.flow)
			delete(r.flows, id)
		}
	}
	n := len(r.flows)
	r.mu.Unlock()

	for _, f := range stale {
		f.Close()
	}
	obs.ResetFlows.Set(float64(n))
	return len(stale)
}

// Start inicia a limpeza periódica. Safe para chamar múltiplas vezes.
func (r *Registry) Start(parent context.Context) {
	r.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		r.cancel = cancel
		r.done = make(chan struct{})
		go r.runJanitor(ctx)
	})
}

// Stop encerra a limpeza e fecha os fluxos restantes.
func (r *Registry) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done

	r.mu.Lock()
	flows := r.flows
	r.flows = make(map[string]flowEntry)
	r.mu.Unlock()
	for _, e := range flows {
		e.flow.Close()
	}
	obs.ResetFlows.Set(0)
}

func (r *Registry) runJanitor(ctx context.Context) {
	defer close(r.done)

	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", interval).Msg("reset: limpeza iniciada")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reset: limpeza encerrada")
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug().Int("closed", n).Msg("reset: fluxos abandonados descartados")
			}
		}
	}
}
