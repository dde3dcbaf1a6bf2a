package reset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/auth"
	"github.com/gestaozabele/painelpregao/internal/identity"
	"github.com/gestaozabele/painelpregao/internal/kv"
	"github.com/gestaozabele/painelpregao/internal/mailrelay"
)

func newTestRegistry(t *testing.T) (*Registry, *clock, *identity.Store) {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	issuer := mailrelay.NewIssuer(auth.NewResetTokenManager(secret, mailrelay.CodeTTL), &inbox{}, nil, zerolog.Nop()).WithClock(c.Now)
	reg := NewRegistry(issuer, 10*time.Minute, zerolog.Nop()).WithClock(c.Now)
	users := identity.NewStore(kv.New(kv.NewMemoryBackend(), "p", zerolog.Nop()), zerolog.Nop())
	return reg, c, users
}

func TestRegistryScopesFlowsByProfile(t *testing.T) {
	reg, _, users := newTestRegistry(t)

	id, flow := reg.Create("balcao-1", users)
	if flow.State() != StateAwaitingEmail {
		t.Fatalf("new flow must await email, got %s", flow.State())
	}
	got, err := reg.Get("balcao-1", id)
	if err != nil || got != flow {
		t.Fatalf("get: %v", err)
	}
	if _, err := reg.Get("balcao-2", id); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("other profile must not see the flow, got %v", err)
	}
	if err := reg.Close("balcao-2", id); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("other profile must not close the flow, got %v", err)
	}

	if err := reg.Close("balcao-1", id); err != nil {
		t.Fatalf("close: %v", err)
	}
	if flow.State() != StateIdle || reg.Len() != 0 {
		t.Fatalf("close must discard the flow")
	}
}

func TestRegistrySweepDropsIdleFlows(t *testing.T) {
	reg, c, users := newTestRegistry(t)

	stale, _ := reg.Create("p", users)
	c.Advance(6 * time.Minute)
	fresh, freshFlow := reg.Create("p", users)
	c.Advance(5 * time.Minute)

	if n := reg.Sweep(); n != 1 {
		t.Fatalf("expected one idle flow closed, got %d", n)
	}
	if _, err := reg.Get("p", stale); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("idle flow must be gone")
	}
	if _, err := reg.Get("p", fresh); err != nil {
		t.Fatalf("fresh flow must remain: %v", err)
	}
	freshFlow.Close()
}

func TestRegistryStartStop(t *testing.T) {
	reg, _, users := newTestRegistry(t)
	reg.Start(context.Background())
	reg.Start(context.Background())
	_, flow := reg.Create("p", users)

	done := make(chan struct{})
	go func() {
		reg.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stop did not return")
	}
	if reg.Len() != 0 || flow.State() != StateIdle {
		t.Fatalf("stop must close remaining flows")
	}
}
