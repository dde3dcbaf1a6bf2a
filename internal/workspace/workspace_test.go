package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/config"
	"github.com/gestaozabele/painelpregao/internal/identity"
	"github.com/gestaozabele/painelpregao/internal/kv"
)

func TestRegistryIsolatesProfiles(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(kv.NewMemoryBackend(), nil, zerolog.Nop())

	a, err := reg.Get(ctx, "balcao-1")
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	again, _ := reg.Get(ctx, " balcao-1 ")
	if a != again {
		t.Fatalf("registry should cache workspaces")
	}
	b, err := reg.Get(ctx, "balcao-2")
	if err != nil {
		t.Fatalf("open b: %v", err)
	}

	if _, err := a.Identity.RegisterCompanyAndAdmin(ctx, identity.RegisterCompanyInput{
		CompanyName: "Zabelê Licitações",
		CNPJ:        "11.111.111/0001-11",
		FullName:    "Ana Souza",
		Email:       "ana@zabele.com.br",
		Password:    "Senha123",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	exists, _ := b.Identity.EmailExists(ctx, "ana@zabele.com.br")
	if exists {
		t.Fatalf("profiles must not share users")
	}

	items, _ := b.Monitor.Items(ctx)
	if len(items) != 3 {
		t.Fatalf("every profile starts with example data, got %d", len(items))
	}

	if got := reg.Profiles(); len(got) != 2 || got[0] != "balcao-1" {
		t.Fatalf("unexpected profiles %v", got)
	}
}

func TestOpenKeepsSessionAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryBackend()

	ws, err := Open(ctx, backend, "p", nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Identity.RegisterCompanyAndAdmin(ctx, identity.RegisterCompanyInput{
		CompanyName: "Zabelê", CNPJ: "22222222000122", FullName: "Bruno", Email: "bruno@zabele.com.br", Password: "Senha123",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Session.Login(ctx, "bruno@zabele.com.br", "Senha123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	reopened, err := Open(ctx, backend, "p", nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	user := reopened.Session.CurrentUser()
	if user == nil || user.Email != "bruno@zabele.com.br" || user.PasswordHash != "" {
		t.Fatalf("unexpected restored session %+v", user)
	}
}

func TestInvalidProfile(t *testing.T) {
	reg := NewRegistry(kv.NewMemoryBackend(), nil, zerolog.Nop())
	for _, p := range []string{"", "a b", "../etc"} {
		if _, err := reg.Get(context.Background(), p); !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("profile %q: expected ErrInvalidProfile, got %v", p, err)
		}
	}
}

func TestOpenBackendMemoryAndFile(t *testing.T) {
	ctx := context.Background()

	res, err := OpenBackend(ctx, config.StoreConfig{Backend: config.BackendMemory})
	if err != nil || res.Backend == nil {
		t.Fatalf("memory: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Fatal(err)
	}

	res, err = OpenBackend(ctx, config.StoreConfig{Backend: config.BackendFile, DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, ok := res.Backend.(*kv.FileBackend); !ok {
		t.Fatalf("unexpected backend %T", res.Backend)
	}

	if _, err := OpenBackend(ctx, config.StoreConfig{Backend: "s3"}); err == nil {
		t.Fatalf("unknown backend must fail")
	}
}
