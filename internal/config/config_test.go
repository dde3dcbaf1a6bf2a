package config

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaultsToFileBackendAndLocalIssuer(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KV_BACKEND", "")
	t.Setenv("KV_FILE_DIR", "/tmp/painel")
	t.Setenv("RELAY_URL", "")
	t.Setenv("RESET_TOKEN_SECRET", testSecret)
	t.Setenv("MAILER", "log")
	t.Setenv("ALLOW_ORIGINS", "http://localhost:5173, ,http://painel.local")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_ACCESS_TTL", "")

	cfg, err := Load()
	if err == nil {
		t.Fatalf("empty KV_BACKEND must be rejected")
	}

	t.Setenv("KV_BACKEND", "FILE")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9090 || cfg.Store.Backend != BackendFile || cfg.Store.DataDir != "/tmp/painel" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.AllowOrigins) != 2 {
		t.Fatalf("unexpected origins %v", cfg.AllowOrigins)
	}
	if cfg.AccessTTL != 12*time.Hour {
		t.Fatalf("unexpected access ttl %v", cfg.AccessTTL)
	}
	if cfg.RelayTimeout != 10*time.Second || cfg.ResetSecret != testSecret || cfg.Mail.Kind != MailerLog {
		t.Fatalf("unexpected reset settings %+v", cfg)
	}
}

func TestLoadRequiresBackendSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("RELAY_URL", "http://relay:3001/")
	t.Setenv("KV_BACKEND", "postgres")
	t.Setenv("DB_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("postgres without DB_DSN must fail")
	}

	t.Setenv("KV_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RelayURL != "http://relay:3001" || cfg.ResetSecret != "" {
		t.Fatalf("external relay must not need a local secret: %+v", cfg)
	}
}

func TestLoadRelayValidatesSecretAndMailer(t *testing.T) {
	t.Setenv("PORT", "3001")
	t.Setenv("RESET_TOKEN_SECRET", "curto")
	if _, err := LoadRelay(); err == nil {
		t.Fatalf("short secret must fail")
	}

	t.Setenv("RESET_TOKEN_SECRET", testSecret)
	t.Setenv("MAILER", "smtp")
	t.Setenv("SMTP_HOST", "")
	if _, err := LoadRelay(); err == nil {
		t.Fatalf("smtp without host must fail")
	}

	t.Setenv("SMTP_HOST", "smtp.gmail.com")
	t.Setenv("SMTP_FROM", "painel@example.com")
	t.Setenv("SMTP_PORT", "465")
	cfg, err := LoadRelay()
	if err != nil {
		t.Fatalf("load relay: %v", err)
	}
	if cfg.Port != 3001 || cfg.Mail.Port != 465 || cfg.RateLimit.Burst != 5 {
		t.Fatalf("unexpected relay config %+v", cfg)
	}
}

func TestParseDurationEnv(t *testing.T) {
	t.Setenv("RELAY_TIMEOUT", "bogus")
	if _, err := parseDurationEnv("RELAY_TIMEOUT", time.Second); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadRequiresAccessTokenSecret(t *testing.T) {
	t.Setenv("KV_BACKEND", "memory")
	t.Setenv("RELAY_URL", "http://relay:3001")
	t.Setenv("JWT_SECRET", "curto")
	if _, err := Load(); err == nil {
		t.Fatalf("short JWT_SECRET must be rejected")
	}

	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_ACCESS_TTL", "30m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret != testSecret || cfg.AccessTTL != 30*time.Minute {
		t.Fatalf("unexpected token settings %+v", cfg)
	}
}
