package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	MailerLog  = "log"
	MailerSMTP = "smtp"
)

// Config centraliza a configuração da API do painel.
type Config struct {
	Port            int
	Store           StoreConfig
	AllowOrigins    []string
	JWTSecret       string
	AccessTTL       time.Duration
	RelayURL        string
	RelayTimeout    time.Duration
	ResetSecret     string
	Mail            MailConfig
	SlackWebhookURL string
	FlowIdleTTL     time.Duration
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
}

// RelayConfig é a configuração do serviço de envio de códigos.
type RelayConfig struct {
	Port         int
	AllowOrigins []string
	ResetSecret  string
	RedisURL     string
	Mail         MailConfig
	RateLimit    RateLimitConfig
}

// StoreConfig escolhe onde os perfis são gravados.
type StoreConfig struct {
	Backend  string
	DataDir  string
	RedisURL string
	DBDSN    string
}

// MailConfig descreve o envio de e-mails.
type MailConfig struct {
	Kind     string
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	port, err := parsePort("PORT", "8080")
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	store, err := loadStore()
	if err != nil {
		return nil, err
	}
	cfg.Store = store

	cfg.AllowOrigins = splitList(getEnv("ALLOW_ORIGINS", ""))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}
	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.AccessTTL = accessTTL

	cfg.RelayURL = strings.TrimRight(strings.TrimSpace(getEnv("RELAY_URL", "")), "/")
	relayTimeout, err := parseDurationEnv("RELAY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.RelayTimeout = relayTimeout

	// Sem relay externo o código é emitido no próprio processo.
	if cfg.RelayURL == "" {
		cfg.ResetSecret, err = loadSecret()
		if err != nil {
			return nil, err
		}
		cfg.Mail, err = loadMail()
		if err != nil {
			return nil, err
		}
	}

	cfg.SlackWebhookURL = strings.TrimSpace(getEnv("SLACK_WEBHOOK_URL", ""))

	idle, err := parseDurationEnv("RESET_FLOW_IDLE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.FlowIdleTTL = idle

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	return cfg, nil
}

// LoadRelay carrega a configuração do relay de e-mail.
func LoadRelay() (*RelayConfig, error) {
	_ = godotenv.Load()

	cfg := &RelayConfig{}

	port, err := parsePort("PORT", "3001")
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	cfg.AllowOrigins = splitList(getEnv("ALLOW_ORIGINS", ""))

	cfg.ResetSecret, err = loadSecret()
	if err != nil {
		return nil, err
	}
	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	cfg.Mail, err = loadMail()
	if err != nil {
		return nil, err
	}

	rps, err := strconv.ParseFloat(getEnv("RELAY_RATE_RPS", "1"), 64)
	if err != nil || rps <= 0 {
		return nil, errors.New("RELAY_RATE_RPS inválido")
	}
	burst, err := strconv.Atoi(getEnv("RELAY_RATE_BURST", "5"))
	if err != nil || burst <= 0 {
		return nil, errors.New("RELAY_RATE_BURST inválido")
	}
	cfg.RateLimit = RateLimitConfig{RequestsPerSecond: rps, Burst: burst}

	return cfg, nil
}

// LoadStore carrega apenas o backend de armazenamento; usado pela CLI.
func LoadStore() (StoreConfig, error) {
	_ = godotenv.Load()
	return loadStore()
}

func loadStore() (StoreConfig, error) {
	sc := StoreConfig{
		Backend:  strings.ToLower(strings.TrimSpace(getEnv("KV_BACKEND", BackendFile))),
		DataDir:  strings.TrimSpace(getEnv("KV_FILE_DIR", "./data")),
		RedisURL: strings.TrimSpace(getEnv("REDIS_URL", "")),
		DBDSN:    strings.TrimSpace(getEnv("DB_DSN", "")),
	}
	switch sc.Backend {
	case BackendMemory:
	case BackendFile:
		if sc.DataDir == "" {
			return sc, errors.New("KV_FILE_DIR obrigatório")
		}
	case BackendRedis:
		if sc.RedisURL == "" {
			return sc, errors.New("REDIS_URL obrigatório")
		}
	case BackendPostgres:
		if sc.DBDSN == "" {
			return sc, errors.New("DB_DSN obrigatório")
		}
	default:
		return sc, errors.New("KV_BACKEND inválido")
	}
	return sc, nil
}

func loadSecret() (string, error) {
	secret := strings.TrimSpace(getEnv("RESET_TOKEN_SECRET", ""))
	if len(secret) < 32 {
		return "", errors.New("RESET_TOKEN_SECRET deve ter pelo menos 32 caracteres")
	}
	return secret, nil
}

func loadMail() (MailConfig, error) {
	mc := MailConfig{
		Kind:     strings.ToLower(strings.TrimSpace(getEnv("MAILER", MailerLog))),
		Host:     strings.TrimSpace(getEnv("SMTP_HOST", "")),
		Username: getEnv("SMTP_USER", ""),
		Password: getEnv("SMTP_PASS", ""),
		From:     strings.TrimSpace(getEnv("SMTP_FROM", "")),
	}
	switch mc.Kind {
	case MailerLog:
	case MailerSMTP:
		port, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
		if err != nil || port <= 0 {
			return mc, errors.New("SMTP_PORT inválida")
		}
		mc.Port = port
		if mc.Host == "" || mc.From == "" {
			return mc, errors.New("SMTP_HOST e SMTP_FROM obrigatórios")
		}
	default:
		return mc, errors.New("MAILER inválido")
	}
	return mc, nil
}

func parsePort(key, def string) (int, error) {
	port, err := strconv.Atoi(getEnv(key, def))
	if err != nil || port <= 0 {
		return 0, errors.New(key + " inválida")
	}
	return port, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
