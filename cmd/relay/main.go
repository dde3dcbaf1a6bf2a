package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/painelpregao/internal/auth"
	"github.com/gestaozabele/painelpregao/internal/config"
	"github.com/gestaozabele/painelpregao/internal/http/middleware"
	"github.com/gestaozabele/painelpregao/internal/mailrelay"
	"github.com/gestaozabele/painelpregao/internal/obs"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("relay encerrado com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.LoadRelay()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	obs.Init()

	mailer, err := mailrelay.NewMailer(cfg.Mail, log.Logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	var used mailrelay.UsedTokens
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		used = mailrelay.NewRedisUsedTokens(redisClient)
	}

	tokens := auth.NewResetTokenManager(cfg.ResetSecret, mailrelay.CodeTTL)
	issuer := mailrelay.NewIssuer(tokens, mailer, used, log.Logger)
	limiter := middleware.NewRateLimiter("relay", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mailrelay.NewServer(issuer).Router(cfg.AllowOrigins, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("mailer", cfg.Mail.Kind).Msgf("Servidor rodando em http://localhost:%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
