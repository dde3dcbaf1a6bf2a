package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/painelpregao/internal/auth"
	"github.com/gestaozabele/painelpregao/internal/config"
	internalhttp "github.com/gestaozabele/painelpregao/internal/http"
	"github.com/gestaozabele/painelpregao/internal/mailrelay"
	"github.com/gestaozabele/painelpregao/internal/monitor"
	"github.com/gestaozabele/painelpregao/internal/obs"
	"github.com/gestaozabele/painelpregao/internal/reset"
	"github.com/gestaozabele/painelpregao/internal/workspace"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()
	obs.Init()

	res, err := workspace.OpenBackend(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("kv: %w", err)
	}
	defer res.Close()

	relay, err := buildRelay(cfg, res)
	if err != nil {
		return err
	}

	var notifier monitor.Notifier
	if slack := monitor.NewSlackNotifier(cfg.SlackWebhookURL); slack != nil {
		notifier = slack
	}

	registry := workspace.NewRegistry(res.Backend, notifier, log.Logger)
	flows := reset.NewRegistry(relay, cfg.FlowIdleTTL, log.Logger, reset.WithRelayTimeout(cfg.RelayTimeout))
	flows.Start(ctx)
	defer flows.Stop()

	var revoked auth.Revocations
	if res.Redis != nil {
		revoked = auth.NewRedisRevocations(res.Redis)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           internalhttp.NewRouter(cfg, registry, flows, revoked),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("backend", cfg.Store.Backend).Msgf("API ouvindo em :%d", cfg.Port)
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

// buildRelay usa o relay HTTP quando RELAY_URL existe; senão emite os códigos no próprio processo.
func buildRelay(cfg *config.Config, res *workspace.Resources) (reset.Relay, error) {
	if cfg.RelayURL != "" {
		log.Info().Str("relay_url", cfg.RelayURL).Msg("usando relay de e-mail externo")
		return mailrelay.NewClient(cfg.RelayURL, cfg.RelayTimeout), nil
	}

	mailer, err := mailrelay.NewMailer(cfg.Mail, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}
	var used mailrelay.UsedTokens
	if res.Redis != nil {
		used = mailrelay.NewRedisUsedTokens(res.Redis)
	}
	tokens := auth.NewResetTokenManager(cfg.ResetSecret, mailrelay.CodeTTL)
	return mailrelay.NewIssuer(tokens, mailer, used, log.Logger), nil
}
