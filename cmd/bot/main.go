package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diegocamara89/dcyber-bot/internal/alertas"
	"github.com/diegocamara89/dcyber-bot/internal/assinaturas"
	"github.com/diegocamara89/dcyber-bot/internal/bot"
	"github.com/diegocamara89/dcyber-bot/internal/casos"
	"github.com/diegocamara89/dcyber-bot/internal/config"
	"github.com/diegocamara89/dcyber-bot/internal/contatos"
	"github.com/diegocamara89/dcyber-bot/internal/db"
	"github.com/diegocamara89/dcyber-bot/internal/estatisticas"
	internalhttp "github.com/diegocamara89/dcyber-bot/internal/http"
	"github.com/diegocamara89/dcyber-bot/internal/lembretes"
	"github.com/diegocamara89/dcyber-bot/internal/service"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
	"github.com/diegocamara89/dcyber-bot/internal/wizard"
)

const alertWindow = 15 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("bot encerrado com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBDSN, cfg.DBConnect.Attempts, cfg.DBConnect.Backoff)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	checks := []internalhttp.Check{{Name: "db", Ping: pool.Ping}}

	var wizards wizard.Store
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		wizards = wizard.NewRedisStore(redisClient, cfg.WizardTTL)
		checks = append(checks, internalhttp.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	} else {
		mem := wizard.NewMemoryStore(cfg.WizardTTL)
		go sweepWizards(ctx, mem, cfg.WizardTTL)
		wizards = mem
		log.Warn().Msg("REDIS_URL vazio: formulários ficam apenas em memória")
	}

	usuariosSvc := usuarios.NewService(usuarios.NewRepository(pool))
	if err := usuariosSvc.SeedAdmin(ctx, cfg.AdminID); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	statsSvc := estatisticas.NewService(estatisticas.NewRepository(pool), cfg.Timezone, component("estatisticas"))
	lembretesRepo := lembretes.NewRepository(pool, cfg.Timezone)

	client := telegram.NewClient(cfg.BotToken, cfg.SendRate, component("telegram"))
	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	log.Info().Str("username", me.Username).Msg("bot autenticado")

	b := bot.New(bot.Deps{
		Usuarios:    usuariosSvc,
		RBAC:        service.NewRBACService(usuariosSvc),
		Assinaturas: assinaturas.NewService(assinaturas.NewRepository(pool), statsSvc, component("assinaturas")),
		Casos:       casos.NewService(casos.NewRepository(pool), statsSvc, component("casos")),
		Contatos:    contatos.NewService(contatos.NewRepository(pool), statsSvc, component("contatos")),
		Lembretes:   lembretes.NewService(lembretesRepo, statsSvc, cfg.Timezone, component("lembretes")),
		Stats:       statsSvc,
		Wizards:     wizards,
		Messenger:   client,
		AdminID:     cfg.AdminID,
		Location:    cfg.Timezone,
	})

	var notifier alertas.Notifier
	if slack := alertas.NewSlackNotifier(cfg.SlackWebhookURL); slack != nil {
		notifier = alertas.NewThrottled(slack, alertWindow)
	}
	dispatcher := lembretes.NewDispatcher(lembretesRepo, client, cfg.Reminders, component("lembretes"), notifier)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	var updates internalhttp.UpdateHandler
	if cfg.Transport == config.TransportWebhook {
		updates = b
	}
	handler := internalhttp.NewHandler(cfg, updates, checks...)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("transport", cfg.Transport).Msgf("HTTP ouvindo em :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.Transport == config.TransportWebhook {
		if err := client.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			return fmt.Errorf("setWebhook: %w", err)
		}
		log.Info().Msg("webhook registrado")
	} else {
		if err := client.DeleteWebhook(ctx); err != nil {
			return fmt.Errorf("deleteWebhook: %w", err)
		}
		poller := telegram.NewPoller(client, b.HandleUpdate, component("poller"))
		go func() {
			if err := poller.Run(ctx); err != nil {
				errCh <- fmt.Errorf("poller: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("encerrando...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	handler.Wait()
	return nil
}

func component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func sweepWizards(ctx context.Context, mem *wizard.MemoryStore, ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mem.Sweep(); n > 0 {
				log.Debug().Int("removidos", n).Msg("formulários expirados removidos")
			}
		}
	}
}
