package lembretes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diegocamara89/dcyber-bot/internal/alertas"
	"github.com/diegocamara89/dcyber-bot/internal/config"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
)

const sweepBatch = 500

// DispatchStore é o recorte do repositório usado pela varredura.
type DispatchStore interface {
	Due(ctx context.Context, now time.Time, limit int) ([]Pendente, error)
	Claim(ctx context.Context, destinatarioID int64) (bool, error)
	Release(ctx context.Context, destinatarioID int64) error
}

// Sender entrega o texto ao destinatário.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// SweepResult resume uma execução da varredura.
type SweepResult struct {
	ID      string
	Due     int
	Sent    int
	Failed  int
	Skipped int
	Blocked int
}

// Dispatcher varre periodicamente lembretes vencidos e notifica cada
// destinatário no máximo uma vez: a linha é reivindicada antes do envio
// e liberada se o envio falhar. Quem bloqueou o bot fica marcado.
type Dispatcher struct {
	store    DispatchStore
	sender   Sender
	cfg      config.ReminderConfig
	notifier alertas.Notifier
	logger   zerolog.Logger
	now      func() time.Time

	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDispatcher(store DispatchStore, sender Sender, cfg config.ReminderConfig, logger zerolog.Logger, notifier alertas.Notifier) *Dispatcher {
	return &Dispatcher{
		store:    store,
		sender:   sender,
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start inicia loop periódico. Safe para chamar múltiplas vezes.
func (d *Dispatcher) Start(parent context.Context) {
	d.once.Do(func() {
		if !d.cfg.Enabled {
			d.logger.Info().Msg("lembretes: varredura desabilitada")
			return
		}
		ctx, cancel := context.WithCancel(parent)
		d.cancel = cancel
		go d.runLoop(ctx)
	})
}

// Stop encerra o loop e espera a varredura em andamento terminar.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
		<-d.done
	}
}

func (d *Dispatcher) runLoop(ctx context.Context) {
	defer close(d.done)

	interval := d.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info().Dur("interval", interval).Msg("lembretes: loop iniciado")

	d.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("lembretes: loop encerrado")
			return
		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

func (d *Dispatcher) sweep(ctx context.Context) {
	if _, err := d.RunOnce(ctx); err != nil {
		d.logger.Error().Err(err).Msg("lembretes: varredura falhou")
		d.alert(ctx, "varredura", "critical", err.Error())
	}
}

// RunOnce executa uma varredura completa.
func (d *Dispatcher) RunOnce(ctx context.Context) (SweepResult, error) {
	res := SweepResult{ID: uuid.NewString()}
	log := d.logger.With().Str("sweep_id", res.ID).Logger()

	due, err := d.store.Due(ctx, d.now(), sweepBatch)
	if err != nil {
		return res, fmt.Errorf("listar vencidos: %w", err)
	}
	res.Due = len(due)

	for _, p := range due {
		if ctx.Err() != nil {
			break
		}

		claimed, err := d.store.Claim(ctx, p.DestinatarioID)
		if err != nil {
			log.Error().Err(err).Int64("destinatario_id", p.DestinatarioID).Msg("lembretes: falha ao reivindicar")
			res.Failed++
			continue
		}
		if !claimed {
			res.Skipped++
			continue
		}

		if err := d.sender.SendText(ctx, p.UserID, FormatNotificacao(p)); err != nil {
			if telegram.IsBlocked(err) {
				log.Info().Int64("user_id", p.UserID).Int64("lembrete_id", p.LembreteID).Msg("lembretes: destinatário bloqueou o bot")
				res.Blocked++
				continue
			}
			log.Warn().Err(err).Int64("user_id", p.UserID).Int64("lembrete_id", p.LembreteID).Msg("lembretes: envio falhou, liberando")
			if relErr := d.store.Release(context.WithoutCancel(ctx), p.DestinatarioID); relErr != nil {
				log.Error().Err(relErr).Int64("destinatario_id", p.DestinatarioID).Msg("lembretes: falha ao liberar")
			}
			res.Failed++
			continue
		}
		res.Sent++
	}

	if res.Due > 0 {
		log.Info().Int("vencidos", res.Due).Int("enviados", res.Sent).Int("falhas", res.Failed).Int("ignorados", res.Skipped).Int("bloqueados", res.Blocked).Msg("lembretes: varredura concluída")
	}
	if res.Failed > 0 {
		d.alert(ctx, "envio", "warning", fmt.Sprintf("%d notificações de lembrete falharam na varredura %s", res.Failed, res.ID))
	}
	return res, nil
}

func (d *Dispatcher) alert(ctx context.Context, key, severity, text string) {
	if d.notifier == nil {
		return
	}
	msg := alertas.Message{Key: "lembretes_" + key, Title: "Lembretes", Text: text, Severity: severity}
	if err := d.notifier.Notify(ctx, msg); err != nil {
		d.logger.Error().Err(err).Msg("lembretes: falha ao enviar alerta")
	}
}
