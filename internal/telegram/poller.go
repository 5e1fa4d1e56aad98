package telegram

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// UpdateHandler processa um update. Pânicos são recuperados pelo chamador.
type UpdateHandler func(ctx context.Context, u Update)

// Updater é a parte do cliente usada pelo poller.
type Updater interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
}

// Poller consome getUpdates e entrega cada update em ordem.
type Poller struct {
	api     Updater
	handler UpdateHandler
	logger  zerolog.Logger
	timeout int
	backoff func() backoff.BackOff
}

func NewPoller(api Updater, handler UpdateHandler, logger zerolog.Logger) *Poller {
	return &Poller{
		api:     api,
		handler: handler,
		logger:  logger,
		timeout: PollTimeout,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// Run bloqueia até o contexto ser cancelado.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	wait := p.backoff()

	p.logger.Info().Int("timeout", p.timeout).Msg("telegram: long-poll iniciado")
	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := p.api.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			next := wait.NextBackOff()
			p.logger.Warn().Err(err).Dur("retry_in", next).Msg("telegram: getUpdates falhou")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(next):
			}
			continue
		}
		wait.Reset()

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.Dispatch(ctx, u)
		}
	}
}

// Dispatch entrega um update ao handler protegendo o loop de pânicos.
func (p *Poller) Dispatch(ctx context.Context, u Update) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error().
				Int64("update_id", u.UpdateID).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("telegram: pânico ao tratar update")
		}
	}()
	p.handler(ctx, u)
}
