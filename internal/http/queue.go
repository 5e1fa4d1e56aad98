package http

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/diegocamara89/dcyber-bot/internal/telegram"
)

// updateQueue entrega os updates de um mesmo usuário um de cada vez e na
// ordem de chegada. Usuários diferentes são processados em paralelo e cada
// update tem updateBudget contado a partir do início do processamento.
type updateQueue struct {
	bot UpdateHandler

	mu      sync.Mutex
	pending map[int64][]queued
	wg      sync.WaitGroup
}

type queued struct {
	ctx context.Context
	upd telegram.Update
}

func newUpdateQueue(bot UpdateHandler) *updateQueue {
	return &updateQueue{bot: bot, pending: map[int64][]queued{}}
}

// updateKey identifica a conversa; updates sem remetente caem na chave 0.
func updateKey(u telegram.Update) int64 {
	switch {
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From.ID
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID
	case u.Message != nil:
		return u.Message.Chat.ID
	}
	return 0
}

func (q *updateQueue) push(ctx context.Context, u telegram.Update) {
	key := updateKey(u)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.wg.Add(1)
	list, running := q.pending[key]
	q.pending[key] = append(list, queued{ctx: ctx, upd: u})
	if !running {
		go q.drain(key)
	}
}

// drain roda enquanto houver updates da chave; a entrada some do mapa
// quando a fila esvazia.
func (q *updateQueue) drain(key int64) {
	for {
		q.mu.Lock()
		list := q.pending[key]
		if len(list) == 0 {
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		next := list[0]
		q.pending[key] = list[1:]
		q.mu.Unlock()

		q.run(next)
	}
}

func (q *updateQueue) run(item queued) {
	defer q.wg.Done()
	ctx, cancel := context.WithTimeout(item.ctx, updateBudget)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Int64("update_id", item.upd.UpdateID).Msg("webhook: panic ao processar update")
		}
	}()
	q.bot.HandleUpdate(ctx, item.upd)
}

func (q *updateQueue) wait() {
	q.wg.Wait()
}
