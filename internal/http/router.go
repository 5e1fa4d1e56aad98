package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/diegocamara89/dcyber-bot/internal/config"
	httpmiddleware "github.com/diegocamara89/dcyber-bot/internal/http/middleware"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
)

// WebhookPath é onde o Telegram entrega os updates no modo webhook.
const WebhookPath = "/telegram/webhook"

const (
	secretHeader = "X-Telegram-Bot-Api-Secret-Token"
	maxBody      = 1 << 20
	updateBudget = 2 * time.Minute
)

// Check é uma dependência verificada pelo /ready.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// UpdateHandler processa um update recebido.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u telegram.Update)
}

type Handler struct {
	secret         string
	bot            UpdateHandler
	checks         []Check
	webhookLimiter *httpmiddleware.RateLimiter
	queue          *updateQueue
}

// NewHandler cria o handler; bot pode ser nil quando o processo usa long-poll.
func NewHandler(cfg *config.Config, bot UpdateHandler, checks ...Check) *Handler {
	h := &Handler{
		secret:         cfg.WebhookSecret,
		bot:            bot,
		checks:         checks,
		webhookLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitWebhook.RequestsPerSecond, cfg.RateLimitWebhook.Burst),
	}
	if bot != nil {
		h.queue = newUpdateQueue(bot)
	}
	return h
}

// Router devolve o roteador configurado.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	if h.bot != nil {
		r.Group(func(hook chi.Router) {
			hook.Use(httpmiddleware.IPRateLimit(h.webhookLimiter))
			hook.Post(WebhookPath, h.Webhook)
		})
	}
	return r
}

// Wait bloqueia até os updates em processamento terminarem.
func (h *Handler) Wait() {
	if h.queue != nil {
		h.queue.wait()
	}
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida as dependências registradas.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			failed[c.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "dependências indisponíveis", failed)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// Webhook confere o segredo, responde 200 de imediato e enfileira o update
// na fila do usuário para não estourar o prazo do Telegram.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "segredo inválido", nil)
			return
		}
	}

	var upd telegram.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&upd); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_UPDATE", "update inválido", nil)
		return
	}

	h.queue.push(context.WithoutCancel(r.Context()), upd)

	writeAck(w)
}
