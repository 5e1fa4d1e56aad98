package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	parseModeHTML  = "HTML"

	// PollTimeout é o long-poll em segundos pedido ao getUpdates.
	PollTimeout = 30
)

// Client fala com a Bot API. Envios passam por um limitador de taxa.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	token   string
	logger  zerolog.Logger
}

type Option func(*Client)

// WithBaseURL troca o endpoint da API; usado em testes.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(strings.TrimRight(url, "/"))
	}
}

// WithRetry ajusta as novas tentativas em 429 e 5xx.
func WithRetry(count int, wait time.Duration) Option {
	return func(c *Client) {
		c.http.SetRetryCount(count).SetRetryWaitTime(wait).SetRetryMaxWaitTime(wait * 5)
	}
}

func NewClient(token string, sendRate float64, logger zerolog.Logger, opts ...Option) *Client {
	if sendRate <= 0 {
		sendRate = 25
	}
	burst := int(sendRate)
	if burst < 1 {
		burst = 1
	}

	httpClient := resty.New().
		SetBaseURL(defaultBaseURL).
		SetPathParam("token", token).
		SetTimeout((PollTimeout + 10) * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return false
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accept", "application/json")

	c := &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(sendRate), burst),
		token:   token,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	apiResponse
	Result json.RawMessage `json:"result,omitempty"`
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type editMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int                   `json:"message_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

type setWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

var allowedUpdates = []string{"message", "callback_query"}

// Send envia texto HTML com teclado opcional.
func (c *Client) Send(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (*Message, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var msg Message
	err := c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseModeHTML,
		ReplyMarkup: markup,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendText envia texto simples em HTML, sem botões.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := c.Send(ctx, chatID, text, nil)
	return err
}

// Edit substitui o texto e o teclado de uma mensagem já enviada.
func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, text string, markup *InlineKeyboardMarkup) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	err := c.call(ctx, "editMessageText", editMessageRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   parseModeHTML,
		ReplyMarkup: markup,
	}, nil)
	if IsMessageNotModified(err) {
		return nil
	}
	return err
}

// Answer encerra o indicador de carregamento do botão.
func (c *Client) Answer(ctx context.Context, callbackID, text string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: callbackID, Text: text}, nil)
}

// SendDocument envia um arquivo gerado em memória.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":    fmt.Sprintf("%d", chatID),
			"caption":    caption,
			"parse_mode": parseModeHTML,
		}).
		SetFileReader("document", filename, bytes.NewReader(data)).
		SetResult(&env).
		SetError(&env).
		Post("/bot{token}/sendDocument")
	return c.finish("sendDocument", resp, err, &env, nil)
}

// GetUpdates faz o long-poll a partir do offset informado.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        timeout,
		AllowedUpdates: allowedUpdates,
	}, &updates)
	return updates, err
}

// SetWebhook registra a URL pública e o segredo do cabeçalho.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	return c.call(ctx, "setWebhook", setWebhookRequest{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: allowedUpdates,
	}, nil)
}

// DeleteWebhook volta o bot para o modo getUpdates.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]bool{"drop_pending_updates": false}, nil)
}

func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, "getMe", map[string]any{}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram: limite de envio: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, body any, out any) error {
	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&env).
		SetError(&env).
		Post("/bot{token}/" + method)
	return c.finish(method, resp, err, &env, out)
}

func (c *Client) finish(method string, resp *resty.Response, err error, env *envelope, out any) error {
	if err != nil {
		return fmt.Errorf("telegram %s: %s", method, c.redact(err.Error()))
	}
	if !env.OK {
		apiErr := &APIError{Code: env.ErrorCode, Description: env.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode()
		}
		if apiErr.Description == "" {
			apiErr.Description = resp.Status()
		}
		if env.Parameters != nil {
			apiErr.RetryAfter = env.Parameters.RetryAfter
		}
		if !IsMessageNotModified(apiErr) {
			c.logger.Warn().Str("method", method).Int("code", apiErr.Code).Str("description", apiErr.Description).Msg("telegram: chamada recusada")
		}
		return apiErr
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decodificar resposta: %w", method, err)
	}
	return nil
}

func (c *Client) redact(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, "<token>")
}

// IsBlocked identifica o usuário que bloqueou o bot ou apagou a conta.
func IsBlocked(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden
}
