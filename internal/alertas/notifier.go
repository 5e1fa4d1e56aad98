package alertas

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Notifier envia alertas operacionais para canais externos.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type Message struct {
	Key      string
	Title    string
	Text     string
	Severity string
}

type SlackNotifier struct {
	webhookURL string
	client     *resty.Client
}

// NewSlackNotifier devolve nil quando a URL não está configurada.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	if webhookURL == "" {
		return nil
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     resty.New().SetTimeout(5 * time.Second),
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, msg Message) error {
	if s == nil || s.webhookURL == "" {
		return errors.New("slack notifier not configured")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"text": formatSlackMessage(msg)}).
		Post(s.webhookURL)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= 300 {
		return errors.New("slack notification failed")
	}
	return nil
}

func formatSlackMessage(msg Message) string {
	emoji := ":information_source:"
	switch msg.Severity {
	case "warning":
		emoji = ":warning:"
	case "critical":
		emoji = ":rotating_light:"
	}
	if msg.Title != "" {
		return emoji + " *" + msg.Title + "*\n" + msg.Text
	}
	return emoji + " " + msg.Text
}

// Throttled suprime alertas repetidos com a mesma chave dentro da janela.
type Throttled struct {
	next   Notifier
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func NewThrottled(next Notifier, window time.Duration) *Throttled {
	return &Throttled{next: next, window: window, now: time.Now, last: map[string]time.Time{}}
}

func (t *Throttled) Notify(ctx context.Context, msg Message) error {
	key := msg.Key
	if key == "" {
		key = msg.Title
	}

	t.mu.Lock()
	now := t.now()
	if prev, ok := t.last[key]; ok && now.Sub(prev) < t.window {
		t.mu.Unlock()
		return nil
	}
	t.last[key] = now
	t.mu.Unlock()

	return t.next.Notify(ctx, msg)
}
