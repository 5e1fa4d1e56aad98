package alertas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type countingNotifier struct {
	calls int
}

func (c *countingNotifier) Notify(ctx context.Context, msg Message) error {
	c.calls++
	return nil
}

func TestSlackNotifierPostsText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	err := n.Notify(context.Background(), Message{Title: "Lembretes", Text: "varredura falhou", Severity: "critical"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got["text"], ":rotating_light: *Lembretes*") {
		t.Fatalf("unexpected payload %q", got["text"])
	}
}

func TestSlackNotifierReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewSlackNotifier(srv.URL).Notify(context.Background(), Message{Text: "x"}); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestNewSlackNotifierWithoutURL(t *testing.T) {
	if NewSlackNotifier("") != nil {
		t.Fatal("expected nil notifier without url")
	}
}

func TestThrottledSuppressesRepeats(t *testing.T) {
	inner := &countingNotifier{}
	th := NewThrottled(inner, 30*time.Minute)
	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return clock }

	ctx := context.Background()
	th.Notify(ctx, Message{Key: "sem_dpc", Text: "a"})
	th.Notify(ctx, Message{Key: "sem_dpc", Text: "b"})
	th.Notify(ctx, Message{Key: "varredura", Text: "c"})
	if inner.calls != 2 {
		t.Fatalf("expected 2 deliveries, got %d", inner.calls)
	}

	clock = clock.Add(31 * time.Minute)
	th.Notify(ctx, Message{Key: "sem_dpc", Text: "d"})
	if inner.calls != 3 {
		t.Fatalf("expected delivery after window, got %d", inner.calls)
	}
}
