package lembretes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/diegocamara89/dcyber-bot/internal/alertas"
	"github.com/diegocamara89/dcyber-bot/internal/config"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
)

type recipient struct {
	id         int64
	lembreteID int64
	userID     int64
	notificado bool
}

type dueStore struct {
	mu         sync.Mutex
	quando     map[int64]time.Time
	ativo      map[int64]bool
	recipients []*recipient
	stolen     map[int64]bool
}

func newDueStore() *dueStore {
	return &dueStore{quando: map[int64]time.Time{}, ativo: map[int64]bool{}, stolen: map[int64]bool{}}
}

func (s *dueStore) add(lembreteID int64, quando time.Time, users ...int64) {
	s.quando[lembreteID] = quando
	s.ativo[lembreteID] = true
	for _, u := range users {
		s.recipients = append(s.recipients, &recipient{id: int64(len(s.recipients) + 1), lembreteID: lembreteID, userID: u})
	}
}

func (s *dueStore) Due(ctx context.Context, now time.Time, limit int) ([]Pendente, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Pendente
	for _, r := range s.recipients {
		q := s.quando[r.lembreteID]
		if r.notificado || !s.ativo[r.lembreteID] || q.After(now) {
			continue
		}
		out = append(out, Pendente{DestinatarioID: r.id, LembreteID: r.lembreteID, UserID: r.userID, Titulo: "t", Quando: q})
	}
	return out, nil
}

func (s *dueStore) Claim(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recipients {
		if r.id == id {
			if r.notificado || s.stolen[id] {
				return false, nil
			}
			r.notificado = true
			return true, nil
		}
	}
	return false, nil
}

func (s *dueStore) Release(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recipients {
		if r.id == id {
			r.notificado = false
		}
	}
	return nil
}

type recordingSender struct {
	mu    sync.Mutex
	sent  map[int64]int
	fail    map[int64]bool
	blocked map[int64]bool
	calls chan int64
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: map[int64]int{}, fail: map[int64]bool{}, blocked: map[int64]bool{}, calls: make(chan int64, 16)}
}

func (r *recordingSender) SendText(ctx context.Context, chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[chatID] {
		return errors.New("chat not found")
	}
	if r.blocked[chatID] {
		return &telegram.APIError{Code: 403, Description: "Forbidden: bot was blocked by the user"}
	}
	r.sent[chatID]++
	select {
	case r.calls <- chatID:
	default:
	}
	return nil
}

type captureNotifier struct {
	msgs []alertas.Message
}

func (c *captureNotifier) Notify(ctx context.Context, msg alertas.Message) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func newTestDispatcher(store DispatchStore, sender Sender, now time.Time, notifier alertas.Notifier) *Dispatcher {
	d := NewDispatcher(store, sender, config.ReminderConfig{Enabled: true, Interval: time.Minute}, zerolog.Nop(), notifier)
	d.now = func() time.Time { return now }
	return d
}

func TestRunOnceNotifiesEachRecipientOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	store := newDueStore()
	store.add(1, now.Add(-time.Minute), 10, 11, 12)
	store.add(2, now.Add(time.Hour), 13)
	sender := newRecordingSender()
	d := newTestDispatcher(store, sender, now, nil)

	res, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sent != 3 || res.Due != 3 {
		t.Fatalf("unexpected result %+v", res)
	}

	if _, err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, u := range []int64{10, 11, 12} {
		if sender.sent[u] != 1 {
			t.Fatalf("user %d notified %d times", u, sender.sent[u])
		}
	}
	if sender.sent[13] != 0 {
		t.Fatal("future reminder must not fire")
	}
	if !store.ativo[1] {
		t.Fatal("notification must not change reminder active flag")
	}
}

func TestRunOnceReleasesOnSendFailure(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	store := newDueStore()
	store.add(1, now, 10, 11)
	sender := newRecordingSender()
	sender.fail[11] = true
	notifier := &captureNotifier{}
	d := newTestDispatcher(store, sender, now, notifier)

	res, _ := d.RunOnce(context.Background())
	if res.Sent != 1 || res.Failed != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(notifier.msgs) != 1 || notifier.msgs[0].Severity != "warning" {
		t.Fatalf("expected one warning alert, got %+v", notifier.msgs)
	}

	sender.fail[11] = false
	res, _ = d.RunOnce(context.Background())
	if res.Sent != 1 || sender.sent[11] != 1 || sender.sent[10] != 1 {
		t.Fatalf("failed recipient must be retried once, got %+v %v", res, sender.sent)
	}
}

func TestRunOnceKeepsBlockedRecipientClaimed(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	store := newDueStore()
	store.add(1, now, 10)
	sender := newRecordingSender()
	sender.blocked[10] = true
	notifier := &captureNotifier{}
	d := newTestDispatcher(store, sender, now, notifier)

	res, _ := d.RunOnce(context.Background())
	if res.Blocked != 1 || res.Failed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(notifier.msgs) != 0 {
		t.Fatalf("blocked user must not alert, got %+v", notifier.msgs)
	}

	res, _ = d.RunOnce(context.Background())
	if res.Due != 0 {
		t.Fatalf("blocked recipient must not be retried, got %+v", res)
	}
}

func TestRunOnceSkipsAlreadyClaimed(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	store := newDueStore()
	store.add(1, now, 10)
	store.stolen[1] = true
	sender := newRecordingSender()
	d := newTestDispatcher(store, sender, now, nil)

	res, _ := d.RunOnce(context.Background())
	if res.Skipped != 1 || sender.sent[10] != 0 {
		t.Fatalf("claimed row must be skipped, got %+v", res)
	}
}

func TestRunOnceIgnoresInactiveReminder(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	store := newDueStore()
	store.add(1, now.Add(-time.Hour), 10)
	store.ativo[1] = false
	sender := newRecordingSender()
	d := newTestDispatcher(store, sender, now, nil)

	res, _ := d.RunOnce(context.Background())
	if res.Due != 0 || sender.sent[10] != 0 {
		t.Fatalf("inactive reminder must not fire, got %+v", res)
	}
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	now := time.Now()
	store := newDueStore()
	store.add(1, now.Add(-time.Minute), 10)
	sender := newRecordingSender()
	d := newTestDispatcher(store, sender, now, nil)

	d.Start(context.Background())
	select {
	case id := <-sender.calls:
		if id != 10 {
			t.Fatalf("unexpected chat %d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first sweep did not run")
	}
	d.Stop()
}

func TestStartDisabled(t *testing.T) {
	d := NewDispatcher(newDueStore(), newRecordingSender(), config.ReminderConfig{Enabled: false}, zerolog.Nop(), nil)
	d.Start(context.Background())
	d.Start(context.Background())
	d.Stop()
}
