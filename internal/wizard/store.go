package wizard

import (
	"context"
	"sync"
	"time"
)

// Store guarda o formulário em andamento por usuário com expiração.
type Store interface {
	Get(ctx context.Context, userID int64) (*State, error)
	Save(ctx context.Context, state *State) error
	Clear(ctx context.Context, userID int64) error
}

type memoryEntry struct {
	state     *State
	expiresAt time.Time
}

// MemoryStore é usado quando REDIS_URL não está configurada.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[int64]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: map[int64]memoryEntry{}}
}

// Get devolve nil quando não há formulário ou ele expirou.
func (m *MemoryStore) Get(ctx context.Context, userID int64) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[userID]
	if !ok {
		return nil, nil
	}
	if m.ttl > 0 && !m.now().Before(e.expiresAt) {
		delete(m.entries, userID)
		return nil, nil
	}
	return e.state.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[state.UserID] = memoryEntry{state: state.Clone(), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, userID)
	return nil
}

// Sweep remove entradas vencidas; chamado periodicamente pelo processo.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, e := range m.entries {
		if m.ttl > 0 && !now.Before(e.expiresAt) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}
