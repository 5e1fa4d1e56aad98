package usuarios

import (
	"context"
	"errors"
	"testing"
)

type stubStore struct {
	users map[int64]*Usuario
}

func newStubStore(users ...Usuario) *stubStore {
	s := &stubStore{users: map[int64]*Usuario{}}
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
	}
	return s
}

func (s *stubStore) Register(ctx context.Context, id int64, nome string, username *string) (bool, error) {
	if _, ok := s.users[id]; ok {
		return false, nil
	}
	s.users[id] = &Usuario{ID: id, Nome: nome, Username: username, Nivel: NivelPendente}
	return true, nil
}

func (s *stubStore) Get(ctx context.Context, id int64) (*Usuario, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubStore) filter(fn func(Usuario) bool) []Usuario {
	var out []Usuario
	for _, u := range s.users {
		if fn(*u) {
			out = append(out, *u)
		}
	}
	return out
}

func (s *stubStore) ListPendentes(ctx context.Context) ([]Usuario, error) {
	return s.filter(func(u Usuario) bool { return u.Nivel == NivelPendente }), nil
}

func (s *stubStore) ListAtivos(ctx context.Context) ([]Usuario, error) {
	return s.filter(func(u Usuario) bool { return u.Ativo && u.Nivel != NivelPendente }), nil
}

func (s *stubStore) ListAll(ctx context.Context) ([]Usuario, error) {
	return s.filter(func(Usuario) bool { return true }), nil
}

func (s *stubStore) ListByNivel(ctx context.Context, nivel Nivel) ([]Usuario, error) {
	return s.filter(func(u Usuario) bool { return u.Nivel == nivel && u.Ativo }), nil
}

func (s *stubStore) Aprovar(ctx context.Context, id int64) error {
	u, ok := s.users[id]
	if !ok || u.Nivel != NivelPendente {
		return ErrNotFound
	}
	u.Nivel = NivelUser
	u.Ativo = true
	return nil
}

func (s *stubStore) Recusar(ctx context.Context, id int64) error {
	u, ok := s.users[id]
	if !ok || u.Nivel != NivelPendente {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *stubStore) SetAtivo(ctx context.Context, id int64, ativo bool) error {
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Ativo = ativo
	return nil
}

func (s *stubStore) SetNivel(ctx context.Context, id int64, nivel Nivel) error {
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Nivel = nivel
	u.Ativo = true
	return nil
}

func (s *stubStore) DefinirDPC(ctx context.Context, id int64) error {
	target, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, u := range s.users {
		if u.Nivel == NivelDPC && u.ID != id {
			u.Nivel = NivelUser
		}
	}
	target.Nivel = NivelDPC
	target.Ativo = true
	return nil
}

func (s *stubStore) ObterDPC(ctx context.Context) (*Usuario, error) {
	for _, u := range s.users {
		if u.Nivel == NivelDPC && u.Ativo {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubStore) SeedAdmin(ctx context.Context, id int64) error {
	s.users[id] = &Usuario{ID: id, Nome: "Administrador", Nivel: NivelAdmin, Ativo: true}
	return nil
}

func (s *stubStore) countDPC() int {
	n := 0
	for _, u := range s.users {
		if u.Nivel == NivelDPC {
			n++
		}
	}
	return n
}

func TestRegistrarIsIdempotent(t *testing.T) {
	svc := NewService(newStubStore())
	ctx := context.Background()

	created, err := svc.Registrar(ctx, 10, "Maria Souza", "@maria")
	if err != nil || !created {
		t.Fatalf("expected creation, got %v %v", created, err)
	}
	created, err = svc.Registrar(ctx, 10, "Maria Souza", "maria")
	if err != nil || created {
		t.Fatalf("expected no-op on second register, got %v %v", created, err)
	}

	u, _ := svc.Get(ctx, 10)
	if u.Nivel != NivelPendente || u.Ativo {
		t.Fatalf("new user must be pending and inactive: %+v", u)
	}
	if u.Username == nil || *u.Username != "maria" {
		t.Fatalf("username not normalized: %v", u.Username)
	}
	if u.DisplayName() != "Maria" {
		t.Fatalf("unexpected display name %q", u.DisplayName())
	}
}

func TestAprovarKeepsRow(t *testing.T) {
	store := newStubStore(Usuario{ID: 5, Nome: "Ana", Nivel: NivelPendente})
	svc := NewService(store)

	u, err := svc.Aprovar(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Nivel != NivelUser || !u.Ativo {
		t.Fatalf("expected active user, got %+v", u)
	}
	if _, ok := store.users[5]; !ok {
		t.Fatal("approved row must remain")
	}
}

func TestRecusarDeletesPending(t *testing.T) {
	store := newStubStore(Usuario{ID: 5, Nome: "Ana", Nivel: NivelPendente})
	svc := NewService(store)

	if _, err := svc.Recusar(context.Background(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.users[5]; ok {
		t.Fatal("refused row must be removed")
	}
	if _, err := svc.Recusar(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecusarRejectsApprovedUser(t *testing.T) {
	svc := NewService(newStubStore(Usuario{ID: 7, Nome: "Rui", Nivel: NivelUser, Ativo: true}))

	if _, err := svc.Recusar(context.Background(), 7); !errors.Is(err, ErrNaoPendente) {
		t.Fatalf("expected ErrNaoPendente, got %v", err)
	}
}

func TestAlterarNivelKeepsSingleDPC(t *testing.T) {
	cases := []struct {
		name  string
		users []Usuario
	}{
		{name: "sem dpc", users: []Usuario{{ID: 1, Nivel: NivelUser, Ativo: true}, {ID: 2, Nivel: NivelUser, Ativo: true}}},
		{name: "com dpc", users: []Usuario{{ID: 1, Nivel: NivelDPC, Ativo: true}, {ID: 2, Nivel: NivelUser, Ativo: true}}},
		{name: "mesmo dpc", users: []Usuario{{ID: 2, Nivel: NivelDPC, Ativo: true}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStubStore(tc.users...)
			svc := NewService(store)

			if err := svc.AlterarNivel(context.Background(), 2, NivelDPC); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if store.countDPC() != 1 {
				t.Fatalf("expected exactly one dpc, got %d", store.countDPC())
			}
			dpc, err := svc.DPC(context.Background())
			if err != nil || dpc == nil || dpc.ID != 2 {
				t.Fatalf("unexpected dpc %+v %v", dpc, err)
			}
		})
	}
}

func TestAlterarNivelRejectsPendente(t *testing.T) {
	svc := NewService(newStubStore(Usuario{ID: 1, Nivel: NivelUser, Ativo: true}))

	if err := svc.AlterarNivel(context.Background(), 1, NivelPendente); !errors.Is(err, ErrInvalidNivel) {
		t.Fatalf("expected ErrInvalidNivel, got %v", err)
	}
}

func TestDPCReturnsNilWhenMissing(t *testing.T) {
	svc := NewService(newStubStore())

	dpc, err := svc.DPC(context.Background())
	if err != nil || dpc != nil {
		t.Fatalf("expected nil dpc without error, got %+v %v", dpc, err)
	}
}

func TestParseNivel(t *testing.T) {
	if n, err := ParseNivel(" DPC "); err != nil || n != NivelDPC {
		t.Fatalf("unexpected %v %v", n, err)
	}
	if _, err := ParseNivel("chefe"); !errors.Is(err, ErrInvalidNivel) {
		t.Fatalf("expected invalid nivel, got %v", err)
	}
}
