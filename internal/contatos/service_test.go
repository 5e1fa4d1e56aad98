package contatos

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type memStore struct {
	rows   []*Contato
	nextID int64
}

func (m *memStore) Create(ctx context.Context, in NovoContato) (*Contato, error) {
	m.nextID++
	c := &Contato{ID: m.nextID, UserID: in.UserID, Nome: in.Nome, Contato: in.Contato, Observacoes: in.Observacoes, Ativo: true}
	m.rows = append(m.rows, c)
	cp := *c
	return &cp, nil
}

func (m *memStore) Get(ctx context.Context, id, userID int64) (*Contato, error) {
	for _, c := range m.rows {
		if c.ID == id && c.UserID == userID && c.Ativo {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) List(ctx context.Context, userID int64, termo string) ([]Contato, error) {
	var out []Contato
	for _, c := range m.rows {
		if c.UserID != userID || !c.Ativo {
			continue
		}
		if termo != "" && !strings.Contains(strings.ToLower(c.Nome+c.Contato), strings.ToLower(termo)) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, input UpdateContatoInput) (*Contato, error) {
	for _, c := range m.rows {
		if c.ID == input.ID && c.UserID == input.UserID && c.Ativo {
			if input.Nome != nil {
				c.Nome = *input.Nome
			}
			if input.Contato != nil {
				c.Contato = *input.Contato
			}
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) SoftDelete(ctx context.Context, id, userID int64) error {
	for _, c := range m.rows {
		if c.ID == id && c.UserID == userID && c.Ativo {
			c.Ativo = false
			return nil
		}
	}
	return ErrNotFound
}

func TestContatosAreScopedToOwner(t *testing.T) {
	svc := NewService(&memStore{}, nil, zerolog.Nop())
	ctx := context.Background()

	c, err := svc.Criar(ctx, NovoContato{UserID: 1, Nome: "Perito", Contato: "9999"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Criar(ctx, NovoContato{UserID: 2, Nome: "Outro", Contato: "8888"})

	list, _ := svc.Listar(ctx, 1)
	if len(list) != 1 || list[0].Nome != "Perito" {
		t.Fatalf("unexpected list %+v", list)
	}

	if err := svc.Apagar(ctx, c.ID, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other users must not delete, got %v", err)
	}
	if err := svc.Apagar(ctx, c.ID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, _ = svc.Listar(ctx, 1)
	if len(list) != 0 {
		t.Fatalf("deleted contact still listed: %+v", list)
	}
}

func TestPesquisarIgnoresBlank(t *testing.T) {
	svc := NewService(&memStore{}, nil, zerolog.Nop())
	ctx := context.Background()
	svc.Criar(ctx, NovoContato{UserID: 1, Nome: "Perito", Contato: "9999"})

	if list, _ := svc.Pesquisar(ctx, 1, "  "); list != nil {
		t.Fatalf("blank search must return nothing, got %+v", list)
	}
	if list, _ := svc.Pesquisar(ctx, 1, "PERI"); len(list) != 1 {
		t.Fatalf("expected case-insensitive match, got %+v", list)
	}
}

func TestAtualizarValidates(t *testing.T) {
	svc := NewService(&memStore{}, nil, zerolog.Nop())
	ctx := context.Background()
	c, _ := svc.Criar(ctx, NovoContato{UserID: 1, Nome: "Perito", Contato: "9999"})

	empty := " "
	if _, err := svc.Atualizar(ctx, UpdateContatoInput{ID: c.ID, UserID: 1, Contato: &empty}); !errors.Is(err, ErrSemContato) {
		t.Fatalf("expected ErrSemContato, got %v", err)
	}
	novo := " 7777 "
	got, err := svc.Atualizar(ctx, UpdateContatoInput{ID: c.ID, UserID: 1, Contato: &novo})
	if err != nil || got.Contato != "7777" {
		t.Fatalf("unexpected update %+v %v", got, err)
	}
}
