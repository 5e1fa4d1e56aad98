package usuarios

import (
	"context"
	"errors"
	"strings"
)

// Store descreve a persistência usada pelo serviço.
type Store interface {
	Register(ctx context.Context, id int64, nome string, username *string) (bool, error)
	Get(ctx context.Context, id int64) (*Usuario, error)
	ListPendentes(ctx context.Context) ([]Usuario, error)
	ListAtivos(ctx context.Context) ([]Usuario, error)
	ListAll(ctx context.Context) ([]Usuario, error)
	ListByNivel(ctx context.Context, nivel Nivel) ([]Usuario, error)
	Aprovar(ctx context.Context, id int64) error
	Recusar(ctx context.Context, id int64) error
	SetAtivo(ctx context.Context, id int64, ativo bool) error
	SetNivel(ctx context.Context, id int64, nivel Nivel) error
	DefinirDPC(ctx context.Context, id int64) error
	ObterDPC(ctx context.Context) (*Usuario, error)
	SeedAdmin(ctx context.Context, id int64) error
}

// Service aplica as regras de cadastro, aprovação e papéis.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Registrar cadastra quem fala com o bot pela primeira vez.
func (s *Service) Registrar(ctx context.Context, id int64, nome, username string) (bool, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		nome = "Usuário"
	}
	var handle *string
	if u := strings.TrimPrefix(strings.TrimSpace(username), "@"); u != "" {
		handle = &u
	}
	return s.store.Register(ctx, id, nome, handle)
}

func (s *Service) Get(ctx context.Context, id int64) (*Usuario, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Pendentes(ctx context.Context) ([]Usuario, error) {
	return s.store.ListPendentes(ctx)
}

func (s *Service) Ativos(ctx context.Context) ([]Usuario, error) {
	return s.store.ListAtivos(ctx)
}

func (s *Service) Todos(ctx context.Context) ([]Usuario, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) PorNivel(ctx context.Context, nivel Nivel) ([]Usuario, error) {
	return s.store.ListByNivel(ctx, nivel)
}

func (s *Service) Admins(ctx context.Context) ([]Usuario, error) {
	return s.store.ListByNivel(ctx, NivelAdmin)
}

// Aprovar torna o pendente um usuário ativo.
func (s *Service) Aprovar(ctx context.Context, id int64) (*Usuario, error) {
	if err := s.store.Aprovar(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Recusar apaga o cadastro pendente. Retorna os dados anteriores para notificação.
func (s *Service) Recusar(ctx context.Context, id int64) (*Usuario, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Nivel != NivelPendente {
		return nil, ErrNaoPendente
	}
	if err := s.store.Recusar(ctx, id); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Ativar(ctx context.Context, id int64) error {
	return s.store.SetAtivo(ctx, id, true)
}

func (s *Service) Desativar(ctx context.Context, id int64) error {
	return s.store.SetAtivo(ctx, id, false)
}

// AlterarNivel troca o papel; dpc passa pela promoção atômica.
func (s *Service) AlterarNivel(ctx context.Context, id int64, nivel Nivel) error {
	switch nivel {
	case NivelDPC:
		return s.store.DefinirDPC(ctx, id)
	case NivelUser, NivelAdmin:
		return s.store.SetNivel(ctx, id, nivel)
	}
	return ErrInvalidNivel
}

func (s *Service) DefinirDPC(ctx context.Context, id int64) error {
	return s.store.DefinirDPC(ctx, id)
}

// DPC devolve o dpc atual ou nil quando não há nenhum definido.
func (s *Service) DPC(ctx context.Context) (*Usuario, error) {
	u, err := s.store.ObterDPC(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func (s *Service) SeedAdmin(ctx context.Context, id int64) error {
	if id <= 0 {
		return nil
	}
	return s.store.SeedAdmin(ctx, id)
}
