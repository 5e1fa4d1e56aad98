package contatos

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

type Store interface {
	Create(ctx context.Context, in NovoContato) (*Contato, error)
	Get(ctx context.Context, id, userID int64) (*Contato, error)
	List(ctx context.Context, userID int64, termo string) ([]Contato, error)
	Update(ctx context.Context, input UpdateContatoInput) (*Contato, error)
	SoftDelete(ctx context.Context, id, userID int64) error
}

// Recorder registra contadores e ações para as estatísticas.
type Recorder interface {
	Incrementar(ctx context.Context, tipo string) error
	RegistrarAcao(ctx context.Context, userID int64, acao string) error
}

type Service struct {
	store    Store
	recorder Recorder
	logger   zerolog.Logger
}

func NewService(store Store, recorder Recorder, logger zerolog.Logger) *Service {
	return &Service{store: store, recorder: recorder, logger: logger}
}

func (s *Service) Criar(ctx context.Context, in NovoContato) (*Contato, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		if err := s.recorder.Incrementar(ctx, "contatos"); err != nil {
			s.logger.Warn().Err(err).Msg("contatos: falha ao incrementar contador")
		}
		if err := s.recorder.RegistrarAcao(ctx, in.UserID, "novo_contato"); err != nil {
			s.logger.Warn().Err(err).Msg("contatos: falha ao registrar ação")
		}
	}
	return c, nil
}

// Get só encontra contatos ativos do próprio usuário.
func (s *Service) Get(ctx context.Context, id, userID int64) (*Contato, error) {
	return s.store.Get(ctx, id, userID)
}

// Listar devolve apenas os contatos do próprio usuário.
func (s *Service) Listar(ctx context.Context, userID int64) ([]Contato, error) {
	return s.store.List(ctx, userID, "")
}

func (s *Service) Pesquisar(ctx context.Context, userID int64, termo string) ([]Contato, error) {
	termo = strings.TrimSpace(termo)
	if termo == "" {
		return nil, nil
	}
	return s.store.List(ctx, userID, termo)
}

func (s *Service) Atualizar(ctx context.Context, input UpdateContatoInput) (*Contato, error) {
	if input.Nome != nil {
		v := strings.TrimSpace(*input.Nome)
		if v == "" || len([]rune(v)) > maxNome {
			return nil, ErrNomeInvalido
		}
		input.Nome = &v
	}
	if input.Contato != nil {
		v := strings.TrimSpace(*input.Contato)
		if v == "" {
			return nil, ErrSemContato
		}
		input.Contato = &v
	}
	return s.store.Update(ctx, input)
}

func (s *Service) Apagar(ctx context.Context, id, userID int64) error {
	return s.store.SoftDelete(ctx, id, userID)
}
