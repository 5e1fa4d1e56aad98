package casos

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Store descreve a persistência de casos.
type Store interface {
	Create(ctx context.Context, in NovoCaso) (int64, error)
	Get(ctx context.Context, id int64) (*Caso, error)
	ListAbertos(ctx context.Context) ([]Caso, error)
	Search(ctx context.Context, termo string) ([]Caso, error)
	CountAbertos(ctx context.Context) (int, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateObservacoes(ctx context.Context, id int64, obs *string) error
	SetResponsaveis(ctx context.Context, id int64, ids []int64) error
	SetSituacao(ctx context.Context, id int64, situacao Situacao, status *string) error
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

// Criar valida e grava um caso; sem responsáveis o criador assume.
func (s *Service) Criar(ctx context.Context, in NovoCaso) (*Caso, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	id, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		if err := s.recorder.Incrementar(ctx, "casos"); err != nil {
			s.logger.Warn().Err(err).Msg("casos: falha ao incrementar contador")
		}
		if err := s.recorder.RegistrarAcao(ctx, in.CriadorID, "novo_caso"); err != nil {
			s.logger.Warn().Err(err).Msg("casos: falha ao registrar ação")
		}
	}
	s.logger.Info().Int64("caso_id", id).Int64("criador", in.CriadorID).Msg("casos: caso criado")

	return &Caso{
		ID:           id,
		CriadorID:    in.CriadorID,
		Titulo:       in.Titulo,
		Descricao:    in.Descricao,
		Observacoes:  in.Observacoes,
		Status:       StatusInicial,
		Situacao:     SituacaoAberto,
		Responsaveis: in.Responsaveis,
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Caso, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Abertos(ctx context.Context) ([]Caso, error) {
	return s.store.ListAbertos(ctx)
}

func (s *Service) TotalAbertos(ctx context.Context) (int, error) {
	return s.store.CountAbertos(ctx)
}

func (s *Service) Pesquisar(ctx context.Context, termo string) ([]Caso, error) {
	termo = strings.TrimSpace(termo)
	if termo == "" {
		return nil, nil
	}
	return s.store.Search(ctx, termo)
}

func (s *Service) AlterarStatus(ctx context.Context, id int64, status string) error {
	status = strings.TrimSpace(status)
	if status == "" || len([]rune(status)) > MaxTitulo {
		return ErrTituloInvalido
	}
	return s.store.UpdateStatus(ctx, id, status)
}

// AlterarObservacoes aceita nil para limpar o campo.
func (s *Service) AlterarObservacoes(ctx context.Context, id int64, obs *string) error {
	if obs != nil {
		v := strings.TrimSpace(*obs)
		if v == "" {
			obs = nil
		} else {
			obs = &v
		}
	}
	return s.store.UpdateObservacoes(ctx, id, obs)
}

func (s *Service) DefinirResponsaveis(ctx context.Context, id int64, ids []int64) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return ErrSemResponsaveis
	}
	return s.store.SetResponsaveis(ctx, id, ids)
}

func (s *Service) Encerrar(ctx context.Context, id int64) error {
	status := StatusEncerrado
	return s.store.SetSituacao(ctx, id, SituacaoEncerrado, &status)
}

// Apagar remove o caso das listagens sem excluir a linha.
func (s *Service) Apagar(ctx context.Context, id int64) error {
	return s.store.SetSituacao(ctx, id, SituacaoApagado, nil)
}
