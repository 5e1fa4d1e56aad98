package lembretes

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Store descreve a persistência de lembretes.
type Store interface {
	Create(ctx context.Context, in NovoLembrete) (*Lembrete, error)
	Get(ctx context.Context, id int64) (*Lembrete, error)
	ListForUser(ctx context.Context, userID int64) ([]Lembrete, error)
	Deactivate(ctx context.Context, id int64) error
	CountPendentes(ctx context.Context) (int, error)
}

// Recorder registra contadores e ações para as estatísticas.
type Recorder interface {
	Incrementar(ctx context.Context, tipo string) error
	RegistrarAcao(ctx context.Context, userID int64, acao string) error
}

type Service struct {
	store    Store
	recorder Recorder
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(store Store, recorder Recorder, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, recorder: recorder, loc: loc, now: time.Now, logger: logger}
}

// Location expõe o fuso usado para interpretar datas digitadas.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Criar rejeita datas passadas antes de qualquer escrita.
func (s *Service) Criar(ctx context.Context, in NovoLembrete) (*Lembrete, error) {
	if err := in.validate(s.now().In(s.loc)); err != nil {
		return nil, err
	}

	l, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("criar lembrete: %w", err)
	}

	if s.recorder != nil {
		if err := s.recorder.Incrementar(ctx, "lembretes"); err != nil {
			s.logger.Warn().Err(err).Msg("lembretes: falha ao incrementar contador")
		}
		if err := s.recorder.RegistrarAcao(ctx, in.CriadorID, "novo_lembrete"); err != nil {
			s.logger.Warn().Err(err).Msg("lembretes: falha ao registrar ação")
		}
	}
	s.logger.Info().Int64("lembrete_id", l.ID).Int("destinatarios", len(l.Destinatarios)).Msg("lembretes: lembrete criado")
	return l, nil
}

func (s *Service) Listar(ctx context.Context, userID int64) ([]Lembrete, error) {
	return s.store.ListForUser(ctx, userID)
}

// Apagar desativa o lembrete se o solicitante for o criador.
func (s *Service) Apagar(ctx context.Context, id, userID int64) error {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.CriadorID != userID {
		return ErrNaoCriador
	}
	return s.store.Deactivate(ctx, id)
}

func (s *Service) Pendentes(ctx context.Context) (int, error) {
	return s.store.CountPendentes(ctx)
}
