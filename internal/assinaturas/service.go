package assinaturas

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Store descreve a persistência da fila. Create numera a solicitação com o
// maior número ativo + 1.
type Store interface {
	Create(ctx context.Context, userID int64, username, documento string) (*Assinatura, error)
	ListAtivas(ctx context.Context, limit int) ([]Assinatura, error)
	CountAtivas(ctx context.Context) (int, error)
	Assinar(ctx context.Context, sequencia int, signerID int64) (*Assinatura, error)
}

// Recorder registra contadores e ações para as estatísticas.
type Recorder interface {
	Incrementar(ctx context.Context, tipo string) error
	RegistrarAcao(ctx context.Context, userID int64, acao string) error
}

// Service aplica as regras da fila de assinaturas.
type Service struct {
	store    Store
	recorder Recorder
	logger   zerolog.Logger
}

func NewService(store Store, recorder Recorder, logger zerolog.Logger) *Service {
	return &Service{store: store, recorder: recorder, logger: logger}
}

// Solicitar cria uma solicitação por linha do texto recebido.
func (s *Service) Solicitar(ctx context.Context, userID int64, username, text string) ([]Assinatura, error) {
	docs, err := SplitDocumentos(text)
	if err != nil {
		return nil, err
	}

	created := make([]Assinatura, 0, len(docs))
	for _, doc := range docs {
		a, err := s.store.Create(ctx, userID, username, doc)
		if err != nil {
			return created, fmt.Errorf("criar assinatura: %w", err)
		}
		created = append(created, *a)
		s.record(ctx, userID)
		s.logger.Info().Int("sequencia", a.Sequencia).Int64("user_id", userID).Msg("assinaturas: solicitação criada")
	}
	return created, nil
}

func (s *Service) record(ctx context.Context, userID int64) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Incrementar(ctx, "documentos"); err != nil {
		s.logger.Warn().Err(err).Msg("assinaturas: falha ao incrementar contador")
	}
	if err := s.recorder.RegistrarAcao(ctx, userID, "novo_documento"); err != nil {
		s.logger.Warn().Err(err).Msg("assinaturas: falha ao registrar ação")
	}
}

// Pendentes devolve as primeiras solicitações da fila.
func (s *Service) Pendentes(ctx context.Context) ([]Assinatura, error) {
	return s.store.ListAtivas(ctx, LimiteListagem)
}

func (s *Service) TotalPendentes(ctx context.Context) (int, error) {
	return s.store.CountAtivas(ctx)
}

// Assinar baixa a solicitação; a autorização do assinante fica com o chamador.
func (s *Service) Assinar(ctx context.Context, sequencia int, signerID int64) (*Assinatura, error) {
	a, err := s.store.Assinar(ctx, sequencia, signerID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("sequencia", sequencia).Int64("assinado_por", signerID).Msg("assinaturas: documento assinado")
	return a, nil
}

// AssinarTodas baixa a fila inteira e devolve o que foi assinado.
func (s *Service) AssinarTodas(ctx context.Context, signerID int64) ([]Assinatura, error) {
	pendentes, err := s.store.ListAtivas(ctx, 0)
	if err != nil {
		return nil, err
	}

	var assinadas []Assinatura
	for _, p := range pendentes {
		a, err := s.store.Assinar(ctx, p.Sequencia, signerID)
		if err != nil {
			s.logger.Warn().Err(err).Int("sequencia", p.Sequencia).Msg("assinaturas: falha ao assinar em lote")
			continue
		}
		assinadas = append(assinadas, *a)
	}
	return assinadas, nil
}
