package estatisticas

import (
	"context"
	"time"

	"github.com/jinzhu/now"
	"github.com/rs/zerolog"
)

type Store interface {
	Incrementar(ctx context.Context, tipo string) error
	RegistrarAcao(ctx context.Context, userID int64, acao string) error
	RegistrarAcesso(ctx context.Context, userID int64, tipo string) error
	Gerais(ctx context.Context, inicioDia time.Time) (*Gerais, error)
	Pessoais(ctx context.Context, userID int64) (*Pessoais, error)
	Relatorio(ctx context.Context, inicio, fim time.Time, tz string) ([]AcessoDia, []AssinaturaDia, error)
}

// Service expõe estatísticas e serve de Recorder para os demais módulos.
type Service struct {
	store  Store
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

// NewService usa UTC quando loc é nil ou "Local", pois o nome da zona é
// repassado ao Postgres nos relatórios.
func NewService(store Store, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil || loc.String() == "Local" {
		if loc != nil {
			logger.Warn().Msg("estatisticas: zona Local não tem nome IANA, usando UTC")
		}
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now, logger: logger}
}

func (s *Service) Incrementar(ctx context.Context, tipo string) error {
	return s.store.Incrementar(ctx, tipo)
}

func (s *Service) RegistrarAcao(ctx context.Context, userID int64, acao string) error {
	return s.store.RegistrarAcao(ctx, userID, acao)
}

// RegistrarAcesso nunca interrompe o fluxo do usuário; falhas só vão para o log.
func (s *Service) RegistrarAcesso(ctx context.Context, userID int64, tipo string) {
	if err := s.store.RegistrarAcesso(ctx, userID, tipo); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Str("tipo", tipo).Msg("estatisticas: falha ao registrar acesso")
	}
}

func (s *Service) Gerais(ctx context.Context) (*Gerais, error) {
	inicio := now.With(s.now().In(s.loc)).BeginningOfDay()
	return s.store.Gerais(ctx, inicio)
}

func (s *Service) Pessoais(ctx context.Context, userID int64) (*Pessoais, error) {
	p, err := s.store.Pessoais(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.UltimoAcesso != nil {
		local := p.UltimoAcesso.In(s.loc)
		p.UltimoAcesso = &local
	}
	return p, nil
}

// Relatorio monta o relatório de atividades do período.
func (s *Service) Relatorio(ctx context.Context, periodo Periodo) (*Relatorio, error) {
	inicio, fim := periodo.Intervalo(s.now().In(s.loc))
	acessos, assinaturas, err := s.store.Relatorio(ctx, inicio, fim, s.loc.String())
	if err != nil {
		return nil, err
	}
	for i := range acessos {
		acessos[i].Primeiro = acessos[i].Primeiro.In(s.loc)
		acessos[i].Ultimo = acessos[i].Ultimo.In(s.loc)
	}
	return &Relatorio{
		Periodo:     periodo,
		Inicio:      inicio,
		Fim:         fim,
		Acessos:     acessos,
		Assinaturas: assinaturas,
	}, nil
}
