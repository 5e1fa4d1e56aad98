package estatisticas

import (
	"errors"
	"time"

	"github.com/jinzhu/now"
)

var ErrPeriodoInvalido = errors.New("período inválido")

// Contadores permanentes mantidos em contadores_permanentes.
const (
	ContadorDocumentos = "documentos"
	ContadorCasos      = "casos"
	ContadorContatos   = "contatos"
	ContadorLembretes  = "lembretes"
	ContadorUsuarios   = "usuarios"
)

type Gerais struct {
	Usuarios            int
	UsuariosAtivosHoje  int
	Documentos          int
	DocumentosPendentes int
	Casos               int
	CasosAtivos         int
	Lembretes           int
	Contatos            int
}

type Pessoais struct {
	Acoes        map[string]int
	TotalAcessos int
	UltimoAcesso *time.Time
}

// Periodo identifica as janelas do relatório de atividades.
type Periodo string

const (
	PeriodoHoje     Periodo = "hoje"
	PeriodoSemana   Periodo = "semana"
	PeriodoMes      Periodo = "mes"
	PeriodoAnterior Periodo = "anterior"
)

var periodoLabels = map[Periodo]string{
	PeriodoHoje:     "Hoje",
	PeriodoSemana:   "Últimos 7 dias",
	PeriodoMes:      "Este mês",
	PeriodoAnterior: "Mês anterior",
}

func ParsePeriodo(raw string) (Periodo, error) {
	p := Periodo(raw)
	if _, ok := periodoLabels[p]; !ok {
		return "", ErrPeriodoInvalido
	}
	return p, nil
}

func (p Periodo) Label() string {
	return periodoLabels[p]
}

// Intervalo devolve início e fim do período relativo a ref.
func (p Periodo) Intervalo(ref time.Time) (time.Time, time.Time) {
	n := now.With(ref)
	switch p {
	case PeriodoSemana:
		return now.With(ref.AddDate(0, 0, -6)).BeginningOfDay(), n.EndOfDay()
	case PeriodoMes:
		return n.BeginningOfMonth(), n.EndOfDay()
	case PeriodoAnterior:
		prev := now.With(n.BeginningOfMonth().AddDate(0, 0, -1))
		return prev.BeginningOfMonth(), prev.EndOfMonth()
	}
	return n.BeginningOfDay(), n.EndOfDay()
}

type AcessoDia struct {
	Nome     string
	Nivel    string
	Dia      time.Time
	Primeiro time.Time
	Ultimo   time.Time
	Total    int
}

type AssinaturaDia struct {
	Nome  string
	Dia   time.Time
	Total int
}

// Relatorio agrega acessos e assinaturas de um período.
type Relatorio struct {
	Periodo     Periodo
	Inicio      time.Time
	Fim         time.Time
	Acessos     []AcessoDia
	Assinaturas []AssinaturaDia
}

func (r Relatorio) TotalAcessos() int {
	total := 0
	for _, a := range r.Acessos {
		total += a.Total
	}
	return total
}

func (r Relatorio) UsuariosAtivos() int {
	seen := map[string]struct{}{}
	for _, a := range r.Acessos {
		seen[a.Nome] = struct{}{}
	}
	return len(seen)
}

func (r Relatorio) TotalAssinaturas() int {
	total := 0
	for _, a := range r.Assinaturas {
		total += a.Total
	}
	return total
}

func (r Relatorio) Vazio() bool {
	return len(r.Acessos) == 0 && len(r.Assinaturas) == 0
}
