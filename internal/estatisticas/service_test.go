package estatisticas

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

type stubStore struct {
	inicio, fim time.Time
	tz          string
	acessos     []AcessoDia
	assinaturas []AssinaturaDia
}

func (s *stubStore) Incrementar(ctx context.Context, tipo string) error { return nil }
func (s *stubStore) RegistrarAcao(ctx context.Context, userID int64, acao string) error {
	return nil
}
func (s *stubStore) RegistrarAcesso(ctx context.Context, userID int64, tipo string) error {
	return nil
}
func (s *stubStore) Gerais(ctx context.Context, inicioDia time.Time) (*Gerais, error) {
	s.inicio = inicioDia
	return &Gerais{}, nil
}
func (s *stubStore) Pessoais(ctx context.Context, userID int64) (*Pessoais, error) {
	return &Pessoais{Acoes: map[string]int{}}, nil
}
func (s *stubStore) Relatorio(ctx context.Context, inicio, fim time.Time, tz string) ([]AcessoDia, []AssinaturaDia, error) {
	s.inicio, s.fim, s.tz = inicio, fim, tz
	return s.acessos, s.assinaturas, nil
}

func TestPeriodoIntervalo(t *testing.T) {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	ref := time.Date(2026, 3, 10, 14, 30, 0, 0, loc)

	cases := []struct {
		periodo    Periodo
		wantInicio time.Time
		wantFimDia int
	}{
		{PeriodoHoje, time.Date(2026, 3, 10, 0, 0, 0, 0, loc), 10},
		{PeriodoSemana, time.Date(2026, 3, 4, 0, 0, 0, 0, loc), 10},
		{PeriodoMes, time.Date(2026, 3, 1, 0, 0, 0, 0, loc), 10},
		{PeriodoAnterior, time.Date(2026, 2, 1, 0, 0, 0, 0, loc), 28},
	}

	for _, tc := range cases {
		t.Run(string(tc.periodo), func(t *testing.T) {
			inicio, fim := tc.periodo.Intervalo(ref)
			if !inicio.Equal(tc.wantInicio) {
				t.Fatalf("expected start %s got %s", tc.wantInicio, inicio)
			}
			if fim.Day() != tc.wantFimDia || fim.Hour() != 23 {
				t.Fatalf("unexpected end %s", fim)
			}
		})
	}
}

func TestParsePeriodo(t *testing.T) {
	if _, err := ParsePeriodo("semana"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePeriodo("ano"); err == nil {
		t.Fatal("expected error for unknown period")
	}
}

func TestRelatorioTotals(t *testing.T) {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	store := &stubStore{
		acessos: []AcessoDia{
			{Nome: "Ana", Nivel: "user", Total: 3},
			{Nome: "Ana", Nivel: "user", Total: 2},
			{Nome: "Rui", Nivel: "dpc", Total: 1},
		},
		assinaturas: []AssinaturaDia{{Nome: "Ana", Total: 4}},
	}
	svc := NewService(store, loc, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	rel, err := svc.Relatorio(context.Background(), PeriodoHoje)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.tz != "America/Sao_Paulo" {
		t.Fatalf("unexpected tz %q", store.tz)
	}
	if rel.TotalAcessos() != 6 || rel.UsuariosAtivos() != 2 || rel.TotalAssinaturas() != 4 {
		t.Fatalf("unexpected totals %d %d %d", rel.TotalAcessos(), rel.UsuariosAtivos(), rel.TotalAssinaturas())
	}
	if rel.Vazio() {
		t.Fatal("report must not be empty")
	}
}

func TestGeraisUsesLocalMidnight(t *testing.T) {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	store := &stubStore{}
	svc := NewService(store, loc, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC) }

	if _, err := svc.Gerais(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)
	if !store.inicio.Equal(want) {
		t.Fatalf("expected %s got %s", want, store.inicio)
	}
}

func TestRelatorioNeverSendsLocalZone(t *testing.T) {
	for _, loc := range []*time.Location{nil, time.Local} {
		store := &stubStore{}
		svc := NewService(store, loc, zerolog.Nop())

		if _, err := svc.Relatorio(context.Background(), PeriodoHoje); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.tz != "UTC" {
			t.Fatalf("expected UTC for %v, got %q", loc, store.tz)
		}
	}
}

func TestRelatorioXLSX(t *testing.T) {
	rel := Relatorio{
		Periodo: PeriodoMes,
		Inicio:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Fim:     time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC),
		Acessos: []AcessoDia{{Nome: "Ana", Nivel: "user", Dia: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Total: 5}},
		Assinaturas: []AssinaturaDia{
			{Nome: "Ana", Dia: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Total: 2},
		},
	}

	data, err := rel.XLSX()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != "Resumo" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	nome, _ := f.GetCellValue("Acessos", "A2")
	if nome != "Ana" {
		t.Fatalf("unexpected access row %q", nome)
	}
	total, _ := f.GetCellValue("Resumo", "B4")
	if total != "5" {
		t.Fatalf("unexpected total %q", total)
	}
	if rel.NomeArquivo() != "relatorio_mes_20260301.xlsx" {
		t.Fatalf("unexpected file name %s", rel.NomeArquivo())
	}
}
