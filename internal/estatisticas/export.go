package estatisticas

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSX gera a planilha do relatório com abas de resumo, acessos e assinaturas.
func (r Relatorio) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const resumo = "Resumo"
	if err := f.SetSheetName("Sheet1", resumo); err != nil {
		return nil, err
	}

	rows := [][]any{
		{"Período", r.Periodo.Label()},
		{"Início", r.Inicio.Format("02/01/2006 15:04")},
		{"Fim", r.Fim.Format("02/01/2006 15:04")},
		{"Total de acessos", r.TotalAcessos()},
		{"Usuários ativos", r.UsuariosAtivos()},
		{"Assinaturas solicitadas", r.TotalAssinaturas()},
	}
	if err := writeRows(f, resumo, rows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Acessos"); err != nil {
		return nil, err
	}
	acessos := [][]any{{"Usuário", "Nível", "Dia", "Primeiro acesso", "Último acesso", "Total"}}
	for _, a := range r.Acessos {
		acessos = append(acessos, []any{
			a.Nome, a.Nivel, a.Dia.Format("02/01/2006"),
			a.Primeiro.Format("15:04"), a.Ultimo.Format("15:04"), a.Total,
		})
	}
	if err := writeRows(f, "Acessos", acessos); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Assinaturas"); err != nil {
		return nil, err
	}
	assinaturas := [][]any{{"Usuário", "Dia", "Total"}}
	for _, a := range r.Assinaturas {
		assinaturas = append(assinaturas, []any{a.Nome, a.Dia.Format("02/01/2006"), a.Total})
	}
	if err := writeRows(f, "Assinaturas", assinaturas); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s linha %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// NomeArquivo sugere o nome do anexo exportado.
func (r Relatorio) NomeArquivo() string {
	return fmt.Sprintf("relatorio_%s_%s.xlsx", r.Periodo, r.Inicio.Format("20060102"))
}
