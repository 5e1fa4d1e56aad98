package lembretes

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("lembrete não encontrado")
	ErrTituloInvalido   = errors.New("título obrigatório com até 100 caracteres")
	ErrDataPassada      = errors.New("data e hora já passaram")
	ErrSemDestinatarios = errors.New("selecione ao menos um destinatário")
	ErrNaoCriador       = errors.New("apenas quem criou pode apagar o lembrete")
	ErrModoInvalido     = errors.New("modo de destinatários inválido")
)

const maxTitulo = 100

// Modo define como os destinatários são escolhidos na criação.
type Modo string

const (
	ModoEu         Modo = "eu"
	ModoSelecionar Modo = "selecionar"
	ModoTodos      Modo = "todos"
)

type Lembrete struct {
	ID            int64
	CriadorID     int64
	Titulo        string
	Quando        time.Time
	Ativo         bool
	CriadoEm      time.Time
	Destinatarios []int64
}

type NovoLembrete struct {
	CriadorID    int64
	Titulo       string
	Quando       time.Time
	Modo         Modo
	Selecionados []int64
}

// Pendente é uma linha de destinatário ainda não notificada.
type Pendente struct {
	DestinatarioID int64
	LembreteID     int64
	UserID         int64
	Titulo         string
	Quando         time.Time
}

func (n *NovoLembrete) validate(now time.Time) error {
	n.Titulo = strings.TrimSpace(n.Titulo)
	if n.Titulo == "" || len([]rune(n.Titulo)) > maxTitulo {
		return ErrTituloInvalido
	}
	if n.Quando.Before(now) {
		return ErrDataPassada
	}
	switch n.Modo {
	case ModoEu:
		n.Selecionados = []int64{n.CriadorID}
	case ModoSelecionar:
		n.Selecionados = uniqueIDs(n.Selecionados)
		if len(n.Selecionados) == 0 {
			return ErrSemDestinatarios
		}
	case ModoTodos:
		n.Selecionados = nil
	default:
		return ErrModoInvalido
	}
	return nil
}

// FormatNotificacao monta o texto enviado ao destinatário.
func FormatNotificacao(p Pendente) string {
	return fmt.Sprintf("🔔 <b>Lembrete!</b>\n\n📝 %s\n⏰ Agendado para %s às %s",
		html.EscapeString(p.Titulo),
		p.Quando.Format("02/01/2006"),
		p.Quando.Format("15:04"),
	)
}

// wallClock reinterpreta um timestamp sem fuso como horário local.
func wallClock(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
