package casos

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("caso não encontrado")
	ErrTituloInvalido  = errors.New("título obrigatório com até 100 caracteres")
	ErrSemDescricao    = errors.New("descrição obrigatória")
	ErrSemResponsaveis = errors.New("selecione ao menos um responsável")
	ErrCasoFechado     = errors.New("caso já encerrado ou apagado")
)

const (
	StatusInicial   = "🔵 Em andamento"
	StatusEncerrado = "✅ Encerrado"
	MaxTitulo       = 100
)

// Situacao substitui o antigo par ativo + texto de status.
type Situacao string

const (
	SituacaoAberto    Situacao = "aberto"
	SituacaoEncerrado Situacao = "encerrado"
	SituacaoApagado   Situacao = "apagado"
)

type Caso struct {
	ID           int64
	CriadorID    int64
	Titulo       string
	Descricao    string
	Observacoes  *string
	Status       string
	Situacao     Situacao
	Responsaveis []int64
	CriadoEm     time.Time
	AtualizadoEm time.Time
}

// Aberto indica se o caso ainda aceita ajustes.
func (c Caso) Aberto() bool {
	return c.Situacao == SituacaoAberto
}

// NovoCaso reúne o que o assistente coleta.
type NovoCaso struct {
	CriadorID    int64
	Titulo       string
	Descricao    string
	Observacoes  *string
	Responsaveis []int64
}

func (n *NovoCaso) normalize() error {
	n.Titulo = strings.TrimSpace(n.Titulo)
	n.Descricao = strings.TrimSpace(n.Descricao)
	if n.Titulo == "" || len([]rune(n.Titulo)) > MaxTitulo {
		return ErrTituloInvalido
	}
	if n.Descricao == "" {
		return ErrSemDescricao
	}
	if n.Observacoes != nil {
		obs := strings.TrimSpace(*n.Observacoes)
		if obs == "" {
			n.Observacoes = nil
		} else {
			n.Observacoes = &obs
		}
	}
	n.Responsaveis = uniqueIDs(n.Responsaveis)
	if len(n.Responsaveis) == 0 {
		n.Responsaveis = []int64{n.CriadorID}
	}
	return nil
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
