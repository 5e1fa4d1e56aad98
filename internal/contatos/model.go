package contatos

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("contato não encontrado")
	ErrNomeInvalido = errors.New("nome obrigatório com até 100 caracteres")
	ErrSemContato   = errors.New("informe telefone, e-mail ou outro meio de contato")
)

const maxNome = 100

type Contato struct {
	ID          int64
	UserID      int64
	Nome        string
	Contato     string
	Observacoes *string
	Ativo       bool
	CriadoEm    time.Time
}

type NovoContato struct {
	UserID      int64
	Nome        string
	Contato     string
	Observacoes *string
}

// UpdateContatoInput altera apenas os campos preenchidos.
type UpdateContatoInput struct {
	ID               int64
	UserID           int64
	Nome             *string
	Contato          *string
	Observacoes      *string
	LimparObservacao bool
}

func (n *NovoContato) normalize() error {
	n.Nome = strings.TrimSpace(n.Nome)
	n.Contato = strings.TrimSpace(n.Contato)
	if n.Nome == "" || len([]rune(n.Nome)) > maxNome {
		return ErrNomeInvalido
	}
	if n.Contato == "" {
		return ErrSemContato
	}
	if n.Observacoes != nil {
		obs := strings.TrimSpace(*n.Observacoes)
		if obs == "" {
			n.Observacoes = nil
		} else {
			n.Observacoes = &obs
		}
	}
	return nil
}
