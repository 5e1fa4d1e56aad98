package assinaturas

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("assinatura não encontrada ou já processada")
	ErrSemDocumentos  = errors.New("nenhum documento informado")
	ErrDocumentoLongo = errors.New("documento excede o tamanho máximo")
)

const (
	// LimiteListagem é quantas pendentes aparecem por vez no menu.
	LimiteListagem = 5
	maxDocumento   = 500
)

// Assinatura é uma solicitação de contra-assinatura na fila.
type Assinatura struct {
	ID          int64
	UserID      int64
	Username    string
	Documento   string
	Sequencia   int
	Ativo       bool
	CriadoEm    time.Time
	AssinadoEm  *time.Time
	AssinadoPor *int64
}

// SplitDocumentos separa uma mensagem em um documento por linha não vazia.
func SplitDocumentos(text string) ([]string, error) {
	var docs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len([]rune(line)) > maxDocumento {
			return nil, ErrDocumentoLongo
		}
		docs = append(docs, line)
	}
	if len(docs) == 0 {
		return nil, ErrSemDocumentos
	}
	return docs, nil
}
