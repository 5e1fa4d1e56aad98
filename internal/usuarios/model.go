package usuarios

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("usuário não encontrado")
	ErrInvalidNivel = errors.New("nível inválido")
	ErrNaoPendente  = errors.New("usuário não está pendente")
)

// Nivel é o papel do usuário no bot.
type Nivel string

const (
	NivelPendente Nivel = "pendente"
	NivelUser     Nivel = "user"
	NivelDPC      Nivel = "dpc"
	NivelAdmin    Nivel = "admin"
)

var niveisValidos = map[Nivel]struct{}{
	NivelPendente: {},
	NivelUser:     {},
	NivelDPC:      {},
	NivelAdmin:    {},
}

// ParseNivel normaliza e valida o nível informado.
func ParseNivel(raw string) (Nivel, error) {
	n := Nivel(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := niveisValidos[n]; !ok {
		return "", ErrInvalidNivel
	}
	return n, nil
}

// Emoji devolve o marcador usado nas listagens.
func (n Nivel) Emoji() string {
	switch n {
	case NivelAdmin:
		return "👑"
	case NivelDPC:
		return "🔰"
	case NivelUser:
		return "👤"
	case NivelPendente:
		return "⏳"
	}
	return "❓"
}

// Usuario representa quem conversa com o bot.
type Usuario struct {
	ID       int64
	Nome     string
	Username *string
	Nivel    Nivel
	Ativo    bool
	CriadoEm time.Time
}

// Admin indica papel administrativo.
func (u Usuario) Admin() bool {
	return u.Nivel == NivelAdmin
}

// Aprovado indica se o usuário pode usar as funcionalidades comuns.
func (u Usuario) Aprovado() bool {
	return u.Nivel == NivelAdmin || u.Ativo
}

// PodeAssinar indica quem contra-assina documentos.
func (u Usuario) PodeAssinar() bool {
	return u.Nivel == NivelAdmin || (u.Nivel == NivelDPC && u.Ativo)
}

// DisplayName usa apenas o primeiro nome.
func (u Usuario) DisplayName() string {
	nome := strings.TrimSpace(u.Nome)
	if i := strings.IndexByte(nome, ' '); i > 0 {
		return nome[:i]
	}
	if nome == "" && u.Username != nil {
		return *u.Username
	}
	return nome
}

// Handle devolve o @username ou um texto padrão.
func (u Usuario) Handle() string {
	if u.Username == nil || *u.Username == "" {
		return "Não informado"
	}
	return "@" + *u.Username
}
