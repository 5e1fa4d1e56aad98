package bot

import (
	"errors"
	"strconv"
	"strings"
)

var ErrAcaoDesconhecida = errors.New("ação desconhecida")

// ActionKind é o conjunto fechado de ações acionadas por botões.
// O valor é o prefixo do token de callback.
type ActionKind string

const (
	ActCancelar ActionKind = "cancelar"

	ActMenuPrincipal   ActionKind = "menu_principal"
	ActMenuAssinaturas ActionKind = "menu_assinaturas"
	ActMenuCasos       ActionKind = "menu_casos"
	ActMenuContatos    ActionKind = "menu_contatos"
	ActMenuLembretes   ActionKind = "menu_lembretes"
	ActMenuStats       ActionKind = "menu_stats"
	ActMenuAjuda       ActionKind = "menu_ajuda"
	ActMenuAdmin       ActionKind = "menu_admin"

	ActAssinaturaNova    ActionKind = "assinatura_nova"
	ActAssinaturaListar  ActionKind = "assinatura_listar"
	ActAssinaturaAssinar ActionKind = "assinatura_assinar"
	ActAssinaturaTodas   ActionKind = "assinatura_todas"

	ActCasoNovo         ActionKind = "caso_novo"
	ActCasoListar       ActionKind = "caso_listar"
	ActCasoPesquisar    ActionKind = "caso_pesquisar"
	ActCasoAjustar      ActionKind = "caso_ajustar"
	ActCasoVer          ActionKind = "caso_ver"
	ActCasoStatus       ActionKind = "caso_status"
	ActCasoObs          ActionKind = "caso_obs"
	ActCasoResp         ActionKind = "caso_resp"
	ActCasoEncerrar     ActionKind = "caso_encerrar"
	ActCasoConfEncerrar ActionKind = "caso_confencerrar"
	ActCasoApagar       ActionKind = "caso_apagar"
	ActCasoConfApagar   ActionKind = "caso_confapagar"
	ActCasoToggle       ActionKind = "caso_toggle"
	ActCasoConfirmar    ActionKind = "caso_confirmar"

	ActContatoNovo      ActionKind = "contato_novo"
	ActContatoListar    ActionKind = "contato_listar"
	ActContatoPesquisar ActionKind = "contato_pesquisar"
	ActContatoRemover   ActionKind = "contato_remover"
	ActContatoApagar    ActionKind = "contato_apagar"
	ActContatoEditar    ActionKind = "contato_editar"
	ActContatoAlterar   ActionKind = "contato_alterar"

	ActLembreteNovo      ActionKind = "lembrete_novo"
	ActLembreteListar    ActionKind = "lembrete_listar"
	ActLembreteRemover   ActionKind = "lembrete_remover"
	ActLembreteApagar    ActionKind = "lembrete_apagar"
	ActLembreteModo      ActionKind = "lembrete_modo"
	ActLembreteToggle    ActionKind = "lembrete_toggle"
	ActLembreteConfirmar ActionKind = "lembrete_confirmar"

	ActStatsGerais   ActionKind = "stats_gerais"
	ActStatsPessoais ActionKind = "stats_pessoais"

	ActAjudaTopico ActionKind = "ajuda_topico"

	ActAdminPendentes ActionKind = "admin_pendentes"
	ActAdminAprovar   ActionKind = "admin_aprovar"
	ActAdminRecusar   ActionKind = "admin_recusar"
	ActAdminUsuarios  ActionKind = "admin_usuarios"
	ActAdminUsuario   ActionKind = "admin_usuario"
	ActAdminNivel     ActionKind = "admin_nivel"
	ActAdminAtivar    ActionKind = "admin_ativar"
	ActAdminDesativar ActionKind = "admin_desativar"
	ActAdminMensagem  ActionKind = "admin_msg"
	ActAdminBroadcast ActionKind = "admin_broadcast"
	ActAdminDestino   ActionKind = "admin_destino"
	ActAdminDPC       ActionKind = "admin_dpc"
	ActAdminRelatorio ActionKind = "admin_relatorio"
	ActAdminPeriodo   ActionKind = "admin_periodo"
	ActAdminExportar  ActionKind = "admin_exportar"
)

type argShape int

const (
	argNone argShape = iota
	argID
	argWord
	argWordID
)

var catalog = map[ActionKind]argShape{
	ActCancelar: argNone,

	ActMenuPrincipal:   argNone,
	ActMenuAssinaturas: argNone,
	ActMenuCasos:       argNone,
	ActMenuContatos:    argNone,
	ActMenuLembretes:   argNone,
	ActMenuStats:       argNone,
	ActMenuAjuda:       argNone,
	ActMenuAdmin:       argNone,

	ActAssinaturaNova:    argNone,
	ActAssinaturaListar:  argNone,
	ActAssinaturaAssinar: argID,
	ActAssinaturaTodas:   argNone,

	ActCasoNovo:         argNone,
	ActCasoListar:       argNone,
	ActCasoPesquisar:    argNone,
	ActCasoAjustar:      argNone,
	ActCasoVer:          argID,
	ActCasoStatus:       argID,
	ActCasoObs:          argID,
	ActCasoResp:         argID,
	ActCasoEncerrar:     argID,
	ActCasoConfEncerrar: argID,
	ActCasoApagar:       argID,
	ActCasoConfApagar:   argID,
	ActCasoToggle:       argID,
	ActCasoConfirmar:    argNone,

	ActContatoNovo:      argNone,
	ActContatoListar:    argNone,
	ActContatoPesquisar: argNone,
	ActContatoRemover:   argNone,
	ActContatoApagar:    argID,
	ActContatoEditar:    argNone,
	ActContatoAlterar:   argID,

	ActLembreteNovo:      argNone,
	ActLembreteListar:    argNone,
	ActLembreteRemover:   argNone,
	ActLembreteApagar:    argID,
	ActLembreteModo:      argWord,
	ActLembreteToggle:    argID,
	ActLembreteConfirmar: argNone,

	ActStatsGerais:   argNone,
	ActStatsPessoais: argNone,

	ActAjudaTopico: argWord,

	ActAdminPendentes: argNone,
	ActAdminAprovar:   argID,
	ActAdminRecusar:   argID,
	ActAdminUsuarios:  argNone,
	ActAdminUsuario:   argID,
	ActAdminNivel:     argWordID,
	ActAdminAtivar:    argID,
	ActAdminDesativar: argID,
	ActAdminMensagem:  argID,
	ActAdminBroadcast: argNone,
	ActAdminDestino:   argWord,
	ActAdminDPC:       argNone,
	ActAdminRelatorio: argNone,
	ActAdminPeriodo:   argWord,
	ActAdminExportar:  argWord,
}

// Action é um token de callback já interpretado.
type Action struct {
	Kind ActionKind
	ID   int64
	Arg  string
}

// ParseAction converte o token recebido numa ação conhecida. Tokens fora
// do catálogo ou com argumentos inválidos retornam ErrAcaoDesconhecida.
func ParseAction(token string) (Action, error) {
	parts := strings.Split(strings.TrimSpace(token), "_")
	if len(parts) == 0 || parts[0] == "" {
		return Action{}, ErrAcaoDesconhecida
	}

	kind := ActionKind(parts[0])
	rest := parts[1:]
	if _, ok := catalog[kind]; !ok && len(parts) >= 2 {
		kind = ActionKind(parts[0] + "_" + parts[1])
		rest = parts[2:]
	}
	shape, ok := catalog[kind]
	if !ok {
		return Action{}, ErrAcaoDesconhecida
	}

	a := Action{Kind: kind}
	switch shape {
	case argNone:
		if len(rest) != 0 {
			return Action{}, ErrAcaoDesconhecida
		}
	case argID:
		if len(rest) != 1 {
			return Action{}, ErrAcaoDesconhecida
		}
		id, err := parseID(rest[0])
		if err != nil {
			return Action{}, err
		}
		a.ID = id
	case argWord:
		if len(rest) != 1 || rest[0] == "" {
			return Action{}, ErrAcaoDesconhecida
		}
		a.Arg = rest[0]
	case argWordID:
		if len(rest) != 2 || rest[0] == "" {
			return Action{}, ErrAcaoDesconhecida
		}
		id, err := parseID(rest[1])
		if err != nil {
			return Action{}, err
		}
		a.Arg = rest[0]
		a.ID = id
	}
	return a, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrAcaoDesconhecida
	}
	return id, nil
}

// Token monta o callback_data da ação.
func (a Action) Token() string {
	switch catalog[a.Kind] {
	case argID:
		return string(a.Kind) + "_" + strconv.FormatInt(a.ID, 10)
	case argWord:
		return string(a.Kind) + "_" + a.Arg
	case argWordID:
		return string(a.Kind) + "_" + a.Arg + "_" + strconv.FormatInt(a.ID, 10)
	}
	return string(a.Kind)
}

func act(kind ActionKind) Action {
	return Action{Kind: kind}
}

func actID(kind ActionKind, id int64) Action {
	return Action{Kind: kind, ID: id}
}

func actArg(kind ActionKind, arg string) Action {
	return Action{Kind: kind, Arg: arg}
}
