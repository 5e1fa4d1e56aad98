package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/diegocamara89/dcyber-bot/internal/assinaturas"
	"github.com/diegocamara89/dcyber-bot/internal/casos"
	"github.com/diegocamara89/dcyber-bot/internal/contatos"
	"github.com/diegocamara89/dcyber-bot/internal/estatisticas"
	"github.com/diegocamara89/dcyber-bot/internal/lembretes"
	"github.com/diegocamara89/dcyber-bot/internal/service"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
	"github.com/diegocamara89/dcyber-bot/internal/wizard"
)

// Messenger é a parte do transporte usada pelos handlers.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	Edit(ctx context.Context, chatID int64, messageID int, text string, markup *telegram.InlineKeyboardMarkup) error
	Answer(ctx context.Context, callbackID, text string) error
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error
}

// Event é a entrada normalizada de uma mensagem ou de um clique.
type Event struct {
	UserID     int64
	ChatID     int64
	Nome       string
	Username   string
	Text       string
	Command    string
	CallbackID string
	Data       string
	MessageID  int
}

func (e Event) IsCallback() bool {
	return e.CallbackID != ""
}

// EventFromUpdate extrai o evento de um update. Updates sem remetente são ignorados.
func EventFromUpdate(u telegram.Update) (Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		ev := Event{
			UserID:     cq.From.ID,
			ChatID:     cq.From.ID,
			Nome:       cq.From.FullName(),
			Username:   cq.From.Username,
			CallbackID: cq.ID,
			Data:       cq.Data,
		}
		if cq.Message != nil {
			ev.ChatID = cq.Message.Chat.ID
			ev.MessageID = cq.Message.MessageID
		}
		return ev, true
	case u.Message != nil && u.Message.From != nil && !u.Message.From.IsBot:
		m := u.Message
		return Event{
			UserID:   m.From.ID,
			ChatID:   m.Chat.ID,
			Nome:     m.From.FullName(),
			Username: m.From.Username,
			Text:     m.Text,
			Command:  m.Command(),
		}, true
	}
	return Event{}, false
}

type guard int

const (
	guardApproved guard = iota
	guardAdmin
	guardSigner
)

type handlerFunc func(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error

type route struct {
	guard  guard
	handle handlerFunc
}

// Deps reúne os serviços usados pelos handlers.
type Deps struct {
	Usuarios    *usuarios.Service
	RBAC        *service.RBACService
	Assinaturas *assinaturas.Service
	Casos       *casos.Service
	Contatos    *contatos.Service
	Lembretes   *lembretes.Service
	Stats       *estatisticas.Service
	Wizards     wizard.Store
	Messenger   Messenger
	AdminID     int64
	Location    *time.Location
}

// Bot roteia mensagens e cliques para os handlers de cada funcionalidade.
type Bot struct {
	usuarios    *usuarios.Service
	rbac        *service.RBACService
	assinaturas *assinaturas.Service
	casos       *casos.Service
	contatos    *contatos.Service
	lembretes   *lembretes.Service
	stats       *estatisticas.Service
	wizards     wizard.Store
	msg         Messenger
	adminID     int64
	loc         *time.Location
	now         func() time.Time
	routes      map[ActionKind]route
	commands    map[string]ActionKind
}

func New(d Deps) *Bot {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	b := &Bot{
		usuarios:    d.Usuarios,
		rbac:        d.RBAC,
		assinaturas: d.Assinaturas,
		casos:       d.Casos,
		contatos:    d.Contatos,
		lembretes:   d.Lembretes,
		stats:       d.Stats,
		wizards:     d.Wizards,
		msg:         d.Messenger,
		adminID:     d.AdminID,
		loc:         loc,
		now:         time.Now,
	}
	b.routes = b.buildRoutes()
	b.commands = map[string]ActionKind{
		"menu":         ActMenuPrincipal,
		"ajuda":        ActMenuAjuda,
		"help":         ActMenuAjuda,
		"admin":        ActMenuAdmin,
		"assinaturas":  ActMenuAssinaturas,
		"casos":        ActMenuCasos,
		"contatos":     ActMenuContatos,
		"lembretes":    ActMenuLembretes,
		"stats":        ActMenuStats,
		"estatisticas": ActMenuStats,
	}
	return b
}

func (b *Bot) buildRoutes() map[ActionKind]route {
	approved := func(h handlerFunc) route { return route{guard: guardApproved, handle: h} }
	admin := func(h handlerFunc) route { return route{guard: guardAdmin, handle: h} }
	signer := func(h handlerFunc) route { return route{guard: guardSigner, handle: h} }

	return map[ActionKind]route{
		ActCancelar: approved(b.cancelar),

		ActMenuPrincipal:   approved(b.menuPrincipal),
		ActMenuAssinaturas: approved(b.menuAssinaturas),
		ActMenuCasos:       approved(b.menuCasos),
		ActMenuContatos:    approved(b.menuContatos),
		ActMenuLembretes:   approved(b.menuLembretes),
		ActMenuStats:       approved(b.menuStats),
		ActMenuAjuda:       approved(b.menuAjuda),
		ActMenuAdmin:       admin(b.menuAdmin),

		ActAssinaturaNova:    approved(b.assinaturaNova),
		ActAssinaturaListar:  approved(b.assinaturaListar),
		ActAssinaturaAssinar: signer(b.assinaturaAssinar),
		ActAssinaturaTodas:   signer(b.assinaturaTodas),

		ActCasoNovo:         approved(b.casoNovo),
		ActCasoListar:       approved(b.casoListar),
		ActCasoPesquisar:    approved(b.casoPesquisar),
		ActCasoAjustar:      approved(b.casoAjustar),
		ActCasoVer:          approved(b.casoVer),
		ActCasoStatus:       approved(b.casoEditar(wizard.CampoStatus)),
		ActCasoObs:          approved(b.casoEditar(wizard.CampoObservacoes)),
		ActCasoResp:         approved(b.casoEditar(wizard.CampoResponsaveis)),
		ActCasoEncerrar:     approved(b.casoEncerrar),
		ActCasoConfEncerrar: approved(b.casoConfEncerrar),
		ActCasoApagar:       approved(b.casoApagar),
		ActCasoConfApagar:   approved(b.casoConfApagar),
		ActCasoToggle:       approved(b.selecaoToggle),
		ActCasoConfirmar:    approved(b.selecaoConfirmar),

		ActContatoNovo:      approved(b.contatoNovo),
		ActContatoListar:    approved(b.contatoListar),
		ActContatoPesquisar: approved(b.contatoPesquisar),
		ActContatoRemover:   approved(b.contatoRemover),
		ActContatoApagar:    approved(b.contatoApagar),
		ActContatoEditar:    approved(b.contatoEditar),
		ActContatoAlterar:   approved(b.contatoAlterar),

		ActLembreteNovo:      approved(b.lembreteNovo),
		ActLembreteListar:    approved(b.lembreteListar),
		ActLembreteRemover:   approved(b.lembreteRemover),
		ActLembreteApagar:    approved(b.lembreteApagar),
		ActLembreteModo:      approved(b.lembreteModo),
		ActLembreteToggle:    approved(b.selecaoToggle),
		ActLembreteConfirmar: approved(b.selecaoConfirmar),

		ActStatsGerais:   approved(b.statsGerais),
		ActStatsPessoais: approved(b.statsPessoais),

		ActAjudaTopico: approved(b.ajudaTopico),

		ActAdminPendentes: admin(b.adminPendentes),
		ActAdminAprovar:   admin(b.adminAprovar),
		ActAdminRecusar:   admin(b.adminRecusar),
		ActAdminUsuarios:  admin(b.adminUsuarios),
		ActAdminUsuario:   admin(b.adminUsuario),
		ActAdminNivel:     admin(b.adminNivel),
		ActAdminAtivar:    admin(b.adminAtivacao(true)),
		ActAdminDesativar: admin(b.adminAtivacao(false)),
		ActAdminMensagem:  admin(b.adminMensagem),
		ActAdminBroadcast: admin(b.adminBroadcast),
		ActAdminDestino:   admin(b.adminDestino),
		ActAdminDPC:       admin(b.adminDPC),
		ActAdminRelatorio: admin(b.adminRelatorio),
		ActAdminPeriodo:   admin(b.adminPeriodo),
		ActAdminExportar:  admin(b.adminExportar),
	}
}

// HandleUpdate é o ponto de entrada do long-poll e do webhook.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	ev, ok := EventFromUpdate(u)
	if !ok {
		return
	}
	if ev.IsCallback() {
		b.handleCallback(ctx, ev)
		return
	}
	b.handleMessage(ctx, ev)
}

func (b *Bot) handleCallback(ctx context.Context, ev Event) {
	a, err := ParseAction(ev.Data)
	if err != nil {
		log.Warn().Str("data", ev.Data).Int64("user_id", ev.UserID).Msg("bot: callback desconhecido")
		b.answer(ctx, ev, msgOpcaoInvalida)
		return
	}
	b.dispatch(ctx, ev, a)
}

func (b *Bot) handleMessage(ctx context.Context, ev Event) {
	switch ev.Command {
	case "start":
		b.start(ctx, ev)
	case "cancel", "cancelar":
		b.dispatch(ctx, ev, act(ActCancelar))
	case "", "pular":
		b.handleText(ctx, ev)
	default:
		kind, ok := b.commands[ev.Command]
		if !ok {
			b.send(ctx, ev.ChatID, msgComandoDesconhecido, nil)
			return
		}
		b.dispatch(ctx, ev, act(kind))
	}
}

func (b *Bot) dispatch(ctx context.Context, ev Event, a Action) {
	r, ok := b.routes[a.Kind]
	if !ok {
		log.Error().Str("action", string(a.Kind)).Msg("bot: ação sem rota")
		b.answer(ctx, ev, msgOpcaoInvalida)
		return
	}

	u, ok := b.authorize(ctx, ev, r.guard)
	if !ok {
		return
	}
	b.answer(ctx, ev, "")

	if strings.HasPrefix(string(a.Kind), "menu_") {
		b.clearWizard(ctx, ev.UserID)
	}
	if err := r.handle(ctx, ev, u, a); err != nil {
		b.fail(ctx, ev, err)
	}
}

// authorize aplica a política única: quem não passa recebe sempre um aviso visível.
func (b *Bot) authorize(ctx context.Context, ev Event, g guard) (*usuarios.Usuario, bool) {
	var (
		u   *usuarios.Usuario
		err error
	)
	switch g {
	case guardAdmin:
		u, err = b.rbac.RequireAdmin(ctx, ev.UserID)
	case guardSigner:
		u, err = b.rbac.RequireSigner(ctx, ev.UserID)
	default:
		u, err = b.rbac.RequireApproved(ctx, ev.UserID)
	}
	if err == nil {
		return u, true
	}

	notice := msgErroGenerico
	switch {
	case errors.Is(err, service.ErrPendente):
		notice = msgPendente
	case errors.Is(err, service.ErrForbidden) && g == guardSigner:
		notice = msgSomenteDPC
	case errors.Is(err, service.ErrForbidden):
		notice = msgSomenteAdmin
	default:
		log.Error().Err(err).Int64("user_id", ev.UserID).Msg("bot: falha ao verificar permissão")
	}
	b.answer(ctx, ev, "⛔ Acesso negado")
	b.send(ctx, ev.ChatID, notice, nil)
	return nil, false
}

func (b *Bot) clock() time.Time {
	return b.now().In(b.loc)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, kb *telegram.InlineKeyboardMarkup) bool {
	if _, err := b.msg.Send(ctx, chatID, text, kb); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("bot: falha ao enviar mensagem")
		return false
	}
	return true
}

// show edita a mensagem do botão clicado ou envia uma nova.
func (b *Bot) show(ctx context.Context, ev Event, text string, kb *telegram.InlineKeyboardMarkup) {
	if ev.IsCallback() && ev.MessageID != 0 {
		err := b.msg.Edit(ctx, ev.ChatID, ev.MessageID, text, kb)
		if err == nil {
			return
		}
		log.Debug().Err(err).Int64("chat_id", ev.ChatID).Msg("bot: edição falhou, enviando nova mensagem")
	}
	b.send(ctx, ev.ChatID, text, kb)
}

func (b *Bot) answer(ctx context.Context, ev Event, text string) {
	if !ev.IsCallback() {
		return
	}
	if err := b.msg.Answer(ctx, ev.CallbackID, text); err != nil {
		log.Debug().Err(err).Msg("bot: answerCallbackQuery falhou")
	}
}

func (b *Bot) fail(ctx context.Context, ev Event, err error) {
	text, known := userMessage(err)
	if !known {
		log.Error().Err(err).Int64("user_id", ev.UserID).Str("data", ev.Data).Msg("bot: falha ao processar")
	}
	b.send(ctx, ev.ChatID, text, tecladoVoltarMenu())
}

// userMessage traduz erros conhecidos para o aviso mostrado ao usuário.
func userMessage(err error) (string, bool) {
	var v *wizard.ValidationError
	switch {
	case errors.As(err, &v):
		return v.Msg, true
	case errors.Is(err, errSemDPC):
		return msgSemDPC, true
	case errors.Is(err, ErrAcaoDesconhecida):
		return msgOpcaoInvalida, true
	case errors.Is(err, assinaturas.ErrNotFound):
		return "❌ Assinatura não encontrada ou já processada.", true
	case errors.Is(err, assinaturas.ErrSemDocumentos):
		return "❌ Nenhum documento informado.", true
	case errors.Is(err, assinaturas.ErrDocumentoLongo):
		return "❌ Documento muito longo. Use até 500 caracteres por linha.", true
	case errors.Is(err, lembretes.ErrDataPassada):
		return "❌ A data e o horário informados já passaram. O lembrete não foi criado.", true
	case errors.Is(err, lembretes.ErrNaoCriador):
		return "❌ Apenas quem criou o lembrete pode apagá-lo.", true
	case errors.Is(err, lembretes.ErrSemDestinatarios), errors.Is(err, casos.ErrSemResponsaveis):
		return "⚠️ Selecione pelo menos um usuário.", true
	case errors.Is(err, lembretes.ErrNotFound):
		return "❌ Lembrete não encontrado.", true
	case errors.Is(err, casos.ErrCasoFechado):
		return "⚠️ Este caso já foi encerrado ou apagado.", true
	case errors.Is(err, casos.ErrNotFound):
		return "❌ Caso não encontrado ou já encerrado.", true
	case errors.Is(err, casos.ErrTituloInvalido), errors.Is(err, lembretes.ErrTituloInvalido):
		return "❌ Título inválido. Use até 100 caracteres.", true
	case errors.Is(err, contatos.ErrNotFound):
		return "❌ Contato não encontrado.", true
	case errors.Is(err, contatos.ErrNomeInvalido), errors.Is(err, contatos.ErrSemContato):
		return "❌ " + err.Error() + ".", true
	case errors.Is(err, usuarios.ErrNaoPendente):
		return "⚠️ Este usuário não está mais pendente.", true
	case errors.Is(err, usuarios.ErrInvalidNivel):
		return "❌ Nível inválido.", true
	case errors.Is(err, usuarios.ErrNotFound):
		return "❌ Usuário não encontrado.", true
	case errors.Is(err, estatisticas.ErrPeriodoInvalido):
		return "❌ Período inválido.", true
	}
	return msgErroGenerico, false
}

func (b *Bot) clearWizard(ctx context.Context, userID int64) {
	if err := b.wizards.Clear(ctx, userID); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("bot: falha ao limpar formulário")
	}
}

// nomes resolve ids para nomes de exibição nas listagens.
func (b *Bot) nomes(ctx context.Context) map[int64]string {
	todos, err := b.usuarios.Todos(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("bot: falha ao carregar nomes")
		return map[int64]string{}
	}
	out := make(map[int64]string, len(todos))
	for _, u := range todos {
		out[u.ID] = u.DisplayName()
	}
	return out
}

// adminIDs devolve os administradores ativos mais o configurado no ambiente.
func (b *Bot) adminIDs(ctx context.Context) []int64 {
	seen := map[int64]struct{}{}
	var ids []int64
	add := func(id int64) {
		if id <= 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	add(b.adminID)
	admins, err := b.usuarios.Admins(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("bot: falha ao listar administradores")
	}
	for _, a := range admins {
		add(a.ID)
	}
	return ids
}
