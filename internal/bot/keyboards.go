package bot

import (
	"fmt"

	"github.com/diegocamara89/dcyber-bot/internal/assinaturas"
	"github.com/diegocamara89/dcyber-bot/internal/casos"
	"github.com/diegocamara89/dcyber-bot/internal/contatos"
	"github.com/diegocamara89/dcyber-bot/internal/estatisticas"
	"github.com/diegocamara89/dcyber-bot/internal/lembretes"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
	"github.com/diegocamara89/dcyber-bot/internal/wizard"
)

type row = []telegram.InlineKeyboardButton

func btn(text string, a Action) telegram.InlineKeyboardButton {
	return telegram.Button(text, a.Token())
}

func voltar(kind ActionKind) row {
	return row{btn("⬅️ Voltar", act(kind))}
}

func tecladoMenuPrincipal(u *usuarios.Usuario) *telegram.InlineKeyboardMarkup {
	rows := []row{
		{btn("📝 Assinaturas", act(ActMenuAssinaturas)), btn("📁 Casos", act(ActMenuCasos))},
		{btn("📇 Contatos", act(ActMenuContatos)), btn("⏰ Lembretes", act(ActMenuLembretes))},
		{btn("📊 Estatísticas", act(ActMenuStats)), btn("❓ Ajuda", act(ActMenuAjuda))},
	}
	if u != nil && u.Admin() {
		rows = append(rows, row{btn("👑 Administração", act(ActMenuAdmin))})
	}
	return telegram.Keyboard(rows...)
}

func tecladoVoltarMenu() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(row{btn("🏠 Menu principal", act(ActMenuPrincipal))})
}

func tecladoCancelar() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(row{btn("❌ Cancelar", act(ActCancelar))})
}

func tecladoAssinaturas() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		row{btn("📤 Enviar documentos", act(ActAssinaturaNova))},
		row{btn("📋 Pendentes", act(ActAssinaturaListar))},
		voltar(ActMenuPrincipal),
	)
}

func botaoAssinar(seq int) telegram.InlineKeyboardButton {
	return btn(fmt.Sprintf("✍️ Assinar #%d", seq), actID(ActAssinaturaAssinar, int64(seq)))
}

func tecladoAssinar(seq int) *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(row{botaoAssinar(seq)})
}

func tecladoPendentes(lista []assinaturas.Assinatura, podeAssinar bool) *telegram.InlineKeyboardMarkup {
	var rows []row
	if podeAssinar && len(lista) > 0 {
		for _, a := range lista {
			rows = append(rows, row{botaoAssinar(a.Sequencia)})
		}
		rows = append(rows, row{btn("✅ Assinar todos", act(ActAssinaturaTodas))})
	}
	rows = append(rows, voltar(ActMenuAssinaturas))
	return telegram.Keyboard(rows...)
}

func tecladoCasos() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		row{btn("➕ Novo caso", act(ActCasoNovo)), btn("📋 Casos ativos", act(ActCasoListar))},
		row{btn("🔍 Pesquisar", act(ActCasoPesquisar)), btn("⚙️ Ajustar", act(ActCasoAjustar))},
		voltar(ActMenuPrincipal),
	)
}

func tecladoEscolherCaso(lista []casos.Caso) *telegram.InlineKeyboardMarkup {
	rows := make([]row, 0, len(lista)+1)
	for _, c := range limitar(lista, 20) {
		rows = append(rows, row{btn(fmt.Sprintf("#%d %s", c.ID, truncar(c.Titulo, 40)), actID(ActCasoVer, c.ID))})
	}
	rows = append(rows, voltar(ActMenuCasos))
	return telegram.Keyboard(rows...)
}

func tecladoPainelCaso(c casos.Caso) *telegram.InlineKeyboardMarkup {
	if !c.Aberto() {
		return telegram.Keyboard(voltar(ActMenuCasos))
	}
	return telegram.Keyboard(
		row{btn("📊 Status", actID(ActCasoStatus, c.ID)), btn("💬 Observações", actID(ActCasoObs, c.ID))},
		row{btn("👥 Responsáveis", actID(ActCasoResp, c.ID))},
		row{btn("✅ Encerrar", actID(ActCasoEncerrar, c.ID)), btn("🗑️ Apagar", actID(ActCasoApagar, c.ID))},
		voltar(ActCasoAjustar),
	)
}

func tecladoConfirmar(sim Action, nao Action) *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(row{btn("✅ Confirmar", sim), btn("❌ Voltar", nao)})
}

// tecladoSelecao lista usuários com marcação de selecionados.
func tecladoSelecao(lista []usuarios.Usuario, st *wizard.State, toggle, confirmar ActionKind) *telegram.InlineKeyboardMarkup {
	rows := make([]row, 0, len(lista)+1)
	for _, u := range lista {
		mark := "⬜"
		if st.IsSelected(u.ID) {
			mark = "✅"
		}
		rows = append(rows, row{btn(mark+" "+truncar(u.Nome, 40), actID(toggle, u.ID))})
	}
	rows = append(rows, row{btn("✔️ Confirmar", act(confirmar)), btn("❌ Cancelar", act(ActCancelar))})
	return telegram.Keyboard(rows...)
}

func tecladoContatos() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		row{btn("➕ Novo contato", act(ActContatoNovo)), btn("📋 Meus contatos", act(ActContatoListar))},
		row{btn("🔍 Pesquisar", act(ActContatoPesquisar)), btn("✏️ Editar", act(ActContatoEditar))},
		row{btn("🗑️ Apagar", act(ActContatoRemover))},
		voltar(ActMenuPrincipal),
	)
}

// tecladoEscolherContato lista os contatos com a ação escolhida em cada botão.
func tecladoEscolherContato(lista []contatos.Contato, icone string, kind ActionKind) *telegram.InlineKeyboardMarkup {
	rows := make([]row, 0, len(lista)+1)
	for _, c := range limitar(lista, 30) {
		rows = append(rows, row{btn(icone+" "+truncar(c.Nome, 40), actID(kind, c.ID))})
	}
	rows = append(rows, voltar(ActMenuContatos))
	return telegram.Keyboard(rows...)
}

func tecladoLembretes() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		row{btn("➕ Novo lembrete", act(ActLembreteNovo)), btn("📋 Meus lembretes", act(ActLembreteListar))},
		row{btn("🗑️ Apagar", act(ActLembreteRemover))},
		voltar(ActMenuPrincipal),
	)
}

func tecladoModoLembrete() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		row{btn("🙋 Só para mim", actArg(ActLembreteModo, wizard.ModoEu))},
		row{btn("👥 Selecionar usuários", actArg(ActLembreteModo, wizard.ModoSelecionar))},
		row{btn("📢 Todos os usuários", actArg(ActLembreteModo, wizard.ModoTodos))},
		row{btn("❌ Cancelar", act(ActCancelar))},
	)
}

func tecladoRemoverLembretes(lista []lembretes.Lembrete) *telegram.InlineKeyboardMarkup {
	rows := make([]row, 0, len(lista)+1)
	for _, l := range lista {
		label := fmt.Sprintf("🗑️ %s (%s)", truncar(l.Titulo, 30), l.Quando.Format("02/01 15:04"))
		rows = append(rows, row{btn(label, actID(ActLembreteApagar, l.ID))})
	}
	rows = append(rows, voltar(ActMenuLembretes))
	return telegram.Keyboard(rows...)
}

func tecladoStats(admin bool) *telegram.InlineKeyboardMarkup {
	rows := []row{{btn("📊 Gerais", act(ActStatsGerais)), btn("👤 Pessoais", act(ActStatsPessoais))}}
	if admin {
		rows = append(rows, row{btn("📈 Relatório de atividades", act(ActAdminRelatorio))})
	}
	rows = append(rows, voltar(ActMenuPrincipal))
	return telegram.Keyboard(rows...)
}

func tecladoAjuda() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		row{btn("ℹ️ Geral", actArg(ActAjudaTopico, "geral")), btn("📝 Assinaturas", actArg(ActAjudaTopico, "assinaturas"))},
		row{btn("📁 Casos", actArg(ActAjudaTopico, "casos")), btn("📇 Contatos", actArg(ActAjudaTopico, "contatos"))},
		row{btn("⏰ Lembretes", actArg(ActAjudaTopico, "lembretes"))},
		voltar(ActMenuPrincipal),
	)
}

func tecladoAdmin(pendentes int) *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		row{btn(fmt.Sprintf("⏳ Pendentes (%d)", pendentes), act(ActAdminPendentes)), btn("👥 Usuários", act(ActAdminUsuarios))},
		row{btn("🔰 Definir DPC", act(ActAdminDPC)), btn("📢 Enviar mensagem", act(ActAdminBroadcast))},
		row{btn("📈 Relatório", act(ActAdminRelatorio))},
		voltar(ActMenuPrincipal),
	)
}

func tecladoAprovacao(id int64) *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(row{btn("✅ Aprovar", actID(ActAdminAprovar, id)), btn("❌ Recusar", actID(ActAdminRecusar, id))})
}

func tecladoPendentesAdmin(lista []usuarios.Usuario) *telegram.InlineKeyboardMarkup {
	rows := make([]row, 0, len(lista)+1)
	for _, u := range lista {
		nome := truncar(u.Nome, 25)
		rows = append(rows, row{btn("✅ "+nome, actID(ActAdminAprovar, u.ID)), btn("❌ "+nome, actID(ActAdminRecusar, u.ID))})
	}
	rows = append(rows, voltar(ActMenuAdmin))
	return telegram.Keyboard(rows...)
}

func tecladoUsuarios(lista []usuarios.Usuario) *telegram.InlineKeyboardMarkup {
	rows := make([]row, 0, len(lista)+1)
	for _, u := range lista {
		if u.Nivel == usuarios.NivelPendente {
			continue
		}
		label := u.Nivel.Emoji() + " " + truncar(u.Nome, 35)
		if !u.Ativo {
			label += " 🚫"
		}
		rows = append(rows, row{btn(label, actID(ActAdminUsuario, u.ID))})
	}
	rows = append(rows, voltar(ActMenuAdmin))
	return telegram.Keyboard(rows...)
}

func tecladoPainelUsuario(u usuarios.Usuario) *telegram.InlineKeyboardMarkup {
	ativacao := btn("🚫 Desativar", actID(ActAdminDesativar, u.ID))
	if !u.Ativo {
		ativacao = btn("✅ Ativar", actID(ActAdminAtivar, u.ID))
	}
	return telegram.Keyboard(
		row{
			btn("👑 Admin", Action{Kind: ActAdminNivel, Arg: string(usuarios.NivelAdmin), ID: u.ID}),
			btn("🔰 DPC", Action{Kind: ActAdminNivel, Arg: string(usuarios.NivelDPC), ID: u.ID}),
			btn("👤 User", Action{Kind: ActAdminNivel, Arg: string(usuarios.NivelUser), ID: u.ID}),
		},
		row{ativacao, btn("✉️ Mensagem", actID(ActAdminMensagem, u.ID))},
		voltar(ActAdminUsuarios),
	)
}

func tecladoDestinos() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		row{btn("📢 Todos os ativos", actArg(ActAdminDestino, wizard.DestinoTodos))},
		row{btn("👤 Apenas usuários", actArg(ActAdminDestino, wizard.DestinoUsers))},
		row{btn("🔰 Apenas DPC", actArg(ActAdminDestino, wizard.DestinoDPC))},
		voltar(ActMenuAdmin),
	)
}

func tecladoPeriodos() *telegram.InlineKeyboardMarkup {
	p := func(periodo estatisticas.Periodo) telegram.InlineKeyboardButton {
		return btn(periodo.Label(), actArg(ActAdminPeriodo, string(periodo)))
	}
	return telegram.Keyboard(
		row{p(estatisticas.PeriodoHoje), p(estatisticas.PeriodoSemana)},
		row{p(estatisticas.PeriodoMes), p(estatisticas.PeriodoAnterior)},
		voltar(ActMenuAdmin),
	)
}

func tecladoRelatorio(periodo estatisticas.Periodo) *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		row{btn("📥 Exportar XLSX", actArg(ActAdminExportar, string(periodo)))},
		voltar(ActAdminRelatorio),
	)
}

func truncar(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
