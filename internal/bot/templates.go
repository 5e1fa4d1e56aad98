package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/diegocamara89/dcyber-bot/internal/assinaturas"
	"github.com/diegocamara89/dcyber-bot/internal/casos"
	"github.com/diegocamara89/dcyber-bot/internal/contatos"
	"github.com/diegocamara89/dcyber-bot/internal/estatisticas"
	"github.com/diegocamara89/dcyber-bot/internal/lembretes"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
)

const (
	msgPendente            = "⏳ Seu cadastro está aguardando aprovação de um administrador.\nVocê será avisado assim que for liberado."
	msgSomenteAdmin        = "⛔ Apenas administradores podem usar esta função."
	msgSomenteDPC          = "⛔ Apenas o DPC ou um administrador pode assinar documentos."
	msgErroGenerico        = "❌ Ocorreu um erro ao processar sua solicitação. Tente novamente."
	msgRepetirPasso        = "❌ Não foi possível salvar agora. Seus dados foram mantidos: repita a última etapa para tentar de novo ou toque em Cancelar."
	msgOpcaoInvalida       = "⚠️ Opção inválida ou expirada."
	msgCancelado           = "❌ Operação cancelada."
	msgUseMenu             = "Use os botões abaixo para navegar."
	msgSemDPC              = "⚠️ Nenhum DPC definido no momento.\nPeça a um administrador para definir o DPC antes de enviar documentos."
	msgComandoDesconhecido = "Comando não reconhecido. Use /start para abrir o menu."
	dataHora               = "02/01/2006 15:04"
)

func esc(s string) string {
	return html.EscapeString(s)
}

func textoMenuPrincipal(u *usuarios.Usuario) string {
	return fmt.Sprintf("👋 Olá, <b>%s</b>!\n\n%s Nível: <b>%s</b>\n\nEscolha uma opção:",
		esc(u.DisplayName()), u.Nivel.Emoji(), esc(string(u.Nivel)))
}

func textoNovoCadastro(nome, username string, id int64) string {
	handle := "Não informado"
	if username != "" {
		handle = "@" + username
	}
	return fmt.Sprintf("🆕 <b>Novo cadastro pendente</b>\n\n👤 %s\n🔗 %s\n🆔 <code>%d</code>",
		esc(nome), esc(handle), id)
}

func textoUsuario(u usuarios.Usuario) string {
	status := "✅ Ativo"
	if !u.Ativo {
		status = "🚫 Inativo"
	}
	return fmt.Sprintf("%s <b>%s</b>\n🔗 %s\n🆔 <code>%d</code>\n📊 Nível: %s\n%s\n📅 Cadastro: %s",
		u.Nivel.Emoji(), esc(u.Nome), esc(u.Handle()), u.ID, esc(string(u.Nivel)), status,
		u.CriadoEm.Format("02/01/2006"))
}

func textoSolicitacaoDPC(a assinaturas.Assinatura, nome string) string {
	return fmt.Sprintf("📝 <b>Nova solicitação de assinatura</b>\n\n🔢 #%d\n📄 %s\n👤 Solicitado por: %s (%s)",
		a.Sequencia, esc(a.Documento), esc(nome), esc(solicitante(a)))
}

func textoFallbackAdmin(a assinaturas.Assinatura, nome, motivo string) string {
	return fmt.Sprintf("⚠️ <b>DPC não notificado</b> (%s)\n\n🔢 #%d\n📄 %s\n👤 Solicitado por: %s (%s)",
		esc(motivo), a.Sequencia, esc(a.Documento), esc(nome), esc(solicitante(a)))
}

func solicitante(a assinaturas.Assinatura) string {
	if a.Username == "" {
		return "Não informado"
	}
	if strings.HasPrefix(a.Username, "@") {
		return a.Username
	}
	return "@" + a.Username
}

func textoResumoSolicitacao(criadas []assinaturas.Assinatura) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>%d documento(s) enviado(s) para assinatura</b>\n\n", len(criadas))
	for _, a := range criadas {
		fmt.Fprintf(&b, "#%d %s\n", a.Sequencia, esc(a.Documento))
	}
	return b.String()
}

func textoPendentes(lista []assinaturas.Assinatura, total int) string {
	if len(lista) == 0 {
		return "📭 Nenhum documento pendente de assinatura."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Documentos pendentes</b> (%d)\n\n", total)
	for _, a := range lista {
		fmt.Fprintf(&b, "🔢 #%d 📄 %s\n👤 %s · %s\n\n", a.Sequencia, esc(a.Documento), esc(solicitante(a)), a.CriadoEm.Format(dataHora))
	}
	if total > len(lista) {
		fmt.Fprintf(&b, "… e mais %d.", total-len(lista))
	}
	return strings.TrimRight(b.String(), "\n")
}

func nomesDe(ids []int64, nomes map[int64]string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := nomes[id]; ok {
			out = append(out, n)
		} else {
			out = append(out, fmt.Sprintf("ID %d", id))
		}
	}
	if len(out) == 0 {
		return "Nenhum"
	}
	return strings.Join(out, ", ")
}

func textoCaso(c casos.Caso, nomes map[int64]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📁 <b>Caso #%d</b>\n\n📌 <b>%s</b>\n📝 %s\n", c.ID, esc(c.Titulo), esc(c.Descricao))
	if c.Observacoes != nil {
		fmt.Fprintf(&b, "💬 %s\n", esc(*c.Observacoes))
	}
	fmt.Fprintf(&b, "📊 Status: %s\n👥 Responsáveis: %s\n🕒 Atualizado em %s",
		esc(c.Status), esc(nomesDe(c.Responsaveis, nomes)), c.AtualizadoEm.Format(dataHora))
	return b.String()
}

func textoListaCasos(titulo string, lista []casos.Caso, nomes map[int64]string) string {
	if len(lista) == 0 {
		return titulo + "\n\n📭 Nenhum caso encontrado."
	}
	var b strings.Builder
	b.WriteString(titulo + "\n\n")
	for _, c := range lista {
		fmt.Fprintf(&b, "#%d <b>%s</b>\n%s · 👥 %s\n\n", c.ID, esc(c.Titulo), esc(c.Status), esc(nomesDe(c.Responsaveis, nomes)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func textoContatos(titulo string, lista []contatos.Contato) string {
	if len(lista) == 0 {
		return titulo + "\n\n📭 Nenhum contato encontrado."
	}
	var b strings.Builder
	b.WriteString(titulo + "\n\n")
	for _, c := range lista {
		fmt.Fprintf(&b, "👤 <b>%s</b>\n📞 %s\n", esc(c.Nome), esc(c.Contato))
		if c.Observacoes != nil {
			fmt.Fprintf(&b, "💬 %s\n", esc(*c.Observacoes))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func textoLembretes(lista []lembretes.Lembrete, nomes map[int64]string) string {
	if len(lista) == 0 {
		return "📭 Você não tem lembretes ativos."
	}
	var b strings.Builder
	b.WriteString("⏰ <b>Seus lembretes</b>\n\n")
	for _, l := range lista {
		fmt.Fprintf(&b, "📝 <b>%s</b>\n📅 %s\n👥 %s\n\n", esc(l.Titulo), l.Quando.Format(dataHora), esc(nomesDe(l.Destinatarios, nomes)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func textoLembreteCriado(l *lembretes.Lembrete, nomes map[int64]string) string {
	return fmt.Sprintf("✅ <b>Lembrete criado!</b>\n\n📝 %s\n📅 %s\n👥 %s",
		esc(l.Titulo), l.Quando.Format(dataHora), esc(nomesDe(l.Destinatarios, nomes)))
}

func textoGerais(g *estatisticas.Gerais) string {
	return fmt.Sprintf("📊 <b>Estatísticas gerais</b>\n\n"+
		"👥 Usuários cadastrados: %d\n"+
		"🟢 Ativos hoje: %d\n\n"+
		"📄 Documentos enviados: %d\n"+
		"⏳ Pendentes de assinatura: %d\n\n"+
		"📁 Casos criados: %d\n"+
		"🔵 Casos ativos: %d\n\n"+
		"⏰ Lembretes criados: %d\n"+
		"📇 Contatos cadastrados: %d",
		g.Usuarios, g.UsuariosAtivosHoje, g.Documentos, g.DocumentosPendentes,
		g.Casos, g.CasosAtivos, g.Lembretes, g.Contatos)
}

var acaoLabels = map[string]string{
	"novo_documento": "📄 Documentos enviados",
	"novo_caso":      "📁 Casos criados",
	"novo_contato":   "📇 Contatos cadastrados",
	"novo_lembrete":  "⏰ Lembretes criados",
}

func textoPessoais(p *estatisticas.Pessoais) string {
	var b strings.Builder
	b.WriteString("👤 <b>Suas estatísticas</b>\n\n")
	for _, acao := range []string{"novo_documento", "novo_caso", "novo_contato", "novo_lembrete"} {
		fmt.Fprintf(&b, "%s: %d\n", acaoLabels[acao], p.Acoes[acao])
	}
	fmt.Fprintf(&b, "\n🔑 Acessos: %d\n", p.TotalAcessos)
	if p.UltimoAcesso != nil {
		fmt.Fprintf(&b, "🕒 Último acesso: %s", p.UltimoAcesso.Format(dataHora))
	}
	return strings.TrimRight(b.String(), "\n")
}

func textoRelatorio(r *estatisticas.Relatorio) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>Relatório de atividades</b>\n%s (%s a %s)\n\n",
		esc(r.Periodo.Label()), r.Inicio.Format("02/01/2006"), r.Fim.Format("02/01/2006"))
	if r.Vazio() {
		b.WriteString("📭 Nenhuma atividade registrada no período.")
		return b.String()
	}
	fmt.Fprintf(&b, "👥 Usuários ativos: %d\n🔑 Acessos: %d\n✍️ Assinaturas: %d\n",
		r.UsuariosAtivos(), r.TotalAcessos(), r.TotalAssinaturas())

	if len(r.Acessos) > 0 {
		b.WriteString("\n<b>Acessos por dia</b>\n")
		for _, a := range limitar(r.Acessos, 30) {
			fmt.Fprintf(&b, "%s %s: %d (%s–%s)\n", a.Dia.Format("02/01"), esc(a.Nome), a.Total,
				a.Primeiro.Format("15:04"), a.Ultimo.Format("15:04"))
		}
	}
	if len(r.Assinaturas) > 0 {
		b.WriteString("\n<b>Assinaturas por dia</b>\n")
		for _, a := range limitar(r.Assinaturas, 30) {
			fmt.Fprintf(&b, "%s %s: %d\n", a.Dia.Format("02/01"), esc(a.Nome), a.Total)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func limitar[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

var ajudaTopicos = map[string]string{
	"geral": "ℹ️ <b>Ajuda geral</b>\n\n" +
		"Use /start para abrir o menu principal.\n" +
		"Use /cancel a qualquer momento para cancelar uma operação.\n" +
		"Campos opcionais podem ser pulados com /pular.",
	"assinaturas": "📝 <b>Assinaturas</b>\n\n" +
		"Envie um ou mais documentos, um por linha. Cada linha vira uma solicitação numerada " +
		"e o DPC recebe um aviso com o botão de assinar.\n" +
		"Os números valem para a fila atual e recomeçam quando ela esvazia.",
	"casos": "📁 <b>Casos</b>\n\n" +
		"Crie casos com título, descrição e observações opcionais, escolha os responsáveis " +
		"e ajuste status, observações ou responsáveis depois. Casos encerrados saem da lista.",
	"contatos": "📇 <b>Contatos</b>\n\n" +
		"Cadastre contatos passo a passo ou envie nome, contato e observações em linhas " +
		"separadas numa única mensagem. Edite ou apague pelo menu; cada usuário vê apenas os próprios contatos.",
	"lembretes": "⏰ <b>Lembretes</b>\n\n" +
		"Informe título, data (DD/MM/AAAA) e horário (HH:MM) e escolha quem recebe: " +
		"só você, usuários selecionados ou todos. O aviso chega no horário marcado.",
}
