package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
	"github.com/diegocamara89/dcyber-bot/internal/wizard"
)

var errSemDPC = errors.New("nenhum dpc definido")

func wizardGuard(kind wizard.Kind) guard {
	switch kind {
	case wizard.KindMensagem, wizard.KindDPC:
		return guardAdmin
	}
	return guardApproved
}

// handleText entrega texto livre ao formulário em andamento.
func (b *Bot) handleText(ctx context.Context, ev Event) {
	st, err := b.wizards.Get(ctx, ev.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", ev.UserID).Msg("bot: falha ao ler formulário")
		b.send(ctx, ev.ChatID, msgErroGenerico, nil)
		return
	}
	if st == nil {
		u, ok := b.authorize(ctx, ev, guardApproved)
		if !ok {
			return
		}
		b.send(ctx, ev.ChatID, msgUseMenu, tecladoMenuPrincipal(u))
		return
	}

	u, ok := b.authorize(ctx, ev, wizardGuard(st.Kind))
	if !ok {
		b.clearWizard(ctx, ev.UserID)
		return
	}

	if err := st.Accept(ev.Text, b.clock()); err != nil {
		var v *wizard.ValidationError
		if errors.As(err, &v) {
			b.send(ctx, ev.ChatID, v.Msg, tecladoCancelar())
			return
		}
		b.fail(ctx, ev, err)
		return
	}
	b.advance(ctx, ev, u, st)
}

// advance grava o passo ou conclui o formulário quando tudo foi coletado.
// Se a gravação final falhar por erro de infraestrutura, o último passo
// salvo continua no store e o usuário pode repeti-lo.
func (b *Bot) advance(ctx context.Context, ev Event, u *usuarios.Usuario, st *wizard.State) {
	if st.Pronto() {
		err := b.complete(ctx, ev, u, st)
		if err == nil {
			b.clearWizard(ctx, st.UserID)
			return
		}
		if _, known := userMessage(err); known {
			b.clearWizard(ctx, st.UserID)
			b.fail(ctx, ev, err)
			return
		}
		log.Error().Err(err).Int64("user_id", ev.UserID).Str("formulario", string(st.Kind)).Msg("bot: falha ao concluir formulário")
		b.send(ctx, ev.ChatID, msgRepetirPasso, tecladoCancelar())
		return
	}
	if err := b.wizards.Save(ctx, st); err != nil {
		b.fail(ctx, ev, fmt.Errorf("salvar formulário: %w", err))
		return
	}
	if err := b.prompt(ctx, ev, st); err != nil {
		b.fail(ctx, ev, err)
	}
}

// begin inicia um formulário e mostra a primeira pergunta.
func (b *Bot) begin(ctx context.Context, ev Event, st *wizard.State) error {
	if err := b.wizards.Save(ctx, st); err != nil {
		return fmt.Errorf("salvar formulário: %w", err)
	}
	return b.prompt(ctx, ev, st)
}

func (b *Bot) prompt(ctx context.Context, ev Event, st *wizard.State) error {
	switch st.Step {
	case wizard.StepResponsaveis:
		return b.mostrarSelecao(ctx, ev, st, "👥 <b>Responsáveis</b>\n\nMarque os responsáveis pelo caso e confirme:", ActCasoToggle, ActCasoConfirmar)
	case wizard.StepSelecionar:
		return b.mostrarSelecao(ctx, ev, st, "👥 <b>Destinatários</b>\n\nMarque quem deve receber o lembrete e confirme:", ActLembreteToggle, ActLembreteConfirmar)
	case wizard.StepDestinatarios:
		b.show(ctx, ev, "👥 Quem deve receber este lembrete?", tecladoModoLembrete())
		return nil
	}
	b.show(ctx, ev, promptTexto(st), tecladoCancelar())
	return nil
}

func (b *Bot) mostrarSelecao(ctx context.Context, ev Event, st *wizard.State, titulo string, toggle, confirmar ActionKind) error {
	ativos, err := b.usuarios.Ativos(ctx)
	if err != nil {
		return err
	}
	b.show(ctx, ev, titulo, tecladoSelecao(ativos, st, toggle, confirmar))
	return nil
}

func promptTexto(st *wizard.State) string {
	switch st.Kind {
	case wizard.KindCaso:
		switch st.Step {
		case wizard.StepTitulo:
			return "📁 <b>Novo caso</b>\n\nDigite o título do caso:"
		case wizard.StepDescricao:
			return "📝 Digite a descrição do caso:"
		case wizard.StepObservacoes:
			return "💬 Digite observações ou envie /pular:"
		}
	case wizard.KindLembrete:
		switch st.Step {
		case wizard.StepTitulo:
			return "⏰ <b>Novo lembrete</b>\n\nDigite o título do lembrete:"
		case wizard.StepData:
			return "📅 Digite a data (DD/MM/AAAA):"
		case wizard.StepHora:
			return "🕒 Digite o horário (HH:MM):"
		}
	case wizard.KindContato, wizard.KindEdicaoContato:
		switch st.Step {
		case wizard.StepNome:
			titulo := "📇 <b>Novo contato</b>"
			if st.Kind == wizard.KindEdicaoContato {
				titulo = "✏️ <b>Editar contato</b>"
			}
			return titulo + "\n\nDigite o nome do contato.\n" +
				"Se preferir, envie nome, contato e observações em linhas separadas numa única mensagem."
		case wizard.StepContato:
			return "📞 Digite telefone, e-mail ou outro meio de contato:"
		case wizard.StepObservacoes:
			return "💬 Digite observações ou envie /pular:"
		}
	case wizard.KindMensagem:
		return "✉️ Digite a mensagem a ser enviada:"
	case wizard.KindDocumento:
		return "📤 <b>Enviar documentos</b>\n\nEnvie os documentos, um por linha:"
	case wizard.KindDPC:
		return "🔰 Digite o ID do novo DPC:"
	case wizard.KindPesquisaCaso, wizard.KindPesquisaContato:
		return "🔍 Digite o termo da pesquisa:"
	case wizard.KindEdicaoCaso:
		if st.Edicao != nil && st.Edicao.Campo == wizard.CampoObservacoes {
			return "💬 Digite as novas observações ou envie /pular para limpar:"
		}
		return "📊 Digite o novo status do caso:"
	}
	return msgUseMenu
}

// complete persiste o que o formulário coletou.
func (b *Bot) complete(ctx context.Context, ev Event, u *usuarios.Usuario, st *wizard.State) error {
	switch st.Kind {
	case wizard.KindCaso:
		return b.concluirCaso(ctx, ev, u, st)
	case wizard.KindEdicaoCaso:
		return b.concluirEdicao(ctx, ev, st)
	case wizard.KindPesquisaCaso:
		return b.concluirPesquisaCaso(ctx, ev, st.Texto)
	case wizard.KindLembrete:
		return b.concluirLembrete(ctx, ev, u, st)
	case wizard.KindContato:
		return b.concluirContato(ctx, ev, u, st)
	case wizard.KindEdicaoContato:
		return b.concluirEdicaoContato(ctx, ev, u, st)
	case wizard.KindPesquisaContato:
		return b.concluirPesquisaContato(ctx, ev, u, st.Texto)
	case wizard.KindDocumento:
		return b.concluirDocumentos(ctx, ev, u, st.Texto)
	case wizard.KindMensagem:
		return b.concluirMensagem(ctx, ev, u, st)
	case wizard.KindDPC:
		return b.concluirDPC(ctx, ev, st.ID)
	}
	return fmt.Errorf("formulário desconhecido: %s", st.Kind)
}

func (b *Bot) cancelar(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	b.clearWizard(ctx, ev.UserID)
	b.show(ctx, ev, msgCancelado, tecladoMenuPrincipal(u))
	return nil
}

// formularioAtual carrega o formulário para um clique de seleção.
func (b *Bot) formularioAtual(ctx context.Context, userID int64) (*wizard.State, error) {
	st, err := b.wizards.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, &wizard.ValidationError{Msg: "⚠️ Este formulário expirou. Comece novamente pelo menu."}
	}
	return st, nil
}

func selecaoDe(kind ActionKind) (ActionKind, ActionKind) {
	if kind == ActLembreteToggle || kind == ActLembreteConfirmar {
		return ActLembreteToggle, ActLembreteConfirmar
	}
	return ActCasoToggle, ActCasoConfirmar
}

func (b *Bot) selecaoToggle(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	st, err := b.formularioAtual(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if err := st.Toggle(a.ID); err != nil {
		return err
	}
	if err := b.wizards.Save(ctx, st); err != nil {
		return fmt.Errorf("salvar formulário: %w", err)
	}
	ativos, err := b.usuarios.Ativos(ctx)
	if err != nil {
		return err
	}
	toggle, confirmar := selecaoDe(a.Kind)
	kb := tecladoSelecao(ativos, st, toggle, confirmar)
	if ev.IsCallback() && ev.MessageID != 0 {
		if err := b.msg.Edit(ctx, ev.ChatID, ev.MessageID, selecaoTitulo(st), kb); err != nil && !telegram.IsMessageNotModified(err) {
			log.Debug().Err(err).Msg("bot: falha ao atualizar seleção")
		}
		return nil
	}
	b.send(ctx, ev.ChatID, selecaoTitulo(st), kb)
	return nil
}

func selecaoTitulo(st *wizard.State) string {
	return fmt.Sprintf("👥 Selecionados: %d\n\nMarque os usuários e confirme:", len(st.Selected()))
}

func (b *Bot) selecaoConfirmar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	st, err := b.formularioAtual(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if err := st.Confirm(); err != nil {
		return err
	}
	b.advance(ctx, ev, u, st)
	return nil
}
