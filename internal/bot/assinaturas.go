package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/diegocamara89/dcyber-bot/internal/assinaturas"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
	"github.com/diegocamara89/dcyber-bot/internal/wizard"
)

// assinaturaNova exige um DPC definido antes de abrir o formulário.
func (b *Bot) assinaturaNova(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	dpc, err := b.usuarios.DPC(ctx)
	if err != nil {
		return err
	}
	if dpc == nil {
		return errSemDPC
	}
	return b.begin(ctx, ev, wizard.Begin(wizard.KindDocumento, u.ID, b.clock()))
}

func (b *Bot) concluirDocumentos(ctx context.Context, ev Event, u *usuarios.Usuario, texto string) error {
	handle := ""
	if u.Username != nil {
		handle = *u.Username
	}
	criadas, err := b.assinaturas.Solicitar(ctx, u.ID, handle, texto)
	if err != nil {
		if len(criadas) == 0 {
			return err
		}
		log.Error().Err(err).Int("criadas", len(criadas)).Int64("user_id", u.ID).Msg("bot: envio de documentos parcial")
	}

	b.send(ctx, ev.ChatID, textoResumoSolicitacao(criadas), tecladoAssinaturas())
	b.notificarDPC(ctx, criadas, u.Nome)
	return nil
}

// notificarDPC avisa o DPC de cada solicitação. Sem DPC ou com falha no
// envio, os administradores recebem o aviso no lugar.
func (b *Bot) notificarDPC(ctx context.Context, criadas []assinaturas.Assinatura, nome string) {
	dpc, err := b.usuarios.DPC(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("bot: falha ao consultar dpc")
	}

	for _, a := range criadas {
		motivo := "nenhum DPC definido"
		if dpc != nil {
			if b.send(ctx, dpc.ID, textoSolicitacaoDPC(a, nome), tecladoAssinar(a.Sequencia)) {
				continue
			}
			motivo = "falha ao enviar ao DPC"
		}
		for _, adminID := range b.adminIDs(ctx) {
			if dpc != nil && adminID == dpc.ID {
				continue
			}
			b.send(ctx, adminID, textoFallbackAdmin(a, nome, motivo), tecladoAssinar(a.Sequencia))
		}
	}
}

func (b *Bot) assinaturaListar(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	lista, err := b.assinaturas.Pendentes(ctx)
	if err != nil {
		return err
	}
	total, err := b.assinaturas.TotalPendentes(ctx)
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoPendentes(lista, total), tecladoPendentes(lista, u.PodeAssinar()))
	return nil
}

func (b *Bot) assinaturaAssinar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	assinada, err := b.assinaturas.Assinar(ctx, int(a.ID), u.ID)
	if err != nil {
		return err
	}
	b.show(ctx, ev, fmt.Sprintf("✅ Documento #%d assinado.\n📄 %s", assinada.Sequencia, esc(assinada.Documento)),
		telegram.Keyboard(row{btn("📋 Pendentes", act(ActAssinaturaListar))}))
	b.avisarSolicitante(ctx, *assinada, u)
	return nil
}

func (b *Bot) assinaturaTodas(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	assinadas, err := b.assinaturas.AssinarTodas(ctx, u.ID)
	if err != nil {
		return err
	}
	if len(assinadas) == 0 {
		b.show(ctx, ev, "📭 Nenhum documento pendente de assinatura.", telegram.Keyboard(voltar(ActMenuAssinaturas)))
		return nil
	}
	for _, a := range assinadas {
		b.avisarSolicitante(ctx, a, u)
	}
	b.show(ctx, ev, fmt.Sprintf("✅ %d documento(s) assinado(s).", len(assinadas)), telegram.Keyboard(voltar(ActMenuAssinaturas)))
	return nil
}

func (b *Bot) avisarSolicitante(ctx context.Context, a assinaturas.Assinatura, assinante *usuarios.Usuario) {
	if a.UserID == assinante.ID {
		return
	}
	b.send(ctx, a.UserID, fmt.Sprintf("✅ <b>Documento assinado</b>\n\n🔢 #%d\n📄 %s\n✍️ Por: %s",
		a.Sequencia, esc(a.Documento), esc(assinante.Nome)), nil)
}
