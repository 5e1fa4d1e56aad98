package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
)

// start registra quem chega e mostra o menu ou o aviso de pendência.
func (b *Bot) start(ctx context.Context, ev Event) {
	created, err := b.usuarios.Registrar(ctx, ev.UserID, ev.Nome, ev.Username)
	if err != nil {
		log.Error().Err(err).Int64("user_id", ev.UserID).Msg("bot: falha ao registrar usuário")
		b.send(ctx, ev.ChatID, msgErroGenerico, nil)
		return
	}
	b.clearWizard(ctx, ev.UserID)
	b.stats.RegistrarAcesso(ctx, ev.UserID, "start")

	if created {
		log.Info().Int64("user_id", ev.UserID).Str("nome", ev.Nome).Msg("bot: novo cadastro pendente")
		for _, adminID := range b.adminIDs(ctx) {
			b.send(ctx, adminID, textoNovoCadastro(ev.Nome, ev.Username, ev.UserID), tecladoAprovacao(ev.UserID))
		}
	}

	u, err := b.usuarios.Get(ctx, ev.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", ev.UserID).Msg("bot: falha ao carregar usuário")
		b.send(ctx, ev.ChatID, msgErroGenerico, nil)
		return
	}
	if !u.Aprovado() {
		b.send(ctx, ev.ChatID, msgPendente, nil)
		return
	}
	b.send(ctx, ev.ChatID, textoMenuPrincipal(u), tecladoMenuPrincipal(u))
}

func (b *Bot) menuPrincipal(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	b.stats.RegistrarAcesso(ctx, u.ID, "menu")
	b.show(ctx, ev, textoMenuPrincipal(u), tecladoMenuPrincipal(u))
	return nil
}

func (b *Bot) menuAssinaturas(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	total, err := b.assinaturas.TotalPendentes(ctx)
	if err != nil {
		return err
	}
	b.show(ctx, ev, fmt.Sprintf("📝 <b>Assinaturas</b>\n\n⏳ Documentos pendentes: %d", total), tecladoAssinaturas())
	return nil
}

func (b *Bot) menuCasos(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	total, err := b.casos.TotalAbertos(ctx)
	if err != nil {
		return err
	}
	b.show(ctx, ev, fmt.Sprintf("📁 <b>Casos</b>\n\n🔵 Casos ativos: %d", total), tecladoCasos())
	return nil
}

func (b *Bot) menuContatos(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	b.show(ctx, ev, "📇 <b>Contatos</b>\n\nEscolha uma opção:", tecladoContatos())
	return nil
}

func (b *Bot) menuLembretes(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	b.show(ctx, ev, "⏰ <b>Lembretes</b>\n\nEscolha uma opção:", tecladoLembretes())
	return nil
}

func (b *Bot) menuStats(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	b.show(ctx, ev, "📊 <b>Estatísticas</b>\n\nEscolha uma opção:", tecladoStats(u.Admin()))
	return nil
}

func (b *Bot) menuAjuda(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	b.show(ctx, ev, "❓ <b>Ajuda</b>\n\nEscolha um tópico:", tecladoAjuda())
	return nil
}

func (b *Bot) ajudaTopico(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	texto, ok := ajudaTopicos[a.Arg]
	if !ok {
		return ErrAcaoDesconhecida
	}
	b.show(ctx, ev, texto, telegram.Keyboard(voltar(ActMenuAjuda)))
	return nil
}

func (b *Bot) statsGerais(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	g, err := b.stats.Gerais(ctx)
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoGerais(g), tecladoStats(u.Admin()))
	return nil
}

func (b *Bot) statsPessoais(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	p, err := b.stats.Pessoais(ctx, u.ID)
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoPessoais(p), tecladoStats(u.Admin()))
	return nil
}
