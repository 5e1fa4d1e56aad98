package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/diegocamara89/dcyber-bot/internal/estatisticas"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
	"github.com/diegocamara89/dcyber-bot/internal/wizard"
)

func (b *Bot) menuAdmin(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	pendentes, err := b.usuarios.Pendentes(ctx)
	if err != nil {
		return err
	}
	texto := "👑 <b>Administração</b>\n\nEscolha uma opção:"
	if dpc, err := b.usuarios.DPC(ctx); err == nil && dpc != nil {
		texto += fmt.Sprintf("\n\n🔰 DPC atual: %s", esc(dpc.Nome))
	}
	b.show(ctx, ev, texto, tecladoAdmin(len(pendentes)))
	return nil
}

func (b *Bot) adminPendentes(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	lista, err := b.usuarios.Pendentes(ctx)
	if err != nil {
		return err
	}
	if len(lista) == 0 {
		b.show(ctx, ev, "✅ Nenhum cadastro pendente.", telegram.Keyboard(voltar(ActMenuAdmin)))
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "⏳ <b>Cadastros pendentes</b> (%d)\n\n", len(lista))
	for _, p := range lista {
		fmt.Fprintf(&sb, "👤 %s · %s · <code>%d</code>\n", esc(p.Nome), esc(p.Handle()), p.ID)
	}
	b.show(ctx, ev, sb.String(), tecladoPendentesAdmin(lista))
	return nil
}

func (b *Bot) adminAprovar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	aprovado, err := b.usuarios.Aprovar(ctx, a.ID)
	if err != nil {
		return err
	}
	log.Info().Int64("user_id", aprovado.ID).Int64("admin_id", u.ID).Msg("bot: cadastro aprovado")
	b.show(ctx, ev, fmt.Sprintf("✅ %s foi aprovado.", esc(aprovado.Nome)), telegram.Keyboard(voltar(ActAdminPendentes)))
	b.send(ctx, aprovado.ID, "✅ Seu cadastro foi aprovado!\nUse /start para acessar o menu.", nil)
	return nil
}

func (b *Bot) adminRecusar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	recusado, err := b.usuarios.Recusar(ctx, a.ID)
	if err != nil {
		return err
	}
	log.Info().Int64("user_id", recusado.ID).Int64("admin_id", u.ID).Msg("bot: cadastro recusado")
	b.show(ctx, ev, fmt.Sprintf("❌ Cadastro de %s recusado.", esc(recusado.Nome)), telegram.Keyboard(voltar(ActAdminPendentes)))
	b.send(ctx, recusado.ID, "❌ Seu cadastro foi recusado.", nil)
	return nil
}

func (b *Bot) adminUsuarios(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	todos, err := b.usuarios.Todos(ctx)
	if err != nil {
		return err
	}
	b.show(ctx, ev, fmt.Sprintf("👥 <b>Usuários</b> (%d)\n\nEscolha um usuário:", len(todos)), tecladoUsuarios(todos))
	return nil
}

func (b *Bot) adminUsuario(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	alvo, err := b.usuarios.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoUsuario(*alvo), tecladoPainelUsuario(*alvo))
	return nil
}

func (b *Bot) adminNivel(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	nivel, err := usuarios.ParseNivel(a.Arg)
	if err != nil {
		return err
	}
	if err := b.usuarios.AlterarNivel(ctx, a.ID, nivel); err != nil {
		return err
	}
	log.Info().Int64("user_id", a.ID).Str("nivel", string(nivel)).Int64("admin_id", u.ID).Msg("bot: nível alterado")

	alvo, err := b.usuarios.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	b.show(ctx, ev, "✅ Nível atualizado.\n\n"+textoUsuario(*alvo), tecladoPainelUsuario(*alvo))
	if alvo.ID != u.ID {
		b.send(ctx, alvo.ID, fmt.Sprintf("%s Seu nível foi alterado para <b>%s</b>.", nivel.Emoji(), esc(string(nivel))), nil)
	}
	return nil
}

func (b *Bot) adminAtivacao(ativo bool) handlerFunc {
	return func(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
		var err error
		if ativo {
			err = b.usuarios.Ativar(ctx, a.ID)
		} else {
			err = b.usuarios.Desativar(ctx, a.ID)
		}
		if err != nil {
			return err
		}

		alvo, err := b.usuarios.Get(ctx, a.ID)
		if err != nil {
			return err
		}
		b.show(ctx, ev, textoUsuario(*alvo), tecladoPainelUsuario(*alvo))
		if ativo {
			b.send(ctx, alvo.ID, "✅ Seu acesso foi reativado. Use /start para abrir o menu.", nil)
		}
		return nil
	}
}

func (b *Bot) adminMensagem(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	if _, err := b.usuarios.Get(ctx, a.ID); err != nil {
		return err
	}
	return b.begin(ctx, ev, wizard.BeginMensagem(u.ID, wizard.DestinoUsuario, a.ID, b.clock()))
}

func (b *Bot) adminBroadcast(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	b.show(ctx, ev, "📢 <b>Enviar mensagem</b>\n\nPara quem deseja enviar?", tecladoDestinos())
	return nil
}

func (b *Bot) adminDestino(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	switch a.Arg {
	case wizard.DestinoTodos, wizard.DestinoUsers, wizard.DestinoDPC:
	default:
		return ErrAcaoDesconhecida
	}
	return b.begin(ctx, ev, wizard.BeginMensagem(u.ID, a.Arg, 0, b.clock()))
}

func (b *Bot) destinatarios(ctx context.Context, m *wizard.MensagemForm, remetente int64) ([]usuarios.Usuario, error) {
	var lista []usuarios.Usuario
	switch m.Destino {
	case wizard.DestinoUsuario:
		alvo, err := b.usuarios.Get(ctx, m.AlvoID)
		if err != nil {
			return nil, err
		}
		return []usuarios.Usuario{*alvo}, nil
	case wizard.DestinoDPC:
		dpc, err := b.usuarios.DPC(ctx)
		if err != nil {
			return nil, err
		}
		if dpc == nil {
			return nil, errSemDPC
		}
		return []usuarios.Usuario{*dpc}, nil
	case wizard.DestinoUsers:
		users, err := b.usuarios.PorNivel(ctx, usuarios.NivelUser)
		if err != nil {
			return nil, err
		}
		lista = users
	default:
		ativos, err := b.usuarios.Ativos(ctx)
		if err != nil {
			return nil, err
		}
		lista = ativos
	}

	out := lista[:0]
	for _, u := range lista {
		if u.ID != remetente {
			out = append(out, u)
		}
	}
	return out, nil
}

// concluirMensagem envia a mensagem administrativa e resume o resultado.
func (b *Bot) concluirMensagem(ctx context.Context, ev Event, u *usuarios.Usuario, st *wizard.State) error {
	m := st.Mensagem
	lista, err := b.destinatarios(ctx, m, u.ID)
	if err != nil {
		return err
	}

	cabecalho := "📢 <b>Mensagem da administração</b>"
	if m.Destino == wizard.DestinoUsuario {
		cabecalho = "✉️ <b>Mensagem do administrador</b>"
	}
	texto := cabecalho + "\n\n" + esc(m.Texto)

	envioID := uuid.NewString()
	enviadas, falhas := 0, 0
	for _, dest := range lista {
		if b.send(ctx, dest.ID, texto, nil) {
			enviadas++
		} else {
			falhas++
		}
	}
	log.Info().
		Str("envio_id", envioID).
		Str("destino", m.Destino).
		Int("enviadas", enviadas).
		Int("falhas", falhas).
		Msg("bot: mensagem administrativa enviada")

	b.show(ctx, ev, fmt.Sprintf("📢 <b>Envio concluído</b>\n\n✅ Enviadas: %d\n❌ Falhas: %d", enviadas, falhas), telegram.Keyboard(voltar(ActMenuAdmin)))
	return nil
}

func (b *Bot) adminDPC(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	return b.begin(ctx, ev, wizard.Begin(wizard.KindDPC, u.ID, b.clock()))
}

func (b *Bot) concluirDPC(ctx context.Context, ev Event, id int64) error {
	if err := b.usuarios.DefinirDPC(ctx, id); err != nil {
		return err
	}
	dpc, err := b.usuarios.Get(ctx, id)
	if err != nil {
		return err
	}
	log.Info().Int64("user_id", id).Msg("bot: dpc definido")
	b.show(ctx, ev, fmt.Sprintf("✅ %s agora é o DPC.", esc(dpc.Nome)), telegram.Keyboard(voltar(ActMenuAdmin)))
	if id != ev.UserID {
		b.send(ctx, id, "🔰 Você foi definido como DPC e passará a receber os documentos para assinatura.", nil)
	}
	return nil
}

func (b *Bot) adminRelatorio(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	b.show(ctx, ev, "📈 <b>Relatório de atividades</b>\n\nEscolha o período:", tecladoPeriodos())
	return nil
}

func (b *Bot) relatorio(ctx context.Context, arg string) (*estatisticas.Relatorio, error) {
	periodo, err := estatisticas.ParsePeriodo(arg)
	if err != nil {
		return nil, err
	}
	return b.stats.Relatorio(ctx, periodo)
}

func (b *Bot) adminPeriodo(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	r, err := b.relatorio(ctx, a.Arg)
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoRelatorio(r), tecladoRelatorio(r.Periodo))
	return nil
}

func (b *Bot) adminExportar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	r, err := b.relatorio(ctx, a.Arg)
	if err != nil {
		return err
	}
	data, err := r.XLSX()
	if err != nil {
		return fmt.Errorf("gerar planilha: %w", err)
	}
	caption := fmt.Sprintf("📈 Relatório de atividades · %s", esc(r.Periodo.Label()))
	if err := b.msg.SendDocument(ctx, ev.ChatID, r.NomeArquivo(), data, caption); err != nil {
		return fmt.Errorf("enviar planilha: %w", err)
	}
	return nil
}
