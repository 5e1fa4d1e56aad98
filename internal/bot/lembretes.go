package bot

import (
	"context"

	"github.com/diegocamara89/dcyber-bot/internal/lembretes"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
	"github.com/diegocamara89/dcyber-bot/internal/wizard"
)

func (b *Bot) lembreteNovo(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	return b.begin(ctx, ev, wizard.Begin(wizard.KindLembrete, u.ID, b.clock()))
}

func (b *Bot) lembreteModo(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	st, err := b.formularioAtual(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if err := st.ChooseModo(a.Arg); err != nil {
		return err
	}
	b.advance(ctx, ev, u, st)
	return nil
}

// concluirLembrete grava o lembrete; datas que já passaram são recusadas sem escrita.
func (b *Bot) concluirLembrete(ctx context.Context, ev Event, u *usuarios.Usuario, st *wizard.State) error {
	f := st.Lembrete
	l, err := b.lembretes.Criar(ctx, lembretes.NovoLembrete{
		CriadorID:    u.ID,
		Titulo:       f.Titulo,
		Quando:       f.Quando,
		Modo:         lembretes.Modo(f.Modo),
		Selecionados: f.Selecionados,
	})
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoLembreteCriado(l, b.nomes(ctx)), tecladoLembretes())
	return nil
}

func (b *Bot) lembreteListar(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	lista, err := b.lembretes.Listar(ctx, u.ID)
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoLembretes(lista, b.nomes(ctx)), telegram.Keyboard(voltar(ActMenuLembretes)))
	return nil
}

func (b *Bot) lembreteRemover(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	lista, err := b.lembretes.Listar(ctx, u.ID)
	if err != nil {
		return err
	}
	proprios := lista[:0]
	for _, l := range lista {
		if l.CriadorID == u.ID {
			proprios = append(proprios, l)
		}
	}
	if len(proprios) == 0 {
		b.show(ctx, ev, "📭 Você não criou lembretes ativos.", telegram.Keyboard(voltar(ActMenuLembretes)))
		return nil
	}
	b.show(ctx, ev, "🗑️ Escolha o lembrete que deseja apagar:", tecladoRemoverLembretes(proprios))
	return nil
}

func (b *Bot) lembreteApagar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	if err := b.lembretes.Apagar(ctx, a.ID, u.ID); err != nil {
		return err
	}
	b.show(ctx, ev, "✅ Lembrete apagado.", tecladoLembretes())
	return nil
}
