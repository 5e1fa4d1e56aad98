package bot

import (
	"context"
	"fmt"

	"github.com/diegocamara89/dcyber-bot/internal/contatos"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
	"github.com/diegocamara89/dcyber-bot/internal/wizard"
)

func (b *Bot) contatoNovo(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	return b.begin(ctx, ev, wizard.Begin(wizard.KindContato, u.ID, b.clock()))
}

func (b *Bot) concluirContato(ctx context.Context, ev Event, u *usuarios.Usuario, st *wizard.State) error {
	f := st.Contato
	c, err := b.contatos.Criar(ctx, contatos.NovoContato{
		UserID:      u.ID,
		Nome:        f.Nome,
		Contato:     f.Contato,
		Observacoes: f.Observacoes,
	})
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoContatos("✅ <b>Contato salvo!</b>", []contatos.Contato{*c}), tecladoContatos())
	return nil
}

func (b *Bot) contatoListar(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	lista, err := b.contatos.Listar(ctx, u.ID)
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoContatos("📇 <b>Seus contatos</b>", lista), telegram.Keyboard(voltar(ActMenuContatos)))
	return nil
}

func (b *Bot) contatoPesquisar(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	return b.begin(ctx, ev, wizard.Begin(wizard.KindPesquisaContato, u.ID, b.clock()))
}

func (b *Bot) concluirPesquisaContato(ctx context.Context, ev Event, u *usuarios.Usuario, termo string) error {
	lista, err := b.contatos.Pesquisar(ctx, u.ID, termo)
	if err != nil {
		return err
	}
	titulo := fmt.Sprintf("🔍 <b>Resultados para</b> \"%s\"", esc(termo))
	b.show(ctx, ev, textoContatos(titulo, lista), telegram.Keyboard(voltar(ActMenuContatos)))
	return nil
}

func (b *Bot) contatoRemover(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	lista, err := b.contatos.Listar(ctx, u.ID)
	if err != nil {
		return err
	}
	if len(lista) == 0 {
		b.show(ctx, ev, "📭 Você não tem contatos para apagar.", telegram.Keyboard(voltar(ActMenuContatos)))
		return nil
	}
	b.show(ctx, ev, "🗑️ Escolha o contato que deseja apagar:", tecladoEscolherContato(lista, "🗑️", ActContatoApagar))
	return nil
}

func (b *Bot) contatoApagar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	if err := b.contatos.Apagar(ctx, a.ID, u.ID); err != nil {
		return err
	}
	b.show(ctx, ev, "✅ Contato apagado.", tecladoContatos())
	return nil
}

func (b *Bot) contatoEditar(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	lista, err := b.contatos.Listar(ctx, u.ID)
	if err != nil {
		return err
	}
	if len(lista) == 0 {
		b.show(ctx, ev, "📭 Você não tem contatos para editar.", telegram.Keyboard(voltar(ActMenuContatos)))
		return nil
	}
	b.show(ctx, ev, "✏️ Escolha o contato que deseja editar:", tecladoEscolherContato(lista, "✏️", ActContatoAlterar))
	return nil
}

// contatoAlterar só abre o formulário para contatos do próprio usuário.
func (b *Bot) contatoAlterar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	c, err := b.contatos.Get(ctx, a.ID, u.ID)
	if err != nil {
		return err
	}
	st := wizard.BeginEdicaoContato(u.ID, c.ID, b.clock())
	if err := b.wizards.Save(ctx, st); err != nil {
		return fmt.Errorf("salvar formulário: %w", err)
	}
	atual := textoContatos("📇 <b>Dados atuais</b>", []contatos.Contato{*c})
	b.show(ctx, ev, atual+"\n\n"+promptTexto(st), tecladoCancelar())
	return nil
}

func (b *Bot) concluirEdicaoContato(ctx context.Context, ev Event, u *usuarios.Usuario, st *wizard.State) error {
	f := st.Contato
	c, err := b.contatos.Atualizar(ctx, contatos.UpdateContatoInput{
		ID:               f.ID,
		UserID:           u.ID,
		Nome:             &f.Nome,
		Contato:          &f.Contato,
		Observacoes:      f.Observacoes,
		LimparObservacao: f.Observacoes == nil,
	})
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoContatos("✅ <b>Contato atualizado!</b>", []contatos.Contato{*c}), tecladoContatos())
	return nil
}
