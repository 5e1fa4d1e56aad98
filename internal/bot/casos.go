package bot

import (
	"context"
	"fmt"

	"github.com/diegocamara89/dcyber-bot/internal/casos"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
	"github.com/diegocamara89/dcyber-bot/internal/wizard"
)

func (b *Bot) casoNovo(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	return b.begin(ctx, ev, wizard.Begin(wizard.KindCaso, u.ID, b.clock()))
}

func (b *Bot) concluirCaso(ctx context.Context, ev Event, u *usuarios.Usuario, st *wizard.State) error {
	f := st.Caso
	c, err := b.casos.Criar(ctx, casos.NovoCaso{
		CriadorID:    u.ID,
		Titulo:       f.Titulo,
		Descricao:    f.Descricao,
		Observacoes:  f.Observacoes,
		Responsaveis: f.Responsaveis,
	})
	if err != nil {
		return err
	}

	nomes := b.nomes(ctx)
	b.show(ctx, ev, fmt.Sprintf("✅ <b>Caso #%d criado!</b>\n\n📌 %s\n📊 %s\n👥 Responsáveis: %s",
		c.ID, esc(c.Titulo), esc(c.Status), esc(nomesDe(c.Responsaveis, nomes))), tecladoCasos())

	for _, id := range c.Responsaveis {
		if id == u.ID {
			continue
		}
		b.send(ctx, id, fmt.Sprintf("📁 Você foi designado responsável pelo caso #%d: <b>%s</b>", c.ID, esc(c.Titulo)),
			telegram.Keyboard(row{btn("👁️ Ver caso", actID(ActCasoVer, c.ID))}))
	}
	return nil
}

func (b *Bot) casoListar(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	lista, err := b.casos.Abertos(ctx)
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoListaCasos("📋 <b>Casos ativos</b>", limitar(lista, 20), b.nomes(ctx)), tecladoEscolherCaso(lista))
	return nil
}

func (b *Bot) casoPesquisar(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	return b.begin(ctx, ev, wizard.Begin(wizard.KindPesquisaCaso, u.ID, b.clock()))
}

func (b *Bot) concluirPesquisaCaso(ctx context.Context, ev Event, termo string) error {
	lista, err := b.casos.Pesquisar(ctx, termo)
	if err != nil {
		return err
	}
	titulo := fmt.Sprintf("🔍 <b>Resultados para</b> \"%s\"", esc(termo))
	b.show(ctx, ev, textoListaCasos(titulo, lista, b.nomes(ctx)), tecladoEscolherCaso(lista))
	return nil
}

func (b *Bot) casoAjustar(ctx context.Context, ev Event, u *usuarios.Usuario, _ Action) error {
	lista, err := b.casos.Abertos(ctx)
	if err != nil {
		return err
	}
	if len(lista) == 0 {
		b.show(ctx, ev, "📭 Nenhum caso ativo para ajustar.", telegram.Keyboard(voltar(ActMenuCasos)))
		return nil
	}
	b.show(ctx, ev, "⚙️ Escolha o caso que deseja ajustar:", tecladoEscolherCaso(lista))
	return nil
}

func (b *Bot) casoVer(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	c, err := b.casos.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	b.show(ctx, ev, textoCaso(*c, b.nomes(ctx)), tecladoPainelCaso(*c))
	return nil
}

// casoAberto carrega o caso e recusa ajustes em casos encerrados.
func (b *Bot) casoAberto(ctx context.Context, id int64) (*casos.Caso, error) {
	c, err := b.casos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Aberto() {
		return nil, casos.ErrCasoFechado
	}
	return c, nil
}

func (b *Bot) casoEditar(campo string) handlerFunc {
	return func(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
		c, err := b.casoAberto(ctx, a.ID)
		if err != nil {
			return err
		}
		return b.begin(ctx, ev, wizard.BeginEdicao(u.ID, c.ID, campo, c.Responsaveis, b.clock()))
	}
}

func (b *Bot) concluirEdicao(ctx context.Context, ev Event, st *wizard.State) error {
	e := st.Edicao
	var err error
	switch e.Campo {
	case wizard.CampoObservacoes:
		err = b.casos.AlterarObservacoes(ctx, e.CasoID, e.Valor)
	case wizard.CampoResponsaveis:
		err = b.casos.DefinirResponsaveis(ctx, e.CasoID, e.Selecionados)
	default:
		status := ""
		if e.Valor != nil {
			status = *e.Valor
		}
		err = b.casos.AlterarStatus(ctx, e.CasoID, status)
	}
	if err != nil {
		return err
	}

	c, err := b.casos.Get(ctx, e.CasoID)
	if err != nil {
		return err
	}
	b.show(ctx, ev, "✅ Caso atualizado.\n\n"+textoCaso(*c, b.nomes(ctx)), tecladoPainelCaso(*c))
	return nil
}

func (b *Bot) casoEncerrar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	c, err := b.casoAberto(ctx, a.ID)
	if err != nil {
		return err
	}
	b.show(ctx, ev, fmt.Sprintf("❓ Confirma o encerramento do caso #%d <b>%s</b>?", c.ID, esc(c.Titulo)),
		tecladoConfirmar(actID(ActCasoConfEncerrar, c.ID), actID(ActCasoVer, c.ID)))
	return nil
}

func (b *Bot) casoConfEncerrar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	if err := b.casos.Encerrar(ctx, a.ID); err != nil {
		return err
	}
	b.show(ctx, ev, fmt.Sprintf("✅ Caso #%d encerrado.", a.ID), telegram.Keyboard(voltar(ActMenuCasos)))
	return nil
}

func (b *Bot) casoApagar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	c, err := b.casoAberto(ctx, a.ID)
	if err != nil {
		return err
	}
	b.show(ctx, ev, fmt.Sprintf("⚠️ Apagar o caso #%d <b>%s</b>? Ele deixará de aparecer nas listagens.", c.ID, esc(c.Titulo)),
		tecladoConfirmar(actID(ActCasoConfApagar, c.ID), actID(ActCasoVer, c.ID)))
	return nil
}

func (b *Bot) casoConfApagar(ctx context.Context, ev Event, u *usuarios.Usuario, a Action) error {
	if err := b.casos.Apagar(ctx, a.ID); err != nil {
		return err
	}
	b.show(ctx, ev, fmt.Sprintf("🗑️ Caso #%d apagado.", a.ID), telegram.Keyboard(voltar(ActMenuCasos)))
	return nil
}
