package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleAction(kind ActionKind) Action {
	switch catalog[kind] {
	case argID:
		return actID(kind, 42)
	case argWord:
		return actArg(kind, "todos")
	case argWordID:
		return Action{Kind: kind, Arg: "user", ID: 7}
	}
	return act(kind)
}

func TestParseActionRoundTrip(t *testing.T) {
	for kind := range catalog {
		want := sampleAction(kind)
		got, err := ParseAction(want.Token())
		require.NoError(t, err, "token %q", want.Token())
		require.Equal(t, want, got)
		require.LessOrEqual(t, len(want.Token()), 64, "callback_data acima do limite do Telegram")
	}
}

func TestParseActionRejectsUnknownTokens(t *testing.T) {
	tokens := []string{
		"",
		"caso",
		"assinar",
		"menu_inexistente",
		"caso_ver",
		"caso_ver_abc",
		"caso_ver_0",
		"caso_ver_-3",
		"caso_ver_1_2",
		"menu_principal_extra",
		"lembrete_modo",
		"admin_nivel_user",
		"admin_nivel__5",
		"assinatura_assinar_1e3",
	}
	for _, tok := range tokens {
		_, err := ParseAction(tok)
		require.True(t, errors.Is(err, ErrAcaoDesconhecida), "token %q deveria ser recusado", tok)
	}
}

func TestParseActionExamples(t *testing.T) {
	a, err := ParseAction("assinatura_assinar_12")
	require.NoError(t, err)
	require.Equal(t, ActAssinaturaAssinar, a.Kind)
	require.EqualValues(t, 12, a.ID)

	a, err = ParseAction("admin_nivel_dpc_99")
	require.NoError(t, err)
	require.Equal(t, ActAdminNivel, a.Kind)
	require.Equal(t, "dpc", a.Arg)
	require.EqualValues(t, 99, a.ID)

	a, err = ParseAction("cancelar")
	require.NoError(t, err)
	require.Equal(t, ActCancelar, a.Kind)
}

func TestEveryActionHasRoute(t *testing.T) {
	b := newFixture().bot
	for kind := range catalog {
		_, ok := b.routes[kind]
		require.True(t, ok, "ação %s sem handler", kind)
	}
	require.Len(t, b.routes, len(catalog))
}

func TestCommandsMapToRoutedActions(t *testing.T) {
	b := newFixture().bot
	for cmd, kind := range b.commands {
		_, ok := b.routes[kind]
		require.True(t, ok, "comando /%s aponta para ação sem rota", cmd)
	}
}
