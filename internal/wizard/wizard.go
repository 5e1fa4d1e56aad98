package wizard

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	MaxTitulo   = 100
	maxMensagem = 3500
)

// ValidationError carrega o texto de nova tentativa mostrado ao usuário.
// O estado não avança quando ela é retornada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation informa se err é falha de validação de entrada.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Begin inicia um formulário limpo, descartando qualquer estado anterior.
func Begin(kind Kind, userID int64, now time.Time) *State {
	s := &State{Kind: kind, UserID: userID, StartedAt: now}
	switch kind {
	case KindCaso:
		s.Caso = &CasoForm{}
		s.Step = StepTitulo
	case KindLembrete:
		s.Lembrete = &LembreteForm{}
		s.Step = StepTitulo
	case KindContato, KindEdicaoContato:
		s.Contato = &ContatoForm{}
		s.Step = StepNome
	case KindMensagem:
		s.Mensagem = &MensagemForm{Destino: DestinoTodos}
		s.Step = StepTexto
	case KindDocumento:
		s.Step = StepTexto
	case KindDPC:
		s.Step = StepID
	case KindPesquisaContato, KindPesquisaCaso:
		s.Step = StepTermo
	case KindEdicaoCaso:
		s.Edicao = &EdicaoForm{Campo: CampoStatus}
		s.Step = StepValor
	}
	return s
}

// BeginMensagem inicia o envio administrativo para o destino escolhido.
func BeginMensagem(userID int64, destino string, alvoID int64, now time.Time) *State {
	s := Begin(KindMensagem, userID, now)
	s.Mensagem.Destino = destino
	s.Mensagem.AlvoID = alvoID
	return s
}

// BeginEdicao inicia a alteração de um campo de caso. Para responsáveis o
// conjunto atual vem pré-selecionado.
func BeginEdicao(userID, casoID int64, campo string, atuais []int64, now time.Time) *State {
	s := Begin(KindEdicaoCaso, userID, now)
	s.Edicao.CasoID = casoID
	s.Edicao.Campo = campo
	if campo == CampoResponsaveis {
		s.Edicao.Selecionados = append([]int64(nil), atuais...)
		s.Step = StepResponsaveis
	}
	return s
}

// BeginEdicaoContato regrava nome, contato e observações de um contato existente.
func BeginEdicaoContato(userID, contatoID int64, now time.Time) *State {
	s := Begin(KindEdicaoContato, userID, now)
	s.Contato.ID = contatoID
	return s
}

// Accept valida o texto recebido para o passo atual e avança o cursor.
func (s *State) Accept(raw string, now time.Time) error {
	text := strings.TrimSpace(raw)

	switch s.Step {
	case StepTitulo:
		if err := validTitulo(text); err != nil {
			return err
		}
		if s.Kind == KindLembrete {
			s.Lembrete.Titulo = text
			s.Step = StepData
			return nil
		}
		s.Caso.Titulo = text
		s.Step = StepDescricao

	case StepDescricao:
		if text == "" {
			return invalid("❌ A descrição não pode ficar vazia. Digite a descrição do caso:")
		}
		s.Caso.Descricao = text
		s.Step = StepObservacoes

	case StepObservacoes:
		obs := optional(text)
		if s.Contato != nil {
			s.Contato.Observacoes = obs
			s.Step = StepPronto
			return nil
		}
		s.Caso.Observacoes = obs
		s.Caso.Responsaveis = []int64{s.UserID}
		s.Step = StepResponsaveis

	case StepData:
		data, err := parseData(text, now)
		if err != nil {
			return err
		}
		s.Lembrete.Data = data
		s.Step = StepHora

	case StepHora:
		quando, err := parseHora(text, s.Lembrete.Data, now)
		if err != nil {
			return err
		}
		s.Lembrete.Quando = quando
		s.Step = StepDestinatarios

	case StepNome:
		lines := splitLines(text)
		if len(lines) >= 2 {
			if err := validNome(lines[0]); err != nil {
				return err
			}
			s.Contato.Nome = lines[0]
			s.Contato.Contato = lines[1]
			if len(lines) > 2 {
				obs := strings.Join(lines[2:], " ")
				s.Contato.Observacoes = &obs
			}
			s.Step = StepPronto
			return nil
		}
		if err := validNome(text); err != nil {
			return err
		}
		s.Contato.Nome = text
		s.Step = StepContato

	case StepContato:
		if text == "" {
			return invalid("❌ Informe telefone, e-mail ou outro meio de contato:")
		}
		s.Contato.Contato = text
		s.Step = StepObservacoes

	case StepTexto:
		if text == "" {
			return invalid("❌ A mensagem não pode ficar vazia. Digite novamente:")
		}
		if s.Kind == KindMensagem {
			if len([]rune(text)) > maxMensagem {
				return invalid("❌ Mensagem muito longa. Resuma em até 3500 caracteres:")
			}
			s.Mensagem.Texto = text
		} else {
			s.Texto = text
		}
		s.Step = StepPronto

	case StepTermo:
		if text == "" {
			return invalid("❌ Digite um termo para pesquisar:")
		}
		s.Texto = text
		s.Step = StepPronto

	case StepID:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil || id <= 0 {
			return invalid("❌ ID inválido. Envie apenas números:")
		}
		s.ID = id
		s.Step = StepPronto

	case StepValor:
		if s.Edicao.Campo == CampoObservacoes {
			s.Edicao.Valor = optional(text)
			s.Step = StepPronto
			return nil
		}
		if err := validTitulo(text); err != nil {
			return invalid("❌ Status inválido. Use até 100 caracteres:")
		}
		s.Edicao.Valor = &text
		s.Step = StepPronto

	case StepResponsaveis, StepDestinatarios, StepSelecionar:
		return invalid("👆 Use os botões acima para continuar.")

	default:
		return invalid("Nenhuma informação pendente neste formulário.")
	}
	return nil
}

// Toggle marca ou desmarca um usuário no passo de seleção.
func (s *State) Toggle(id int64) error {
	set := s.selection()
	if set == nil {
		return invalid("Esta seleção não está mais disponível.")
	}
	for i, v := range *set {
		if v == id {
			*set = append((*set)[:i], (*set)[i+1:]...)
			return nil
		}
	}
	*set = append(*set, id)
	return nil
}

// Selected devolve o conjunto marcado no passo atual.
func (s *State) Selected() []int64 {
	if set := s.selection(); set != nil {
		return *set
	}
	return nil
}

// IsSelected informa se o id está marcado.
func (s *State) IsSelected(id int64) bool {
	for _, v := range s.Selected() {
		if v == id {
			return true
		}
	}
	return false
}

func (s *State) selection() *[]int64 {
	switch {
	case s.Step == StepResponsaveis && s.Kind == KindCaso:
		return &s.Caso.Responsaveis
	case s.Step == StepResponsaveis && s.Kind == KindEdicaoCaso:
		return &s.Edicao.Selecionados
	case s.Step == StepSelecionar && s.Kind == KindLembrete:
		return &s.Lembrete.Selecionados
	}
	return nil
}

// Confirm fecha um passo de seleção; exige ao menos um marcado.
func (s *State) Confirm() error {
	set := s.selection()
	if set == nil {
		return invalid("Esta seleção não está mais disponível.")
	}
	if len(*set) == 0 {
		return invalid("⚠️ Selecione pelo menos um usuário.")
	}
	s.Step = StepPronto
	return nil
}

// ChooseModo define os destinatários de um lembrete.
func (s *State) ChooseModo(modo string) error {
	if s.Kind != KindLembrete || s.Step != StepDestinatarios {
		return invalid("Esta seleção não está mais disponível.")
	}
	s.Lembrete.Modo = modo
	switch modo {
	case ModoEu:
		s.Lembrete.Selecionados = []int64{s.UserID}
		s.Step = StepPronto
	case ModoTodos:
		s.Lembrete.Selecionados = nil
		s.Step = StepPronto
	case ModoSelecionar:
		s.Lembrete.Selecionados = nil
		s.Step = StepSelecionar
	default:
		return invalid("Opção inválida.")
	}
	return nil
}

func validTitulo(text string) error {
	if text == "" {
		return invalid("❌ O título não pode ficar vazio. Digite o título:")
	}
	if len([]rune(text)) > MaxTitulo {
		return invalid("❌ Título muito longo. Use no máximo 100 caracteres:")
	}
	return nil
}

func validNome(text string) error {
	if text == "" || len([]rune(text)) > MaxTitulo {
		return invalid("❌ Nome inválido. Use até 100 caracteres:")
	}
	return nil
}

func optional(text string) *string {
	if text == "" || strings.EqualFold(text, SkipToken) {
		return nil
	}
	return &text
}

// layoutsData aceita dia e mês com ou sem zero à esquerda.
var layoutsData = []string{"02/01/2006", "2/1/2006"}

func parseData(text string, now time.Time) (time.Time, error) {
	var (
		data time.Time
		err  error
	)
	for _, layout := range layoutsData {
		data, err = time.ParseInLocation(layout, text, now.Location())
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, invalid("❌ Data inválida. Use o formato DD/MM/AAAA:")
	}
	hoje := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if data.Before(hoje) {
		return time.Time{}, invalid("❌ A data não pode estar no passado. Digite outra data:")
	}
	return data, nil
}

func parseHora(text string, data, now time.Time) (time.Time, error) {
	h, err := time.Parse("15:04", text)
	if err != nil {
		return time.Time{}, invalid("❌ Horário inválido. Use o formato HH:MM:")
	}
	quando := time.Date(data.Year(), data.Month(), data.Day(), h.Hour(), h.Minute(), 0, 0, now.Location())
	if quando.Before(now) {
		return time.Time{}, invalid("❌ Este horário já passou. Digite um horário futuro:")
	}
	return quando, nil
}

func splitLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
