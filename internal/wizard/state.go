package wizard

import "time"

// Kind identifica qual formulário está em andamento.
type Kind string

const (
	KindCaso            Kind = "caso"
	KindLembrete        Kind = "lembrete"
	KindContato         Kind = "contato"
	KindMensagem        Kind = "mensagem"
	KindDocumento       Kind = "documento"
	KindDPC             Kind = "dpc"
	KindPesquisaContato Kind = "pesquisa_contato"
	KindPesquisaCaso    Kind = "pesquisa_caso"
	KindEdicaoCaso      Kind = "edicao_caso"
	KindEdicaoContato   Kind = "edicao_contato"
)

// Step é o cursor do próximo dado esperado.
type Step string

const (
	StepTitulo        Step = "titulo"
	StepDescricao     Step = "descricao"
	StepObservacoes   Step = "observacoes"
	StepResponsaveis  Step = "responsaveis"
	StepData          Step = "data"
	StepHora          Step = "hora"
	StepDestinatarios Step = "destinatarios"
	StepSelecionar    Step = "selecionar"
	StepNome          Step = "nome"
	StepContato       Step = "contato"
	StepTexto         Step = "texto"
	StepTermo         Step = "termo"
	StepID            Step = "id"
	StepValor         Step = "valor"
	StepPronto        Step = "pronto"
)

// SkipToken pula campos opcionais.
const SkipToken = "/pular"

// Campos editáveis de um caso existente.
const (
	CampoStatus       = "status"
	CampoObservacoes  = "observacoes"
	CampoResponsaveis = "responsaveis"
)

// Destinos da mensagem administrativa.
const (
	DestinoTodos   = "todos"
	DestinoUsers   = "users"
	DestinoDPC     = "dpc"
	DestinoUsuario = "usuario"
)

// Modos de destinatários de lembrete.
const (
	ModoEu         = "eu"
	ModoSelecionar = "selecionar"
	ModoTodos      = "todos"
)

type CasoForm struct {
	Titulo       string  `json:"titulo"`
	Descricao    string  `json:"descricao"`
	Observacoes  *string `json:"observacoes,omitempty"`
	Responsaveis []int64 `json:"responsaveis"`
}

type LembreteForm struct {
	Titulo       string    `json:"titulo"`
	Data         time.Time `json:"data"`
	Quando       time.Time `json:"quando"`
	Modo         string    `json:"modo,omitempty"`
	Selecionados []int64   `json:"selecionados"`
}

// ContatoForm serve ao cadastro e à edição; ID só é preenchido na edição.
type ContatoForm struct {
	ID          int64   `json:"id,omitempty"`
	Nome        string  `json:"nome"`
	Contato     string  `json:"contato"`
	Observacoes *string `json:"observacoes,omitempty"`
}

type MensagemForm struct {
	Destino string `json:"destino"`
	AlvoID  int64  `json:"alvo_id,omitempty"`
	Texto   string `json:"texto"`
}

type EdicaoForm struct {
	CasoID       int64   `json:"caso_id"`
	Campo        string  `json:"campo"`
	Valor        *string `json:"valor,omitempty"`
	Selecionados []int64 `json:"selecionados"`
}

// State é o formulário em andamento de um usuário. Kind define qual
// payload está preenchido; os demais ficam nil.
type State struct {
	Kind      Kind      `json:"kind"`
	Step      Step      `json:"step"`
	UserID    int64     `json:"user_id"`
	StartedAt time.Time `json:"started_at"`

	Caso     *CasoForm     `json:"caso,omitempty"`
	Lembrete *LembreteForm `json:"lembrete,omitempty"`
	Contato  *ContatoForm  `json:"contato,omitempty"`
	Mensagem *MensagemForm `json:"mensagem,omitempty"`
	Edicao   *EdicaoForm   `json:"edicao,omitempty"`
	Texto    string        `json:"texto,omitempty"`
	ID       int64         `json:"id,omitempty"`
}

// Pronto indica que todos os dados foram coletados.
func (s *State) Pronto() bool {
	return s.Step == StepPronto
}

// Clone copia o estado sem compartilhar formulários nem listas.
func (s *State) Clone() *State {
	cp := *s
	if s.Caso != nil {
		c := *s.Caso
		c.Observacoes = cloneStr(c.Observacoes)
		c.Responsaveis = append([]int64(nil), c.Responsaveis...)
		cp.Caso = &c
	}
	if s.Lembrete != nil {
		l := *s.Lembrete
		l.Selecionados = append([]int64(nil), l.Selecionados...)
		cp.Lembrete = &l
	}
	if s.Contato != nil {
		c := *s.Contato
		c.Observacoes = cloneStr(c.Observacoes)
		cp.Contato = &c
	}
	if s.Mensagem != nil {
		m := *s.Mensagem
		cp.Mensagem = &m
	}
	if s.Edicao != nil {
		e := *s.Edicao
		e.Valor = cloneStr(e.Valor)
		e.Selecionados = append([]int64(nil), e.Selecionados...)
		cp.Edicao = &e
	}
	return &cp
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
