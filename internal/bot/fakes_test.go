package bot

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diegocamara89/dcyber-bot/internal/assinaturas"
	"github.com/diegocamara89/dcyber-bot/internal/casos"
	"github.com/diegocamara89/dcyber-bot/internal/contatos"
	"github.com/diegocamara89/dcyber-bot/internal/estatisticas"
	"github.com/diegocamara89/dcyber-bot/internal/lembretes"
	"github.com/diegocamara89/dcyber-bot/internal/service"
	"github.com/diegocamara89/dcyber-bot/internal/telegram"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
	"github.com/diegocamara89/dcyber-bot/internal/wizard"
)

type sent struct {
	ChatID int64
	Text   string
	Markup *telegram.InlineKeyboardMarkup
}

// recorder guarda tudo que o bot tentou enviar.
type recorder struct {
	mu      sync.Mutex
	sent    []sent
	answers []string
	docs    []string
	failFor map[int64]bool
}

func (r *recorder) Send(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[chatID] {
		return nil, &telegram.APIError{Code: 403, Description: "Forbidden: bot was blocked by the user"}
	}
	r.sent = append(r.sent, sent{ChatID: chatID, Text: text, Markup: markup})
	return &telegram.Message{MessageID: len(r.sent), Chat: telegram.Chat{ID: chatID}}, nil
}

func (r *recorder) Edit(ctx context.Context, chatID int64, messageID int, text string, markup *telegram.InlineKeyboardMarkup) error {
	_, err := r.Send(ctx, chatID, text, markup)
	return err
}

func (r *recorder) Answer(ctx context.Context, callbackID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, text)
	return nil
}

func (r *recorder) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, filename)
	return nil
}

func (r *recorder) to(chatID int64) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, s := range r.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

func (r *recorder) last(chatID int64) sent {
	msgs := r.to(chatID)
	if len(msgs) == 0 {
		return sent{}
	}
	return msgs[len(msgs)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
	r.answers = nil
}

// callbacks lista os dados de todos os botões de um teclado.
func callbacks(m *telegram.InlineKeyboardMarkup) []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			out = append(out, b.CallbackData)
		}
	}
	return out
}

type memUsuarios struct {
	mu    sync.Mutex
	users map[int64]*usuarios.Usuario
}

func newMemUsuarios(users ...usuarios.Usuario) *memUsuarios {
	m := &memUsuarios{users: map[int64]*usuarios.Usuario{}}
	for i := range users {
		u := users[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *memUsuarios) Register(ctx context.Context, id int64, nome string, username *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; ok {
		return false, nil
	}
	m.users[id] = &usuarios.Usuario{ID: id, Nome: nome, Username: username, Nivel: usuarios.NivelPendente}
	return true, nil
}

func (m *memUsuarios) Get(ctx context.Context, id int64) (*usuarios.Usuario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, usuarios.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsuarios) filter(fn func(usuarios.Usuario) bool) []usuarios.Usuario {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []usuarios.Usuario
	for _, u := range m.users {
		if fn(*u) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memUsuarios) ListPendentes(ctx context.Context) ([]usuarios.Usuario, error) {
	return m.filter(func(u usuarios.Usuario) bool { return u.Nivel == usuarios.NivelPendente }), nil
}

func (m *memUsuarios) ListAtivos(ctx context.Context) ([]usuarios.Usuario, error) {
	return m.filter(func(u usuarios.Usuario) bool { return u.Ativo && u.Nivel != usuarios.NivelPendente }), nil
}

func (m *memUsuarios) ListAll(ctx context.Context) ([]usuarios.Usuario, error) {
	return m.filter(func(usuarios.Usuario) bool { return true }), nil
}

func (m *memUsuarios) ListByNivel(ctx context.Context, nivel usuarios.Nivel) ([]usuarios.Usuario, error) {
	return m.filter(func(u usuarios.Usuario) bool { return u.Nivel == nivel && u.Ativo }), nil
}

func (m *memUsuarios) Aprovar(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.Nivel != usuarios.NivelPendente {
		return usuarios.ErrNotFound
	}
	u.Nivel = usuarios.NivelUser
	u.Ativo = true
	return nil
}

func (m *memUsuarios) Recusar(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.Nivel != usuarios.NivelPendente {
		return usuarios.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUsuarios) SetAtivo(ctx context.Context, id int64, ativo bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return usuarios.ErrNotFound
	}
	u.Ativo = ativo
	return nil
}

func (m *memUsuarios) SetNivel(ctx context.Context, id int64, nivel usuarios.Nivel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return usuarios.ErrNotFound
	}
	u.Nivel = nivel
	u.Ativo = true
	return nil
}

func (m *memUsuarios) DefinirDPC(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.users[id]
	if !ok {
		return usuarios.ErrNotFound
	}
	for _, u := range m.users {
		if u.Nivel == usuarios.NivelDPC && u.ID != id {
			u.Nivel = usuarios.NivelUser
		}
	}
	target.Nivel = usuarios.NivelDPC
	target.Ativo = true
	return nil
}

func (m *memUsuarios) ObterDPC(ctx context.Context) (*usuarios.Usuario, error) {
	for _, u := range m.filter(func(u usuarios.Usuario) bool { return u.Nivel == usuarios.NivelDPC && u.Ativo }) {
		return &u, nil
	}
	return nil, usuarios.ErrNotFound
}

func (m *memUsuarios) SeedAdmin(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &usuarios.Usuario{ID: id, Nome: "Administrador", Nivel: usuarios.NivelAdmin, Ativo: true}
	return nil
}

// memAssinaturas numera a fila como o repositório: maior ativa + 1.
type memAssinaturas struct {
	mu    sync.Mutex
	rows  []*assinaturas.Assinatura
	maxID int64
}

func (m *memAssinaturas) next() int {
	max := 0
	for _, a := range m.rows {
		if a.Ativo && a.Sequencia > max {
			max = a.Sequencia
		}
	}
	return max + 1
}

func (m *memAssinaturas) Create(ctx context.Context, userID int64, username, documento string) (*assinaturas.Assinatura, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxID++
	a := &assinaturas.Assinatura{ID: m.maxID, UserID: userID, Username: username, Documento: documento, Sequencia: m.next(), Ativo: true}
	m.rows = append(m.rows, a)
	cp := *a
	return &cp, nil
}

func (m *memAssinaturas) ListAtivas(ctx context.Context, limit int) ([]assinaturas.Assinatura, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []assinaturas.Assinatura
	for _, a := range m.rows {
		if a.Ativo {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequencia < out[j].Sequencia })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memAssinaturas) CountAtivas(ctx context.Context) (int, error) {
	l, _ := m.ListAtivas(ctx, 0)
	return len(l), nil
}

func (m *memAssinaturas) Assinar(ctx context.Context, sequencia int, signerID int64) (*assinaturas.Assinatura, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.Ativo && a.Sequencia == sequencia {
			now := time.Now()
			a.Ativo = false
			a.AssinadoEm = &now
			a.AssinadoPor = &signerID
			cp := *a
			return &cp, nil
		}
	}
	return nil, assinaturas.ErrNotFound
}

type memCasos struct {
	mu        sync.Mutex
	rows      map[int64]*casos.Caso
	maxID     int64
	createErr error
}

func newMemCasos() *memCasos {
	return &memCasos{rows: map[int64]*casos.Caso{}}
}

func (m *memCasos) Create(ctx context.Context, in casos.NovoCaso) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.maxID++
	m.rows[m.maxID] = &casos.Caso{
		ID: m.maxID, CriadorID: in.CriadorID, Titulo: in.Titulo, Descricao: in.Descricao,
		Observacoes: in.Observacoes, Status: casos.StatusInicial, Situacao: casos.SituacaoAberto,
		Responsaveis: append([]int64(nil), in.Responsaveis...),
	}
	return m.maxID, nil
}

func (m *memCasos) Get(ctx context.Context, id int64) (*casos.Caso, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.Situacao == casos.SituacaoApagado {
		return nil, casos.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCasos) list(fn func(casos.Caso) bool) []casos.Caso {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []casos.Caso
	for _, c := range m.rows {
		if fn(*c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memCasos) ListAbertos(ctx context.Context) ([]casos.Caso, error) {
	return m.list(func(c casos.Caso) bool { return c.Aberto() }), nil
}

func (m *memCasos) Search(ctx context.Context, termo string) ([]casos.Caso, error) {
	termo = strings.ToLower(termo)
	return m.list(func(c casos.Caso) bool {
		return c.Situacao != casos.SituacaoApagado &&
			(strings.Contains(strings.ToLower(c.Titulo), termo) || strings.Contains(strings.ToLower(c.Descricao), termo))
	}), nil
}

func (m *memCasos) CountAbertos(ctx context.Context) (int, error) {
	l, _ := m.ListAbertos(ctx)
	return len(l), nil
}

func (m *memCasos) update(id int64, fn func(*casos.Caso)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.Situacao != casos.SituacaoAberto {
		return casos.ErrNotFound
	}
	fn(c)
	return nil
}

func (m *memCasos) UpdateStatus(ctx context.Context, id int64, status string) error {
	return m.update(id, func(c *casos.Caso) { c.Status = status })
}

func (m *memCasos) UpdateObservacoes(ctx context.Context, id int64, obs *string) error {
	return m.update(id, func(c *casos.Caso) { c.Observacoes = obs })
}

func (m *memCasos) SetResponsaveis(ctx context.Context, id int64, ids []int64) error {
	return m.update(id, func(c *casos.Caso) { c.Responsaveis = append([]int64(nil), ids...) })
}

func (m *memCasos) SetSituacao(ctx context.Context, id int64, situacao casos.Situacao, status *string) error {
	return m.update(id, func(c *casos.Caso) {
		c.Situacao = situacao
		if status != nil {
			c.Status = *status
		}
	})
}

type memContatos struct {
	mu    sync.Mutex
	rows  []*contatos.Contato
	maxID int64
}

func (m *memContatos) Create(ctx context.Context, in contatos.NovoContato) (*contatos.Contato, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxID++
	c := &contatos.Contato{ID: m.maxID, UserID: in.UserID, Nome: in.Nome, Contato: in.Contato, Observacoes: in.Observacoes, Ativo: true}
	m.rows = append(m.rows, c)
	cp := *c
	return &cp, nil
}

func (m *memContatos) Get(ctx context.Context, id, userID int64) (*contatos.Contato, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id && c.UserID == userID && c.Ativo {
			cp := *c
			return &cp, nil
		}
	}
	return nil, contatos.ErrNotFound
}

func (m *memContatos) List(ctx context.Context, userID int64, termo string) ([]contatos.Contato, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	termo = strings.ToLower(termo)
	var out []contatos.Contato
	for _, c := range m.rows {
		if c.UserID != userID || !c.Ativo {
			continue
		}
		if termo != "" && !strings.Contains(strings.ToLower(c.Nome+" "+c.Contato), termo) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *memContatos) Update(ctx context.Context, input contatos.UpdateContatoInput) (*contatos.Contato, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID != input.ID || c.UserID != input.UserID || !c.Ativo {
			continue
		}
		if input.Nome != nil {
			c.Nome = *input.Nome
		}
		if input.Contato != nil {
			c.Contato = *input.Contato
		}
		if input.Observacoes != nil {
			c.Observacoes = ptr(*input.Observacoes)
		} else if input.LimparObservacao {
			c.Observacoes = nil
		}
		cp := *c
		return &cp, nil
	}
	return nil, contatos.ErrNotFound
}

func (m *memContatos) SoftDelete(ctx context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id && c.UserID == userID && c.Ativo {
			c.Ativo = false
			return nil
		}
	}
	return contatos.ErrNotFound
}

type memLembretes struct {
	mu    sync.Mutex
	rows  map[int64]*lembretes.Lembrete
	maxID int64
	users *memUsuarios
}

func newMemLembretes(users *memUsuarios) *memLembretes {
	return &memLembretes{rows: map[int64]*lembretes.Lembrete{}, users: users}
}

func (m *memLembretes) Create(ctx context.Context, in lembretes.NovoLembrete) (*lembretes.Lembrete, error) {
	dest := in.Selecionados
	if in.Modo == lembretes.ModoTodos {
		ativos, _ := m.users.ListAtivos(ctx)
		for _, u := range ativos {
			dest = append(dest, u.ID)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxID++
	l := &lembretes.Lembrete{ID: m.maxID, CriadorID: in.CriadorID, Titulo: in.Titulo, Quando: in.Quando, Ativo: true, Destinatarios: dest}
	m.rows[l.ID] = l
	cp := *l
	return &cp, nil
}

func (m *memLembretes) Get(ctx context.Context, id int64) (*lembretes.Lembrete, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok || !l.Ativo {
		return nil, lembretes.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLembretes) ListForUser(ctx context.Context, userID int64) ([]lembretes.Lembrete, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []lembretes.Lembrete
	for _, l := range m.rows {
		if !l.Ativo {
			continue
		}
		keep := l.CriadorID == userID
		for _, d := range l.Destinatarios {
			keep = keep || d == userID
		}
		if keep {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLembretes) Deactivate(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return lembretes.ErrNotFound
	}
	l.Ativo = false
	return nil
}

func (m *memLembretes) CountPendentes(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *memLembretes) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memStats struct {
	mu       sync.Mutex
	acessos  []string
	acoes    map[int64]map[string]int
	contador map[string]int
}

func newMemStats() *memStats {
	return &memStats{acoes: map[int64]map[string]int{}, contador: map[string]int{}}
}

func (m *memStats) Incrementar(ctx context.Context, tipo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contador[tipo]++
	return nil
}

func (m *memStats) RegistrarAcao(ctx context.Context, userID int64, acao string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acoes[userID] == nil {
		m.acoes[userID] = map[string]int{}
	}
	m.acoes[userID][acao]++
	return nil
}

func (m *memStats) RegistrarAcesso(ctx context.Context, userID int64, tipo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acessos = append(m.acessos, tipo)
	return nil
}

func (m *memStats) Gerais(ctx context.Context, inicioDia time.Time) (*estatisticas.Gerais, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &estatisticas.Gerais{Documentos: m.contador[estatisticas.ContadorDocumentos], Casos: m.contador[estatisticas.ContadorCasos]}, nil
}

func (m *memStats) Pessoais(ctx context.Context, userID int64) (*estatisticas.Pessoais, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acoes := map[string]int{}
	for k, v := range m.acoes[userID] {
		acoes[k] = v
	}
	return &estatisticas.Pessoais{Acoes: acoes}, nil
}

func (m *memStats) Relatorio(ctx context.Context, inicio, fim time.Time, tz string) ([]estatisticas.AcessoDia, []estatisticas.AssinaturaDia, error) {
	return nil, nil, nil
}

const (
	adminID int64 = 1
	dpcID   int64 = 2
	userID  int64 = 3
)

type fixture struct {
	bot       *Bot
	msg       *recorder
	users     *memUsuarios
	fila      *memAssinaturas
	casos     *memCasos
	contatos  *memContatos
	lembretes *memLembretes
	stats     *memStats
	wizards   *wizard.MemoryStore
}

func ptr(s string) *string { return &s }

// newFixture monta o bot com admin, dpc e um usuário comum aprovados.
func newFixture(users ...usuarios.Usuario) *fixture {
	if len(users) == 0 {
		users = []usuarios.Usuario{
			{ID: adminID, Nome: "Administrador", Nivel: usuarios.NivelAdmin, Ativo: true},
			{ID: dpcID, Nome: "Doutora Paula", Nivel: usuarios.NivelDPC, Ativo: true},
			{ID: userID, Nome: "Carlos Lima", Username: ptr("carlos"), Nivel: usuarios.NivelUser, Ativo: true},
		}
	}
	logger := zerolog.Nop()
	f := &fixture{
		msg:      &recorder{failFor: map[int64]bool{}},
		users:    newMemUsuarios(users...),
		fila:     &memAssinaturas{},
		casos:    newMemCasos(),
		contatos: &memContatos{},
		stats:    newMemStats(),
		wizards:  wizard.NewMemoryStore(30 * time.Minute),
	}
	f.lembretes = newMemLembretes(f.users)

	statsSvc := estatisticas.NewService(f.stats, time.UTC, logger)
	usrSvc := usuarios.NewService(f.users)

	f.bot = New(Deps{
		Usuarios:    usrSvc,
		RBAC:        service.NewRBACService(usrSvc),
		Assinaturas: assinaturas.NewService(f.fila, statsSvc, logger),
		Casos:       casos.NewService(f.casos, statsSvc, logger),
		Contatos:    contatos.NewService(f.contatos, statsSvc, logger),
		Lembretes:   lembretes.NewService(f.lembretes, statsSvc, time.UTC, logger),
		Stats:       statsSvc,
		Wizards:     f.wizards,
		Messenger:   f.msg,
		AdminID:     adminID,
		Location:    time.UTC,
	})
	return f
}

func (f *fixture) text(from int64, text string) {
	msg := &telegram.Message{
		MessageID: 100,
		From:      &telegram.User{ID: from, FirstName: "Teste"},
		Chat:      telegram.Chat{ID: from},
		Text:      text,
	}
	f.bot.HandleUpdate(context.Background(), telegram.Update{UpdateID: 1, Message: msg})
}

func (f *fixture) click(from int64, data string) {
	cq := &telegram.CallbackQuery{
		ID:      "cb",
		From:    telegram.User{ID: from, FirstName: "Teste"},
		Message: &telegram.Message{MessageID: 200, Chat: telegram.Chat{ID: from}},
		Data:    data,
	}
	f.bot.HandleUpdate(context.Background(), telegram.Update{UpdateID: 2, CallbackQuery: cq})
}
