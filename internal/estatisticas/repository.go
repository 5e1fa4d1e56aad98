package estatisticas

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diegocamara89/dcyber-bot/internal/db"
)

const dbTimeout = 5 * time.Second

// Repository lê e grava contadores, ações e acessos.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Incrementar(ctx context.Context, tipo string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO contadores_permanentes (tipo, total, ultima_atualizacao)
		VALUES ($1, 1, now())
		ON CONFLICT (tipo) DO UPDATE
		SET total = contadores_permanentes.total + 1, ultima_atualizacao = now()
	`, tipo)
	return err
}

// RegistrarAcao grava a ação; a primeira ação de um usuário conta como novo usuário.
func (r *Repository) RegistrarAcao(ctx context.Context, userID int64, acao string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var first bool
		if err := tx.QueryRow(ctx, `SELECT NOT EXISTS (SELECT 1 FROM acoes_usuarios WHERE user_id = $1)`, userID).Scan(&first); err != nil {
			return err
		}
		if first {
			if _, err := tx.Exec(ctx, `
				UPDATE contadores_permanentes SET total = total + 1, ultima_atualizacao = now()
				WHERE tipo = 'usuarios'
			`); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `INSERT INTO acoes_usuarios (user_id, tipo_acao) VALUES ($1, $2)`, userID, acao)
		return err
	})
}

func (r *Repository) RegistrarAcesso(ctx context.Context, userID int64, tipo string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `INSERT INTO user_acessos (user_id, tipo_acesso) VALUES ($1, $2)`, userID, tipo)
	return err
}

// Gerais consolida contadores permanentes e números do momento.
func (r *Repository) Gerais(ctx context.Context, inicioDia time.Time) (*Gerais, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT tipo, total FROM contadores_permanentes`)
	if err != nil {
		return nil, err
	}
	counters := map[string]int{}
	for rows.Next() {
		var tipo string
		var total int
		if err := rows.Scan(&tipo, &total); err != nil {
			rows.Close()
			return nil, err
		}
		counters[tipo] = total
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	g := &Gerais{
		Usuarios:   counters[ContadorUsuarios],
		Documentos: counters[ContadorDocumentos],
		Casos:      counters[ContadorCasos],
		Lembretes:  counters[ContadorLembretes],
		Contatos:   counters[ContadorContatos],
	}

	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(DISTINCT user_id) FROM user_acessos WHERE data_acesso >= $1),
			(SELECT COUNT(*) FROM assinaturas WHERE ativo = TRUE),
			(SELECT COUNT(*) FROM casos WHERE situacao = 'aberto')
	`, inicioDia).Scan(&g.UsuariosAtivosHoje, &g.DocumentosPendentes, &g.CasosAtivos)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Repository) Pessoais(ctx context.Context, userID int64) (*Pessoais, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT tipo_acao, COUNT(*) FROM acoes_usuarios WHERE user_id = $1 GROUP BY tipo_acao
	`, userID)
	if err != nil {
		return nil, err
	}
	p := &Pessoais{Acoes: map[string]int{}}
	for rows.Next() {
		var acao string
		var total int
		if err := rows.Scan(&acao, &total); err != nil {
			rows.Close()
			return nil, err
		}
		p.Acoes[acao] = total
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), MAX(data_acesso) FROM user_acessos WHERE user_id = $1
	`, userID).Scan(&p.TotalAcessos, &p.UltimoAcesso)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return p, nil
}

// Relatorio agrupa acessos e assinaturas por usuário e dia no fuso informado.
func (r *Repository) Relatorio(ctx context.Context, inicio, fim time.Time, tz string) ([]AcessoDia, []AssinaturaDia, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(NULLIF(u.nome, ''), u.username, u.user_id::text) AS nome,
		       u.nivel,
		       (a.data_acesso AT TIME ZONE $3)::date AS dia,
		       MIN(a.data_acesso), MAX(a.data_acesso), COUNT(*)
		FROM user_acessos a
		JOIN usuarios u ON u.user_id = a.user_id
		WHERE a.data_acesso BETWEEN $1 AND $2
		GROUP BY 1, 2, 3
		ORDER BY dia DESC, nome
	`, inicio, fim, tz)
	if err != nil {
		return nil, nil, err
	}
	acessos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AcessoDia, error) {
		var a AcessoDia
		err := row.Scan(&a.Nome, &a.Nivel, &a.Dia, &a.Primeiro, &a.Ultimo, &a.Total)
		return a, err
	})
	if err != nil {
		return nil, nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT COALESCE(NULLIF(u.nome, ''), u.username, u.user_id::text) AS nome,
		       (a.data_criacao AT TIME ZONE $3)::date AS dia,
		       COUNT(*)
		FROM assinaturas a
		JOIN usuarios u ON u.user_id = a.user_id
		WHERE a.data_criacao BETWEEN $1 AND $2
		GROUP BY 1, 2
		ORDER BY dia DESC, nome
	`, inicio, fim, tz)
	if err != nil {
		return nil, nil, err
	}
	assinaturas, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AssinaturaDia, error) {
		var a AssinaturaDia
		err := row.Scan(&a.Nome, &a.Dia, &a.Total)
		return a, err
	})
	if err != nil {
		return nil, nil, err
	}
	return acessos, assinaturas, nil
}
