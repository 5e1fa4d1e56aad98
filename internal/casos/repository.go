package casos

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diegocamara89/dcyber-bot/internal/db"
)

const dbTimeout = 5 * time.Second

// Repository encapsula casos e responsáveis.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectCaso = `
	SELECT c.id, c.criador_id, c.titulo, c.descricao, c.observacoes, c.status, c.situacao,
	       COALESCE(array_agg(cr.user_id ORDER BY cr.user_id) FILTER (WHERE cr.user_id IS NOT NULL), '{}') AS responsaveis,
	       c.data_criacao, c.ultima_atualizacao
	FROM casos c
	LEFT JOIN caso_responsaveis cr ON cr.caso_id = c.id
`

// Create grava o caso e seus responsáveis atomicamente.
func (r *Repository) Create(ctx context.Context, in NovoCaso) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id int64
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO casos (criador_id, titulo, descricao, observacoes, status, situacao)
			VALUES ($1, $2, $3, $4, $5, 'aberto')
			RETURNING id
		`, in.CriadorID, in.Titulo, in.Descricao, in.Observacoes, StatusInicial).Scan(&id); err != nil {
			return err
		}
		return insertResponsaveis(ctx, tx, id, in.Responsaveis)
	})
	return id, err
}

func insertResponsaveis(ctx context.Context, tx pgx.Tx, casoID int64, ids []int64) error {
	for _, uid := range ids {
		if _, err := tx.Exec(ctx, `
			INSERT INTO caso_responsaveis (caso_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, casoID, uid); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Caso, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanCaso(r.pool.QueryRow(ctx, selectCaso+` WHERE c.id = $1 AND c.situacao <> 'apagado' GROUP BY c.id`, id))
}

func (r *Repository) ListAbertos(ctx context.Context) ([]Caso, error) {
	return r.list(ctx, selectCaso+` WHERE c.situacao = 'aberto' GROUP BY c.id ORDER BY c.data_criacao DESC`)
}

// Search procura em título, descrição e observações sem diferenciar caixa.
func (r *Repository) Search(ctx context.Context, termo string) ([]Caso, error) {
	return r.list(ctx, selectCaso+`
		WHERE c.situacao <> 'apagado'
		  AND (c.titulo ILIKE $1 ESCAPE '\' OR c.descricao ILIKE $1 ESCAPE '\'
		       OR COALESCE(c.observacoes, '') ILIKE $1 ESCAPE '\')
		GROUP BY c.id
		ORDER BY c.data_criacao DESC
		LIMIT 20
	`, db.ContainsPattern(termo))
}

func (r *Repository) CountAbertos(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM casos WHERE situacao = 'aberto'`).Scan(&total)
	return total, err
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Caso, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Caso
	for rows.Next() {
		c, err := scanCaso(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.exec(ctx, `
		UPDATE casos SET status = $2, ultima_atualizacao = now()
		WHERE id = $1 AND situacao = 'aberto'
	`, id, status)
}

func (r *Repository) UpdateObservacoes(ctx context.Context, id int64, obs *string) error {
	return r.exec(ctx, `
		UPDATE casos SET observacoes = $2, ultima_atualizacao = now()
		WHERE id = $1 AND situacao = 'aberto'
	`, id, obs)
}

// SetResponsaveis substitui o conjunto de responsáveis.
func (r *Repository) SetResponsaveis(ctx context.Context, id int64, ids []int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE casos SET ultima_atualizacao = now()
			WHERE id = $1 AND situacao = 'aberto'
		`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM caso_responsaveis WHERE caso_id = $1`, id); err != nil {
			return err
		}
		return insertResponsaveis(ctx, tx, id, ids)
	})
}

// SetSituacao encerra ou apaga. status nil mantém o rótulo atual.
func (r *Repository) SetSituacao(ctx context.Context, id int64, situacao Situacao, status *string) error {
	return r.exec(ctx, `
		UPDATE casos
		SET situacao = $2, status = COALESCE($3, status), ultima_atualizacao = now()
		WHERE id = $1 AND situacao = 'aberto'
	`, id, string(situacao), status)
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCaso(row pgx.Row) (*Caso, error) {
	var c Caso
	var situacao string
	if err := row.Scan(&c.ID, &c.CriadorID, &c.Titulo, &c.Descricao, &c.Observacoes, &c.Status, &situacao, &c.Responsaveis, &c.CriadoEm, &c.AtualizadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Situacao = Situacao(situacao)
	return &c, nil
}
