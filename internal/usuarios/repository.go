package usuarios

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diegocamara89/dcyber-bot/internal/db"
)

const dbTimeout = 5 * time.Second

// Repository encapsula o acesso à tabela usuarios.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectUsuario = `
	SELECT user_id, nome, username, nivel, ativo, data_cadastro
	FROM usuarios
`

// Register cria o usuário como pendente. Retorna false se ele já existia.
func (r *Repository) Register(ctx context.Context, id int64, nome string, username *string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO usuarios (user_id, nome, username, nivel, ativo)
		VALUES ($1, $2, $3, 'pendente', FALSE)
		ON CONFLICT (user_id) DO NOTHING
	`, id, nome, username)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	u, err := scanUsuario(r.pool.QueryRow(ctx, selectUsuario+` WHERE user_id = $1`, id))
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) ListPendentes(ctx context.Context) ([]Usuario, error) {
	return r.list(ctx, selectUsuario+` WHERE nivel = 'pendente' ORDER BY data_cadastro`)
}

// ListAtivos devolve usuários ativos já aprovados, usados como destinatários.
func (r *Repository) ListAtivos(ctx context.Context) ([]Usuario, error) {
	return r.list(ctx, selectUsuario+` WHERE ativo = TRUE AND nivel <> 'pendente' ORDER BY nome`)
}

func (r *Repository) ListAll(ctx context.Context) ([]Usuario, error) {
	return r.list(ctx, selectUsuario+` ORDER BY nivel, nome`)
}

func (r *Repository) ListByNivel(ctx context.Context, nivel Nivel) ([]Usuario, error) {
	return r.list(ctx, selectUsuario+` WHERE nivel = $1 AND ativo = TRUE ORDER BY nome`, string(nivel))
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}
	return result, rows.Err()
}

// Aprovar promove um pendente para usuário ativo sem remover a linha.
func (r *Repository) Aprovar(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		UPDATE usuarios SET nivel = 'user', ativo = TRUE
		WHERE user_id = $1 AND nivel = 'pendente'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Recusar remove definitivamente um cadastro pendente.
func (r *Repository) Recusar(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM usuarios WHERE user_id = $1 AND nivel = 'pendente'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetAtivo(ctx context.Context, id int64, ativo bool) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE usuarios SET ativo = $2 WHERE user_id = $1 AND nivel <> 'pendente'`, id, ativo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetNivel altera o nível de um usuário. Para dpc use DefinirDPC.
func (r *Repository) SetNivel(ctx context.Context, id int64, nivel Nivel) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE usuarios SET nivel = $2, ativo = TRUE WHERE user_id = $1`, id, string(nivel))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DefinirDPC rebaixa o dpc atual e promove o novo numa única transação.
func (r *Repository) DefinirDPC(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM usuarios WHERE user_id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE usuarios SET nivel = 'user' WHERE nivel = 'dpc' AND user_id <> $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE usuarios SET nivel = 'dpc', ativo = TRUE WHERE user_id = $1`, id)
		return err
	})
}

// ObterDPC retorna o dpc ativo ou ErrNotFound.
func (r *Repository) ObterDPC(ctx context.Context) (*Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanUsuario(r.pool.QueryRow(ctx, selectUsuario+` WHERE nivel = 'dpc' AND ativo = TRUE LIMIT 1`))
}

// SeedAdmin garante o administrador configurado no ambiente.
func (r *Repository) SeedAdmin(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO usuarios (user_id, nome, nivel, ativo)
		VALUES ($1, 'Administrador', 'admin', TRUE)
		ON CONFLICT (user_id) DO UPDATE SET nivel = 'admin', ativo = TRUE
	`, id)
	return err
}

func scanUsuario(row pgx.Row) (*Usuario, error) {
	var u Usuario
	var nivel string
	if err := row.Scan(&u.ID, &u.Nome, &u.Username, &nivel, &u.Ativo, &u.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Nivel = Nivel(nivel)
	return &u, nil
}
