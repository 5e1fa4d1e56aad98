package contatos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diegocamara89/dcyber-bot/internal/db"
)

const dbTimeout = 5 * time.Second

// Repository encapsula a agenda de contatos de cada usuário.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contatoColumns = `id, user_id, nome, contato, observacoes, ativo, criado_em`

func (r *Repository) Create(ctx context.Context, in NovoContato) (*Contato, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanContato(r.pool.QueryRow(ctx, `
		INSERT INTO contatos (user_id, nome, contato, observacoes)
		VALUES ($1, $2, $3, $4)
		RETURNING `+contatoColumns, in.UserID, in.Nome, in.Contato, in.Observacoes))
}

func (r *Repository) Get(ctx context.Context, id, userID int64) (*Contato, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanContato(r.pool.QueryRow(ctx, `
		SELECT `+contatoColumns+` FROM contatos
		WHERE id = $1 AND user_id = $2 AND ativo = TRUE
	`, id, userID))
}

// List devolve os contatos ativos do dono; termo vazio lista todos.
func (r *Repository) List(ctx context.Context, userID int64, termo string) ([]Contato, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `SELECT ` + contatoColumns + ` FROM contatos WHERE user_id = $1 AND ativo = TRUE`
	args := []any{userID}
	if termo != "" {
		query += ` AND (nome ILIKE $2 ESCAPE '\' OR contato ILIKE $2 ESCAPE '\' OR COALESCE(observacoes, '') ILIKE $2 ESCAPE '\')`
		args = append(args, db.ContainsPattern(termo))
	}
	query += ` ORDER BY nome`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Contato
	for rows.Next() {
		c, err := scanContato(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *Repository) Update(ctx context.Context, input UpdateContatoInput) (*Contato, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	if input.Nome != nil {
		setParts = append(setParts, fmt.Sprintf("nome = $%d", idx))
		args = append(args, *input.Nome)
		idx++
	}
	if input.Contato != nil {
		setParts = append(setParts, fmt.Sprintf("contato = $%d", idx))
		args = append(args, *input.Contato)
		idx++
	}
	if input.Observacoes != nil {
		setParts = append(setParts, fmt.Sprintf("observacoes = $%d", idx))
		args = append(args, *input.Observacoes)
		idx++
	} else if input.LimparObservacao {
		setParts = append(setParts, "observacoes = NULL")
	}

	if len(setParts) == 0 {
		return r.Get(ctx, input.ID, input.UserID)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	args = append(args, input.ID, input.UserID)
	query := fmt.Sprintf(`
		UPDATE contatos
		SET %s
		WHERE id = $%d AND user_id = $%d AND ativo = TRUE
		RETURNING %s
	`, strings.Join(setParts, ", "), idx, idx+1, contatoColumns)

	return scanContato(r.pool.QueryRow(ctx, query, args...))
}

// SoftDelete marca o contato como inativo.
func (r *Repository) SoftDelete(ctx context.Context, id, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE contatos SET ativo = FALSE WHERE id = $1 AND user_id = $2 AND ativo = TRUE`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContato(row pgx.Row) (*Contato, error) {
	var c Contato
	if err := row.Scan(&c.ID, &c.UserID, &c.Nome, &c.Contato, &c.Observacoes, &c.Ativo, &c.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
