package assinaturas

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diegocamara89/dcyber-bot/internal/db"
)

const (
	dbTimeout = 5 * time.Second
	// chave do advisory lock que serializa a numeração da fila.
	sequenceLockKey = 71_001
)

// Repository encapsula a tabela assinaturas.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectAssinatura = `
	SELECT id, user_id, username, documento, sequencia, ativo, data_criacao, assinado_em, assinado_por
	FROM assinaturas
`

// nextSequenceQuery devolve 1 com a fila vazia, senão o maior número ativo + 1.
const nextSequenceQuery = `SELECT COALESCE(MAX(sequencia), 0) + 1 FROM assinaturas WHERE ativo = TRUE`

// Create numera e grava a solicitação na mesma transação.
func (r *Repository) Create(ctx context.Context, userID int64, username, documento string) (*Assinatura, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var created *Assinatura
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, sequenceLockKey); err != nil {
			return err
		}

		var seq int
		if err := tx.QueryRow(ctx, nextSequenceQuery).Scan(&seq); err != nil {
			return err
		}

		a, err := scanAssinatura(tx.QueryRow(ctx, `
			INSERT INTO assinaturas (user_id, username, documento, sequencia, ativo)
			VALUES ($1, $2, $3, $4, TRUE)
			RETURNING id, user_id, username, documento, sequencia, ativo, data_criacao, assinado_em, assinado_por
		`, userID, username, documento, seq))
		if err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListAtivas lista a fila por sequência. limit <= 0 devolve tudo.
func (r *Repository) ListAtivas(ctx context.Context, limit int) ([]Assinatura, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := selectAssinatura + ` WHERE ativo = TRUE ORDER BY sequencia`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Assinatura
	for rows.Next() {
		a, err := scanAssinatura(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *Repository) CountAtivas(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assinaturas WHERE ativo = TRUE`).Scan(&total)
	return total, err
}

// Assinar baixa a solicitação ativa com a sequência informada.
func (r *Repository) Assinar(ctx context.Context, sequencia int, signerID int64) (*Assinatura, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanAssinatura(r.pool.QueryRow(ctx, `
		UPDATE assinaturas
		SET ativo = FALSE, assinado_em = now(), assinado_por = $2
		WHERE sequencia = $1 AND ativo = TRUE
		RETURNING id, user_id, username, documento, sequencia, ativo, data_criacao, assinado_em, assinado_por
	`, sequencia, signerID))
}

func scanAssinatura(row pgx.Row) (*Assinatura, error) {
	var a Assinatura
	if err := row.Scan(&a.ID, &a.UserID, &a.Username, &a.Documento, &a.Sequencia, &a.Ativo, &a.CriadoEm, &a.AssinadoEm, &a.AssinadoPor); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
