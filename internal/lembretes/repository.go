package lembretes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diegocamara89/dcyber-bot/internal/db"
)

const dbTimeout = 5 * time.Second

// Repository guarda lembretes e destinatários. Datas ficam em horário local
// (DATE + TIME sem fuso) e são comparadas com o relógio local convertido.
type Repository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

func NewRepository(pool *pgxpool.Pool, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.Local
	}
	return &Repository{pool: pool, loc: loc}
}

func (r *Repository) local(t time.Time) time.Time {
	return t.In(r.loc)
}

// Create grava o lembrete e os destinatários na mesma transação.
// Com ModoTodos os usuários ativos são expandidos no momento da criação.
func (r *Repository) Create(ctx context.Context, in NovoLembrete) (*Lembrete, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	quando := wallClock(r.local(in.Quando), time.UTC)
	l := &Lembrete{CriadorID: in.CriadorID, Titulo: in.Titulo, Quando: r.local(in.Quando), Ativo: true}

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO lembretes (criador_id, titulo, data, hora)
			VALUES ($1, $2, ($3::timestamp)::date, ($3::timestamp)::time)
			RETURNING id, criado_em
		`, in.CriadorID, in.Titulo, quando).Scan(&l.ID, &l.CriadoEm); err != nil {
			return err
		}

		if in.Modo == ModoTodos {
			rows, err := tx.Query(ctx, `
				INSERT INTO lembrete_destinatarios (lembrete_id, user_id)
				SELECT $1, user_id FROM usuarios WHERE ativo = TRUE AND nivel <> 'pendente'
				ON CONFLICT DO NOTHING
				RETURNING user_id
			`, l.ID)
			if err != nil {
				return err
			}
			ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
			if err != nil {
				return err
			}
			l.Destinatarios = ids
			if len(ids) == 0 {
				return ErrSemDestinatarios
			}
			return nil
		}

		for _, uid := range in.Selecionados {
			if _, err := tx.Exec(ctx, `
				INSERT INTO lembrete_destinatarios (lembrete_id, user_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, l.ID, uid); err != nil {
				return err
			}
		}
		l.Destinatarios = in.Selecionados
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

const selectLembrete = `
	SELECT l.id, l.criador_id, l.titulo, (l.data + l.hora) AS quando, l.ativo, l.criado_em,
	       COALESCE(array_agg(d.user_id ORDER BY d.user_id) FILTER (WHERE d.user_id IS NOT NULL), '{}')
	FROM lembretes l
	LEFT JOIN lembrete_destinatarios d ON d.lembrete_id = l.id
`

func (r *Repository) Get(ctx context.Context, id int64) (*Lembrete, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return r.scanLembrete(r.pool.QueryRow(ctx, selectLembrete+` WHERE l.id = $1 AND l.ativo = TRUE GROUP BY l.id`, id))
}

// ListForUser devolve lembretes ativos criados pelo usuário ou destinados a ele.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Lembrete, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, selectLembrete+`
		WHERE l.ativo = TRUE
		  AND (l.criador_id = $1 OR EXISTS (
		        SELECT 1 FROM lembrete_destinatarios x WHERE x.lembrete_id = l.id AND x.user_id = $1))
		GROUP BY l.id
		ORDER BY l.data, l.hora
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Lembrete
	for rows.Next() {
		l, err := r.scanLembrete(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}
	return result, rows.Err()
}

// Deactivate desativa o lembrete; destinatários pendentes deixam de ser varridos.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE lembretes SET ativo = FALSE WHERE id = $1 AND ativo = TRUE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Due lista destinatários vencidos e não notificados de lembretes ativos.
func (r *Repository) Due(ctx context.Context, now time.Time, limit int) ([]Pendente, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT d.id, l.id, d.user_id, l.titulo, (l.data + l.hora) AS quando
		FROM lembrete_destinatarios d
		JOIN lembretes l ON l.id = d.lembrete_id
		WHERE (l.data + l.hora) <= $1::timestamp
		  AND d.notificado = FALSE
		  AND l.ativo = TRUE
		ORDER BY quando, d.id
		LIMIT $2
	`, wallClock(r.local(now), time.UTC), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Pendente
	for rows.Next() {
		var p Pendente
		var quando time.Time
		if err := rows.Scan(&p.DestinatarioID, &p.LembreteID, &p.UserID, &p.Titulo, &quando); err != nil {
			return nil, err
		}
		p.Quando = wallClock(quando, r.loc)
		result = append(result, p)
	}
	return result, rows.Err()
}

// CountPendentes conta destinatários ainda não notificados.
func (r *Repository) CountPendentes(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM lembrete_destinatarios d
		JOIN lembretes l ON l.id = d.lembrete_id
		WHERE d.notificado = FALSE AND l.ativo = TRUE
	`).Scan(&total)
	return total, err
}

// Claim marca a linha como notificada antes do envio. Retorna false se
// outra varredura já a reivindicou.
func (r *Repository) Claim(ctx context.Context, destinatarioID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		UPDATE lembrete_destinatarios SET notificado = TRUE
		WHERE id = $1 AND notificado = FALSE
	`, destinatarioID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Release devolve a linha para a próxima varredura após falha de envio.
func (r *Repository) Release(ctx context.Context, destinatarioID int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `UPDATE lembrete_destinatarios SET notificado = FALSE WHERE id = $1`, destinatarioID)
	return err
}

func (r *Repository) scanLembrete(row pgx.Row) (*Lembrete, error) {
	var l Lembrete
	var quando time.Time
	if err := row.Scan(&l.ID, &l.CriadorID, &l.Titulo, &quando, &l.Ativo, &l.CriadoEm, &l.Destinatarios); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.Quando = wallClock(quando, r.loc)
	return &l, nil
}
