package menu

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DB }

var _ Store = (*Repo)(nil)

const columns = `id, name, price_cents, image_url, description, is_available, created_at, updated_at`

func scan(row pgx.Row) (*MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.PriceCents, &m.ImageURL, &m.Description, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) List(ctx context.Context, availableOnly bool) ([]MenuItem, error) {
	q := `SELECT ` + columns + ` FROM menu_items ORDER BY name`
	if availableOnly {
		q = `SELECT ` + columns + ` FROM menu_items WHERE is_available ORDER BY name`
	}
	rows, err := r.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MenuItem{}
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *Repo) Insert(ctx context.Context, m MenuItem) (*MenuItem, error) {
	return scan(r.DB.QueryRow(ctx, `
		INSERT INTO menu_items(id, name, price_cents, image_url, description, is_available)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+columns,
		m.ID, m.Name, int64(m.PriceCents), m.ImageURL, m.Description, m.IsAvailable))
}

func (r *Repo) Update(ctx context.Context, m MenuItem) (*MenuItem, error) {
	return scan(r.DB.QueryRow(ctx, `
		UPDATE menu_items
		SET name=$2, price_cents=$3, image_url=$4, description=$5, is_available=$6, updated_at=now()
		WHERE id=$1
		RETURNING `+columns,
		m.ID, m.Name, int64(m.PriceCents), m.ImageURL, m.Description, m.IsAvailable))
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM menu_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
