package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DB }

const orderColumns = `id, order_number, customer_name, customer_phone, items, total_cents, status, payment_status,
	COALESCE(user_id::text, ''), COALESCE(delivery_address, ''),
	latitude IS NOT NULL AND longitude IS NOT NULL, COALESCE(latitude, 0), COALESCE(longitude, 0),
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o        Order
		items    []byte
		hasLoc   bool
		lat, lng float64
	)
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone, &items, &o.TotalCents,
		&o.Status, &o.PaymentStatus, &o.UserID, &o.DeliveryAddress, &hasLoc, &lat, &lng,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	if hasLoc {
		o.Location = &Location{Latitude: lat, Longitude: lng}
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *Repo) InsertOrder(ctx context.Context, in NewOrder) (*Order, error) {
	items, err := json.Marshal(in.Items)
	if err != nil {
		return nil, err
	}
	var lat, lng any
	if in.Location != nil {
		lat, lng = in.Location.Latitude, in.Location.Longitude
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO orders(id, order_number, customer_name, customer_phone, items, total_cents,
		                   status, payment_status, user_id, delivery_address, latitude, longitude)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+orderColumns,
		in.ID, in.OrderNumber, in.CustomerName, in.CustomerPhone, items, int64(in.TotalCents),
		string(in.Status), string(in.PaymentStatus), nullable(in.UserID), nullable(in.DeliveryAddress), lat, lng,
	)
	return scanOrder(row)
}

// ListOrders returns newest first, optionally narrowed to one status.
func (r *Repo) ListOrders(ctx context.Context, status *Status) ([]Order, error) {
	if status == nil {
		rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
		if err != nil {
			return nil, err
		}
		return collectOrders(rows)
	}
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE status=$1 ORDER BY created_at DESC`, string(*status))
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *Repo) ListOrdersForUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (r *Repo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// UpdateStatus writes only the status column; concurrent writers of the same
// column race and the last one wins.
func (r *Repo) UpdateStatus(ctx context.Context, id string, s Status) (string, error) {
	return r.updateField(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1 RETURNING order_number`, id, string(s))
}

func (r *Repo) UpdatePaymentStatus(ctx context.Context, id string, p PaymentStatus) (string, error) {
	return r.updateField(ctx, `UPDATE orders SET payment_status=$2, updated_at=now() WHERE id=$1 RETURNING order_number`, id, string(p))
}

func (r *Repo) updateField(ctx context.Context, sql, id, value string) (string, error) {
	var number string
	err := r.DB.QueryRow(ctx, sql, id, value).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return number, err
}

func (r *Repo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.DB.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int, len(progression))
	for _, s := range progression {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			s string
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[Status(s)] = n
	}
	return counts, rows.Err()
}
