package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
	"github.com/ariefcatur/go-restaurant-orders/internal/redisx"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

type AdminUser struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminLookup returns nil, nil when the identity has no admin_users row.
type AdminLookup interface {
	LookupAdminUser(ctx context.Context, userID string) (*AdminUser, error)
}

type AdminRepo struct{ DB postgres.DB }

func (r *AdminRepo) LookupAdminUser(ctx context.Context, userID string) (*AdminUser, error) {
	var a AdminUser
	err := r.DB.QueryRow(ctx, `SELECT user_id, role, created_at FROM admin_users WHERE user_id=$1`, userID).
		Scan(&a.UserID, &a.Role, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const notAdmin = "-"

// CachedAdmins memoizes lookups in Redis. Refresh and Forget are driven by
// session change events so a fresh sign-in always sees the current row.
type CachedAdmins struct {
	Lookup AdminLookup
	Redis  redis.Cmdable
}

func (c *CachedAdmins) LookupAdminUser(ctx context.Context, userID string) (*AdminUser, error) {
	v, err := c.Redis.Get(ctx, fmt.Sprintf(redisx.KeyAdminRole, userID)).Result()
	switch {
	case err == nil && v == notAdmin:
		return nil, nil
	case err == nil:
		return &AdminUser{UserID: userID, Role: v}, nil
	}
	return c.Refresh(ctx, userID)
}

func (c *CachedAdmins) Refresh(ctx context.Context, userID string) (*AdminUser, error) {
	a, err := c.Lookup.LookupAdminUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := notAdmin
	if a != nil {
		v = a.Role
	}
	_ = c.Redis.Set(ctx, fmt.Sprintf(redisx.KeyAdminRole, userID), v, redisx.TTLAdminRole).Err()
	return a, nil
}

func (c *CachedAdmins) Forget(ctx context.Context, userID string) error {
	return c.Redis.Del(ctx, fmt.Sprintf(redisx.KeyAdminRole, userID)).Err()
}
