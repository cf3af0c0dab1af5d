package invoice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/config"
	"github.com/ariefcatur/go-restaurant-orders/internal/orders"
	"github.com/ariefcatur/go-restaurant-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
)

type OrderGetter interface {
	Get(ctx context.Context, id string) (*orders.Order, error)
}

type PDF struct {
	Filename string
	Data     []byte
}

// Service renders invoices on demand and keeps the bytes in Redis. The
// paid check always runs against the current order, so a cached PDF is
// never served for an order that went back to unpaid.
type Service struct {
	Orders   OrderGetter
	Redis    redis.Cmdable
	Renderer *Renderer
	Brand    config.Brand
	Location *time.Location
}

func (s *Service) Invoice(ctx context.Context, orderID string) (*PDF, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	doc, err := Build(o, s.Brand, s.Location)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf(redisx.KeyInvoice, orderID)
	if s.Redis != nil {
		if b, err := s.Redis.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
			return &PDF{Filename: doc.Filename, Data: b}, nil
		} else if err != nil && !errors.Is(err, redis.Nil) {
			log.Printf("invoice cache get %s: %v", orderID, err)
		}
	}

	data, err := s.Renderer.Render(doc)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := s.Redis.Set(ctx, key, data, redisx.TTLInvoice).Err(); err != nil {
			log.Printf("invoice cache set %s: %v", orderID, err)
		}
	}
	return &PDF{Filename: doc.Filename, Data: data}, nil
}

func (s *Service) Evict(ctx context.Context, orderID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyInvoice, orderID)).Err()
}
