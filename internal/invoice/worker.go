package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	kafkax "github.com/ariefcatur/go-restaurant-orders/internal/kafka"
	"github.com/ariefcatur/go-restaurant-orders/internal/orders"
	"github.com/ariefcatur/go-restaurant-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Worker keeps the invoice cache in step with payment changes: paid orders
// are rendered ahead of the first download, unpaid ones are evicted.
type Worker struct {
	Invoices *Service
	Redis    redis.Cmdable
	Name     string
}

// HandlePaymentChanged is installed as the consumer handler.
func (w *Worker) HandlePaymentChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Printf("invoicer: drop malformed message offset=%d: %v", m.Offset, err)
		return nil
	}
	if env.EventType != orders.EventPaymentStatusChanged {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, w.Name, env.EventID)
	fresh, err := w.Redis.SetNX(ctx, dkey, "1", redisx.TTLDedup).Result()
	if err != nil {
		return err
	}
	if !fresh {
		return nil
	}

	if err := w.apply(ctx, env); err != nil {
		// free the key so a retry is not taken for a duplicate
		_ = w.Redis.Del(ctx, dkey).Err()
		return err
	}
	return nil
}

func (w *Worker) apply(ctx context.Context, env orders.Envelope) error {
	p, err := kafkax.UnwrapPayload[orders.PaymentChangedPayload](env.Payload)
	if err != nil {
		log.Printf("invoicer: event %s: %v", env.EventID, err)
		return nil
	}
	if p.PaymentStatus != orders.PaymentPaid {
		return w.Invoices.Evict(ctx, p.OrderID)
	}
	_, err = w.Invoices.Invoice(ctx, p.OrderID)
	switch {
	case errors.Is(err, ErrNotPaid), errors.Is(err, orders.ErrNotFound):
		// toggled back, or gone, since the event was produced
		return w.Invoices.Evict(ctx, p.OrderID)
	case err != nil:
		return err
	}
	log.Printf("invoicer: cached invoice order=%s number=%s", p.OrderID, p.OrderNumber)
	return nil
}
