package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	kafkax "github.com/ariefcatur/go-restaurant-orders/internal/kafka"
	"github.com/ariefcatur/go-restaurant-orders/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Store is the order persistence the service depends on.
type Store interface {
	InsertOrder(ctx context.Context, in NewOrder) (*Order, error)
	ListOrders(ctx context.Context, status *Status) ([]Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, s Status) (string, error)
	UpdatePaymentStatus(ctx context.Context, id string, p PaymentStatus) (string, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

var _ Store = (*Repo)(nil)

// Service drives checkout and the order lifecycle. Redis and Publisher are optional.
type Service struct {
	Store     Store
	Numbers   *Generator
	Redis     redis.Cmdable
	Publisher Publisher
	Producer  string
}

type CheckoutForm struct {
	CustomerName    string
	CustomerPhone   string
	UserID          string
	DeliveryAddress string
	Location        *Location
}

func (f CheckoutForm) validate() error {
	if strings.TrimSpace(f.CustomerName) == "" {
		return &ValidationError{Field: "customer_name", Reason: "name is required"}
	}
	if strings.TrimSpace(f.CustomerPhone) == "" {
		return &ValidationError{Field: "customer_phone", Reason: "phone is required"}
	}
	if l := f.Location; l != nil {
		if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
			return &ValidationError{Field: "location", Reason: "coordinates out of range"}
		}
	}
	return nil
}

// Checkout turns the cart into a pending, unpaid order. The cart is cleared
// only after the store confirms the insert; on any failure it is left as is.
func (s *Service) Checkout(ctx context.Context, cart *Cart, form CheckoutForm) (*Order, error) {
	if err := form.validate(); err != nil {
		return nil, err
	}
	if cart == nil || cart.Len() == 0 {
		return nil, &ValidationError{Field: "cart", Reason: "cart is empty"}
	}
	total, err := cart.sum()
	if err != nil {
		return nil, &ValidationError{Field: "cart", Reason: "cart total is out of range"}
	}

	payload := NewOrder{
		ID:              uuid.NewString(),
		OrderNumber:     s.Numbers.Next(),
		CustomerName:    strings.TrimSpace(form.CustomerName),
		CustomerPhone:   strings.TrimSpace(form.CustomerPhone),
		Items:           cart.snapshot(),
		TotalCents:      total,
		Status:          StatusPending,
		PaymentStatus:   PaymentUnpaid,
		UserID:          form.UserID,
		DeliveryAddress: strings.TrimSpace(form.DeliveryAddress),
		Location:        form.Location,
	}
	created, err := s.Store.InsertOrder(ctx, payload)
	if err != nil {
		log.Printf("checkout order_number=%s: %v", payload.OrderNumber, err)
		return nil, persistence("insert order", err)
	}
	cart.Clear()

	s.publish(ctx, TopicOrderPlaced, EventOrderPlaced, created.ID, OrderPlacedPayload{
		OrderID:     created.ID,
		OrderNumber: created.OrderNumber,
		UserID:      created.UserID,
		Items:       created.Items,
		TotalCents:  int64(created.TotalCents),
	})
	return created, nil
}

func (s *Service) ListOrders(ctx context.Context, status *Status) ([]Order, error) {
	if status != nil && !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *status)}
	}
	out, err := s.Store.ListOrders(ctx, status)
	if err != nil {
		return nil, persistence("list orders", err)
	}
	return out, nil
}

func (s *Service) ListOrdersForUser(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "user is required"}
	}
	out, err := s.Store.ListOrdersForUser(ctx, userID)
	if err != nil {
		return nil, persistence("list orders for user", err)
	}
	return out, nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	counts, err := s.Store.CountByStatus(ctx)
	if err != nil {
		return nil, persistence("count orders", err)
	}
	return counts, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return nil, persistence("get order", err)
	}
	return o, nil
}

// SetStatus accepts any known stage regardless of the current one.
func (s *Service) SetStatus(ctx context.Context, id string, st Status) error {
	if !st.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", st)}
	}
	number, err := s.Store.UpdateStatus(ctx, id, st)
	if err != nil {
		log.Printf("set status order=%s status=%s: %v", id, st, err)
		return persistence("update status", err)
	}
	s.invalidate(ctx, number)
	s.publish(ctx, TopicStatusChanged, EventOrderStatusChanged, id, StatusChangedPayload{
		OrderID: id, OrderNumber: number, Status: st,
	})
	return nil
}

func (s *Service) SetPaymentStatus(ctx context.Context, id string, p PaymentStatus) error {
	if !p.Valid() {
		return &ValidationError{Field: "payment_status", Reason: fmt.Sprintf("unknown payment status %q", p)}
	}
	number, err := s.Store.UpdatePaymentStatus(ctx, id, p)
	if err != nil {
		log.Printf("set payment order=%s payment=%s: %v", id, p, err)
		return persistence("update payment status", err)
	}
	s.invalidate(ctx, number)
	s.publish(ctx, TopicPaymentChanged, EventPaymentStatusChanged, id, PaymentChangedPayload{
		OrderID: id, OrderNumber: number, PaymentStatus: p,
	})
	return nil
}

// Track serves the public status of an order by number, through the Redis cache.
func (s *Service) Track(ctx context.Context, number string) (*Tracking, error) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, number)
	verKey := fmt.Sprintf(redisx.KeyOrderStatusVersion, number)
	var ver string
	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, key).Bytes(); err == nil {
			var t Tracking
			if json.Unmarshal(raw, &t) == nil {
				return &t, nil
			}
		}
		ver, _ = s.Redis.Get(ctx, verKey).Result()
	}

	o, err := s.Store.GetByNumber(ctx, number)
	if err != nil {
		return nil, persistence("track order", err)
	}
	t := &Tracking{
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		Step:          o.Status.Step(),
		PaymentStatus: o.PaymentStatus,
	}
	if s.Redis != nil {
		ttl := strconv.FormatInt(redisx.TTLStatusCache.Milliseconds(), 10)
		err := cacheIfUnchanged.Run(ctx, s.Redis, []string{key, verKey}, ver, kafkax.MustMarshal(t), ttl).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Printf("cache status %s: %v", number, err)
		}
	}
	return t, nil
}

// cacheIfUnchanged skips the write when an update bumped the version after
// Track read it, so a stale row never outlives the invalidation.
var cacheIfUnchanged = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (s *Service) invalidate(ctx context.Context, number string) {
	if s.Redis == nil || number == "" {
		return
	}
	verKey := fmt.Sprintf(redisx.KeyOrderStatusVersion, number)
	_, err := s.Redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, verKey)
		p.Expire(ctx, verKey, redisx.TTLStatusVer)
		p.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, number))
		return nil
	})
	if err != nil {
		log.Printf("invalidate status cache %s: %v", number, err)
	}
}

func (s *Service) publish(ctx context.Context, topic, eventType, orderID string, payload any) {
	if s.Publisher == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Producer,
		TraceID:       traceID(ctx),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.Publisher.Publish(topic, PartitionKey(orderID), kafkax.MustMarshal(ev), kafkax.EventHeaders(eventType, ev.EventVersion)...)
}

type traceKey struct{}

// WithTraceID tags ctx so published events carry the request id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func traceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
