package menu

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/money"
	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
	"github.com/google/uuid"
)

type MenuItem struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	PriceCents  money.Cents `json:"price_cents"`
	ImageURL    string      `json:"image_url"`
	Description string      `json:"description"`
	IsAvailable bool        `json:"is_available"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Input is the admin form; Price is the decimal string typed by staff.
type Input struct {
	ID          string
	Name        string
	Price       string
	ImageURL    string
	Description string
	IsAvailable bool
}

var (
	ErrNotFound = errors.New("menu item not found")
	ErrInvalid  = errors.New("invalid menu item")
)

type Store interface {
	List(ctx context.Context, availableOnly bool) ([]MenuItem, error)
	Insert(ctx context.Context, item MenuItem) (*MenuItem, error)
	Update(ctx context.Context, item MenuItem) (*MenuItem, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	Store Store
}

func NewService(store Store) *Service {
	return &Service{Store: store}
}

// List returns items ordered by name; customers pass availableOnly=true.
func (s *Service) List(ctx context.Context, availableOnly bool) ([]MenuItem, error) {
	items, err := s.Store.List(ctx, availableOnly)
	if err != nil {
		return nil, postgres.Persistence("list menu", err)
	}
	return items, nil
}

// Save inserts when in.ID is empty and updates otherwise.
func (s *Service) Save(ctx context.Context, in Input) (*MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	price, err := money.Parse(in.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: price: %v", ErrInvalid, err)
	}
	if price > money.MaxPrice {
		return nil, fmt.Errorf("%w: price must be at most %s", ErrInvalid, money.MaxPrice)
	}
	image := strings.TrimSpace(in.ImageURL)
	if u, err := url.Parse(image); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: image url must be an absolute http(s) url", ErrInvalid)
	}
	item := MenuItem{
		ID:          in.ID,
		Name:        name,
		PriceCents:  price,
		ImageURL:    image,
		Description: strings.TrimSpace(in.Description),
		IsAvailable: in.IsAvailable,
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
		saved, err := s.Store.Insert(ctx, item)
		if err != nil {
			log.Printf("insert menu item %q: %v", name, err)
			return nil, postgres.Persistence("insert menu item", err)
		}
		return saved, nil
	}
	saved, err := s.Store.Update(ctx, item)
	if err != nil {
		log.Printf("update menu item %s: %v", item.ID, err)
		return nil, postgres.Persistence("update menu item", err)
	}
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		log.Printf("delete menu item %s: %v", id, err)
		return postgres.Persistence("delete menu item", err)
	}
	return nil
}
