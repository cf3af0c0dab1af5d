package orders

import (
	"fmt"

	"github.com/ariefcatur/go-restaurant-orders/internal/menu"
	"github.com/ariefcatur/go-restaurant-orders/internal/money"
)

// MaxQuantity caps a single cart line.
const MaxQuantity = 999

// Entry is one cart line. Name and price are captured when the item is added.
type Entry struct {
	MenuItemID string      `json:"id"`
	Name       string      `json:"name"`
	PriceCents money.Cents `json:"price_cents"`
	Quantity   int         `json:"quantity"`
}

// Cart holds entries in insertion order; a quantity never rests at zero.
type Cart struct {
	entries []Entry
}

func NewCart() *Cart { return &Cart{} }

func (c *Cart) index(id string) int {
	for i := range c.entries {
		if c.entries[i].MenuItemID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) Add(item menu.MenuItem) {
	if i := c.index(item.ID); i >= 0 {
		c.entries[i].Quantity++
		return
	}
	c.entries = append(c.entries, Entry{
		MenuItemID: item.ID,
		Name:       item.Name,
		PriceCents: item.PriceCents,
		Quantity:   1,
	})
}

// AdjustQuantity removes the entry when the result drops to zero or below.
// Unknown ids are ignored.
func (c *Cart) AdjustQuantity(id string, delta int) {
	i := c.index(id)
	if i < 0 {
		return
	}
	q := c.entries[i].Quantity + delta
	if q <= 0 {
		c.Remove(id)
		return
	}
	c.entries[i].Quantity = q
}

func (c *Cart) Remove(id string) {
	if i := c.index(id); i >= 0 {
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
	}
}

func (c *Cart) Total() money.Cents {
	var total money.Cents
	for _, e := range c.entries {
		total += e.PriceCents.Mul(e.Quantity)
	}
	return total
}

// sum is Total with overflow reported instead of wrapped.
func (c *Cart) sum() (money.Cents, error) {
	var total money.Cents
	for _, e := range c.entries {
		line, err := e.PriceCents.MulChecked(e.Quantity)
		if err != nil {
			return 0, err
		}
		if total, err = total.AddChecked(line); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (c *Cart) Len() int { return len(c.entries) }

func (c *Cart) Quantity(id string) int {
	if i := c.index(id); i >= 0 {
		return c.entries[i].Quantity
	}
	return 0
}

func (c *Cart) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Cart) Clear() { c.entries = nil }

// Restore rebuilds a cart from entries a client kept between requests.
// Repeated ids are merged.
func (c *Cart) Restore(entries []Entry) error {
	restored := make([]Entry, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.MenuItemID == "":
			return &ValidationError{Field: "items", Reason: "item id is required"}
		case e.Name == "":
			return &ValidationError{Field: "items", Reason: "item name is required"}
		case e.PriceCents < 0:
			return &ValidationError{Field: "items", Reason: "item price must not be negative"}
		case e.PriceCents > money.MaxPrice:
			return &ValidationError{Field: "items", Reason: "item price is too large"}
		case e.Quantity < 1:
			return &ValidationError{Field: "items", Reason: "item quantity must be at least 1"}
		case e.Quantity > MaxQuantity:
			return &ValidationError{Field: "items", Reason: fmt.Sprintf("item quantity must be at most %d", MaxQuantity)}
		}
		merged := false
		for i := range restored {
			if restored[i].MenuItemID == e.MenuItemID {
				restored[i].Quantity += e.Quantity
				if restored[i].Quantity > MaxQuantity {
					return &ValidationError{Field: "items", Reason: fmt.Sprintf("item quantity must be at most %d", MaxQuantity)}
				}
				merged = true
				break
			}
		}
		if !merged {
			restored = append(restored, e)
		}
	}
	if _, err := (&Cart{entries: restored}).sum(); err != nil {
		return &ValidationError{Field: "items", Reason: "cart total is out of range"}
	}
	c.entries = restored
	return nil
}

func (c *Cart) snapshot() []LineItem {
	out := make([]LineItem, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, LineItem(e))
	}
	return out
}
