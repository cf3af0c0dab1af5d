package orders

import (
	"testing"

	"github.com/ariefcatur/go-restaurant-orders/internal/menu"
	"github.com/ariefcatur/go-restaurant-orders/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	burger = menu.MenuItem{ID: "m-burger", Name: "Burger", PriceCents: 12000, IsAvailable: true}
	fries  = menu.MenuItem{ID: "m-fries", Name: "Fries", PriceCents: 5050, IsAvailable: true}
)

func TestCart_AddMergesSameItem(t *testing.T) {
	c := NewCart()
	c.Add(burger)
	c.Add(fries)
	c.Add(burger)

	require.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.Quantity(burger.ID))
	assert.Equal(t, money.Cents(2*12000+5050), c.Total())
	assert.Equal(t, []string{"m-burger", "m-fries"}, []string{c.Entries()[0].MenuItemID, c.Entries()[1].MenuItemID})
}

func TestCart_PriceSnapshottedAtAdd(t *testing.T) {
	c := NewCart()
	item := burger
	c.Add(item)
	item.PriceCents = 99999
	c.Add(item)

	assert.Equal(t, money.Cents(2*12000), c.Total())
}

func TestCart_AdjustQuantity(t *testing.T) {
	c := NewCart()
	c.Add(burger)
	c.AdjustQuantity(burger.ID, 4)
	assert.Equal(t, 5, c.Quantity(burger.ID))

	c.AdjustQuantity(burger.ID, -5)
	assert.Equal(t, 0, c.Len(), "entry removed at zero")

	c.Add(fries)
	c.AdjustQuantity(fries.ID, -10)
	assert.Equal(t, 0, c.Len())

	c.AdjustQuantity("unknown", 3)
	assert.Equal(t, 0, c.Len())
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := NewCart()
	c.Add(burger)
	c.Add(fries)
	c.Remove(burger.ID)
	c.Remove("unknown")
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, money.Cents(5050), c.Total())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, money.Cents(0), c.Total())
}

func TestCart_EntriesIsACopy(t *testing.T) {
	c := NewCart()
	c.Add(burger)
	e := c.Entries()
	e[0].Quantity = 50
	assert.Equal(t, 1, c.Quantity(burger.ID))
}

func TestCart_Restore(t *testing.T) {
	c := NewCart()
	err := c.Restore([]Entry{
		{MenuItemID: "a", Name: "A", PriceCents: 100, Quantity: 1},
		{MenuItemID: "b", Name: "B", PriceCents: 250, Quantity: 2},
		{MenuItemID: "a", Name: "A", PriceCents: 100, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 4, c.Quantity("a"))
	assert.Equal(t, money.Cents(900), c.Total())

	for _, bad := range []Entry{
		{Name: "x", Quantity: 1},
		{MenuItemID: "x", Quantity: 1},
		{MenuItemID: "x", Name: "x", PriceCents: -1, Quantity: 1},
		{MenuItemID: "x", Name: "x", Quantity: 0},
		{MenuItemID: "x", Name: "x", PriceCents: 1 << 62, Quantity: 4},
		{MenuItemID: "x", Name: "x", PriceCents: money.MaxPrice + 1, Quantity: 1},
		{MenuItemID: "x", Name: "x", PriceCents: 100, Quantity: MaxQuantity + 1},
	} {
		err := c.Restore([]Entry{bad})
		assert.True(t, IsValidation(err), "%+v", bad)
	}
	assert.Equal(t, 2, c.Len(), "failed restore leaves the cart untouched")
}

func TestCart_RestoreBoundsMergedQuantity(t *testing.T) {
	c := NewCart()
	err := c.Restore([]Entry{
		{MenuItemID: "a", Name: "A", PriceCents: 100, Quantity: MaxQuantity},
		{MenuItemID: "a", Name: "A", PriceCents: 100, Quantity: 1},
	})
	assert.True(t, IsValidation(err))
	assert.Zero(t, c.Len())

	require.NoError(t, c.Restore([]Entry{
		{MenuItemID: "a", Name: "A", PriceCents: money.MaxPrice, Quantity: MaxQuantity},
	}))
	assert.Equal(t, money.MaxPrice.Mul(MaxQuantity), c.Total())
}
