// Package invoice turns a paid order into a downloadable PDF.
package invoice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/config"
	"github.com/ariefcatur/go-restaurant-orders/internal/money"
	"github.com/ariefcatur/go-restaurant-orders/internal/orders"
)

var ErrNotPaid = errors.New("invoice is only available for paid orders")

type Line struct {
	Name      string
	Quantity  int
	UnitPrice money.Cents
	Total     money.Cents
}

// Document is everything printed on the invoice, already formatted for the
// restaurant's timezone.
type Document struct {
	Brand         config.Brand
	OrderNumber   string
	Date          string
	Time          string
	CustomerName  string
	CustomerPhone string
	PaymentStatus string
	Lines         []Line
	GrandTotal    money.Cents
	Filename      string
}

func Filename(orderNumber string) string {
	return fmt.Sprintf("GetBerg-Invoice-%s.pdf", orderNumber)
}

// Build refuses unpaid orders.
func Build(o *orders.Order, brand config.Brand, loc *time.Location) (*Document, error) {
	if o.PaymentStatus != orders.PaymentPaid {
		return nil, fmt.Errorf("order %s: %w", o.OrderNumber, ErrNotPaid)
	}
	if loc == nil {
		loc = time.UTC
	}
	created := o.CreatedAt.In(loc)

	doc := &Document{
		Brand:         brand,
		OrderNumber:   o.OrderNumber,
		Date:          created.Format("2 January 2006"),
		Time:          created.Format("03:04 PM"),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		PaymentStatus: strings.ToUpper(string(o.PaymentStatus)),
		Lines:         make([]Line, 0, len(o.Items)),
		Filename:      Filename(o.OrderNumber),
	}
	for _, it := range o.Items {
		l := Line{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.PriceCents, Total: it.Total()}
		doc.Lines = append(doc.Lines, l)
		doc.GrandTotal += l.Total
	}
	return doc, nil
}
