package invoice

import (
	"bytes"
	"fmt"

	"github.com/ariefcatur/go-restaurant-orders/internal/money"
	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// Renderer draws a Document onto an A4 page. Core PDF fonts cannot show the
// rupee glyph, so amounts fall back to "Rs." unless FontPath names a UTF-8
// TrueType font.
type Renderer struct {
	FontPath string
}

const family = "brand"

var (
	copper = [3]int{205, 139, 101}
	cream  = [3]int{245, 240, 232}
	ink    = [3]int{51, 51, 51}
	black  = [3]int{10, 10, 10}
	green  = [3]int{34, 197, 94}
)

func (r *Renderer) amount(c money.Cents) string {
	if r.FontPath != "" {
		return money.Format(c)
	}
	return "Rs. " + c.Plain()
}

func (r *Renderer) Render(doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	face := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.FontPath != "" {
		for _, style := range []string{"", "B", "I"} {
			pdf.AddUTF8Font(family, style, r.FontPath)
		}
		face = family
		tr = func(s string) string { return s }
	}
	pdf.SetTitle("Invoice "+doc.OrderNumber, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load invoice font: %w", err)
	}

	pageW, pageH := pdf.GetPageSize()
	fill := func(c [3]int) { pdf.SetFillColor(c[0], c[1], c[2]) }
	text := func(c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }
	draw := func(c [3]int) { pdf.SetDrawColor(c[0], c[1], c[2]) }
	centered := func(y float64, s string) {
		pdf.SetXY(0, y-4)
		pdf.CellFormat(pageW, 8, tr(s), "", 0, "C", false, 0, "")
	}
	right := func(x, y float64, s string) {
		w := pdf.GetStringWidth(tr(s))
		pdf.Text(x-w, y, tr(s))
	}
	at := func(x, y float64, s string) { pdf.Text(x, y, tr(s)) }

	// header band
	fill(copper)
	pdf.Rect(0, 0, pageW, 50, "F")
	text(black)
	pdf.SetFont(face, "B", 32)
	centered(25, doc.Brand.Name)
	pdf.SetFont(face, "I", 12)
	centered(35, doc.Brand.Tagline)
	pdf.SetFont(face, "", 9)
	centered(43, doc.Brand.Address)

	text(copper)
	pdf.SetFont(face, "B", 20)
	centered(68, "INVOICE")
	draw(copper)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, 75, pageW-20, 75)

	// metadata
	const infoY, detailY = 90.0, 98.0
	text(ink)
	pdf.SetFont(face, "B", 10)
	at(20, infoY, "Invoice Details:")
	at(120, infoY, "Customer Details:")
	pdf.SetFont(face, "", 10)
	at(20, detailY, "Order Number:")
	pdf.SetFont(face, "B", 10)
	at(70, detailY, doc.OrderNumber)
	pdf.SetFont(face, "", 10)
	at(20, detailY+7, "Date:")
	at(70, detailY+7, doc.Date)
	at(20, detailY+14, "Time:")
	at(70, detailY+14, doc.Time)
	at(120, detailY, "Name:")
	at(155, detailY, doc.CustomerName)
	at(120, detailY+7, "Phone:")
	at(155, detailY+7, doc.CustomerPhone)
	at(120, detailY+14, "Status:")
	text(green)
	pdf.SetFont(face, "B", 10)
	at(155, detailY+14, doc.PaymentStatus)
	text(ink)
	pdf.Line(20, detailY+22, pageW-20, detailY+22)

	// items
	tableY := detailY + 32
	fill(copper)
	pdf.Rect(20, tableY, pageW-40, 10, "F")
	text(black)
	pdf.SetFont(face, "B", 11)
	at(25, tableY+7, "Item")
	at(110, tableY+7, "Qty")
	at(140, tableY+7, "Price")
	right(190, tableY+7, "Total")

	text(ink)
	pdf.SetFont(face, "", 10)
	y := tableY + 17
	for i, l := range doc.Lines {
		if y > 250 {
			pdf.AddPage()
			y = 30
		}
		if i%2 == 0 {
			fill(cream)
			pdf.Rect(20, y-5, pageW-40, 8, "F")
		}
		at(25, y, l.Name)
		at(110, y, fmt.Sprint(l.Quantity))
		at(140, y, r.amount(l.UnitPrice))
		right(190, y, r.amount(l.Total))
		y += 10
	}
	draw(copper)
	pdf.Line(20, y, pageW-20, y)

	// total and QR of the order number
	y += 10
	if y > 240 {
		pdf.AddPage()
		y = 30
	}
	qr, err := qrcode.Encode(doc.OrderNumber, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("order-qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("order-qr", 20, y-6, 24, 24, false, opts, 0, "")

	pdf.SetFont(face, "B", 14)
	at(130, y, "TOTAL:")
	text(copper)
	pdf.SetFont(face, "B", 16)
	right(190, y, r.amount(doc.GrandTotal))

	// footer
	footerY := pageH - 30
	text(ink)
	draw(copper)
	pdf.Line(20, footerY-5, pageW-20, footerY-5)
	pdf.SetFont(face, "I", 9)
	centered(footerY, fmt.Sprintf("Thank you for ordering from %s!", doc.Brand.Name))
	centered(footerY+6, "We hope to serve you again soon.")
	pdf.SetFont(face, "I", 8)
	centered(footerY+14, fmt.Sprintf("For any queries, please contact us at %s, %s", doc.Brand.Name, doc.Brand.Address))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", doc.OrderNumber, err)
	}
	return buf.Bytes(), nil
}
