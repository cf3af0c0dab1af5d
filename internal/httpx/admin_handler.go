package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/invoice"
	"github.com/ariefcatur/go-restaurant-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

type InvoiceService interface {
	Invoice(ctx context.Context, orderID string) (*invoice.PDF, error)
}

// AdminHandler serves the back office. Routes are relative to /api/admin
// and sit behind RequireAdmin.
type AdminHandler struct {
	Menu     MenuService
	Orders   OrderService
	Invoices InvoiceService
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/menu", h.listMenu)
	r.Post("/menu", h.saveMenu)
	r.Put("/menu/{id}", h.saveMenu)
	r.Delete("/menu/{id}", h.deleteMenu)

	r.Get("/orders", h.listOrders)
	r.Get("/orders/counts", h.counts)
	r.Patch("/orders/{id}/status", h.setStatus)
	r.Patch("/orders/{id}/payment", h.setPayment)
	r.Get("/orders/{id}/invoice", h.invoice)
}

func (h *AdminHandler) listMenu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Menu.List(ctx, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) saveMenu(w http.ResponseWriter, r *http.Request) {
	var req menuItemReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.Menu.Save(ctx, req.input(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	code := http.StatusOK
	if id == "" {
		code = http.StatusCreated
	}
	writeJSON(w, code, item)
}

func (h *AdminHandler) deleteMenu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Menu.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listOrders takes ?status=pending|preparing|delivered; empty or "all" lists everything.
func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	var filter *orders.Status
	if q := r.URL.Query().Get("status"); q != "" && q != "all" {
		st, err := orders.ParseStatus(q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter = &st
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Orders.ListOrders(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) counts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	counts, err := h.Orders.CountByStatus(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body := map[string]int{"all": 0}
	for st, n := range counts {
		body[string(st)] = n
		body["all"] += n
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *AdminHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Orders.SetStatus(ctx, id, st); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(st)})
}

func (h *AdminHandler) setPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := orders.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Orders.SetPaymentStatus(ctx, id, p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "payment_status": string(p)})
}

func (h *AdminHandler) invoice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pdf, err := h.Invoices.Invoice(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdf.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf.Data)
}
