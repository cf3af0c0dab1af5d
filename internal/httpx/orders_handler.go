package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/auth"
	"github.com/ariefcatur/go-restaurant-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	Checkout(ctx context.Context, cart *orders.Cart, form orders.CheckoutForm) (*orders.Order, error)
	ListOrders(ctx context.Context, status *orders.Status) ([]orders.Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]orders.Order, error)
	CountByStatus(ctx context.Context) (map[orders.Status]int, error)
	Get(ctx context.Context, id string) (*orders.Order, error)
	SetStatus(ctx context.Context, id string, st orders.Status) error
	SetPaymentStatus(ctx context.Context, id string, p orders.PaymentStatus) error
	Track(ctx context.Context, number string) (*orders.Tracking, error)
}

var _ OrderService = (*orders.Service)(nil)

type OrdersHandler struct {
	Orders OrderService
}

type checkoutReq struct {
	CustomerName    string           `json:"customer_name"`
	CustomerPhone   string           `json:"customer_phone"`
	DeliveryAddress string           `json:"delivery_address"`
	Location        *orders.Location `json:"location"`
	Items           []orders.Entry   `json:"items"`
}

func (h *OrdersHandler) RegisterPublic(r chi.Router) {
	r.Get("/api/orders/track/{number}", h.track)
}

// Register needs the authenticated group: checkout links the order to a
// signed-in customer when there is one.
func (h *OrdersHandler) Register(r chi.Router, am *AuthMiddleware) {
	r.Post("/api/orders", h.checkout)
	r.With(am.RequireUser).Get("/api/orders/mine", h.mine)
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cart := orders.NewCart()
	if err := cart.Restore(req.Items); err != nil {
		writeError(w, r, err)
		return
	}
	form := orders.CheckoutForm{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		Location:        req.Location,
	}
	if st := stateFrom(r.Context()); st.Kind == auth.KindAuthenticated {
		form.UserID = st.User.ID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Checkout(ctx, cart, form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) track(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	t, err := h.Orders.Track(ctx, chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *OrdersHandler) mine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Orders.ListOrdersForUser(ctx, stateFrom(r.Context()).User.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
