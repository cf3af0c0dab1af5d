package httpx

import (
	"context"
	"sync"

	"github.com/ariefcatur/go-restaurant-orders/internal/about"
	"github.com/ariefcatur/go-restaurant-orders/internal/auth"
	"github.com/ariefcatur/go-restaurant-orders/internal/identity"
	"github.com/ariefcatur/go-restaurant-orders/internal/invoice"
	"github.com/ariefcatur/go-restaurant-orders/internal/menu"
	"github.com/ariefcatur/go-restaurant-orders/internal/orders"
)

type fakeResolver struct {
	mu    sync.Mutex
	state auth.State
	err   error
	block bool
	seen  []auth.Credentials
}

func (f *fakeResolver) Resolve(ctx context.Context, c auth.Credentials) (auth.State, error) {
	f.mu.Lock()
	f.seen = append(f.seen, c)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return auth.Loading(), ctx.Err()
	}
	return f.state, f.err
}

type fakeAuth struct {
	loggedOut []auth.Credentials
	oauthTo   string
}

func (f *fakeAuth) LoginLegacy(_ context.Context, deviceID, password string) (auth.State, error) {
	if password != "letmein" {
		return auth.Guest(), auth.ErrUnauthorized
	}
	return auth.LegacyAdmin(), nil
}

func (f *fakeAuth) LoginAdmin(_ context.Context, email, password string) (*identity.Session, auth.State, error) {
	if email != "admin@example.com" {
		return nil, auth.Guest(), auth.ErrUnauthorized
	}
	u := identity.User{ID: "u-admin", Email: email}
	return &identity.Session{Token: "tok-admin", User: u}, auth.Authenticated(u, true), nil
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*identity.Session, auth.State, error) {
	if password != "pw" {
		return nil, auth.Guest(), identity.ErrInvalidCredentials
	}
	u := identity.User{ID: "u-1", Email: email}
	return &identity.Session{Token: "tok-1", User: u}, auth.Authenticated(u, false), nil
}

func (f *fakeAuth) SignUp(_ context.Context, email, password, name string) (*identity.Session, auth.State, error) {
	if email == "taken@example.com" {
		return nil, auth.Guest(), identity.ErrEmailTaken
	}
	u := identity.User{ID: "u-2", Email: email, Name: name}
	return &identity.Session{Token: "tok-2", User: u}, auth.Authenticated(u, false), nil
}

func (f *fakeAuth) StartOAuth(_ context.Context, provider, redirectTo string) (string, error) {
	if provider != "google" {
		return "", identity.ErrUnknownProvider
	}
	f.oauthTo = redirectTo
	return "https://accounts.example/o/auth?state=s1", nil
}

func (f *fakeAuth) CompleteOAuth(_ context.Context, provider, state, code string) (*identity.Session, auth.State, string, error) {
	if state != "s1" {
		return nil, auth.Guest(), "", identity.ErrInvalidState
	}
	u := identity.User{ID: "u-3"}
	return &identity.Session{Token: "tok-3", User: u}, auth.Authenticated(u, false), "https://evil.example", nil
}

func (f *fakeAuth) Logout(_ context.Context, c auth.Credentials) error {
	f.loggedOut = append(f.loggedOut, c)
	return nil
}

type fakeOrders struct {
	checkoutErr error
	checkedOut  []orders.CheckoutForm
	cartTotal   int64
	statusSet   map[string]orders.Status
	paymentSet  map[string]orders.PaymentStatus
	filter      *orders.Status
	forUser     string
	track       map[string]orders.Tracking
}

func (f *fakeOrders) Checkout(_ context.Context, cart *orders.Cart, form orders.CheckoutForm) (*orders.Order, error) {
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	if form.CustomerName == "" {
		return nil, &orders.ValidationError{Field: "customer_name", Reason: "name is required"}
	}
	f.checkedOut = append(f.checkedOut, form)
	f.cartTotal = int64(cart.Total())
	return &orders.Order{ID: "o-1", OrderNumber: "ORD-abc-XYZ", TotalCents: cart.Total(),
		Status: orders.StatusPending, PaymentStatus: orders.PaymentUnpaid, UserID: form.UserID}, nil
}

func (f *fakeOrders) ListOrders(_ context.Context, st *orders.Status) ([]orders.Order, error) {
	f.filter = st
	return []orders.Order{}, nil
}

func (f *fakeOrders) ListOrdersForUser(_ context.Context, userID string) ([]orders.Order, error) {
	f.forUser = userID
	return []orders.Order{{ID: "o-1", UserID: userID}}, nil
}

func (f *fakeOrders) CountByStatus(context.Context) (map[orders.Status]int, error) {
	return map[orders.Status]int{orders.StatusPending: 2, orders.StatusPreparing: 1, orders.StatusDelivered: 0}, nil
}

func (f *fakeOrders) Get(_ context.Context, id string) (*orders.Order, error) {
	return nil, orders.ErrNotFound
}

func (f *fakeOrders) SetStatus(_ context.Context, id string, st orders.Status) error {
	if id == "missing" {
		return orders.ErrNotFound
	}
	f.statusSet[id] = st
	return nil
}

func (f *fakeOrders) SetPaymentStatus(_ context.Context, id string, p orders.PaymentStatus) error {
	f.paymentSet[id] = p
	return nil
}

func (f *fakeOrders) Track(_ context.Context, number string) (*orders.Tracking, error) {
	t, ok := f.track[number]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &t, nil
}

type fakeMenu struct {
	availableOnly []bool
	saved         []menu.Input
}

func (f *fakeMenu) List(_ context.Context, availableOnly bool) ([]menu.MenuItem, error) {
	f.availableOnly = append(f.availableOnly, availableOnly)
	return []menu.MenuItem{{ID: "m-1", Name: "Burger", PriceCents: 12000, IsAvailable: true}}, nil
}

func (f *fakeMenu) Save(_ context.Context, in menu.Input) (*menu.MenuItem, error) {
	f.saved = append(f.saved, in)
	if in.Price == "" {
		return nil, menu.ErrInvalid
	}
	id := in.ID
	if id == "" {
		id = "m-new"
	}
	return &menu.MenuItem{ID: id, Name: in.Name}, nil
}

func (f *fakeMenu) Delete(_ context.Context, id string) error {
	if id != "m-1" {
		return menu.ErrNotFound
	}
	return nil
}

type fakeAbout struct{ info *about.Info }

func (f *fakeAbout) Get(context.Context) (*about.Info, error) { return f.info, nil }

func (f *fakeAbout) Save(_ context.Context, in about.Info) (*about.Info, error) {
	in.ID = "a-1"
	f.info = &in
	return &in, nil
}

type fakeInvoices struct{}

func (fakeInvoices) Invoice(_ context.Context, id string) (*invoice.PDF, error) {
	switch id {
	case "paid":
		return &invoice.PDF{Filename: "GetBerg-Invoice-ORD-abc-XYZ.pdf", Data: []byte("%PDF-1.3 test")}, nil
	case "unpaid":
		return nil, invoice.ErrNotPaid
	}
	return nil, orders.ErrNotFound
}
