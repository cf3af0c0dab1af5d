package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/about"
	"github.com/ariefcatur/go-restaurant-orders/internal/auth"
	"github.com/ariefcatur/go-restaurant-orders/internal/identity"
	"github.com/ariefcatur/go-restaurant-orders/internal/menu"
	"github.com/ariefcatur/go-restaurant-orders/internal/orders"
	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	router   *chi.Mux
	resolver *fakeResolver
	auth     *fakeAuth
	orders   *fakeOrders
	menu     *fakeMenu
	about    *fakeAbout
}

func newHarness(st auth.State) *harness {
	h := &harness{
		resolver: &fakeResolver{state: st},
		auth:     &fakeAuth{},
		orders: &fakeOrders{
			statusSet:  map[string]orders.Status{},
			paymentSet: map[string]orders.PaymentStatus{},
			track: map[string]orders.Tracking{
				"ORD-abc-XYZ": {OrderNumber: "ORD-abc-XYZ", Status: orders.StatusPreparing, Step: 1, PaymentStatus: orders.PaymentUnpaid},
			},
		},
		menu:  &fakeMenu{},
		about: &fakeAbout{},
	}
	am := &AuthMiddleware{Resolver: h.resolver, Timeout: 50 * time.Millisecond}
	h.router = NewRouter([]string{"http://localhost:5173"}, am, Handlers{
		Menu:   &MenuHandler{Menu: h.menu},
		About:  &AboutHandler{About: h.about},
		Orders: &OrdersHandler{Orders: h.orders},
		Auth:   &AuthHandler{Auth: h.auth, Cookies: am},
		Admin:  &AdminHandler{Menu: h.menu, Orders: h.orders, Invoices: fakeInvoices{}},
	})
	return h
}

func (h *harness) do(method, path, body string, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mods {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func withDevice(id string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: deviceCookie, Value: id}) }
}

func withBearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func customer() auth.State {
	return auth.Authenticated(identity.User{ID: "u-1", Email: "c@example.com"}, false)
}

func TestHealthz(t *testing.T) {
	rec := newHarness(auth.Guest()).do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAdminGate(t *testing.T) {
	cases := []struct {
		name string
		st   auth.State
		err  error
		code int
	}{
		{"guest", auth.Guest(), nil, http.StatusUnauthorized},
		{"customer", customer(), nil, http.StatusForbidden},
		{"legacy admin", auth.LegacyAdmin(), nil, http.StatusOK},
		{"hosted admin", auth.Authenticated(identity.User{ID: "u-a"}, true), nil, http.StatusOK},
		{"lookup failed", auth.Loading(), errors.New("db down"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(tc.st)
			h.resolver.err = tc.err
			rec := h.do(http.MethodGet, "/api/admin/orders", "")
			assert.Equal(t, tc.code, rec.Code)
			if tc.code == http.StatusServiceUnavailable {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestAdminGate_SlowResolutionIsNotAFalseDenial(t *testing.T) {
	h := newHarness(auth.LegacyAdmin())
	h.resolver.block = true
	rec := h.do(http.MethodGet, "/api/admin/menu", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCredentials_DeviceCookieAndBearer(t *testing.T) {
	h := newHarness(auth.Guest())

	rec := h.do(http.MethodGet, "/api/auth/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var issued *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == deviceCookie {
			issued = c
		}
	}
	require.NotNil(t, issued, "device cookie issued on first contact")
	assert.True(t, issued.HttpOnly)
	assert.JSONEq(t, `{"state":"guest","loading":false,"is_admin":false,"user":null}`, rec.Body.String())

	h.do(http.MethodGet, "/api/auth/state", "", withDevice("dev-1"), withBearer("tok-9"))
	last := h.resolver.seen[len(h.resolver.seen)-1]
	assert.Equal(t, auth.Credentials{DeviceID: "dev-1", AccessToken: "tok-9"}, last)

	h.do(http.MethodGet, "/api/auth/state", "", withDevice("dev-1"), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok-cookie"})
	})
	last = h.resolver.seen[len(h.resolver.seen)-1]
	assert.Equal(t, "tok-cookie", last.AccessToken)
}

func TestPublicRoutesSkipResolution(t *testing.T) {
	h := newHarness(auth.Guest())
	rec := h.do(http.MethodGet, "/api/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{true}, h.menu.availableOnly)
	assert.Empty(t, h.resolver.seen)

	rec = h.do(http.MethodGet, "/api/about", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"","story":"","mission":"","facebook_url":"","instagram_url":"","updated_at":"0001-01-01T00:00:00Z"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(auth.Guest())
	rec := h.do(http.MethodOptions, "/api/orders", "", func(r *http.Request) {
		r.Header.Set("Origin", "http://localhost:5173")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	})
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestWriteError_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&orders.ValidationError{Field: "cart", Reason: "cart is empty"}, http.StatusBadRequest},
		{errInvalidJSON, http.StatusBadRequest},
		{orders.ErrNotFound, http.StatusNotFound},
		{auth.ErrUnauthorized, http.StatusUnauthorized},
		{errors.Join(auth.ErrUnauthorized, errors.New("sign out failed")), http.StatusUnauthorized},
		{identity.ErrEmailTaken, http.StatusConflict},
		{auth.ErrLegacyDisabled, http.StatusForbidden},
		{identity.ErrUnverifiedEmail, http.StatusForbidden},
		{errors.Join(orders.ErrPersistence, errors.New("conn reset")), http.StatusBadGateway},
		{postgres.Persistence("list menu", errors.New("conn reset")), http.StatusBadGateway},
		{postgres.Persistence("delete menu item", menu.ErrNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestAboutAdmin(t *testing.T) {
	h := newHarness(auth.LegacyAdmin())
	rec := h.do(http.MethodPut, "/api/admin/about", `{"story":"Since 2019","mission":"Good food"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, &about.Info{ID: "a-1", Story: "Since 2019", Mission: "Good food"}, h.about.info)

	rec = newHarness(auth.Guest()).do(http.MethodPut, "/api/admin/about", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
