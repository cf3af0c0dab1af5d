package httpx

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/auth"
	"github.com/ariefcatur/go-restaurant-orders/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	deviceCookie  = "device_id"
	sessionCookie = "session_token"
)

type ctxKey int

const (
	stateKey ctxKey = iota
	credsKey
)

// Resolver is the part of auth.Resolver the middleware needs.
type Resolver interface {
	Resolve(ctx context.Context, c auth.Credentials) (auth.State, error)
}

// AuthMiddleware resolves the caller once per request. A resolution that
// errors or outlives Timeout leaves the request in the loading state.
type AuthMiddleware struct {
	Resolver      Resolver
	Timeout       time.Duration
	SecureCookies bool
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := m.credentials(w, r)

		timeout := m.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		st, err := m.Resolver.Resolve(ctx, creds)
		cancel()
		if err != nil {
			log.Printf("resolve auth request_id=%s: %v", middleware.GetReqID(r.Context()), err)
			st = auth.Loading()
		}

		ctx = context.WithValue(r.Context(), stateKey, st)
		ctx = context.WithValue(ctx, credsKey, creds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// credentials reads the device id, issuing one on first contact, and the
// session token from the Authorization header or the session cookie.
func (m *AuthMiddleware) credentials(w http.ResponseWriter, r *http.Request) auth.Credentials {
	var c auth.Credentials
	if ck, err := r.Cookie(deviceCookie); err == nil && ck.Value != "" {
		c.DeviceID = ck.Value
	} else {
		c.DeviceID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     deviceCookie,
			Value:    c.DeviceID,
			Path:     "/",
			MaxAge:   365 * 24 * 3600,
			HttpOnly: true,
			Secure:   m.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		c.AccessToken = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	} else if ck, err := r.Cookie(sessionCookie); err == nil {
		c.AccessToken = ck.Value
	}
	return c
}

func (m *AuthMiddleware) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *AuthMiddleware) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: m.SecureCookies})
}

func stateFrom(ctx context.Context) auth.State {
	st, _ := ctx.Value(stateKey).(auth.State)
	return st
}

func credsFrom(ctx context.Context) auth.Credentials {
	c, _ := ctx.Value(credsKey).(auth.Credentials)
	return c
}

func stillLoading(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "authentication is still being resolved"})
}

// RequireAdmin never turns an unfinished check into a 401.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := stateFrom(r.Context())
		switch {
		case !st.Resolved():
			stillLoading(w)
		case st.IsAdmin():
			next.ServeHTTP(w, r)
		case st.Kind == auth.KindAuthenticated:
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		}
	})
}

func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := stateFrom(r.Context())
		switch {
		case !st.Resolved():
			stillLoading(w)
		case st.Kind == auth.KindAuthenticated:
			next.ServeHTTP(w, r)
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		}
	})
}

func traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := orders.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
