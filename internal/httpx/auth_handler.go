package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/auth"
	"github.com/ariefcatur/go-restaurant-orders/internal/identity"
	"github.com/go-chi/chi/v5"
)

type Authenticator interface {
	LoginLegacy(ctx context.Context, deviceID, password string) (auth.State, error)
	LoginAdmin(ctx context.Context, email, password string) (*identity.Session, auth.State, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, auth.State, error)
	SignUp(ctx context.Context, email, password, name string) (*identity.Session, auth.State, error)
	StartOAuth(ctx context.Context, provider, redirectTo string) (string, error)
	CompleteOAuth(ctx context.Context, provider, state, code string) (*identity.Session, auth.State, string, error)
	Logout(ctx context.Context, c auth.Credentials) error
}

var _ Authenticator = (*auth.Resolver)(nil)

type AuthHandler struct {
	Auth    Authenticator
	Cookies *AuthMiddleware
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResp struct {
	AccessToken string     `json:"access_token,omitempty"`
	State       auth.State `json:"state"`
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Get("/api/auth/state", h.state)
	r.Post("/api/auth/signup", h.signUp)
	r.Post("/api/auth/signin", h.signIn)
	r.Post("/api/auth/admin/login", h.adminLogin)
	r.Post("/api/auth/legacy/login", h.legacyLogin)
	r.Post("/api/auth/logout", h.logout)
	r.Get("/api/auth/oauth/{provider}", h.oauthStart)
	r.Get("/api/auth/oauth/{provider}/callback", h.oauthCallback)
}

func (h *AuthHandler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateFrom(r.Context()))
}

type loginFunc func(ctx context.Context, email, password string) (*identity.Session, auth.State, error)

func (h *AuthHandler) passwordLogin(w http.ResponseWriter, r *http.Request, code int, login loginFunc) {
	var req credentialsReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, st, err := login(ctx, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Cookies.setSession(w, sess.Token)
	writeJSON(w, code, sessionResp{AccessToken: sess.Token, State: st})
}

func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, st, err := h.Auth.SignUp(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Cookies.setSession(w, sess.Token)
	writeJSON(w, http.StatusCreated, sessionResp{AccessToken: sess.Token, State: st})
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request) {
	h.passwordLogin(w, r, http.StatusOK, h.Auth.SignIn)
}

func (h *AuthHandler) adminLogin(w http.ResponseWriter, r *http.Request) {
	h.passwordLogin(w, r, http.StatusOK, h.Auth.LoginAdmin)
}

func (h *AuthHandler) legacyLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	st, err := h.Auth.LoginLegacy(ctx, credsFrom(r.Context()).DeviceID, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResp{State: st})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err := h.Auth.Logout(ctx, credsFrom(r.Context()))
	h.Cookies.clearSession(w)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(to string) string {
	if !strings.HasPrefix(to, "/") || strings.HasPrefix(to, "//") || strings.HasPrefix(to, "/\\") {
		return "/"
	}
	return to
}

func (h *AuthHandler) oauthStart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	target, err := h.Auth.StartOAuth(ctx, chi.URLParam(r, "provider"), safeRedirect(r.URL.Query().Get("redirect_to")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": e})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sess, _, redirectTo, err := h.Auth.CompleteOAuth(ctx, chi.URLParam(r, "provider"), q.Get("state"), q.Get("code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Cookies.setSession(w, sess.Token)
	http.Redirect(w, r, safeRedirect(redirectTo), http.StatusFound)
}
