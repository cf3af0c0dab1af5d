package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type Handlers struct {
	Menu   *MenuHandler
	About  *AboutHandler
	Orders *OrdersHandler
	Auth   *AuthHandler
	Admin  *AdminHandler
}

func NewRouter(origins []string, am *AuthMiddleware, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(traceID)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h.Menu.Register(r)
	h.About.Register(r)
	h.Orders.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(am.Authenticate)
		h.Auth.Register(r)
		h.Orders.Register(r, am)
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(am.RequireAdmin)
			h.Admin.Register(r)
			h.About.RegisterAdmin(r)
		})
	})
	return r
}
