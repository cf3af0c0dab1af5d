package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/about"
	"github.com/go-chi/chi/v5"
)

type AboutStore interface {
	Get(ctx context.Context) (*about.Info, error)
	Save(ctx context.Context, in about.Info) (*about.Info, error)
}

type AboutHandler struct {
	About AboutStore
}

func (h *AboutHandler) Register(r chi.Router) {
	r.Get("/api/about", h.get)
}

// RegisterAdmin expects r to be mounted under /api/admin.
func (h *AboutHandler) RegisterAdmin(r chi.Router) {
	r.Get("/about", h.get)
	r.Put("/about", h.save)
}

func (h *AboutHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	info, err := h.About.Get(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if info == nil {
		// nothing saved yet
		writeJSON(w, http.StatusOK, about.Info{})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *AboutHandler) save(w http.ResponseWriter, r *http.Request) {
	var req about.Info
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	info, err := h.About.Save(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
