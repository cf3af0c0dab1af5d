package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/menu"
	"github.com/go-chi/chi/v5"
)

type MenuService interface {
	List(ctx context.Context, availableOnly bool) ([]menu.MenuItem, error)
	Save(ctx context.Context, in menu.Input) (*menu.MenuItem, error)
	Delete(ctx context.Context, id string) error
}

type MenuHandler struct {
	Menu MenuService
}

func (h *MenuHandler) Register(r chi.Router) {
	r.Get("/api/menu", h.listAvailable)
}

func (h *MenuHandler) listAvailable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Menu.List(ctx, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type menuItemReq struct {
	Name        string      `json:"name"`
	Price       json.Number `json:"price"`
	ImageURL    string      `json:"image_url"`
	Description string      `json:"description"`
	IsAvailable *bool       `json:"is_available"`
}

func (req menuItemReq) input(id string) menu.Input {
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	return menu.Input{
		ID:          id,
		Name:        req.Name,
		Price:       req.Price.String(),
		ImageURL:    req.ImageURL,
		Description: req.Description,
		IsAvailable: available,
	}
}
