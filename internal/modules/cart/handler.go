package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kartik7310/ProductHub/internal/modules/user"
)

// Handler exposes cart endpoints for the authenticated user.
type Handler struct{ repo Repository }

func NewHandler(repo Repository) *Handler { return &Handler{repo: repo} }

func (h *Handler) RegisterRoutes(router *chi.Mux, requireAuth func(http.Handler) http.Handler) {
	router.Route("/api/v1/carts", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", h.createCart)
		r.Get("/current", h.currentCart)
	})
}

func (h *Handler) createCart(w http.ResponseWriter, r *http.Request) {
	p, ok := user.PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	c := &Cart{ID: uuid.New(), UserID: p.ID}
	if err := h.repo.Create(r.Context(), c); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, c)
}

func (h *Handler) currentCart(w http.ResponseWriter, r *http.Request) {
	p, ok := user.PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	c, err := h.repo.LatestActiveByUser(r.Context(), p.ID)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrNotFound) {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, c)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
