package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kartik7310/ProductHub/internal/modules/catalog"
	"github.com/kartik7310/ProductHub/internal/modules/inventory"
	"github.com/kartik7310/ProductHub/internal/modules/user"
)

// Handler exposes order HTTP endpoints. All routes require authentication;
// non-admin principals only ever see their own orders.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(router *chi.Mux, requireAuth func(http.Handler) http.Handler) {
	router.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Patch("/{id}", h.updateOrder)
		r.Delete("/{id}", h.cancelOrder)
	})
}

// owner returns the ownership filter for the request: nil for admins, the
// principal's id for everyone else.
func owner(p user.Principal) *uuid.UUID {
	if p.IsAdmin() {
		return nil
	}
	id := p.ID
	return &id
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := user.PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.CreateOrder(r.Context(), p.ID, req)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	p, id, stop := h.principalAndID(w, r)
	if stop {
		return
	}
	o, err := h.service.GetOrder(r.Context(), id, owner(p))
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := user.PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	q := Query{
		Status: OrderStatus(strings.ToUpper(r.URL.Query().Get("status"))),
		Page:   atoiDefault(r.URL.Query().Get("page"), 1),
		Limit:  atoiDefault(r.URL.Query().Get("limit"), 10),
	}
	orders, err := h.service.ListOrders(r.Context(), owner(p), q)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	p, id, stop := h.principalAndID(w, r)
	if stop {
		return
	}
	var patch UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.UpdateOrder(r.Context(), id, owner(p), patch)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	p, id, stop := h.principalAndID(w, r)
	if stop {
		return
	}
	o, err := h.service.CancelOrder(r.Context(), id, owner(p))
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) principalAndID(w http.ResponseWriter, r *http.Request) (user.Principal, uuid.UUID, bool) {
	p, ok := user.PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return user.Principal{}, uuid.Nil, true
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return user.Principal{}, uuid.Nil, true
	}
	return p, id, false
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, ErrNotCancellable), errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case strings.Contains(err.Error(), "invalid"), strings.Contains(err.Error(), "must"),
		strings.Contains(err.Error(), "at least one"), strings.Contains(err.Error(), "not available"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
