package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kartik7310/ProductHub/internal/modules/order"
	"github.com/kartik7310/ProductHub/internal/modules/user"
)

// Handler exposes payment HTTP endpoints. All routes require authentication
// and operate on the caller's own payments.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(router *chi.Mux, requireAuth func(http.Handler) http.Handler) {
	router.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/intent", h.createIntent)
		r.Post("/verify", h.verify)
		r.Get("/", h.listPayments)
		r.Get("/{id}", h.getPayment)
		r.Get("/order/{order_id}", h.getPaymentByOrder)
	})
}

func (h *Handler) createIntent(w http.ResponseWriter, r *http.Request) {
	p, ok := user.PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	resp, err := h.service.CreateIntent(r.Context(), p.ID, req)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, resp)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	p, ok := user.PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	pay, err := h.service.Verify(r.Context(), p.ID, req)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, pay)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	p, ok := user.PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	payments, err := h.service.ListPayments(r.Context(), p.ID)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, payments)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := user.PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid payment id"})
		return
	}
	pay, err := h.service.GetPayment(r.Context(), p.ID, id)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, pay)
}

func (h *Handler) getPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := user.PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	pay, err := h.service.GetPaymentByOrder(r.Context(), p.ID, orderID)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, pay)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, ErrPaymentNotCompleted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrGatewayUnavailable):
		return http.StatusBadGateway
	case strings.Contains(err.Error(), "invalid"), strings.Contains(err.Error(), "required"),
		strings.Contains(err.Error(), "must be"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
