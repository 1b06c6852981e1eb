package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Sifanww/senlin-yogurt/internal/auth"
	"github.com/Sifanww/senlin-yogurt/internal/domain"
	"github.com/Sifanww/senlin-yogurt/internal/service"
)

type Handler struct {
	Orders service.OrderServiceInterface
	Auth   *auth.Middleware
}

func NewHandler(orderSvc service.OrderServiceInterface, authMw *auth.Middleware) *Handler {
	return &Handler{Orders: orderSvc, Auth: authMw}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/orders", h.Auth.Require(h.createOrder)).Methods("POST")
	r.HandleFunc("/api/orders", h.Auth.Require(h.getOrders)).Methods("GET")
	r.HandleFunc("/api/orders/{id}", h.Auth.Require(h.getOrder)).Methods("GET")
	r.HandleFunc("/api/orders/{id}/status", h.Auth.Require(h.updateOrderStatus)).Methods("PUT")
	r.HandleFunc("/api/orders/{id}/remark", h.Auth.Require(h.updateOrderRemark)).Methods("PUT")
	r.HandleFunc("/api/orders/{id}", h.Auth.Require(h.deleteOrder)).Methods("DELETE")
	r.HandleFunc("/api/orders/{id}/payqr", h.Auth.Require(h.getPaymentQR)).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "order-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func writeData(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

// writeServiceError maps the order error taxonomy onto HTTP statuses. An
// unknown product names the offending id so the client can highlight the
// cart line.
func writeServiceError(w http.ResponseWriter, err error) {
	var invalidProduct *domain.InvalidProductError
	switch {
	case errors.As(err, &invalidProduct):
		http.Error(w, invalidProduct.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Order not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrBadQuantity),
		errors.Is(err, service.ErrNegativePrice),
		errors.Is(err, service.ErrUnknownStatus),
		errors.Is(err, service.ErrMissingStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var payload struct {
		Items  []domain.NewOrderItem `json:"items"`
		Remark string                `json:"remark"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.Orders.Create(r.Context(), user, payload.Items, payload.Remark)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, receipt)
}

func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var statusFilter *int
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		statusFilter = &status
	}

	orders, err := h.Orders.List(r.Context(), user, statusFilter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	orderID, _ := strconv.Atoi(mux.Vars(r)["id"])

	order, err := h.Orders.Get(r.Context(), user, orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, order)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	orderID, _ := strconv.Atoi(mux.Vars(r)["id"])

	var payload struct {
		Status *int `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if payload.Status == nil {
		writeServiceError(w, service.ErrMissingStatus)
		return
	}

	pickupNumber, err := h.Orders.UpdateStatus(r.Context(), user, orderID, *payload.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := map[string]interface{}{"message": "updated"}
	if pickupNumber != "" {
		response["pickup_number"] = pickupNumber
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *Handler) updateOrderRemark(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	orderID, _ := strconv.Atoi(mux.Vars(r)["id"])

	var payload struct {
		Remark string `json:"remark"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Orders.UpdateRemark(r.Context(), user, orderID, payload.Remark); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "updated"})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	orderID, _ := strconv.Atoi(mux.Vars(r)["id"])

	if err := h.Orders.Delete(r.Context(), user, orderID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getPaymentQR(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	orderID, _ := strconv.Atoi(mux.Vars(r)["id"])

	qrCode, err := h.Orders.PaymentQR(r.Context(), user, orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(qrCode)
}
