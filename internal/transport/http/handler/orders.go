package handler

import (
	"net/http"

	"github.com/storefront-api/internal/application/order"
	"github.com/storefront-api/internal/domain"
	"github.com/storefront-api/internal/transport/http/middleware"
)

// OrderHandler serves checkout and the admin order board.
type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler { return &OrderHandler{svc: svc} }

func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	var req domain.PlaceOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.svc.Place(r.Context(), u.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, OrderEnvelope{Success: true, Message: "Order Placed", Order: o})
}

func (h *OrderHandler) UserOrders(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	orders, err := h.svc.ListForUser(r.Context(), u.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrdersEnvelope{Success: true, Orders: orders})
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListAll(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrdersEnvelope{Success: true, Orders: orders})
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.svc.UpdateStatus(r.Context(), body.OrderID, body.Status); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Status Updated")
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID string `json:"orderId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.svc.Delete(r.Context(), body.OrderID); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Order Deleted")
}
