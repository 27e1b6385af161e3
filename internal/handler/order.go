package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/service"
)

// OrderHandler handles HTTP requests for order and trade endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// orderResponse carries the order as it stands after the call together with
// the patches and events the call produced.
type orderResponse struct {
	Order  domain.Order  `json:"order"`
	Result engine.Result `json:"result"`
}

// orderListResponse is the JSON response for GET /accounts/{account_key}/orders.
type orderListResponse struct {
	Orders []domain.Order `json:"orders"`
}

// tradeListResponse is the JSON response for GET /accounts/{account_key}/trades.
type tradeListResponse struct {
	Trades []domain.Trade `json:"trades"`
}

// Insert handles POST /accounts/{account_key}/orders. Rejected orders are
// still created; their outcome is in status and last_msg.
func (h *OrderHandler) Insert(w http.ResponseWriter, r *http.Request) {
	// domain.InsertOrder decodes itself, so the body may carry "aid".
	var cmd domain.InsertOrder
	if err := ParseJSON(r, &cmd); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	key := chi.URLParam(r, "account_key")
	res, err := h.orderSvc.Insert(r.Context(), key, cmd)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	order, err := h.orderSvc.Get(key, cmd.OrderID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, orderResponse{Order: order, Result: res})
}

// List handles GET /accounts/{account_key}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderSvc.List(chi.URLParam(r, "account_key"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, orderListResponse{Orders: orders})
}

// Get handles GET /accounts/{account_key}/orders/{order_id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.Get(chi.URLParam(r, "account_key"), chi.URLParam(r, "order_id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, order)
}

// Cancel handles DELETE /accounts/{account_key}/orders/{order_id}.
// Cancelling a finished order succeeds with an empty result.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "account_key")
	orderID := chi.URLParam(r, "order_id")

	if _, err := h.orderSvc.Get(key, orderID); err != nil {
		WriteServiceError(w, err)
		return
	}

	res, err := h.orderSvc.Cancel(r.Context(), key, orderID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	order, err := h.orderSvc.Get(key, orderID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, orderResponse{Order: order, Result: res})
}

// Trades handles GET /accounts/{account_key}/trades.
func (h *OrderHandler) Trades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.orderSvc.Trades(chi.URLParam(r, "account_key"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	if trades == nil {
		trades = []domain.Trade{}
	}
	WriteJSON(w, http.StatusOK, tradeListResponse{Trades: trades})
}
