package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-sales-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type OrderService interface {
	Create(ctx context.Context, in orders.CreateInput) (orders.CreateResult, error)
	List(ctx context.Context) ([]orders.Order, error)
	Get(ctx context.Context, id int64) (orders.Order, error)
	Delete(ctx context.Context, id int64) error
}

type OrdersHandler struct {
	Orders OrderService
	Log    zerolog.Logger
}

type CreateOrderItemReq struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	VariantID *int64  `json:"variantId,omitempty"`
	Name      *string `json:"name,omitempty"`
}

type CreateOrderReq struct {
	CustomerName string               `json:"customerName"`
	Items        []CreateOrderItemReq `json:"items"`
}

type CreateOrderResp struct {
	Message string  `json:"message"`
	OrderID int64   `json:"orderId"`
	Total   float64 `json:"total"`
	Items   int     `json:"items"`
}

type OrderItemResp struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"productId"`
	ProductName *string `json:"productName"`
	VariantID   *int64  `json:"variantId"`
	Qty         int     `json:"qty"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

type OrderResp struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customerName"`
	Subtotal     float64         `json:"subtotal"`
	Tax          float64         `json:"tax"`
	Total        float64         `json:"total"`
	CreatedAt    time.Time       `json:"createdAt"`
	Items        []OrderItemResp `json:"items"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Delete("/orders/{id}", h.deleteOrder)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	in := orders.CreateInput{CustomerName: req.CustomerName, Items: make([]orders.ItemInput, 0, len(req.Items))}
	for _, it := range req.Items {
		in.Items = append(in.Items, orders.ItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			VariantID: it.VariantID,
			Name:      it.Name,
		})
	}

	res, err := h.Orders.Create(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateOrderResp{
		Message: "Order stored",
		OrderID: res.OrderID,
		Total:   res.Total,
		Items:   res.ItemCount,
	})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]OrderResp, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResp(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if err := h.Orders.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}

func (h *OrdersHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, orders.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	default:
		h.Log.Error().Err(err).Msg("order request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toOrderResp(o orders.Order) OrderResp {
	items := make([]OrderItemResp, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResp{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			VariantID:   it.VariantID,
			Qty:         it.Qty,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return OrderResp{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		Subtotal:     o.Subtotal,
		Tax:          o.Tax,
		Total:        o.Total,
		CreatedAt:    o.CreatedAt,
		Items:        items,
	}
}
