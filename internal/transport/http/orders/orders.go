package orders

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/order"
	"github.com/corray333/backend-labs/fooddelivery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, userID, restaurantID int64, menuIDs []int64, quantities []int) (order.Order, error)
	GetOrder(ctx context.Context, orderID int64) (order.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, paymentSuccess bool) (order.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (order.Order, error)
}

// Handler serves the routes of the package.
type Handler struct {
	service service
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewHandler(service service) *Handler {
	return &Handler{service: service}
}

var (
	decoder  = newDecoder()
	validate = validator.New()
)

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// createOrderRequest represents the query of a create order request.
type createOrderRequest struct {
	UserID       int64   `schema:"userId,required"       validate:"gt=0"`
	RestaurantID int64   `schema:"restaurantId,required" validate:"gt=0"`
	MenuIDs      []int64 `schema:"menuIds"               validate:"required,min=1,dive,gt=0"`
	Quantities   []int   `schema:"quantities"            validate:"required,min=1"`
}

// normalizeLists accepts `k=1&k=2`, `k[]=1&k[]=2` and `k=1,2` for the given keys.
func normalizeLists(query url.Values, keys ...string) url.Values {
	out := make(url.Values, len(query))
	for k, v := range query {
		out[k] = v
	}

	for _, key := range keys {
		raw := append(append([]string{}, query[key]...), query[key+"[]"]...)
		delete(out, key+"[]")

		var values []string
		for _, r := range raw {
			for _, part := range strings.Split(r, ",") {
				if part = strings.TrimSpace(part); part != "" {
					values = append(values, part)
				}
			}
		}
		if len(values) > 0 {
			out[key] = values
		} else {
			delete(out, key)
		}
	}

	return out
}

// CreateOrder handles POST /api/orders/order/create.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	req := createOrderRequest{}
	query := normalizeLists(r.URL.Query(), "menuIds", "quantities")
	if err := decoder.Decode(&req, query); err != nil {
		slog.Error("Error decoding create order request", "error", err)
		respond.BadRequest(w, r, "userId, restaurantId, menuIds and quantities are required numbers")

		return
	}

	if err := validate.Struct(&req); err != nil {
		slog.Error("Error validating create order request", "error", err)
		respond.BadRequest(w, r, err.Error())

		return
	}

	created, err := h.service.CreateOrder(r.Context(), req.UserID, req.RestaurantID, req.MenuIDs, req.Quantities)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, created)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)

	return id, err == nil && id > 0
}

// GetOrder handles GET /api/orders/byOrderId/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.BadRequest(w, r, "order id must be a positive integer")

		return
	}

	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, o)
}

// GetOrdersByUserID handles GET /api/orders/order/byUserId/{userId}. No orders is a 404.
func (h *Handler) GetOrdersByUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		respond.BadRequest(w, r, "user id must be a positive integer")

		return
	}

	list, err := h.service.GetOrdersByUserID(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	if len(list) == 0 {
		respond.JSON(w, http.StatusNotFound, map[string]string{
			"kind":    "NOT_FOUND",
			"message": "no orders found for user " + strconv.FormatInt(userID, 10),
		})

		return
	}

	respond.JSON(w, http.StatusOK, list)
}

// UpdateStatus handles PUT /api/orders/order/updateStatus/{orderId}/{paymentSuccess}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "orderId")
	if !ok {
		respond.BadRequest(w, r, "order id must be a positive integer")

		return
	}

	paymentSuccess, err := strconv.ParseBool(chi.URLParam(r, "paymentSuccess"))
	if err != nil {
		respond.BadRequest(w, r, "paymentSuccess must be true or false")

		return
	}

	o, err := h.service.UpdateOrderStatus(r.Context(), id, paymentSuccess)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, o)
}

// CancelOrder handles PUT /api/orders/order/cancel/{orderId}.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "orderId")
	if !ok {
		respond.BadRequest(w, r, "order id must be a positive integer")

		return
	}

	o, err := h.service.CancelOrder(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, o)
}
