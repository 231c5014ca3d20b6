package menus

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/menu"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/restaurant"
	"github.com/corray333/backend-labs/fooddelivery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type service interface {
	CreateRestaurant(ctx context.Context, r restaurant.Restaurant) (restaurant.Restaurant, error)
	GetRestaurant(ctx context.Context, id int64) (restaurant.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]restaurant.Restaurant, error)
	SaveMenu(ctx context.Context, m menu.Menu) (menu.Menu, error)
	GetMenu(ctx context.Context, id int64) (menu.Menu, error)
	GetAllMenus(ctx context.Context) ([]menu.Menu, error)
	UpdateMenu(ctx context.Context, id int64, m menu.Menu) (menu.Menu, error)
	DeleteMenu(ctx context.Context, id int64) error
	GetMenusByRestaurantName(ctx context.Context, name string) ([]menu.Menu, error)
}

// Handler serves the routes of the package.
type Handler struct {
	service service
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewHandler(service service) *Handler {
	return &Handler{service: service}
}

var validate = validator.New()

type restaurantRequest struct {
	Name    string `json:"restaurantName" validate:"required,max=255"`
	Address string `json:"address"        validate:"max=500"`
	Contact string `json:"contactNo"      validate:"omitempty,numeric,len=10"`
}

type menuRequest struct {
	RestaurantID int64           `json:"restaurantId" validate:"gt=0"`
	ItemName     string          `json:"itemName"     validate:"required,max=255"`
	Description  string          `json:"description"  validate:"max=1000"`
	Price        decimal.Decimal `json:"price"`
	Available    *bool           `json:"available"`
}

func (r *menuRequest) toModel() menu.Menu {
	available := true
	if r.Available != nil {
		available = *r.Available
	}

	return menu.Menu{
		RestaurantID: r.RestaurantID,
		ItemName:     r.ItemName,
		Description:  r.Description,
		Price:        r.Price,
		Available:    available,
	}
}

// decode reads a JSON body into v and validates it. It writes the error response itself.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.BadRequest(w, r, "request body must be valid JSON")

		return false
	}
	if err := validate.Struct(v); err != nil {
		respond.BadRequest(w, r, err.Error())

		return false
	}

	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respond.BadRequest(w, r, name+" must be a positive integer")

		return 0, false
	}

	return id, true
}

func (h *Handler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	req := restaurantRequest{}
	if !decode(w, r, &req) {
		return
	}

	created, err := h.service.CreateRestaurant(r.Context(), restaurant.Restaurant{
		Name:    req.Name,
		Address: req.Address,
		Contact: req.Contact,
	})
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, created)
}

func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rs, err := h.service.GetRestaurant(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, rs)
}

func (h *Handler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRestaurants(r.Context())
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, list)
}

func (h *Handler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	req := menuRequest{}
	if !decode(w, r, &req) {
		return
	}

	created, err := h.service.SaveMenu(r.Context(), req.toModel())
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, created)
}

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "menuId")
	if !ok {
		return
	}

	m, err := h.service.GetMenu(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, m)
}

func (h *Handler) GetAllMenus(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.GetAllMenus(r.Context())
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, list)
}

// UpdateMenu handles PUT /api/menus/menu/update/{menuId}. restaurantId in the body is ignored.
func (h *Handler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "menuId")
	if !ok {
		return
	}

	req := menuRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "request body must be valid JSON")

		return
	}
	if err := validate.StructExcept(&req, "RestaurantID"); err != nil {
		respond.BadRequest(w, r, err.Error())

		return
	}

	m, err := h.service.UpdateMenu(r.Context(), id, req.toModel())
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "menuId")
	if !ok {
		return
	}

	if err := h.service.DeleteMenu(r.Context(), id); err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.Message(w, "Menu deleted successfully")
}

func (h *Handler) GetMenusByRestaurantName(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.GetMenusByRestaurantName(r.Context(), chi.URLParam(r, "restaurantName"))
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, list)
}
