package menu

import (
	"time"

	"github.com/shopspring/decimal"
)

// Menu is a dish offered by a restaurant.
type Menu struct {
	ID           int64           `json:"menuId"`
	RestaurantID int64           `json:"restaurantId"`
	ItemName     string          `json:"itemName"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Available    bool            `json:"available"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// QueryMenusModel represents filter parameters for querying menus.
type QueryMenusModel struct {
	Ids           []int64
	RestaurantIds []int64
}
