package orderitem

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem represents a line of an order. Name and price are snapshotted from the menu at order time.
type OrderItem struct {
	ID        int64           `json:"orderItemId"`
	OrderID   int64           `json:"orderId"`
	MenuID    int64           `json:"menuId"`
	MenuName  string          `json:"itemName"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ItemTotal decimal.Decimal `json:"itemTotalPrice"`
	CreatedAt time.Time       `json:"createdAt"`
}
