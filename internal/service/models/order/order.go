package order

import (
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/currency"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

// Order represents an order placed by a user at a restaurant.
type Order struct {
	ID             int64                 `json:"orderId"`
	UserID         int64                 `json:"userId"`
	RestaurantID   int64                 `json:"restaurantId"`
	TotalAmount    decimal.Decimal       `json:"totalAmount"`
	GST            decimal.Decimal       `json:"gst"`
	DeliveryCharge decimal.Decimal       `json:"deliveryCharge"`
	PlatformCharge decimal.Decimal       `json:"platformCharge"`
	GrandTotal     decimal.Decimal       `json:"grandTotalPrice"`
	Currency       currency.Currency     `json:"currency"`
	Status         Status                `json:"orderStatus"`
	Version        int64                 `json:"version"`
	CreatedAt      time.Time             `json:"dateAndTime"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	OrderItems     []orderitem.OrderItem `json:"orderItems"`
}
