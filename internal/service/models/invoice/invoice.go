package invoice

import (
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/order"
)

// Invoice is issued once per order.
type Invoice struct {
	ID          int64        `json:"invoiceId"`
	OrderID     int64        `json:"orderId"`
	InvoiceDate time.Time    `json:"invoiceDate"`
	Order       *order.Order `json:"order,omitempty"`
}
