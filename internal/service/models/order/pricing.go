package order

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	// GSTRate is the goods and services tax applied to the item subtotal.
	GSTRate = decimal.RequireFromString("0.18")
	// PlatformRate is the platform fee applied to the item subtotal.
	PlatformRate = decimal.RequireFromString("0.05")
	// DeliveryCharge is the flat delivery fee.
	DeliveryCharge = decimal.RequireFromString("40.0")
)

// CancellationWindow is how long after placement a paid order may still be cancelled.
const CancellationWindow = 2 * time.Minute

// Recalculate derives every charge of the order from its line items.
func (o *Order) Recalculate() {
	total := decimal.Zero
	for _, item := range o.OrderItems {
		total = total.Add(item.ItemTotal)
	}

	o.TotalAmount = total
	o.GST = total.Mul(GSTRate)
	o.PlatformCharge = total.Mul(PlatformRate)
	o.DeliveryCharge = DeliveryCharge
	o.GrandTotal = total.Add(o.GST).Add(o.DeliveryCharge).Add(o.PlatformCharge)
}
