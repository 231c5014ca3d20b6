package iorderrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/order"
)

// IOrderRepository is an interface for order repository.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	// UpdateStatus writes status only if the stored version equals expectedVersion,
	// returning dalerrors.ErrConflict otherwise.
	UpdateStatus(
		ctx context.Context,
		id int64,
		status order.Status,
		expectedVersion int64,
		updatedAt time.Time,
	) (order.Order, error)
}
