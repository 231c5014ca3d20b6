package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/uow"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/currency"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/menu"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/message"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/notification"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/order"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ordersvc")

type eventPublisher interface {
	PublishOrderEvents(ctx context.Context, events []notification.OrderEvent) error
}

// OrderService is a service for managing orders.
type OrderService struct {
	newUOW uow.Factory
	events eventPublisher
	now    func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("ordersvc: no storage configured")
	}

	return s
}

// WithUnitOfWorkFactory sets the storage the OrderService works on.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory uow.Factory) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// WithEventPublisher sets where order events go after commit.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventPublisher(events eventPublisher) option {
	return func(s *OrderService) {
		s.events = events
	}
}

// WithClock overrides the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// CreateOrder places an order of menuIDs[i] x quantities[i] for the user at the restaurant.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	userID, restaurantID int64,
	menuIDs []int64,
	quantities []int,
) (order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID), attribute.Int64("restaurant.id", restaurantID))

	if len(menuIDs) != len(quantities) {
		return order.Order{}, errs.E(errs.InvalidArgument, "menuIds and quantities must have the same length")
	}
	for _, q := range quantities {
		if q <= 0 {
			return order.Order{}, errs.E(errs.InvalidArgument, "quantity must be greater than zero")
		}
	}

	work := s.newUOW()

	if _, err := work.UserRepository().GetByID(ctx, userID); err != nil {
		return order.Order{}, notFoundOr(err, fmt.Sprintf("user %d not found", userID))
	}
	if _, err := work.RestaurantRepository().GetByID(ctx, restaurantID); err != nil {
		return order.Order{}, notFoundOr(err, fmt.Sprintf("restaurant %d not found", restaurantID))
	}

	menus, err := work.MenuRepository().Query(ctx, &menu.QueryMenusModel{Ids: menuIDs})
	if err != nil {
		return order.Order{}, errs.Wrap(errs.Unexpected, err, "failed to load menu items")
	}
	menuByID := make(map[int64]menu.Menu, len(menus))
	for _, m := range menus {
		menuByID[m.ID] = m
	}

	now := s.now()
	ord := order.Order{
		UserID:       userID,
		RestaurantID: restaurantID,
		Currency:     currency.CurrencyINR,
		Status:       order.StatusPending,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
		OrderItems:   make([]orderitem.OrderItem, 0, len(menuIDs)),
	}
	for i, menuID := range menuIDs {
		m, ok := menuByID[menuID]
		if !ok {
			return order.Order{}, errs.E(errs.NotFound, fmt.Sprintf("menu item %d not found", menuID))
		}
		if m.RestaurantID != restaurantID {
			return order.Order{}, errs.E(errs.InvalidArgument,
				fmt.Sprintf("menu item %d does not belong to restaurant %d", menuID, restaurantID))
		}
		if !m.Available {
			return order.Order{}, errs.E(errs.InvalidArgument, fmt.Sprintf("menu item %d is not available", menuID))
		}
		ord.OrderItems = append(ord.OrderItems, orderitem.OrderItem{
			MenuID:    m.ID,
			MenuName:  m.ItemName,
			Quantity:  quantities[i],
			UnitPrice: m.Price,
			ItemTotal: m.Price.Mul(decimal.NewFromInt(int64(quantities[i]))),
			CreatedAt: now,
		})
	}
	ord.Recalculate()

	created, err := s.insertOrder(ctx, work, ord)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert order")

		return order.Order{}, err
	}

	span.SetAttributes(attribute.Int64("order.id", created.ID))
	s.publish(ctx, notification.EventOrderCreated, created)

	return created, nil
}

func (s *OrderService) insertOrder(ctx context.Context, work uow.UnitOfWork, ord order.Order) (order.Order, error) {
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, errs.Wrap(errs.Unexpected, err, "failed to create order")
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to rollback order creation", "error", err)
		}
	}()

	created, err := work.OrderRepository().Insert(ctx, ord)
	if err != nil {
		return order.Order{}, errs.Wrap(errs.Unexpected, err, "failed to create order")
	}

	for i := range ord.OrderItems {
		ord.OrderItems[i].OrderID = created.ID
	}
	created.OrderItems, err = work.OrderItemRepository().BulkInsert(ctx, ord.OrderItems)
	if err != nil {
		return order.Order{}, errs.Wrap(errs.Unexpected, err, "failed to create order items")
	}

	_, err = work.MessageRepository().Insert(ctx, message.Message{
		UserID:    created.UserID,
		Subject:   fmt.Sprintf("Order #%d placed", created.ID),
		Body:      fmt.Sprintf("Your order #%d of %s is awaiting payment.", created.ID, created.Currency.Format(created.GrandTotal)),
		CreatedAt: created.CreatedAt,
	})
	if err != nil {
		return order.Order{}, errs.Wrap(errs.Unexpected, err, "failed to record order message")
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, errs.Wrap(errs.Unexpected, err, "failed to commit order")
	}

	return created, nil
}

// GetOrder returns an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (order.Order, error) {
	work := s.newUOW()

	orders, err := s.queryOrders(ctx, work, &order.QueryOrdersModel{Ids: []int64{orderID}})
	if err != nil {
		return order.Order{}, err
	}
	if len(orders) == 0 {
		return order.Order{}, errs.E(errs.NotFound, fmt.Sprintf("order %d not found", orderID))
	}

	return orders[0], nil
}

// GetOrdersByUserID returns the user's orders, newest first. An empty result is not an error.
func (s *OrderService) GetOrdersByUserID(ctx context.Context, userID int64) ([]order.Order, error) {
	return s.queryOrders(ctx, s.newUOW(), &order.QueryOrdersModel{UserIds: []int64{userID}})
}

func (s *OrderService) queryOrders(
	ctx context.Context,
	work uow.UnitOfWork,
	filter *order.QueryOrdersModel,
) ([]order.Order, error) {
	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, errs.Wrap(errs.Unexpected, err, "failed to query orders")
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	orderItemQuery := &orderitem.QueryOrderItemsModel{}
	for _, o := range orders {
		orderItemQuery.OrderIds = append(orderItemQuery.OrderIds, o.ID)
	}
	orderItems, err := work.OrderItemRepository().Query(ctx, orderItemQuery)
	if err != nil {
		return nil, errs.Wrap(errs.Unexpected, err, "failed to query order items")
	}

	for i := range orders {
		for _, item := range orderItems {
			if item.OrderID == orders[i].ID {
				orders[i].OrderItems = append(orders[i].OrderItems, item)
			}
		}
	}

	return orders, nil
}

// UpdateOrderStatus settles a pending order as PAID or FAILED.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, paymentSuccess bool) (order.Order, error) {
	current, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}

	if current.Status != order.StatusPending {
		return order.Order{}, errs.E(errs.InvalidStatus,
			fmt.Sprintf("order %d is %s, only PENDING orders can be updated", orderID, current.Status))
	}

	next := order.StatusFailed
	if paymentSuccess {
		next = order.StatusPaid
	}

	return s.transition(ctx, current, next)
}

// CancelOrder cancels a failed order, or a paid one within the cancellation window.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int64) (order.Order, error) {
	current, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}

	switch current.Status {
	case order.StatusFailed:
	case order.StatusPaid:
		if s.now().Sub(current.CreatedAt) > order.CancellationWindow {
			return order.Order{}, errs.E(errs.InvalidCancellation,
				fmt.Sprintf("order %d can only be cancelled within %s of placement", orderID, order.CancellationWindow))
		}
	default:
		return order.Order{}, errs.E(errs.InvalidStatus,
			fmt.Sprintf("order %d is %s and cannot be cancelled", orderID, current.Status))
	}

	return s.transition(ctx, current, order.StatusCancelled)
}

// transition writes the new status guarded by the version that was read.
func (s *OrderService) transition(ctx context.Context, current order.Order, next order.Status) (order.Order, error) {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, errs.Wrap(errs.Unexpected, err, "failed to update order")
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to rollback order status update", "error", err)
		}
	}()

	updated, err := work.OrderRepository().UpdateStatus(ctx, current.ID, next, current.Version, s.now())
	switch {
	case errors.Is(err, dalerrors.ErrConflict):
		return order.Order{}, errs.Wrap(errs.Conflict, err,
			fmt.Sprintf("order %d was modified concurrently, retry", current.ID))
	case errors.Is(err, dalerrors.ErrNotFound):
		return order.Order{}, errs.E(errs.NotFound, fmt.Sprintf("order %d not found", current.ID))
	case err != nil:
		return order.Order{}, errs.Wrap(errs.Unexpected, err, "failed to update order")
	}

	_, err = work.MessageRepository().Insert(ctx, message.Message{
		UserID:    updated.UserID,
		Subject:   fmt.Sprintf("Order #%d %s", updated.ID, updated.Status),
		Body:      fmt.Sprintf("Your order #%d is now %s.", updated.ID, updated.Status),
		CreatedAt: updated.UpdatedAt,
	})
	if err != nil {
		return order.Order{}, errs.Wrap(errs.Unexpected, err, "failed to record order message")
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, errs.Wrap(errs.Unexpected, err, "failed to commit order update")
	}

	updated.OrderItems = current.OrderItems
	s.publish(ctx, notification.EventOrderStatusChanged, updated)

	return updated, nil
}

// publish emits an order event. Delivery problems never fail the caller.
func (s *OrderService) publish(ctx context.Context, eventType notification.EventType, o order.Order) {
	if s.events == nil {
		return
	}

	event := notification.OrderEvent{
		Type:       eventType,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status.String(),
		GrandTotal: o.GrandTotal.StringFixed(2),
		OccurredAt: s.now(),
	}
	if err := s.events.PublishOrderEvents(ctx, []notification.OrderEvent{event}); err != nil {
		slog.Error("Failed to publish order event", "order_id", o.ID, "type", eventType, "error", err)
	}
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, dalerrors.ErrNotFound) {
		return errs.E(errs.NotFound, msg)
	}

	return errs.Wrap(errs.Unexpected, err, "storage failure")
}
