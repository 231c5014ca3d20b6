package invoicesvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/memory"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/menu"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/order"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/restaurant"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/user"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/services/ordersvc"
	"github.com/shopspring/decimal"
)

type fixture struct {
	store  *memory.Store
	orders *ordersvc.OrderService
	svc    *InvoiceService
	user   user.User
	rest   restaurant.Restaurant
	dish   menu.Menu
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	store := memory.NewStore()
	work := store.NewUnitOfWork()

	u, err := work.UserRepository().Insert(ctx, user.User{Username: "ravi", Email: "ravi@example.com", MobileNo: "9000000001"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	r, err := work.RestaurantRepository().Insert(ctx, restaurant.Restaurant{Name: "Dosa Corner"})
	if err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	m, err := work.MenuRepository().Insert(ctx, menu.Menu{RestaurantID: r.ID, ItemName: "Masala Dosa", Price: decimal.NewFromInt(80), Available: true})
	if err != nil {
		t.Fatalf("seed menu: %v", err)
	}

	orders := ordersvc.MustNewOrderService(ordersvc.WithUnitOfWorkFactory(store.Factory()))

	return &fixture{
		store:  store,
		orders: orders,
		svc:    NewInvoiceService(store.Factory(), orders),
		user:   u,
		rest:   r,
		dish:   m,
	}
}

func TestGenerateInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.orders.CreateOrder(ctx, f.user.ID, f.rest.ID, []int64{f.dish.ID}, []int{2})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	first, err := f.svc.GenerateInvoice(ctx, o.ID)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	if first.ID == 0 || first.OrderID != o.ID {
		t.Fatalf("invoice = %+v, want one for order %d", first, o.ID)
	}
	if first.Order == nil || len(first.Order.OrderItems) != 1 {
		t.Fatalf("invoice order = %+v, want the order with its item", first.Order)
	}

	second, err := f.svc.GenerateInvoice(ctx, o.ID)
	if err != nil {
		t.Fatalf("second GenerateInvoice: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("regenerated invoice id = %d, want %d", second.ID, first.ID)
	}

	got, err := f.svc.GetInvoiceByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetInvoiceByID: %v", err)
	}
	if got.Order == nil || !got.Order.GrandTotal.Equal(o.GrandTotal) {
		t.Errorf("invoice order = %+v, want grand total %s", got.Order, o.GrandTotal)
	}
}

func TestGenerateInvoiceWithoutItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.store.NewUnitOfWork().OrderRepository().Insert(ctx, order.Order{
		UserID:       f.user.ID,
		RestaurantID: f.rest.ID,
		Status:       order.StatusPending,
		Version:      1,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	_, err = f.svc.GenerateInvoice(ctx, empty.ID)
	if got := errs.KindOf(err); got != errs.InvalidArgument {
		t.Fatalf("error kind = %s, want INVALID_ARGUMENT (%v)", got, err)
	}

	_, err = f.store.NewUnitOfWork().InvoiceRepository().GetByOrderID(ctx, empty.ID)
	if !errors.Is(err, dalerrors.ErrNotFound) {
		t.Errorf("invoice lookup error = %v, want not found", err)
	}
}

func TestInvoiceNotFound(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"generate_for_unknown_order", func() error {
			_, err := f.svc.GenerateInvoice(context.Background(), 404)
			return err
		}},
		{"get_unknown_invoice", func() error {
			_, err := f.svc.GetInvoiceByID(context.Background(), 404)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errs.KindOf(tt.call()); got != errs.NotFound {
				t.Errorf("error kind = %s, want NOT_FOUND", got)
			}
		})
	}
}
