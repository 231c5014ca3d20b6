package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/iinvoicerepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/imessagerepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/iresetotprepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/irestaurantrepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/itempuserrepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/postgres"
	invoicerepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/invoice/postgres"
	menurepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/menu/postgres"
	messagerepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/message/postgres"
	orderrepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/outbox/postgres"
	resetotprepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/resetotp/postgres"
	restaurantrepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/restaurant/postgres"
	tempuserrepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/tempuser/postgres"
	userrepo "github.com/corray333/backend-labs/fooddelivery/internal/dal/repositories/user/postgres"
	"github.com/jackc/pgx/v5"
)

// UnitOfWork groups repositories. Before Begin they run on the pool,
// between Begin and Commit/Rollback they share one transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	UserRepository() iuserrepo.IUserRepository
	TempUserRepository() itempuserrepo.ITempUserRepository
	ResetOTPRepository() iresetotprepo.IResetOTPRepository
	InvoiceRepository() iinvoicerepo.IInvoiceRepository
	MenuRepository() imenurepo.IMenuRepository
	RestaurantRepository() irestaurantrepo.IRestaurantRepository
	MessageRepository() imessagerepo.IMessageRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// Factory creates a fresh unit of work per operation.
type Factory func() UnitOfWork

// ErrTxAlreadyStarted is returned by Begin on a unit of work that is already in a transaction.
var ErrTxAlreadyStarted = errors.New("transaction already started")

type unitOfWork struct {
	client *postgres.Client
	tx     pgx.Tx

	orderRepo      iorderrepo.IOrderRepository
	orderItemRepo  iorderitemrepo.IOrderItemRepository
	userRepo       iuserrepo.IUserRepository
	tempUserRepo   itempuserrepo.ITempUserRepository
	resetOTPRepo   iresetotprepo.IResetOTPRepository
	invoiceRepo    iinvoicerepo.IInvoiceRepository
	menuRepo       imenurepo.IMenuRepository
	restaurantRepo irestaurantrepo.IRestaurantRepository
	messageRepo    imessagerepo.IMessageRepository
	outboxRepo     ioutboxrepo.IOutboxRepository
}

// NewUnitOfWork creates a unit of work whose repositories run on the client's pool.
func NewUnitOfWork(client *postgres.Client) UnitOfWork {
	u := &unitOfWork{client: client}
	u.bind(client.Pool())

	return u
}

// NewFactory returns a Factory of Postgres units of work.
func NewFactory(client *postgres.Client) Factory {
	return func() UnitOfWork {
		return NewUnitOfWork(client)
	}
}

func (u *unitOfWork) bind(conn postgres.GenericConn) {
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.userRepo = userrepo.NewPostgresUserRepository(conn)
	u.tempUserRepo = tempuserrepo.NewPostgresTempUserRepository(conn)
	u.resetOTPRepo = resetotprepo.NewPostgresResetOTPRepository(conn)
	u.invoiceRepo = invoicerepo.NewPostgresInvoiceRepository(conn)
	u.menuRepo = menurepo.NewPostgresMenuRepository(conn)
	u.restaurantRepo = restaurantrepo.NewPostgresRestaurantRepository(conn)
	u.messageRepo = messagerepo.NewPostgresMessageRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return ErrTxAlreadyStarted
	}

	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	defer u.reset()

	return u.tx.Commit(ctx)
}

// Rollback aborts the transaction. Calling it after Commit is a no-op.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	defer u.reset()

	return u.tx.Rollback(ctx)
}

func (u *unitOfWork) reset() {
	u.tx = nil
	u.bind(u.client.Pool())
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository { return u.orderRepo }

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *unitOfWork) UserRepository() iuserrepo.IUserRepository { return u.userRepo }

func (u *unitOfWork) TempUserRepository() itempuserrepo.ITempUserRepository {
	return u.tempUserRepo
}

func (u *unitOfWork) ResetOTPRepository() iresetotprepo.IResetOTPRepository {
	return u.resetOTPRepo
}

func (u *unitOfWork) InvoiceRepository() iinvoicerepo.IInvoiceRepository { return u.invoiceRepo }

func (u *unitOfWork) MenuRepository() imenurepo.IMenuRepository { return u.menuRepo }

func (u *unitOfWork) RestaurantRepository() irestaurantrepo.IRestaurantRepository {
	return u.restaurantRepo
}

func (u *unitOfWork) MessageRepository() imessagerepo.IMessageRepository { return u.messageRepo }

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository { return u.outboxRepo }
