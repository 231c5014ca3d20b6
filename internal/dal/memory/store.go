// Package memory is an in-process implementation of every repository and of the unit of work.
// It backs `storage.driver: memory` and the service tests.
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

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
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/uow"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/invoice"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/menu"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/message"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/order"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/outbox"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/resetotp"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/restaurant"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/tempuser"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/user"
)

// ErrTxNotStarted is returned by Commit on a unit of work without a transaction.
var ErrTxNotStarted = errors.New("transaction not started")

type tables struct {
	seq         map[string]int64
	users       map[int64]user.User
	tempUsers   map[int64]tempuser.TemporaryUser
	resetOTPs   map[int64]resetotp.ForgotPasswordOtp
	orders      map[int64]order.Order
	orderItems  map[int64]orderitem.OrderItem
	invoices    map[int64]invoice.Invoice
	menus       map[int64]menu.Menu
	restaurants map[int64]restaurant.Restaurant
	messages    map[int64]message.Message
	outbox      map[int64]outbox.OutboxMessage
}

func newTables() *tables {
	return &tables{
		seq:         map[string]int64{},
		users:       map[int64]user.User{},
		tempUsers:   map[int64]tempuser.TemporaryUser{},
		resetOTPs:   map[int64]resetotp.ForgotPasswordOtp{},
		orders:      map[int64]order.Order{},
		orderItems:  map[int64]orderitem.OrderItem{},
		invoices:    map[int64]invoice.Invoice{},
		menus:       map[int64]menu.Menu{},
		restaurants: map[int64]restaurant.Restaurant{},
		messages:    map[int64]message.Message{},
		outbox:      map[int64]outbox.OutboxMessage{},
	}
}

func (t *tables) clone() *tables {
	return &tables{
		seq:         maps.Clone(t.seq),
		users:       maps.Clone(t.users),
		tempUsers:   maps.Clone(t.tempUsers),
		resetOTPs:   maps.Clone(t.resetOTPs),
		orders:      maps.Clone(t.orders),
		orderItems:  maps.Clone(t.orderItems),
		invoices:    maps.Clone(t.invoices),
		menus:       maps.Clone(t.menus),
		restaurants: maps.Clone(t.restaurants),
		messages:    maps.Clone(t.messages),
		outbox:      maps.Clone(t.outbox),
	}
}

func (t *tables) next(table string) int64 {
	t.seq[table]++

	return t.seq[table]
}

// Store holds the data. Transactions are serialized: Begin holds the store lock
// until Commit or Rollback, and work happens on a copy that Commit publishes.
type Store struct {
	mu   sync.Mutex
	data *tables
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newTables()}
}

// Factory returns a uow.Factory producing units of work over the store.
func (s *Store) Factory() uow.Factory {
	return func() uow.UnitOfWork {
		return s.NewUnitOfWork()
	}
}

// NewUnitOfWork creates a unit of work over the store.
func (s *Store) NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{conn: &conn{store: s}}
}

// OutboxRepository returns an outbox repository outside of any transaction.
func (s *Store) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &outboxRepo{conn: &conn{store: s}}
}

type conn struct {
	store *Store
	tx    *tables
}

func (c *conn) do(fn func(t *tables) error) error {
	if c.tx != nil {
		return fn(c.tx)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	return fn(c.store.data)
}

// UnitOfWork implements uow.UnitOfWork in memory.
type UnitOfWork struct {
	conn *conn
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.conn.tx != nil {
		return uow.ErrTxAlreadyStarted
	}

	u.conn.store.mu.Lock()
	u.conn.tx = u.conn.store.data.clone()

	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if u.conn.tx == nil {
		return ErrTxNotStarted
	}

	u.conn.store.data = u.conn.tx
	u.conn.tx = nil
	u.conn.store.mu.Unlock()

	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if u.conn.tx == nil {
		return nil
	}

	u.conn.tx = nil
	u.conn.store.mu.Unlock()

	return nil
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return &orderRepo{conn: u.conn}
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return &orderItemRepo{conn: u.conn}
}

func (u *UnitOfWork) UserRepository() iuserrepo.IUserRepository {
	return &userRepo{conn: u.conn}
}

func (u *UnitOfWork) TempUserRepository() itempuserrepo.ITempUserRepository {
	return &tempUserRepo{conn: u.conn}
}

func (u *UnitOfWork) ResetOTPRepository() iresetotprepo.IResetOTPRepository {
	return &resetOTPRepo{conn: u.conn}
}

func (u *UnitOfWork) InvoiceRepository() iinvoicerepo.IInvoiceRepository {
	return &invoiceRepo{conn: u.conn}
}

func (u *UnitOfWork) MenuRepository() imenurepo.IMenuRepository {
	return &menuRepo{conn: u.conn}
}

func (u *UnitOfWork) RestaurantRepository() irestaurantrepo.IRestaurantRepository {
	return &restaurantRepo{conn: u.conn}
}

func (u *UnitOfWork) MessageRepository() imessagerepo.IMessageRepository {
	return &messageRepo{conn: u.conn}
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &outboxRepo{conn: u.conn}
}
