package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
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

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

type orderRepo struct{ conn *conn }

func (r *orderRepo) Insert(_ context.Context, o order.Order) (order.Order, error) {
	err := r.conn.do(func(t *tables) error {
		o.ID = t.next("orders")
		stored := o
		stored.OrderItems = nil
		t.orders[o.ID] = stored

		return nil
	})

	return o, err
}

func (r *orderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	result := []order.Order{}
	err := r.conn.do(func(t *tables) error {
		for _, id := range sortedKeys(t.orders) {
			o := t.orders[id]
			if len(filter.Ids) > 0 && !slices.Contains(filter.Ids, o.ID) {
				continue
			}
			if len(filter.UserIds) > 0 && !slices.Contains(filter.UserIds, o.UserID) {
				continue
			}
			o.OrderItems = []orderitem.OrderItem{}
			result = append(result, o)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}

		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		result = result[min(filter.Offset, len(result)):]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

func (r *orderRepo) UpdateStatus(
	_ context.Context,
	id int64,
	status order.Status,
	expectedVersion int64,
	updatedAt time.Time,
) (order.Order, error) {
	var updated order.Order
	err := r.conn.do(func(t *tables) error {
		o, ok := t.orders[id]
		if !ok {
			return dalerrors.ErrNotFound
		}
		if o.Version != expectedVersion {
			return dalerrors.ErrConflict
		}
		o.Status = status
		o.Version++
		o.UpdatedAt = updatedAt
		t.orders[id] = o
		updated = o

		return nil
	})
	updated.OrderItems = []orderitem.OrderItem{}

	return updated, err
}

type orderItemRepo struct{ conn *conn }

func (r *orderItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	result := make([]orderitem.OrderItem, 0, len(items))
	err := r.conn.do(func(t *tables) error {
		for _, item := range items {
			item.ID = t.next("order_items")
			t.orderItems[item.ID] = item
			result = append(result, item)
		}

		return nil
	})

	return result, err
}

func (r *orderItemRepo) Query(_ context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	result := []orderitem.OrderItem{}
	err := r.conn.do(func(t *tables) error {
		for _, id := range sortedKeys(t.orderItems) {
			item := t.orderItems[id]
			if len(filter.Ids) > 0 && !slices.Contains(filter.Ids, item.ID) {
				continue
			}
			if len(filter.OrderIds) > 0 && !slices.Contains(filter.OrderIds, item.OrderID) {
				continue
			}
			if len(filter.MenuIds) > 0 && !slices.Contains(filter.MenuIds, item.MenuID) {
				continue
			}
			result = append(result, item)
		}

		return nil
	})

	return result, err
}

type userRepo struct{ conn *conn }

func userConflicts(t *tables, u user.User) bool {
	for _, other := range t.users {
		if other.ID == u.ID {
			continue
		}
		if other.Email == u.Email || other.Username == u.Username || other.MobileNo == u.MobileNo {
			return true
		}
	}

	return false
}

func (r *userRepo) Insert(_ context.Context, u user.User) (user.User, error) {
	err := r.conn.do(func(t *tables) error {
		if userConflicts(t, u) {
			return dalerrors.ErrConflict
		}
		u.ID = t.next("users")
		t.users[u.ID] = u

		return nil
	})

	return u, err
}

func (r *userRepo) find(match func(user.User) bool) (user.User, error) {
	var found user.User
	err := r.conn.do(func(t *tables) error {
		for _, id := range sortedKeys(t.users) {
			if u := t.users[id]; match(u) {
				found = u

				return nil
			}
		}

		return dalerrors.ErrNotFound
	})

	return found, err
}

func (r *userRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	return r.find(func(u user.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	return r.find(func(u user.User) bool { return u.Email == email })
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	return r.find(func(u user.User) bool { return u.Username == username })
}

func (r *userRepo) GetByMobile(_ context.Context, mobileNo string) (user.User, error) {
	return r.find(func(u user.User) bool { return u.MobileNo == mobileNo })
}

func (r *userRepo) List(_ context.Context) ([]user.User, error) {
	result := []user.User{}
	err := r.conn.do(func(t *tables) error {
		for _, id := range sortedKeys(t.users) {
			result = append(result, t.users[id])
		}

		return nil
	})

	return result, err
}

func (r *userRepo) Update(_ context.Context, u user.User) (user.User, error) {
	err := r.conn.do(func(t *tables) error {
		if _, ok := t.users[u.ID]; !ok {
			return dalerrors.ErrNotFound
		}
		if userConflicts(t, u) {
			return dalerrors.ErrConflict
		}
		t.users[u.ID] = u

		return nil
	})

	return u, err
}

// Delete removes the user and everything that references it, like the foreign keys do.
func (r *userRepo) Delete(_ context.Context, id int64) error {
	return r.conn.do(func(t *tables) error {
		if _, ok := t.users[id]; !ok {
			return dalerrors.ErrNotFound
		}
		delete(t.users, id)

		for oid, o := range t.orders {
			if o.UserID != id {
				continue
			}
			delete(t.orders, oid)
			for iid, item := range t.orderItems {
				if item.OrderID == oid {
					delete(t.orderItems, iid)
				}
			}
			for invID, inv := range t.invoices {
				if inv.OrderID == oid {
					delete(t.invoices, invID)
				}
			}
		}
		for mid, m := range t.messages {
			if m.UserID == id {
				delete(t.messages, mid)
			}
		}
		for rid, otp := range t.resetOTPs {
			if otp.UserID == id {
				delete(t.resetOTPs, rid)
			}
		}

		return nil
	})
}

type tempUserRepo struct{ conn *conn }

func (r *tempUserRepo) Upsert(_ context.Context, tu tempuser.TemporaryUser) (tempuser.TemporaryUser, error) {
	tu.Attempts = 0
	err := r.conn.do(func(t *tables) error {
		for id, existing := range t.tempUsers {
			if existing.Email == tu.Email {
				tu.ID = id
				t.tempUsers[id] = tu

				return nil
			}
		}
		tu.ID = t.next("temporary_users")
		t.tempUsers[tu.ID] = tu

		return nil
	})

	return tu, err
}

func (r *tempUserRepo) GetByEmail(_ context.Context, email string) (tempuser.TemporaryUser, error) {
	var found tempuser.TemporaryUser
	err := r.conn.do(func(t *tables) error {
		for _, tu := range t.tempUsers {
			if tu.Email == email {
				found = tu

				return nil
			}
		}

		return dalerrors.ErrNotFound
	})

	return found, err
}

func (r *tempUserRepo) IncrementAttempts(_ context.Context, id int64) (int, error) {
	var attempts int
	err := r.conn.do(func(t *tables) error {
		tu, ok := t.tempUsers[id]
		if !ok {
			return dalerrors.ErrNotFound
		}
		tu.Attempts++
		t.tempUsers[id] = tu
		attempts = tu.Attempts

		return nil
	})

	return attempts, err
}

func (r *tempUserRepo) Delete(_ context.Context, id int64) error {
	return r.conn.do(func(t *tables) error {
		delete(t.tempUsers, id)

		return nil
	})
}

type resetOTPRepo struct{ conn *conn }

func (r *resetOTPRepo) Upsert(_ context.Context, f resetotp.ForgotPasswordOtp) (resetotp.ForgotPasswordOtp, error) {
	f.VerifiedAt = nil
	f.Attempts = 0
	err := r.conn.do(func(t *tables) error {
		for id, existing := range t.resetOTPs {
			if existing.UserID == f.UserID {
				f.ID = id
				t.resetOTPs[id] = f

				return nil
			}
		}
		f.ID = t.next("forgot_password_otps")
		t.resetOTPs[f.ID] = f

		return nil
	})

	return f, err
}

func (r *resetOTPRepo) GetByUserID(_ context.Context, userID int64) (resetotp.ForgotPasswordOtp, error) {
	var found resetotp.ForgotPasswordOtp
	err := r.conn.do(func(t *tables) error {
		for _, f := range t.resetOTPs {
			if f.UserID == userID {
				found = f

				return nil
			}
		}

		return dalerrors.ErrNotFound
	})

	return found, err
}

func (r *resetOTPRepo) MarkVerified(_ context.Context, id int64, at time.Time) error {
	return r.conn.do(func(t *tables) error {
		f, ok := t.resetOTPs[id]
		if !ok {
			return dalerrors.ErrNotFound
		}
		f.VerifiedAt = &at
		t.resetOTPs[id] = f

		return nil
	})
}

func (r *resetOTPRepo) IncrementAttempts(_ context.Context, id int64) (int, error) {
	var attempts int
	err := r.conn.do(func(t *tables) error {
		f, ok := t.resetOTPs[id]
		if !ok {
			return dalerrors.ErrNotFound
		}
		f.Attempts++
		t.resetOTPs[id] = f
		attempts = f.Attempts

		return nil
	})

	return attempts, err
}

func (r *resetOTPRepo) Delete(_ context.Context, id int64) error {
	return r.conn.do(func(t *tables) error {
		delete(t.resetOTPs, id)

		return nil
	})
}

type invoiceRepo struct{ conn *conn }

func (r *invoiceRepo) Insert(_ context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	err := r.conn.do(func(t *tables) error {
		for _, existing := range t.invoices {
			if existing.OrderID == inv.OrderID {
				return dalerrors.ErrConflict
			}
		}
		inv.ID = t.next("invoices")
		stored := inv
		stored.Order = nil
		t.invoices[inv.ID] = stored

		return nil
	})

	return inv, err
}

func (r *invoiceRepo) GetByID(_ context.Context, id int64) (invoice.Invoice, error) {
	var found invoice.Invoice
	err := r.conn.do(func(t *tables) error {
		inv, ok := t.invoices[id]
		if !ok {
			return dalerrors.ErrNotFound
		}
		found = inv

		return nil
	})

	return found, err
}

func (r *invoiceRepo) GetByOrderID(_ context.Context, orderID int64) (invoice.Invoice, error) {
	var found invoice.Invoice
	err := r.conn.do(func(t *tables) error {
		for _, inv := range t.invoices {
			if inv.OrderID == orderID {
				found = inv

				return nil
			}
		}

		return dalerrors.ErrNotFound
	})

	return found, err
}

type menuRepo struct{ conn *conn }

func (r *menuRepo) Insert(_ context.Context, m menu.Menu) (menu.Menu, error) {
	err := r.conn.do(func(t *tables) error {
		if _, ok := t.restaurants[m.RestaurantID]; !ok {
			return dalerrors.ErrNotFound
		}
		m.ID = t.next("menus")
		t.menus[m.ID] = m

		return nil
	})

	return m, err
}

func (r *menuRepo) Query(_ context.Context, filter *menu.QueryMenusModel) ([]menu.Menu, error) {
	result := []menu.Menu{}
	err := r.conn.do(func(t *tables) error {
		for _, id := range sortedKeys(t.menus) {
			m := t.menus[id]
			if len(filter.Ids) > 0 && !slices.Contains(filter.Ids, m.ID) {
				continue
			}
			if len(filter.RestaurantIds) > 0 && !slices.Contains(filter.RestaurantIds, m.RestaurantID) {
				continue
			}
			result = append(result, m)
		}

		return nil
	})

	return result, err
}

func (r *menuRepo) Update(_ context.Context, m menu.Menu) (menu.Menu, error) {
	err := r.conn.do(func(t *tables) error {
		existing, ok := t.menus[m.ID]
		if !ok {
			return dalerrors.ErrNotFound
		}
		m.RestaurantID = existing.RestaurantID
		m.CreatedAt = existing.CreatedAt
		t.menus[m.ID] = m

		return nil
	})

	return m, err
}

func (r *menuRepo) Delete(_ context.Context, id int64) error {
	return r.conn.do(func(t *tables) error {
		if _, ok := t.menus[id]; !ok {
			return dalerrors.ErrNotFound
		}
		delete(t.menus, id)

		return nil
	})
}

type restaurantRepo struct{ conn *conn }

func (r *restaurantRepo) Insert(_ context.Context, rs restaurant.Restaurant) (restaurant.Restaurant, error) {
	err := r.conn.do(func(t *tables) error {
		for _, existing := range t.restaurants {
			if existing.Name == rs.Name {
				return dalerrors.ErrConflict
			}
		}
		rs.ID = t.next("restaurants")
		t.restaurants[rs.ID] = rs

		return nil
	})

	return rs, err
}

func (r *restaurantRepo) GetByID(_ context.Context, id int64) (restaurant.Restaurant, error) {
	var found restaurant.Restaurant
	err := r.conn.do(func(t *tables) error {
		rs, ok := t.restaurants[id]
		if !ok {
			return dalerrors.ErrNotFound
		}
		found = rs

		return nil
	})

	return found, err
}

func (r *restaurantRepo) GetByName(_ context.Context, name string) (restaurant.Restaurant, error) {
	var found restaurant.Restaurant
	err := r.conn.do(func(t *tables) error {
		for _, rs := range t.restaurants {
			if rs.Name == name {
				found = rs

				return nil
			}
		}

		return dalerrors.ErrNotFound
	})

	return found, err
}

func (r *restaurantRepo) List(_ context.Context) ([]restaurant.Restaurant, error) {
	result := []restaurant.Restaurant{}
	err := r.conn.do(func(t *tables) error {
		for _, id := range sortedKeys(t.restaurants) {
			result = append(result, t.restaurants[id])
		}

		return nil
	})

	return result, err
}

type messageRepo struct{ conn *conn }

func (r *messageRepo) Insert(_ context.Context, m message.Message) (message.Message, error) {
	err := r.conn.do(func(t *tables) error {
		m.ID = t.next("messages")
		t.messages[m.ID] = m

		return nil
	})

	return m, err
}

func (r *messageRepo) ListByUserID(_ context.Context, userID int64) ([]message.Message, error) {
	result := []message.Message{}
	err := r.conn.do(func(t *tables) error {
		keys := sortedKeys(t.messages)
		for i := len(keys) - 1; i >= 0; i-- {
			if m := t.messages[keys[i]]; m.UserID == userID {
				result = append(result, m)
			}
		}

		return nil
	})

	return result, err
}

type outboxRepo struct{ conn *conn }

func (r *outboxRepo) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	return r.conn.do(func(t *tables) error {
		for _, existing := range t.outbox {
			if existing.MessageID == msg.MessageID {
				return nil
			}
		}
		msg.ID = t.next("outbox")
		t.outbox[msg.ID] = msg

		return nil
	})
}

func (r *outboxRepo) GetPendingMessages(_ context.Context, now time.Time, limit int) ([]outbox.OutboxMessage, error) {
	var result []outbox.OutboxMessage
	err := r.conn.do(func(t *tables) error {
		for _, id := range sortedKeys(t.outbox) {
			msg := t.outbox[id]
			if msg.NextRetryAt.After(now) || msg.RetryCount >= msg.MaxRetries {
				continue
			}
			result = append(result, msg)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].NextRetryAt.Before(result[j].NextRetryAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (r *outboxRepo) Delete(_ context.Context, id int64) error {
	return r.conn.do(func(t *tables) error {
		delete(t.outbox, id)

		return nil
	})
}

func (r *outboxRepo) UpdateRetry(
	_ context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	return r.conn.do(func(t *tables) error {
		msg, ok := t.outbox[id]
		if !ok {
			return dalerrors.ErrNotFound
		}
		msg.RetryCount = retryCount
		msg.LastError = lastError
		msg.NextRetryAt = nextRetryAt
		msg.UpdatedAt = time.Now()
		t.outbox[id] = msg

		return nil
	})
}
