package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/currency"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/order"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var orderColumns = []string{
	"id",
	"user_id",
	"restaurant_id",
	"total_amount",
	"gst",
	"delivery_charge",
	"platform_charge",
	"grand_total",
	"currency",
	"status",
	"version",
	"created_at",
	"updated_at",
}

// OrderDal represents order data access layer model
type OrderDal struct {
	Id             int64           `db:"id"`
	UserId         int64           `db:"user_id"`
	RestaurantId   int64           `db:"restaurant_id"`
	TotalAmount    decimal.Decimal `db:"total_amount"`
	Gst            decimal.Decimal `db:"gst"`
	DeliveryCharge decimal.Decimal `db:"delivery_charge"`
	PlatformCharge decimal.Decimal `db:"platform_charge"`
	GrandTotal     decimal.Decimal `db:"grand_total"`
	Currency       string          `db:"currency"`
	Status         string          `db:"status"`
	Version        int64           `db:"version"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() (*order.Order, error) {
	cur, err := currency.ParseCurrency(o.Currency)
	if err != nil {
		return nil, err
	}

	return &order.Order{
		ID:             o.Id,
		UserID:         o.UserId,
		RestaurantID:   o.RestaurantId,
		TotalAmount:    o.TotalAmount,
		GST:            o.Gst,
		DeliveryCharge: o.DeliveryCharge,
		PlatformCharge: o.PlatformCharge,
		GrandTotal:     o.GrandTotal,
		Currency:       cur,
		Status:         order.Status(o.Status),
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		OrderItems:     []orderitem.OrderItem{}, // Will be populated separately
	}, nil
}

func (o *OrderDal) scanTargets() []any {
	return []any{
		&o.Id,
		&o.UserId,
		&o.RestaurantId,
		&o.TotalAmount,
		&o.Gst,
		&o.DeliveryCharge,
		&o.PlatformCharge,
		&o.GrandTotal,
		&o.Currency,
		&o.Status,
		&o.Version,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

// PostgresOrderRepository stores orders in PostgreSQL.
type PostgresOrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores the order header. Items are inserted by the order item repository.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	sql, args, err := r.sb.Insert("orders").
		Columns(orderColumns[1:]...).
		Values(
			o.UserID,
			o.RestaurantID,
			o.TotalAmount,
			o.GST,
			o.DeliveryCharge,
			o.PlatformCharge,
			o.GrandTotal,
			o.Currency.String(),
			o.Status.String(),
			o.Version,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&o.ID); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", postgres.TranslateError(err))
	}

	return o, nil
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	query := r.sb.Select(orderColumns...).From("orders")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.UserIds) > 0 {
		query = query.Where(sq.Eq{"user_id": filter.UserIds})
	}

	query = query.OrderBy("created_at DESC", "id DESC")

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := []order.Order{}
	for rows.Next() {
		var dal OrderDal
		if err := rows.Scan(dal.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// UpdateStatus sets the status of an order if its version still equals expectedVersion.
func (r *PostgresOrderRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	status order.Status,
	expectedVersion int64,
	updatedAt time.Time,
) (order.Order, error) {
	sql, args, err := r.sb.Update("orders").
		Set("status", status.String()).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id, "version": expectedVersion}).
		Suffix("RETURNING " + strings.Join(orderColumns, ", ")).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build update query: %w", err)
	}

	var dal OrderDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(dal.scanTargets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the order is gone or another writer bumped the version.
		return order.Order{}, r.missingOrStale(ctx, id)
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}

	model, err := dal.ToModel()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to convert order dal to model: %w", err)
	}

	return *model, nil
}

func (r *PostgresOrderRepository) missingOrStale(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Select("1").From("orders").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	var one int
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		return postgres.TranslateError(err)
	}

	return dalerrors.ErrConflict
}
