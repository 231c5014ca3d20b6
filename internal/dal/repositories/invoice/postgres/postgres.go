package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/invoice"
)

// PostgresInvoiceRepository stores invoices, at most one per order.
type PostgresInvoiceRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresInvoiceRepository creates a new Postgres invoice repository.
func NewPostgresInvoiceRepository(conn postgres.GenericConn) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores an invoice. A second invoice for the same order violates order_id uniqueness.
func (r *PostgresInvoiceRepository) Insert(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	sql, args, err := r.sb.Insert("invoices").
		Columns("order_id", "invoice_date").
		Values(inv.OrderID, inv.InvoiceDate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&inv.ID); err != nil {
		return invoice.Invoice{}, fmt.Errorf("failed to insert invoice: %w", postgres.TranslateError(err))
	}

	return inv, nil
}

func (r *PostgresInvoiceRepository) GetByID(ctx context.Context, id int64) (invoice.Invoice, error) {
	return r.getBy(ctx, sq.Eq{"id": id})
}

func (r *PostgresInvoiceRepository) GetByOrderID(ctx context.Context, orderID int64) (invoice.Invoice, error) {
	return r.getBy(ctx, sq.Eq{"order_id": orderID})
}

func (r *PostgresInvoiceRepository) getBy(ctx context.Context, where sq.Eq) (invoice.Invoice, error) {
	sql, args, err := r.sb.Select("id", "order_id", "invoice_date").
		From("invoices").
		Where(where).
		ToSql()
	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("failed to build query: %w", err)
	}

	var inv invoice.Invoice
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&inv.ID, &inv.OrderID, &inv.InvoiceDate); err != nil {
		return invoice.Invoice{}, fmt.Errorf("failed to get invoice: %w", postgres.TranslateError(err))
	}

	return inv, nil
}
