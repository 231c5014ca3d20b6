package iinvoicerepo

import (
	"context"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/invoice"
)

// IInvoiceRepository is an interface for invoice repository.
type IInvoiceRepository interface {
	// Insert returns dalerrors.ErrConflict if the order is already invoiced.
	Insert(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error)
	GetByID(ctx context.Context, id int64) (invoice.Invoice, error)
	GetByOrderID(ctx context.Context, orderID int64) (invoice.Invoice, error)
}
