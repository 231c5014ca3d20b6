package invoicesvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/uow"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/invoice"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/order"
)

type orderService interface {
	GetOrder(ctx context.Context, orderID int64) (order.Order, error)
}

// InvoiceService issues and looks up invoices.
type InvoiceService struct {
	newUOW uow.Factory
	orders orderService
	now    func() time.Time
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(factory uow.Factory, orders orderService) *InvoiceService {
	return &InvoiceService{
		newUOW: factory,
		orders: orders,
		now:    time.Now,
	}
}

// GenerateInvoice invoices an order. Invoicing an already invoiced order returns the existing invoice.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, orderID int64) (invoice.Invoice, error) {
	ord, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return invoice.Invoice{}, err
	}

	if len(ord.OrderItems) == 0 {
		return invoice.Invoice{}, errs.E(errs.InvalidArgument,
			fmt.Sprintf("order %d has no items and cannot be invoiced", orderID))
	}

	repo := s.newUOW().InvoiceRepository()

	existing, err := repo.GetByOrderID(ctx, orderID)
	switch {
	case err == nil:
		existing.Order = &ord

		return existing, nil
	case !errors.Is(err, dalerrors.ErrNotFound):
		return invoice.Invoice{}, errs.Wrap(errs.Unexpected, err, "failed to look up invoice")
	}

	created, err := repo.Insert(ctx, invoice.Invoice{OrderID: orderID, InvoiceDate: s.now()})
	if errors.Is(err, dalerrors.ErrConflict) {
		// Lost a race with a concurrent generation for the same order.
		created, err = repo.GetByOrderID(ctx, orderID)
	}
	if err != nil {
		return invoice.Invoice{}, errs.Wrap(errs.Unexpected, err, "failed to create invoice")
	}

	created.Order = &ord

	return created, nil
}

// GetInvoiceByID returns an invoice with its order.
func (s *InvoiceService) GetInvoiceByID(ctx context.Context, invoiceID int64) (invoice.Invoice, error) {
	inv, err := s.newUOW().InvoiceRepository().GetByID(ctx, invoiceID)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return invoice.Invoice{}, errs.E(errs.NotFound, fmt.Sprintf("invoice %d not found", invoiceID))
	}
	if err != nil {
		return invoice.Invoice{}, errs.Wrap(errs.Unexpected, err, "failed to get invoice")
	}

	ord, err := s.orders.GetOrder(ctx, inv.OrderID)
	if err != nil {
		return invoice.Invoice{}, err
	}
	inv.Order = &ord

	return inv, nil
}
