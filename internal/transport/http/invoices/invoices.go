package invoices

import (
	"context"
	"net/http"
	"strconv"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/invoice"
	"github.com/corray333/backend-labs/fooddelivery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
)

type service interface {
	GenerateInvoice(ctx context.Context, orderID int64) (invoice.Invoice, error)
	GetInvoiceByID(ctx context.Context, invoiceID int64) (invoice.Invoice, error)
}

// Handler serves the routes of the package.
type Handler struct {
	service service
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewHandler(service service) *Handler {
	return &Handler{service: service}
}

// GenerateInvoice handles POST /api/invoices/invoice/generate/{orderId}.
func (h *Handler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		respond.BadRequest(w, r, "order id must be a positive integer")

		return
	}

	inv, err := h.service.GenerateInvoice(r.Context(), orderID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, inv)
}

// GetInvoice handles GET /api/invoices/invoice/getInvoiceById/{id}.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.BadRequest(w, r, "invoice id must be a positive integer")

		return
	}

	inv, err := h.service.GetInvoiceByID(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, inv)
}
