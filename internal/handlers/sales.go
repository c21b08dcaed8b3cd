// internal/handlers/sales.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// SalesHandler posts sales and drives their status
type SalesHandler struct {
	responder
	poster ports.SalePosterService
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(poster ports.SalePosterService, logger *slog.Logger) *SalesHandler {
	return &SalesHandler{
		responder: responder{logger: logger.With(slog.String("handler", "sales"))},
		poster:    poster,
	}
}

// SaleLineRequest is one requested line
type SaleLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

// PostSaleRequest is the body of POST /api/v1/sales
type PostSaleRequest struct {
	ClientID    int64             `json:"client_id" validate:"required,gt=0"`
	WarehouseID int64             `json:"warehouse_id,omitempty" validate:"gte=0"`
	Lines       []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ToDomain converts the request for the poster
func (r *PostSaleRequest) ToDomain() domain.SaleRequest {
	lines := make([]domain.SaleLineRequest, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.SaleLineRequest{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return domain.SaleRequest{
		ClientID:    r.ClientID,
		WarehouseID: r.WarehouseID,
		Lines:       lines,
	}
}

// PostSale handles POST /api/v1/sales
func (h *SalesHandler) PostSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PostSaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_sale_request", err.Error())
		return
	}

	sale, err := h.poster.PostSale(ctx, req.ToDomain())
	if err != nil {
		h.respondServiceError(ctx, w, err, "post sale")
		return
	}

	ctx = context.WithValue(ctx, logger.ContextKeySaleID, sale.ID.String())
	h.logger.InfoContext(ctx, "sale posted",
		slog.Int64("client_id", sale.ClientID),
		slog.Int("lines", len(sale.Lines)),
		slog.String("total", sale.Total.StringFixed(domain.TotalScale)))

	w.Header().Set("Location", "/api/v1/sales/"+sale.ID.String())
	h.respondJSON(w, http.StatusCreated, sale)
}

// GetSale handles GET /api/v1/sales/{id}
func (h *SalesHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	h.withSale(w, r, "get sale", h.poster.GetSale)
}

// FinalizeSale handles POST /api/v1/sales/{id}/finalize
func (h *SalesHandler) FinalizeSale(w http.ResponseWriter, r *http.Request) {
	h.withSale(w, r, "finalize sale", h.poster.FinalizeSale)
}

// CancelSale handles POST /api/v1/sales/{id}/cancel
func (h *SalesHandler) CancelSale(w http.ResponseWriter, r *http.Request) {
	h.withSale(w, r, "cancel sale", h.poster.CancelSale)
}

func (h *SalesHandler) withSale(w http.ResponseWriter, r *http.Request, action string,
	fn func(context.Context, uuid.UUID) (*domain.Sale, error)) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	saleID, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_path", "Invalid sale ID format")
		return
	}
	ctx = context.WithValue(ctx, logger.ContextKeySaleID, idStr)

	sale, err := fn(ctx, saleID)
	if err != nil {
		h.respondServiceError(ctx, w, err, action)
		return
	}

	h.respondJSON(w, http.StatusOK, sale)
}
