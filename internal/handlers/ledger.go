// internal/handlers/ledger.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const (
	defaultLowStockLimit = 100
	maxLowStockLimit     = 1000
)

// LedgerHandler serves stock movements, stock levels and the reorder report
type LedgerHandler struct {
	responder
	ledger  ports.StockLedgerService
	monitor ports.ReorderMonitorService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledger ports.StockLedgerService, monitor ports.ReorderMonitorService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		responder: responder{logger: logger.With(slog.String("handler", "ledger"))},
		ledger:    ledger,
		monitor:   monitor,
	}
}

// MovementRequest is the body of POST /api/v1/movements
type MovementRequest struct {
	WarehouseID int64  `json:"warehouse_id" validate:"required,gt=0"`
	ProductID   int64  `json:"product_id" validate:"required,gt=0"`
	Kind        string `json:"kind" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required"`
	Reference   string `json:"reference,omitempty" validate:"max=60"`
}

// ToDomain converts the request into a ledger movement
func (r *MovementRequest) ToDomain() (domain.MovementRequest, error) {
	kind, err := domain.ParseMovementKind(r.Kind)
	if err != nil {
		return domain.MovementRequest{}, err
	}
	return domain.MovementRequest{
		WarehouseID: r.WarehouseID,
		ProductID:   r.ProductID,
		Kind:        kind,
		Quantity:    r.Quantity,
		Reference:   r.Reference,
	}, nil
}

// ThresholdRequest is the body of PUT .../threshold
type ThresholdRequest struct {
	ReorderThreshold *int64 `json:"reorder_threshold" validate:"required,gte=0"`
}

// StockResponse reports the current stock of one pair
type StockResponse struct {
	WarehouseID int64 `json:"warehouse_id"`
	ProductID   int64 `json:"product_id"`
	Stock       int64 `json:"stock"`
}

// MovementsResponse lists the ledger of one pair
type MovementsResponse struct {
	WarehouseID int64                  `json:"warehouse_id"`
	ProductID   int64                  `json:"product_id"`
	Movements   []domain.MovementEntry `json:"movements"`
	Count       int                    `json:"count"`
}

// LowStockResponse is the reorder report
type LowStockResponse struct {
	Items []domain.LowStockPair `json:"items"`
	Count int                   `json:"count"`
	Limit int                   `json:"limit"`
}

// ApplyMovement handles POST /api/v1/movements
func (h *LedgerHandler) ApplyMovement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MovementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_movement", err.Error())
		return
	}
	movement, err := req.ToDomain()
	if err != nil {
		h.respondServiceError(ctx, w, err, "apply movement")
		return
	}

	entry, err := h.ledger.ApplyMovement(ctx, movement)
	if err != nil {
		h.respondServiceError(ctx, w, err, "apply movement")
		return
	}

	h.logger.InfoContext(ctx, "movement applied",
		slog.Int64("movement_id", entry.ID),
		slog.String("kind", string(entry.Kind)),
		slog.Int64("quantity", entry.Quantity))

	h.respondJSON(w, http.StatusCreated, entry)
}

// CurrentStock handles GET /api/v1/warehouses/{warehouseId}/products/{productId}/stock
func (h *LedgerHandler) CurrentStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	warehouseID, productID, ok := h.pairFromPath(w, r)
	if !ok {
		return
	}

	stock, err := h.ledger.CurrentStock(ctx, warehouseID, productID)
	if err != nil {
		h.respondServiceError(ctx, w, err, "read stock")
		return
	}

	h.respondJSON(w, http.StatusOK, StockResponse{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Stock:       stock,
	})
}

// SetThreshold handles PUT /api/v1/warehouses/{warehouseId}/products/{productId}/threshold
func (h *LedgerHandler) SetThreshold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	warehouseID, productID, ok := h.pairFromPath(w, r)
	if !ok {
		return
	}

	var req ThresholdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_threshold", err.Error())
		return
	}

	row, err := h.ledger.SetThreshold(ctx, warehouseID, productID, *req.ReorderThreshold)
	if err != nil {
		h.respondServiceError(ctx, w, err, "set reorder threshold")
		return
	}

	h.respondJSON(w, http.StatusOK, row)
}

// Movements handles GET /api/v1/warehouses/{warehouseId}/products/{productId}/movements
func (h *LedgerHandler) Movements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	warehouseID, productID, ok := h.pairFromPath(w, r)
	if !ok {
		return
	}

	entries, err := h.ledger.Movements(ctx, warehouseID, productID)
	if err != nil {
		h.respondServiceError(ctx, w, err, "list movements")
		return
	}
	if entries == nil {
		entries = []domain.MovementEntry{}
	}

	h.respondJSON(w, http.StatusOK, MovementsResponse{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Movements:   entries,
		Count:       len(entries),
	})
}

// Reconcile handles GET /api/v1/warehouses/{warehouseId}/products/{productId}/reconcile
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	warehouseID, productID, ok := h.pairFromPath(w, r)
	if !ok {
		return
	}

	rec, err := h.ledger.Reconcile(ctx, warehouseID, productID)
	if err != nil {
		h.respondServiceError(ctx, w, err, "reconcile stock")
		return
	}
	if !rec.Consistent {
		h.logger.WarnContext(ctx, "stock does not match ledger",
			slog.Int64("warehouse_id", warehouseID),
			slog.Int64("product_id", productID),
			slog.Int64("stock", rec.Stock),
			slog.Int64("ledger_sum", rec.LedgerSum))
	}

	h.respondJSON(w, http.StatusOK, rec)
}

// LowStock handles GET /api/v1/inventory/low-stock
func (h *LedgerHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultLowStockLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l <= 0 {
			h.respondError(ctx, w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(l, maxLowStockLimit)
	}

	pairs, err := h.monitor.Snapshot(ctx, limit)
	if err != nil {
		h.respondServiceError(ctx, w, err, "list low stock")
		return
	}
	if pairs == nil {
		pairs = []domain.LowStockPair{}
	}

	h.respondJSON(w, http.StatusOK, LowStockResponse{
		Items: pairs,
		Count: len(pairs),
		Limit: limit,
	})
}

func (h *LedgerHandler) pairFromPath(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	warehouseID, err := pathID(r, "warehouseId")
	if err != nil {
		h.respondError(r.Context(), w, http.StatusBadRequest, "invalid_path", err.Error())
		return 0, 0, false
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		h.respondError(r.Context(), w, http.StatusBadRequest, "invalid_path", err.Error())
		return 0, 0, false
	}
	return warehouseID, productID, true
}
