// internal/workers/receipt_import.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// Receipt workbook columns
const (
	colWarehouse = iota
	colProduct
	colQuantity
	colReference
)

// RowError reports a workbook row that was not applied. Row is 1-based as shown by spreadsheet tools.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult is written as the task result of a receipt import
type ImportResult struct {
	JobID          string     `json:"job_id"`
	Rows           int        `json:"rows"`
	Applied        int        `json:"applied"`
	Failed         []RowError `json:"failed,omitempty"`
	ProcessingTime string     `json:"processing_time"`
}

// ReceiptImporter applies an IN movement for every row of an uploaded receipt workbook
type ReceiptImporter struct {
	ledger  ports.StockLedgerService
	storage ports.ObjectStorage
	logger  *slog.Logger
}

// NewReceiptImporter creates the importer
func NewReceiptImporter(ledger ports.StockLedgerService, storage ports.ObjectStorage, logger *slog.Logger) *ReceiptImporter {
	return &ReceiptImporter{
		ledger:  ledger,
		storage: storage,
		logger:  logger.With(slog.String("processor", "receipt_import")),
	}
}

// ReceiptRow is one parsed workbook row; Err is set when the row cannot be applied
type ReceiptRow struct {
	Line    int
	Request domain.MovementRequest
	Err     error
}

// HandleImport is the asynq entry point for receipt imports
func (p *ReceiptImporter) HandleImport(ctx context.Context, t *asynq.Task) error {
	var payload ReceiptImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	result, err := p.Import(ctx, payload)
	if err != nil {
		return err
	}
	writeResult(t, result)
	return nil
}

// Import reads the workbook and applies its rows in order. A row that fails is
// reported and the import continues. Rows already applied are never retried, so only
// failures before the first movement return an error.
func (p *ReceiptImporter) Import(ctx context.Context, payload ReceiptImportPayload) (*ImportResult, error) {
	start := time.Now()
	if payload.RequestedBy != "" {
		ctx = logger.WithPrincipal(ctx, payload.RequestedBy)
	}

	p.logger.InfoContext(ctx, "importing receipt workbook",
		slog.String("job_id", payload.JobID),
		slog.String("object_key", payload.ObjectKey))

	data, err := p.storage.Download(ctx, payload.ObjectKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("receipt workbook missing: %w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download receipt workbook: %w", err)
	}

	rows, err := ParseReceiptWorkbook(data, "receipt:"+payload.JobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	result := &ImportResult{JobID: payload.JobID, Rows: len(rows)}
	for _, row := range rows {
		if row.Err == nil {
			_, row.Err = p.ledger.ApplyMovement(ctx, row.Request)
		}
		if row.Err != nil {
			result.Failed = append(result.Failed, RowError{Row: row.Line, Error: row.Err.Error()})
			continue
		}
		result.Applied++
	}
	result.ProcessingTime = time.Since(start).String()

	if err := p.storage.Delete(ctx, payload.ObjectKey); err != nil {
		p.logger.WarnContext(ctx, "failed to remove imported workbook",
			slog.String("object_key", payload.ObjectKey),
			slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "receipt import completed",
		slog.String("job_id", payload.JobID),
		slog.Int("rows", result.Rows),
		slog.Int("applied", result.Applied),
		slog.Int("failed", len(result.Failed)))

	return result, nil
}

// ParseReceiptWorkbook reads the first sheet of a receipt workbook. The first row is a
// header; blank rows are skipped. Rows without a reference get defaultRef plus their line.
func ParseReceiptWorkbook(data []byte, defaultRef string) ([]ReceiptRow, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open receipt workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, errors.New("receipt workbook has no sheets")
	}

	var rows []ReceiptRow
	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		line := r.GetCoordinate() + 1
		if line == 1 {
			return nil
		}

		get := func(i int) string {
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			return strings.TrimSpace(c.Value)
		}
		if get(colWarehouse) == "" && get(colProduct) == "" && get(colQuantity) == "" {
			return nil
		}

		row := ReceiptRow{Line: line}
		row.Request, row.Err = parseReceiptRow(get, fmt.Sprintf("%s:%d", defaultRef, line))
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt rows: %w", err)
	}

	return rows, nil
}

func parseReceiptRow(get func(int) string, defaultRef string) (domain.MovementRequest, error) {
	warehouseID, err := parseWholeNumber(get(colWarehouse))
	if err != nil {
		return domain.MovementRequest{}, fmt.Errorf("%w: warehouse_id: %v", domain.ErrInvalidMovement, err)
	}
	productID, err := parseWholeNumber(get(colProduct))
	if err != nil {
		return domain.MovementRequest{}, fmt.Errorf("%w: product_id: %v", domain.ErrInvalidMovement, err)
	}
	quantity, err := parseWholeNumber(get(colQuantity))
	if err != nil {
		return domain.MovementRequest{}, fmt.Errorf("%w: quantity: %v", domain.ErrInvalidMovement, err)
	}

	ref := get(colReference)
	if ref == "" {
		ref = defaultRef
	}
	if len(ref) > domain.MaxReferenceLength {
		ref = ref[:domain.MaxReferenceLength]
	}

	req := domain.MovementRequest{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Kind:        domain.MovementIn,
		Quantity:    quantity,
		Reference:   ref,
	}
	return req, req.Validate()
}

// parseWholeNumber accepts "12" and spreadsheet floats such as "12.0"
func parseWholeNumber(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("missing value")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int64(f), nil
}
