// internal/workers/audit_export.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// XLSXContentType is the media type of generated workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MaxExportRecords bounds a single audit export
const MaxExportRecords = 10000

var auditHeaders = []string{
	"ID", "Occurred At", "Principal", "Host", "Action",
	"Warehouse", "Product", "Old Stock", "New Stock", "Old Threshold", "New Threshold",
}

// BuildAuditWorkbook renders audit records as a single-sheet workbook
func BuildAuditWorkbook(records []domain.AuditRecord) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Audit")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range auditHeaders {
		cell := header.AddCell()
		cell.Value = h
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for _, rec := range records {
		row := sheet.AddRow()
		row.AddCell().SetInt64(rec.ID)
		row.AddCell().SetString(rec.OccurredAt.UTC().Format(time.RFC3339))
		row.AddCell().SetString(rec.Principal)
		row.AddCell().SetString(rec.Host)
		row.AddCell().SetString(string(rec.Action))
		for _, v := range []*int64{
			rec.WarehouseID, rec.ProductID,
			rec.OldStock, rec.NewStock,
			rec.OldThreshold, rec.NewThreshold,
		} {
			cell := row.AddCell()
			if v != nil {
				cell.SetInt64(*v)
			}
		}
	}

	for i := range auditHeaders {
		sheet.SetColWidth(i+1, i+1, 15)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportResult is written as the task result of an audit export
type ExportResult struct {
	JobID    string `json:"job_id"`
	Records  int    `json:"records"`
	Key      string `json:"key"`
	Location string `json:"location"`
}

// AuditExporter writes audit workbooks to object storage
type AuditExporter struct {
	audit   ports.AuditTrailService
	storage ports.ObjectStorage
	prefix  string
	now     func() time.Time
	logger  *slog.Logger
}

// NewAuditExporter creates the exporter; objects are stored under prefix
func NewAuditExporter(audit ports.AuditTrailService, storage ports.ObjectStorage, prefix string, logger *slog.Logger) *AuditExporter {
	return &AuditExporter{
		audit:   audit,
		storage: storage,
		prefix:  prefix,
		now:     time.Now,
		logger:  logger.With(slog.String("processor", "audit_export")),
	}
}

// HandleExport is the asynq entry point for audit exports
func (e *AuditExporter) HandleExport(ctx context.Context, t *asynq.Task) error {
	var payload AuditExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	result, err := e.Export(ctx, payload)
	if err != nil {
		return err
	}
	writeResult(t, result)
	return nil
}

// Export renders the requested audit records and uploads the workbook
func (e *AuditExporter) Export(ctx context.Context, payload AuditExportPayload) (*ExportResult, error) {
	if payload.RequestedBy != "" {
		ctx = logger.WithPrincipal(ctx, payload.RequestedBy)
	}

	e.logger.InfoContext(ctx, "exporting audit records", slog.String("job_id", payload.JobID))

	records, err := e.audit.History(ctx, payload.Filter())
	if errors.Is(err, domain.ErrInvalidAuditFilter) {
		return nil, fmt.Errorf("failed to export audit records: %w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load audit records: %w", err)
	}

	data, err := BuildAuditWorkbook(records)
	if err != nil {
		return nil, err
	}

	key := path.Join(e.prefix, e.now().UTC().Format("2006/01/02"), payload.JobID+".xlsx")
	location, err := e.storage.Upload(ctx, key, bytes.NewReader(data), XLSXContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store audit export: %w", err)
	}

	e.logger.InfoContext(ctx, "audit export completed",
		slog.String("job_id", payload.JobID),
		slog.Int("records", len(records)),
		slog.String("location", location))

	if len(records) == MaxExportRecords {
		e.logger.WarnContext(ctx, "audit export truncated, narrow the time range",
			slog.String("job_id", payload.JobID),
			slog.Int("limit", MaxExportRecords))
	}

	return &ExportResult{
		JobID:    payload.JobID,
		Records:  len(records),
		Key:      key,
		Location: location,
	}, nil
}
