// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

const (
	TypeLowStockAlert = "ledger:lowstock_alert"
	TypeLowStockScan  = "ledger:lowstock_scan"
	TypeReconcile     = "ledger:reconcile"
	TypeAuditExport   = "ledger:audit_export"
	TypeReceiptImport = "ledger:receipt_import"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// LowStockAlertPayload is one pair that reached its reorder threshold
type LowStockAlertPayload struct {
	WarehouseID      int64     `json:"warehouse_id"`
	ProductID        int64     `json:"product_id"`
	Stock            int64     `json:"stock"`
	ReorderThreshold int64     `json:"reorder_threshold"`
	DetectedAt       time.Time `json:"detected_at"`
}

// AuditExportPayload selects the audit records to export
type AuditExportPayload struct {
	JobID       string     `json:"job_id"`
	WarehouseID *int64     `json:"warehouse_id,omitempty"`
	ProductID   *int64     `json:"product_id,omitempty"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty"`
}

// Filter converts the payload into an audit filter
func (p AuditExportPayload) Filter() domain.AuditFilter {
	return domain.AuditFilter{
		WarehouseID: p.WarehouseID,
		ProductID:   p.ProductID,
		From:        p.From,
		To:          p.To,
		Limit:       MaxExportRecords,
	}
}

// ReceiptImportPayload points at an uploaded receipt workbook
type ReceiptImportPayload struct {
	JobID       string `json:"job_id"`
	ObjectKey   string `json:"object_key"`
	FileName    string `json:"file_name,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// NewLowStockAlertTask creates the alert task for pair. The task id is derived from
// the pair so a pair has at most one pending alert.
func NewLowStockAlertTask(pair domain.LowStockPair, at time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(LowStockAlertPayload{
		WarehouseID:      pair.WarehouseID,
		ProductID:        pair.ProductID,
		Stock:            pair.Stock,
		ReorderThreshold: pair.ReorderThreshold,
		DetectedAt:       at.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal low stock alert: %w", err)
	}
	return asynq.NewTask(TypeLowStockAlert, payload,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
		asynq.TaskID(fmt.Sprintf("lowstock-alert:%d:%d", pair.WarehouseID, pair.ProductID)),
	), nil
}

// NewLowStockScanTask creates the periodic full scan task
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TypeLowStockScan, nil,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	)
}

// NewReconcileTask creates the ledger replay task
func NewReconcileTask() *asynq.Task {
	return asynq.NewTask(TypeReconcile, nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Hour),
	)
}

// NewAuditExportTask creates an audit export task
func NewAuditExportTask(p AuditExportPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit export: %w", err)
	}
	return asynq.NewTask(TypeAuditExport, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(3),
		asynq.Timeout(15*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

// NewReceiptImportTask creates a receipt import task
func NewReceiptImportTask(p ReceiptImportPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt import: %w", err)
	}
	return asynq.NewTask(TypeReceiptImport, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

// PeriodicRegistrar is satisfied by *asynq.Scheduler
type PeriodicRegistrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// RegisterPeriodicTasks schedules the low-stock scan and the reconciliation.
// An empty cron spec leaves that job unscheduled.
func RegisterPeriodicTasks(s PeriodicRegistrar, scanCron, reconcileCron string) error {
	jobs := []struct {
		spec string
		task *asynq.Task
	}{
		{scanCron, NewLowStockScanTask()},
		{reconcileCron, NewReconcileTask()},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.Register(job.spec, job.task); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.task.Type(), err)
		}
	}
	return nil
}

// Processors groups the task handlers served by the worker
type Processors struct {
	Alerts    *LowStockProcessor
	Reconcile *ReconcileProcessor
	Export    *AuditExporter
	Import    *ReceiptImporter
}

// NewServeMux routes every ledger task type to its processor
func NewServeMux(p Processors) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(taskContext)

	mux.HandleFunc(TypeLowStockAlert, p.Alerts.HandleAlert)
	mux.HandleFunc(TypeLowStockScan, p.Alerts.HandleScan)
	mux.HandleFunc(TypeReconcile, p.Reconcile.HandleReconcile)
	mux.HandleFunc(TypeAuditExport, p.Export.HandleExport)
	mux.HandleFunc(TypeReceiptImport, p.Import.HandleImport)

	return mux
}

func taskContext(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		id, _ := asynq.GetTaskID(ctx)
		return next.ProcessTask(logger.WithTask(ctx, t.Type(), id), t)
	})
}

func writeResult(t *asynq.Task, v any) {
	w := t.ResultWriter()
	if w == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_, _ = w.Write(data)
	}
}
