package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
)

func TestNewLowStockAlertTask(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	task, err := workers.NewLowStockAlertTask(domain.LowStockPair{
		WarehouseID: 2, ProductID: 9, Stock: 1, ReorderThreshold: 5,
	}, at)
	require.NoError(t, err)

	assert.Equal(t, workers.TypeLowStockAlert, task.Type())

	var payload workers.LowStockAlertPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(2), payload.WarehouseID)
	assert.Equal(t, int64(9), payload.ProductID)
	assert.Equal(t, int64(1), payload.Stock)
	assert.Equal(t, int64(5), payload.ReorderThreshold)
	assert.Equal(t, time.UTC, payload.DetectedAt.Location())
	assert.True(t, at.Equal(payload.DetectedAt))
}

func TestAuditExportPayload_Filter(t *testing.T) {
	wh := int64(3)
	from := time.Now().Add(-time.Hour)
	f := workers.AuditExportPayload{JobID: "j", WarehouseID: &wh, From: &from}.Filter()

	assert.Equal(t, &wh, f.WarehouseID)
	assert.Nil(t, f.ProductID)
	assert.Equal(t, &from, f.From)
	assert.Equal(t, workers.MaxExportRecords, f.Limit)
}

type fakeRegistrar struct {
	specs []string
	types []string
	err   error
}

func (f *fakeRegistrar) Register(spec string, task *asynq.Task, _ ...asynq.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.specs = append(f.specs, spec)
	f.types = append(f.types, task.Type())
	return "entry", nil
}

func TestRegisterPeriodicTasks(t *testing.T) {
	tests := []struct {
		name      string
		scan      string
		reconcile string
		err       error
		wantTypes []string
		wantErr   bool
	}{
		{
			name:      "both_scheduled",
			scan:      "*/15 * * * *",
			reconcile: "0 3 * * *",
			wantTypes: []string{workers.TypeLowStockScan, workers.TypeReconcile},
		},
		{
			name:      "empty_spec_skips_job",
			scan:      "*/15 * * * *",
			wantTypes: []string{workers.TypeLowStockScan},
		},
		{
			name:    "register_failure",
			scan:    "*/15 * * * *",
			err:     errors.New("bad spec"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &fakeRegistrar{err: tt.err}
			err := workers.RegisterPeriodicTasks(reg, tt.scan, tt.reconcile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTypes, reg.types)
		})
	}
}

func TestNewServeMux_RoutesTasks(t *testing.T) {
	rec := &fakeReconciler{checked: 4}
	mux := workers.NewServeMux(workers.Processors{
		Reconcile: workers.NewReconcileProcessor(rec, 50, helpers.TestLogger()),
	})

	require.NoError(t, mux.ProcessTask(context.Background(), workers.NewReconcileTask()))
	assert.Equal(t, 50, rec.pageSize)

	err := mux.ProcessTask(context.Background(), asynq.NewTask("ledger:unknown", nil))
	assert.Error(t, err)
}
