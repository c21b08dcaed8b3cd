// internal/handlers/audit_test.go
package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/internal/handlers/middleware"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func int64p(v int64) *int64 { return &v }

func newAuditMux(ctrl *gomock.Controller) (http.Handler, *mocks.MockAuditTrailService, *mocks.MockTaskEnqueuer) {
	audit := mocks.NewMockAuditTrailService(ctrl)
	enqueuer := mocks.NewMockTaskEnqueuer(ctrl)
	mux := http.NewServeMux()
	handlers.Routes{Audit: handlers.NewAuditHandler(audit, enqueuer, helpers.TestLogger())}.Register(mux)
	return middleware.Principal("X-User-ID")(mux), audit, enqueuer
}

func TestAuditHandler_History(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		query          string
		setupMocks     func(*mocks.MockAuditTrailService)
		expectedStatus int
	}{
		{
			name:  "filters_are_passed_through",
			query: "?warehouse_id=1&product_id=7&from=2026-01-01&to=2026-01-31T12:00:00Z&limit=20",
			setupMocks: func(m *mocks.MockAuditTrailService) {
				m.EXPECT().History(gomock.Any(), domain.AuditFilter{
					WarehouseID: int64p(1),
					ProductID:   int64p(7),
					From:        &from,
					To:          &to,
					Limit:       20,
				}).Return([]domain.AuditRecord{
					{ID: 9, Action: domain.AuditUpdate, Principal: "alice", WarehouseID: int64p(1), ProductID: int64p(7)},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "no_filter",
			setupMocks: func(m *mocks.MockAuditTrailService) {
				m.EXPECT().History(gomock.Any(), domain.AuditFilter{}).Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "inverted_range",
			query:          "?from=2026-02-01&to=2026-01-01",
			setupMocks:     func(*mocks.MockAuditTrailService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad_time",
			query:          "?from=yesterday",
			setupMocks:     func(*mocks.MockAuditTrailService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad_warehouse",
			query:          "?warehouse_id=-1",
			setupMocks:     func(*mocks.MockAuditTrailService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			h, audit, _ := newAuditMux(ctrl)
			tt.setupMocks(audit)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/audit"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp handlers.AuditHistoryResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.NotNil(t, resp.Records)
				assert.Equal(t, len(resp.Records), resp.Count)
			}
		})
	}
}

func TestAuditHandler_Download(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, audit, _ := newAuditMux(ctrl)

	audit.EXPECT().History(gomock.Any(), domain.AuditFilter{WarehouseID: int64p(1), Limit: workers.MaxExportRecords}).
		Return([]domain.AuditRecord{
			{ID: 1, OccurredAt: time.Now(), Principal: "bob", Action: domain.AuditInsert, WarehouseID: int64p(1), ProductID: int64p(2), NewStock: int64p(4)},
		}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/audit/export?warehouse_id=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, workers.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "audit_export_")

	file, err := xlsx.OpenBinary(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, file.Sheets[0].MaxRow)
}

func TestAuditHandler_Export(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, _, enqueuer := newAuditMux(ctrl)

	var payload workers.AuditExportPayload
	enqueuer.EXPECT().EnqueueContext(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
			assert.Equal(t, workers.TypeAuditExport, task.Type())
			require.NoError(t, json.Unmarshal(task.Payload(), &payload))
			return &asynq.TaskInfo{ID: payload.JobID}, nil
		})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/audit/export?product_id=7&from=2026-01-01", nil)
	req.Header.Set("X-User-ID", "dave")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp handlers.JobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, payload.JobID, resp.JobID)
	assert.Equal(t, "/api/v1/jobs/low/"+resp.JobID, resp.StatusURL)
	assert.Equal(t, "dave", payload.RequestedBy)
	assert.Equal(t, int64p(7), payload.ProductID)
	assert.Nil(t, payload.WarehouseID)
	require.NotNil(t, payload.From)
}

func TestAuditHandler_Export_QueueUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, _, enqueuer := newAuditMux(ctrl)

	enqueuer.EXPECT().EnqueueContext(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, context.DeadlineExceeded)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/audit/export", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", decodeError(t, w.Body.Bytes()).Code)
}
