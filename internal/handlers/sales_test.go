// internal/handlers/sales_test.go
package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/internal/handlers/middleware"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func newSalesMux(ctrl *gomock.Controller) (http.Handler, *mocks.MockSalePosterService) {
	poster := mocks.NewMockSalePosterService(ctrl)
	mux := http.NewServeMux()
	handlers.Routes{Sales: handlers.NewSalesHandler(poster, helpers.TestLogger())}.Register(mux)
	return middleware.Chain(mux, middleware.RequestID("X-Request-ID"), middleware.Principal("X-User-ID")), poster
}

func TestSalesHandler_PostSale(t *testing.T) {
	saleID := uuid.New()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockSalePosterService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "posts_sale",
			body: `{"client_id":1,"warehouse_id":1,"lines":[{"product_id":2,"quantity":3},{"product_id":1,"quantity":1}]}`,
			setupMocks: func(m *mocks.MockSalePosterService) {
				m.EXPECT().PostSale(gomock.Any(), domain.SaleRequest{
					ClientID:    1,
					WarehouseID: 1,
					Lines: []domain.SaleLineRequest{
						{ProductID: 2, Quantity: 3},
						{ProductID: 1, Quantity: 1},
					},
				}).Return(&domain.Sale{
					ID:       saleID,
					ClientID: 1,
					Total:    decimal.RequireFromString("41.50"),
					Status:   domain.SaleOpen,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "no_lines",
			body:           `{"client_id":1,"lines":[]}`,
			setupMocks:     func(*mocks.MockSalePosterService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_sale_request",
		},
		{
			name:           "non_positive_quantity",
			body:           `{"client_id":1,"lines":[{"product_id":1,"quantity":0}]}`,
			setupMocks:     func(*mocks.MockSalePosterService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_sale_request",
		},
		{
			name: "duplicate_product",
			body: `{"client_id":1,"lines":[{"product_id":1,"quantity":1},{"product_id":1,"quantity":2}]}`,
			setupMocks: func(m *mocks.MockSalePosterService) {
				m.EXPECT().PostSale(gomock.Any(), gomock.Any()).Return(nil, &domain.LineError{
					Index: 1, ProductID: 1, Kind: domain.ErrDuplicateLineItem, Reason: "product already requested on line 0",
				})
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "duplicate_line_item",
		},
		{
			name: "inactive_product",
			body: `{"client_id":1,"lines":[{"product_id":6,"quantity":1}]}`,
			setupMocks: func(m *mocks.MockSalePosterService) {
				m.EXPECT().PostSale(gomock.Any(), gomock.Any()).Return(nil, &domain.ProductError{ProductID: 6})
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "unknown_or_inactive_product",
		},
		{
			name: "insufficient_stock",
			body: `{"client_id":1,"lines":[{"product_id":1,"quantity":7}]}`,
			setupMocks: func(m *mocks.MockSalePosterService) {
				m.EXPECT().PostSale(gomock.Any(), gomock.Any()).
					Return(nil, &domain.StockError{WarehouseID: 1, ProductID: 1, Current: 3, Delta: -7})
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "insufficient_stock",
		},
		{
			name: "retries_exhausted",
			body: `{"client_id":1,"lines":[{"product_id":1,"quantity":1}]}`,
			setupMocks: func(m *mocks.MockSalePosterService) {
				m.EXPECT().PostSale(gomock.Any(), gomock.Any()).Return(nil, domain.ErrConcurrentModification)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   "concurrent_modification",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			h, poster := newSalesMux(ctrl)
			tt.setupMocks(poster)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(tt.body))
			req.Header.Set("X-Request-ID", "req-1")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				resp := decodeError(t, w.Body.Bytes())
				assert.Equal(t, tt.expectedCode, resp.Code)
				assert.Equal(t, "req-1", resp.RequestID)
				return
			}

			assert.Equal(t, "/api/v1/sales/"+saleID.String(), w.Header().Get("Location"))
			var sale domain.Sale
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sale))
			assert.Equal(t, saleID, sale.ID)
			assert.Equal(t, domain.SaleOpen, sale.Status)
		})
	}
}

func TestSalesHandler_Transitions(t *testing.T) {
	saleID := uuid.New()

	tests := []struct {
		name           string
		method         string
		path           string
		setupMocks     func(*mocks.MockSalePosterService)
		expectedStatus int
	}{
		{
			name:   "get_sale",
			method: http.MethodGet,
			path:   "/api/v1/sales/" + saleID.String(),
			setupMocks: func(m *mocks.MockSalePosterService) {
				m.EXPECT().GetSale(gomock.Any(), saleID).Return(&domain.Sale{ID: saleID, Status: domain.SaleOpen}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "unknown_sale",
			method: http.MethodGet,
			path:   "/api/v1/sales/" + saleID.String(),
			setupMocks: func(m *mocks.MockSalePosterService) {
				m.EXPECT().GetSale(gomock.Any(), saleID).Return(nil, domain.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "malformed_id",
			method:         http.MethodGet,
			path:           "/api/v1/sales/42",
			setupMocks:     func(*mocks.MockSalePosterService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "finalize_open_sale",
			method: http.MethodPost,
			path:   "/api/v1/sales/" + saleID.String() + "/finalize",
			setupMocks: func(m *mocks.MockSalePosterService) {
				m.EXPECT().FinalizeSale(gomock.Any(), saleID).Return(&domain.Sale{ID: saleID, Status: domain.SaleFinalized}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "cancel_finalized_sale",
			method: http.MethodPost,
			path:   "/api/v1/sales/" + saleID.String() + "/cancel",
			setupMocks: func(m *mocks.MockSalePosterService) {
				m.EXPECT().CancelSale(gomock.Any(), saleID).
					Return(nil, &domain.TransitionError{From: domain.SaleFinalized, To: domain.SaleCancelled})
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "method_not_allowed",
			method:         http.MethodDelete,
			path:           "/api/v1/sales/" + saleID.String(),
			setupMocks:     func(*mocks.MockSalePosterService) {},
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			h, poster := newSalesMux(ctrl)
			tt.setupMocks(poster)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestSalesHandler_PrincipalReachesService(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, poster := newSalesMux(ctrl)

	var got string
	poster.EXPECT().GetSale(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
			got = services.PrincipalFromContext(ctx)
			return &domain.Sale{ID: id}, nil
		})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/"+uuid.NewString(), nil)
	req.Header.Set("X-User-ID", "carol")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "carol", got)
}
