// internal/handlers/routes.go
package handlers

import "net/http"

const apiV1 = "/api/v1"

// Routes groups the handlers served by the API. Nil handlers are not mounted.
type Routes struct {
	Ledger *LedgerHandler
	Sales  *SalesHandler
	Audit  *AuditHandler
	Import *ImportHandler
	Jobs   *JobsHandler
	Health *HealthHandler
}

// Register mounts every route on mux using method-specific patterns
func (rt Routes) Register(mux *http.ServeMux) {
	if h := rt.Health; h != nil {
		mux.HandleFunc("GET /health", h.Health)
		mux.HandleFunc("GET /ready", h.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", h.Health)
	}

	if h := rt.Ledger; h != nil {
		pair := apiV1 + "/warehouses/{warehouseId}/products/{productId}"
		mux.HandleFunc("POST "+apiV1+"/movements", h.ApplyMovement)
		mux.HandleFunc("GET "+pair+"/stock", h.CurrentStock)
		mux.HandleFunc("PUT "+pair+"/threshold", h.SetThreshold)
		mux.HandleFunc("GET "+pair+"/movements", h.Movements)
		mux.HandleFunc("GET "+pair+"/reconcile", h.Reconcile)
		mux.HandleFunc("GET "+apiV1+"/inventory/low-stock", h.LowStock)
	}

	if h := rt.Sales; h != nil {
		mux.HandleFunc("POST "+apiV1+"/sales", h.PostSale)
		mux.HandleFunc("GET "+apiV1+"/sales/{id}", h.GetSale)
		mux.HandleFunc("POST "+apiV1+"/sales/{id}/finalize", h.FinalizeSale)
		mux.HandleFunc("POST "+apiV1+"/sales/{id}/cancel", h.CancelSale)
	}

	if h := rt.Audit; h != nil {
		mux.HandleFunc("GET "+apiV1+"/audit", h.History)
		mux.HandleFunc("GET "+apiV1+"/audit/export", h.Download)
		mux.HandleFunc("POST "+apiV1+"/audit/export", h.Export)
	}

	if h := rt.Import; h != nil {
		mux.HandleFunc("POST "+apiV1+"/import/receipts", h.ImportReceipts)
	}

	if h := rt.Jobs; h != nil {
		mux.HandleFunc("GET "+apiV1+"/jobs/{queue}/{id}", h.Status)
	}
}
